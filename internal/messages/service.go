package messages

import (
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/zfogg/huddle/backend/internal/errors"
	"github.com/zfogg/huddle/backend/internal/metrics"
	"github.com/zfogg/huddle/backend/internal/models"
	"gorm.io/gorm"
)

// ReportThreshold is the number of distinct reporters that flips a visible
// message to the reported status.
const ReportThreshold = 3

// Service implements group chat: posting, listing, moderation, reporting,
// deletion, and live subscriptions. All operations are scoped to a group.
type Service struct {
	db       *gorm.DB
	registry *subscriptionRegistry
}

// NewService creates a message service
func NewService(db *gorm.DB) *Service {
	return &Service{
		db:       db,
		registry: newSubscriptionRegistry(),
	}
}

// loadGroup fetches a group or returns NOT_FOUND
func (s *Service) loadGroup(groupID string) (*models.Group, error) {
	var group models.Group
	err := s.db.Where("id = ?", groupID).First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("group")
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &group, nil
}

// loadMessage fetches a message within a group or returns NOT_FOUND
func (s *Service) loadMessage(groupID, messageID string) (*models.Message, error) {
	var msg models.Message
	err := s.db.Where("id = ? AND group_id = ?", messageID, groupID).First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("message")
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &msg, nil
}

// isMember reports whether userID is an approved member of the group
func (s *Service) isMember(groupID, userID string) (bool, error) {
	var count int64
	err := s.db.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("database error: %w", err)
	}
	return count > 0, nil
}

// Create posts a new message to a group's chat. The author must be the
// organizer or an approved member. Author display data is denormalized at
// write time.
func (s *Service) Create(groupID string, author *models.User, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.ValidationError("content", "message content is required")
	}

	group, err := s.loadGroup(groupID)
	if err != nil {
		return nil, err
	}

	isOrganizer := group.CreatorID == author.ID
	if !isOrganizer {
		member, err := s.isMember(groupID, author.ID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, apperrors.Forbidden("only group members can post messages")
		}
	}

	msg := models.Message{
		GroupID:      groupID,
		AuthorID:     author.ID,
		AuthorName:   author.DisplayName,
		AuthorAvatar: author.AvatarURL,
		Content:      content,
		Status:       models.MessageStatusVisible,
		IsOrganizer:  isOrganizer,
	}

	if err := s.db.Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	s.publishSnapshot(groupID)
	return &msg, nil
}

// List returns the group's chat newest first. Hidden messages are excluded;
// reported messages remain listed until the organizer acts on them.
func (s *Service) List(groupID string) ([]models.Message, error) {
	if _, err := s.loadGroup(groupID); err != nil {
		return nil, err
	}

	var msgs []models.Message
	err := s.db.
		Where("group_id = ? AND status <> ?", groupID, models.MessageStatusHidden).
		Order("created_at DESC").
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return msgs, nil
}

// Moderate hides or shows a message. Only the group's organizer may
// moderate, regardless of who authored the message. An explicit moderation
// action always overrides the automatic reported status.
func (s *Service) Moderate(groupID, messageID string, actor *models.User, hide bool) (*models.Message, error) {
	group, err := s.loadGroup(groupID)
	if err != nil {
		return nil, err
	}
	if group.CreatorID != actor.ID {
		return nil, apperrors.Forbidden("only the organizer can moderate messages")
	}

	msg, err := s.loadMessage(groupID, messageID)
	if err != nil {
		return nil, err
	}

	status := models.MessageStatusVisible
	if hide {
		status = models.MessageStatusHidden
	}

	err = s.db.Model(&models.Message{}).
		Where("id = ?", msg.ID).
		Update("status", status).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update message: %w", err)
	}
	msg.Status = status

	s.publishSnapshot(groupID)
	return msg, nil
}

// Report files a report against a message. A reporter may report a given
// message only once. The third distinct report automatically flips a
// visible message to reported; messages the organizer has already hidden
// or restored after review keep their moderated status.
func (s *Service) Report(groupID, messageID string, reporter *models.User, reason models.ReportReason, description string) (*models.MessageReport, error) {
	if !models.ValidReportReason(reason) {
		return nil, apperrors.ValidationError("reason", "invalid report reason")
	}

	if _, err := s.loadGroup(groupID); err != nil {
		return nil, err
	}
	msg, err := s.loadMessage(groupID, messageID)
	if err != nil {
		return nil, err
	}

	var existing int64
	err = s.db.Model(&models.MessageReport{}).
		Where("message_id = ? AND reporter_id = ?", msg.ID, reporter.ID).
		Count(&existing).Error
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if existing > 0 {
		return nil, apperrors.DuplicateReport()
	}

	report := models.MessageReport{
		MessageID:    msg.ID,
		ReporterID:   reporter.ID,
		ReporterName: reporter.DisplayName,
		Reason:       reason,
		Description:  description,
	}
	if err := s.db.Create(&report).Error; err != nil {
		// The unique index on (message_id, reporter_id) closes the window
		// between the count above and this insert.
		if isDuplicateKeyError(err) {
			return nil, apperrors.DuplicateReport()
		}
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	var total int64
	err = s.db.Model(&models.MessageReport{}).
		Where("message_id = ?", msg.ID).
		Count(&total).Error
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	if total == ReportThreshold {
		// Only the threshold-crossing report can auto-flip, and the guarded
		// update flips only a currently-visible message. A message the
		// organizer has hidden, or restored after review, keeps its
		// moderated status.
		res := s.db.Model(&models.Message{}).
			Where("id = ? AND status = ?", msg.ID, models.MessageStatusVisible).
			Update("status", models.MessageStatusReported)
		if res.Error != nil {
			return nil, fmt.Errorf("failed to update message status: %w", res.Error)
		}
		if res.RowsAffected == 1 {
			metrics.Get().AutoReportedTotal.Inc()
		}
	}

	s.publishSnapshot(groupID)
	return &report, nil
}

// Delete permanently removes a message and its reports. Allowed for the
// message's author and the group's organizer. This is a hard delete; the
// message cannot be restored.
func (s *Service) Delete(groupID, messageID string, actor *models.User) error {
	group, err := s.loadGroup(groupID)
	if err != nil {
		return err
	}
	msg, err := s.loadMessage(groupID, messageID)
	if err != nil {
		return err
	}

	if msg.AuthorID != actor.ID && group.CreatorID != actor.ID {
		return apperrors.Forbidden("only the author or the organizer can delete a message")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", msg.ID).Delete(&models.MessageReport{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Message{}, "id = ?", msg.ID).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	s.publishSnapshot(groupID)
	return nil
}

// Subscribe registers fn for live updates of a group's chat. fn receives the
// current snapshot immediately and a fully recomputed snapshot after every
// change. The returned subscription's Cancel is idempotent.
func (s *Service) Subscribe(groupID string, fn SnapshotFunc) (*Subscription, error) {
	if _, err := s.loadGroup(groupID); err != nil {
		return nil, err
	}

	sub := s.registry.add(groupID, fn)

	if snapshot, err := s.List(groupID); err == nil {
		fn(snapshot)
	}

	return sub, nil
}

// publishSnapshot recomputes the group's visible chat and delivers it to
// every live subscriber
func (s *Service) publishSnapshot(groupID string) {
	if !s.registry.hasSubscribers(groupID) {
		return
	}
	snapshot, err := s.List(groupID)
	if err != nil {
		return
	}
	s.registry.publish(groupID, snapshot)
}

// isDuplicateKeyError detects unique-constraint violations across the
// postgres and sqlite drivers
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
