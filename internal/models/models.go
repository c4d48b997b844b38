package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a Huddle account with native auth
type User struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	Username    string `gorm:"uniqueIndex;not null" json:"username"`
	DisplayName string `gorm:"not null" json:"display_name"`
	Bio         string `gorm:"type:text" json:"bio"`
	City        string `gorm:"type:text" json:"city"`

	PasswordHash *string `gorm:"type:text" json:"-"`
	AvatarURL    string  `json:"avatar_url"`

	// Role
	IsAdmin bool `gorm:"default:false" json:"is_admin"`

	// Activity tracking
	LastActiveAt *time.Time `json:"last_active_at"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Group represents a sports group / event with an organizer and participants.
// The organizer is the user who created the group and holds moderation
// authority over its chat.
type Group struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	CreatorID string `gorm:"not null;index" json:"creator_id"`
	Creator   User   `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`

	Name        string `gorm:"not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Sport       string `json:"sport"`
	Location    string `json:"location"`

	// Scheduling
	StartsAt *time.Time `json:"starts_at,omitempty"`

	// Capacity (0 = unlimited)
	MaxMembers int `gorm:"default:0" json:"max_members"`

	Members []GroupMember `gorm:"foreignKey:GroupID" json:"members,omitempty"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Topic returns the push-notification topic for this group.
// The name is derived, never stored.
func (g *Group) Topic() string {
	return "group_" + g.ID
}

// GroupMember links an approved participant to a group
type GroupMember struct {
	ID      string `gorm:"primaryKey;type:uuid" json:"id"`
	GroupID string `gorm:"not null;index" json:"group_id"`
	Group   Group  `gorm:"foreignKey:GroupID" json:"-"`
	UserID  string `gorm:"not null;index" json:"user_id"`
	User    User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	JoinedAt  time.Time `json:"joined_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (GroupMember) TableName() string {
	return "group_members"
}

// RequestStatus represents the state of a membership request
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusDeclined RequestStatus = "declined"
)

// MembershipRequest is a pending ask-to-join for a group
type MembershipRequest struct {
	ID      string `gorm:"primaryKey;type:uuid" json:"id"`
	GroupID string `gorm:"not null;index" json:"group_id"`
	Group   Group  `gorm:"foreignKey:GroupID" json:"-"`
	UserID  string `gorm:"not null;index" json:"user_id"`
	User    User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Message string        `gorm:"type:text" json:"message"`
	Status  RequestStatus `gorm:"default:pending" json:"status"`

	// Decision
	DecidedByID *string    `gorm:"index" json:"decided_by_id,omitempty"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MessageStatus represents the visibility state of a chat message.
// Transitions: visible<->hidden (organizer), visible->reported (automatic
// on the 3rd distinct report). An explicit organizer action always
// overrides the automatic reported status.
type MessageStatus string

const (
	MessageStatusVisible  MessageStatus = "visible"
	MessageStatusHidden   MessageStatus = "hidden"
	MessageStatusReported MessageStatus = "reported"
)

// Message is a chat message scoped to a group. Author display name and
// avatar are denormalized at write time and not re-synced if the profile
// changes later.
type Message struct {
	ID      string `gorm:"primaryKey;type:uuid" json:"id"`
	GroupID string `gorm:"not null;index" json:"group_id"`
	Group   Group  `gorm:"foreignKey:GroupID" json:"-"`

	AuthorID     string `gorm:"not null;index" json:"author_id"`
	AuthorName   string `gorm:"not null" json:"author_name"`
	AuthorAvatar string `json:"author_avatar"`

	Content string `gorm:"type:text;not null" json:"content"`

	Status MessageStatus `gorm:"default:visible" json:"status"`

	// Was the author the group's organizer at send time
	IsOrganizer bool `gorm:"default:false" json:"is_organizer"`

	Reports []MessageReport `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"reports,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// ReportReason represents the reason for a report
type ReportReason string

const (
	ReportReasonSpam          ReportReason = "spam"
	ReportReasonInappropriate ReportReason = "inappropriate"
	ReportReasonOffensive     ReportReason = "offensive"
	ReportReasonOther         ReportReason = "other"
)

// ValidReportReason reports whether r is one of the accepted reasons
func ValidReportReason(r ReportReason) bool {
	switch r {
	case ReportReasonSpam, ReportReasonInappropriate, ReportReasonOffensive, ReportReasonOther:
		return true
	}
	return false
}

// MessageReport is a single user's report against a message. A reporter
// appears at most once per message (enforced by a unique index).
type MessageReport struct {
	ID        string  `gorm:"primaryKey;type:uuid" json:"id"`
	MessageID string  `gorm:"not null;index" json:"message_id"`
	Message   Message `gorm:"foreignKey:MessageID" json:"-"`

	ReporterID   string `gorm:"not null;index" json:"reporter_id"`
	ReporterName string `json:"reporter_name"`

	Reason      ReportReason `gorm:"not null" json:"reason"`
	Description string       `gorm:"type:text" json:"description"`

	CreatedAt time.Time `json:"created_at"`
}

func (MessageReport) TableName() string {
	return "message_reports"
}

// GroupReport is an abuse report against a group as a whole. It produces a
// durable notification for the group's organizer.
type GroupReport struct {
	ID      string `gorm:"primaryKey;type:uuid" json:"id"`
	GroupID string `gorm:"not null;index" json:"group_id"`
	Group   Group  `gorm:"foreignKey:GroupID" json:"-"`

	ReporterID   string `gorm:"not null;index" json:"reporter_id"`
	ReporterName string `json:"reporter_name"`

	Reason  ReportReason `gorm:"not null" json:"reason"`
	Details string       `gorm:"type:text" json:"details"`

	CreatedAt time.Time `json:"created_at"`
}

func (GroupReport) TableName() string {
	return "group_reports"
}

// NotificationType tags a durable notification for client-side routing
type NotificationType string

const (
	NotificationTypeGroupReported   NotificationType = "group_reported"
	NotificationTypeRequestApproved NotificationType = "request_approved"
	NotificationTypeRequestDeclined NotificationType = "request_declined"
	NotificationTypeNewMessage      NotificationType = "new_message"
)

// Notification is an in-app notification record. Created by the dispatcher,
// mutated (read flag) only by its recipient.
type Notification struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	Type  NotificationType `gorm:"not null" json:"type"`
	Title string           `gorm:"not null" json:"title"`
	Body  string           `gorm:"type:text" json:"body"`

	// Deep-link ids (group_id, message_id, report_id...)
	Data map[string]string `gorm:"type:jsonb;serializer:json" json:"data,omitempty"`

	IsRead bool `gorm:"default:false" json:"is_read"`

	CreatedAt time.Time `json:"created_at"`
}

// DeviceToken stores a push-gateway device token so topic membership can be
// re-established on login. The gateway remains the source of truth for
// topic subscriptions.
type DeviceToken struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	Token    string `gorm:"uniqueIndex;not null" json:"-"`
	Platform string `json:"platform"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (DeviceToken) TableName() string {
	return "device_tokens"
}

// BeforeCreate hooks for GORM

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = generateUUID()
	}
	return nil
}

func (g *Group) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = generateUUID()
	}
	return nil
}

func (m *GroupMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = generateUUID()
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now().UTC()
	}
	return nil
}

func (r *MembershipRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = generateUUID()
	}
	if r.Status == "" {
		r.Status = RequestStatusPending
	}
	return nil
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = generateUUID()
	}
	if m.Status == "" {
		m.Status = MessageStatusVisible
	}
	return nil
}

func (r *MessageReport) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = generateUUID()
	}
	return nil
}

func (r *GroupReport) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = generateUUID()
	}
	return nil
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = generateUUID()
	}
	return nil
}

func (d *DeviceToken) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = generateUUID()
	}
	return nil
}

// Helper function for UUID generation
func generateUUID() string {
	return uuid.New().String()
}
