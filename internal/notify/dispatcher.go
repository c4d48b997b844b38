package notify

import (
	"fmt"
	"sync"

	"github.com/zfogg/huddle/backend/internal/logger"
	"github.com/zfogg/huddle/backend/internal/metrics"
	"github.com/zfogg/huddle/backend/internal/models"
	"github.com/zfogg/huddle/backend/internal/push"
	"github.com/zfogg/huddle/backend/internal/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserTopic returns the per-user push topic. Devices subscribe to their
// owner's topic at registration so direct notifications (report alerts,
// join decisions) reach only that user.
func UserTopic(userID string) string {
	return "user_" + userID
}

// LiveNotifier delivers a durable notification to a user's open connections.
// The websocket handler implements it.
type LiveNotifier interface {
	NotifyUser(userID string, n *models.Notification)
}

// Dispatcher translates domain events into push-gateway sends, durable
// in-app notification rows, and live socket delivery.
//
// Push delivery is best-effort: sends run on a background worker fed by a
// bounded queue, failures are logged and never propagated, and there is no
// retry. Durable notification rows are written synchronously so they survive
// regardless of gateway health.
type Dispatcher struct {
	db      *gorm.DB
	gateway push.GatewayInterface
	live    LiveNotifier

	queue chan func()
	wg    sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once
}

// NewDispatcher creates a dispatcher with the given queue capacity.
// A capacity of 0 uses the default of 256.
func NewDispatcher(db *gorm.DB, gateway push.GatewayInterface, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Dispatcher{
		db:      db,
		gateway: gateway,
		queue:   make(chan func(), queueSize),
	}
}

// SetLiveNotifier wires socket delivery for durable notifications.
// Without one, users see their notifications on the next fetch.
func (d *Dispatcher) SetLiveNotifier(live LiveNotifier) {
	d.live = live
}

// Start launches the background send worker
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for job := range d.queue {
				job()
			}
		}()
	})
}

// Stop closes the queue and waits for in-flight sends to finish.
// Safe to call more than once.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}

// enqueue hands a send to the worker. A full queue drops the send: pushes
// are best-effort and must never block the request path.
func (d *Dispatcher) enqueue(job func()) {
	select {
	case d.queue <- job:
	default:
		metrics.Get().PushDroppedTotal.Inc()
		logger.Warn("push queue full, dropping notification")
	}
}

// NotifyNewMessage pushes a chat message to the group's topic.
// Bodies are truncated for lock-screen display.
func (d *Dispatcher) NotifyNewMessage(group *models.Group, msg *models.Message) {
	topic := group.Topic()
	title := group.Name
	body := util.TruncatePushBody(msg.AuthorName + ": " + msg.Content)
	data := map[string]string{
		"type":       string(models.NotificationTypeNewMessage),
		"group_id":   group.ID,
		"message_id": msg.ID,
	}

	d.enqueue(func() {
		if err := d.gateway.SendToTopic(topic, title, body, data); err != nil {
			logger.Warn("push send failed",
				zap.String("topic", topic),
				zap.Error(err),
			)
		}
	})
}

// NotifyGroupReported records a durable notification for the group's
// organizer and pushes an alert to their personal topic. The row write is
// synchronous; only the push is fire-and-forget.
func (d *Dispatcher) NotifyGroupReported(group *models.Group, report *models.GroupReport) error {
	title := "Group reported"
	body := fmt.Sprintf("%s was reported for %s", group.Name, report.Reason)

	notification := models.Notification{
		UserID: group.CreatorID,
		Type:   models.NotificationTypeGroupReported,
		Title:  title,
		Body:   body,
		Data: map[string]string{
			"group_id":  group.ID,
			"report_id": report.ID,
		},
	}
	if err := d.db.Create(&notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	d.notifyLive(&notification)

	d.pushToUser(group.CreatorID, title, util.TruncatePushBody(body), map[string]string{
		"type":            string(models.NotificationTypeGroupReported),
		"group_id":        group.ID,
		"report_id":       report.ID,
		"notification_id": notification.ID,
	})

	return nil
}

// NotifyRequestDecided records a durable notification for the requester and
// pushes the decision to their personal topic.
func (d *Dispatcher) NotifyRequestDecided(group *models.Group, request *models.MembershipRequest, approved bool) error {
	notifType := models.NotificationTypeRequestApproved
	title := "Request approved"
	body := fmt.Sprintf("You joined %s", group.Name)
	if !approved {
		notifType = models.NotificationTypeRequestDeclined
		title = "Request declined"
		body = fmt.Sprintf("Your request to join %s was declined", group.Name)
	}

	notification := models.Notification{
		UserID: request.UserID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Data: map[string]string{
			"group_id":   group.ID,
			"request_id": request.ID,
		},
	}
	if err := d.db.Create(&notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	d.notifyLive(&notification)

	d.pushToUser(request.UserID, title, util.TruncatePushBody(body), map[string]string{
		"type":            string(notifType),
		"group_id":        group.ID,
		"request_id":      request.ID,
		"notification_id": notification.ID,
	})

	return nil
}

// notifyLive hands a freshly written notification to the socket layer
func (d *Dispatcher) notifyLive(n *models.Notification) {
	if d.live != nil {
		d.live.NotifyUser(n.UserID, n)
	}
}

// pushToUser enqueues a best-effort send to a user's personal topic
func (d *Dispatcher) pushToUser(userID, title, body string, data map[string]string) {
	topic := UserTopic(userID)
	d.enqueue(func() {
		if err := d.gateway.SendToTopic(topic, title, body, data); err != nil {
			logger.Warn("push send failed",
				zap.String("topic", topic),
				zap.Error(err),
			)
		}
	})
}
