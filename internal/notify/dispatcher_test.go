package notify

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/huddle/backend/internal/metrics"
	"github.com/zfogg/huddle/backend/internal/models"
	"github.com/zfogg/huddle/backend/internal/push"
	"github.com/zfogg/huddle/backend/internal/util"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// recordingLiveNotifier captures socket deliveries
type recordingLiveNotifier struct {
	mu    sync.Mutex
	calls []*models.Notification
}

func (r *recordingLiveNotifier) NotifyUser(userID string, n *models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, n)
}

func (r *recordingLiveNotifier) notifications() []*models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.Notification(nil), r.calls...)
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.MembershipRequest{},
		&models.Message{},
		&models.GroupReport{},
		&models.Notification{},
	)
	require.NoError(t, err)
	return db
}

// drainDispatcher runs queued sends to completion
func drainDispatcher(d *Dispatcher) {
	d.Start()
	d.Stop()
}

func TestUserTopic(t *testing.T) {
	assert.Equal(t, "user_abc123", UserTopic("abc123"))
}

func TestNotifyNewMessage(t *testing.T) {
	db := setupTestDB(t)
	gateway := push.NewMockGateway()
	d := NewDispatcher(db, gateway, 8)

	group := &models.Group{ID: "g1", CreatorID: "u1", Name: "Pickup Soccer"}
	msg := &models.Message{ID: "m1", GroupID: "g1", AuthorName: "alice", Content: "see you at the field"}

	d.NotifyNewMessage(group, msg)
	drainDispatcher(d)

	calls := gateway.GetCallsForMethod("SendToTopic")
	require.Len(t, calls, 1)
	assert.Equal(t, "group_g1", calls[0].Args[0])
	assert.Equal(t, "Pickup Soccer", calls[0].Args[1])
	assert.Equal(t, "alice: see you at the field", calls[0].Args[2])

	data := calls[0].Args[3].(map[string]string)
	assert.Equal(t, "g1", data["group_id"])
	assert.Equal(t, "m1", data["message_id"])
}

func TestNotifyNewMessageTruncatesBody(t *testing.T) {
	db := setupTestDB(t)
	gateway := push.NewMockGateway()
	d := NewDispatcher(db, gateway, 8)

	group := &models.Group{ID: "g1", CreatorID: "u1", Name: "Pickup Soccer"}
	msg := &models.Message{
		ID:         "m1",
		GroupID:    "g1",
		AuthorName: "alice",
		Content:    strings.Repeat("long ", 40),
	}

	d.NotifyNewMessage(group, msg)
	drainDispatcher(d)

	calls := gateway.GetCallsForMethod("SendToTopic")
	require.Len(t, calls, 1)
	body := calls[0].Args[2].(string)
	assert.True(t, strings.HasSuffix(body, "..."))
	assert.Len(t, []rune(body), util.PushBodyLimit+3)
}

func TestNotifyNewMessageGatewayFailureSwallowed(t *testing.T) {
	db := setupTestDB(t)
	gateway := push.NewMockGateway()
	gateway.DefaultError = errors.New("gateway down")
	d := NewDispatcher(db, gateway, 8)

	group := &models.Group{ID: "g1", CreatorID: "u1", Name: "Pickup Soccer"}
	msg := &models.Message{ID: "m1", GroupID: "g1", AuthorName: "alice", Content: "hi"}

	// Must not panic or surface the error
	d.NotifyNewMessage(group, msg)
	drainDispatcher(d)

	assert.True(t, gateway.AssertCalled("SendToTopic"))
}

func TestNotifyGroupReported(t *testing.T) {
	db := setupTestDB(t)
	gateway := push.NewMockGateway()
	d := NewDispatcher(db, gateway, 8)

	organizer := &models.User{ID: "org1", Email: "org@test.com", Username: "org", DisplayName: "Org"}
	require.NoError(t, db.Create(organizer).Error)

	group := &models.Group{ID: "g1", CreatorID: organizer.ID, Name: "Pickup Soccer"}
	report := &models.GroupReport{ID: "r1", GroupID: "g1", ReporterID: "u2", Reason: models.ReportReasonSpam}

	require.NoError(t, d.NotifyGroupReported(group, report))

	// The durable row is written synchronously, before any push happens
	var notification models.Notification
	require.NoError(t, db.First(&notification, "user_id = ?", organizer.ID).Error)
	assert.Equal(t, models.NotificationTypeGroupReported, notification.Type)
	assert.Equal(t, "g1", notification.Data["group_id"])
	assert.Equal(t, "r1", notification.Data["report_id"])
	assert.False(t, notification.IsRead)

	drainDispatcher(d)

	calls := gateway.GetCallsForMethod("SendToTopic")
	require.Len(t, calls, 1)
	assert.Equal(t, UserTopic(organizer.ID), calls[0].Args[0])
}

func TestNotifyGroupReportedSurvivesGatewayFailure(t *testing.T) {
	db := setupTestDB(t)
	gateway := push.NewMockGateway()
	gateway.DefaultError = errors.New("gateway down")
	d := NewDispatcher(db, gateway, 8)

	group := &models.Group{ID: "g1", CreatorID: "org1", Name: "Pickup Soccer"}
	report := &models.GroupReport{ID: "r1", GroupID: "g1", ReporterID: "u2", Reason: models.ReportReasonSpam}

	// The gateway being down must not fail the operation
	require.NoError(t, d.NotifyGroupReported(group, report))
	drainDispatcher(d)

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestNotifyRequestDecided(t *testing.T) {
	db := setupTestDB(t)
	gateway := push.NewMockGateway()
	d := NewDispatcher(db, gateway, 8)

	group := &models.Group{ID: "g1", CreatorID: "org1", Name: "Pickup Soccer"}
	request := &models.MembershipRequest{ID: "req1", GroupID: "g1", UserID: "u2"}

	require.NoError(t, d.NotifyRequestDecided(group, request, true))

	var notification models.Notification
	require.NoError(t, db.First(&notification, "user_id = ?", "u2").Error)
	assert.Equal(t, models.NotificationTypeRequestApproved, notification.Type)

	require.NoError(t, d.NotifyRequestDecided(group, request, false))

	var declined models.Notification
	require.NoError(t, db.First(&declined, "user_id = ? AND type = ?", "u2", models.NotificationTypeRequestDeclined).Error)
	assert.Contains(t, declined.Body, "declined")

	drainDispatcher(d)
	assert.Len(t, gateway.GetCallsForMethod("SendToTopic"), 2)
}

func TestLiveNotifierReceivesDurableNotifications(t *testing.T) {
	db := setupTestDB(t)
	gateway := push.NewMockGateway()
	d := NewDispatcher(db, gateway, 8)

	live := &recordingLiveNotifier{}
	d.SetLiveNotifier(live)

	group := &models.Group{ID: "g1", CreatorID: "org1", Name: "Pickup Soccer"}
	report := &models.GroupReport{ID: "r1", GroupID: "g1", ReporterID: "u2", Reason: models.ReportReasonSpam}
	require.NoError(t, d.NotifyGroupReported(group, report))

	request := &models.MembershipRequest{ID: "req1", GroupID: "g1", UserID: "u2"}
	require.NoError(t, d.NotifyRequestDecided(group, request, true))

	// Socket delivery is synchronous with the row write, no draining needed
	delivered := live.notifications()
	require.Len(t, delivered, 2)
	assert.Equal(t, "org1", delivered[0].UserID)
	assert.Equal(t, models.NotificationTypeGroupReported, delivered[0].Type)
	assert.NotEmpty(t, delivered[0].ID)
	assert.Equal(t, "u2", delivered[1].UserID)
	assert.Equal(t, models.NotificationTypeRequestApproved, delivered[1].Type)
}

func TestDispatcherDropsWhenQueueFull(t *testing.T) {
	db := setupTestDB(t)
	gateway := push.NewMockGateway()
	d := NewDispatcher(db, gateway, 1)

	group := &models.Group{ID: "g1", CreatorID: "u1", Name: "Pickup Soccer"}
	msg := &models.Message{ID: "m1", GroupID: "g1", AuthorName: "alice", Content: "hi"}

	// The worker is not started, so the second send finds the queue full
	droppedBefore := testutil.ToFloat64(metrics.Get().PushDroppedTotal)
	d.NotifyNewMessage(group, msg)
	d.NotifyNewMessage(group, msg)
	assert.Equal(t, droppedBefore+1, testutil.ToFloat64(metrics.Get().PushDroppedTotal))

	drainDispatcher(d)
	assert.Len(t, gateway.GetCallsForMethod("SendToTopic"), 1)
}

func TestDispatcherStopIdempotent(t *testing.T) {
	db := setupTestDB(t)
	d := NewDispatcher(db, push.NewMockGateway(), 8)
	d.Start()
	d.Stop()
	d.Stop()
}
