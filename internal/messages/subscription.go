package messages

import (
	"sync"

	"github.com/zfogg/huddle/backend/internal/models"
)

// SnapshotFunc receives a full recomputed chat snapshot, newest first
type SnapshotFunc func(snapshot []models.Message)

// Subscription is a live chat subscription handle
type Subscription struct {
	groupID  string
	fn       SnapshotFunc
	registry *subscriptionRegistry
	once     sync.Once
}

// Cancel detaches the subscription. Safe to call any number of times;
// calls after the first are no-ops.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.registry.remove(s.groupID, s)
	})
}

// subscriptionRegistry tracks live subscribers per group
type subscriptionRegistry struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
}

func newSubscriptionRegistry() *subscriptionRegistry {
	return &subscriptionRegistry{
		subs: make(map[string]map[*Subscription]struct{}),
	}
}

func (r *subscriptionRegistry) add(groupID string, fn SnapshotFunc) *Subscription {
	sub := &Subscription{
		groupID:  groupID,
		fn:       fn,
		registry: r,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.subs[groupID] == nil {
		r.subs[groupID] = make(map[*Subscription]struct{})
	}
	r.subs[groupID][sub] = struct{}{}
	return sub
}

func (r *subscriptionRegistry) remove(groupID string, sub *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if group, ok := r.subs[groupID]; ok {
		delete(group, sub)
		if len(group) == 0 {
			delete(r.subs, groupID)
		}
	}
}

func (r *subscriptionRegistry) hasSubscribers(groupID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs[groupID]) > 0
}

// publish delivers a snapshot to every subscriber of the group
func (r *subscriptionRegistry) publish(groupID string, snapshot []models.Message) {
	r.mu.RLock()
	targets := make([]SnapshotFunc, 0, len(r.subs[groupID]))
	for sub := range r.subs[groupID] {
		targets = append(targets, sub.fn)
	}
	r.mu.RUnlock()

	for _, fn := range targets {
		fn(snapshot)
	}
}
