package realtime

import "sync"

// Event is what gets pushed over a user's live channel.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Subscription is one live listener for one user. Events drops messages when
// the buffer is full; the database remains the source of truth.
type Subscription struct {
	UserID uint
	Events chan Event

	hub *Hub
	id  uint64
}

// Close detaches the subscription from the hub and closes its channel.
func (s *Subscription) Close() {
	s.hub.unsubscribe(s)
}

// Hub fans events out to per-user subscribers. Publishing to a user with no
// subscribers is a no-op.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint]map[uint64]*Subscription
	nextID uint64
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint]map[uint64]*Subscription)}
}

// Subscribe registers a listener for one user's events.
func (h *Hub) Subscribe(userID uint) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{
		UserID: userID,
		Events: make(chan Event, 16),
		hub:    h,
		id:     h.nextID,
	}
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[uint64]*Subscription)
	}
	h.subs[userID][sub.id] = sub
	return sub
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userSubs, ok := h.subs[sub.UserID]
	if !ok {
		return
	}
	if _, ok := userSubs[sub.id]; !ok {
		return
	}
	delete(userSubs, sub.id)
	if len(userSubs) == 0 {
		delete(h.subs, sub.UserID)
	}
	close(sub.Events)
}

// Publish delivers an event to every live subscriber of one user without
// blocking. Slow subscribers lose events.
func (h *Hub) Publish(userID uint, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs[userID] {
		select {
		case sub.Events <- event:
		default:
		}
	}
}

// SubscriberCount reports the live subscriptions for one user.
func (h *Hub) SubscriberCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}
