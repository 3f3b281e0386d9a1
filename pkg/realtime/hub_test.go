package realtime_test

import (
	"testing"

	"aprendo-backend/pkg/realtime"

	"github.com/stretchr/testify/assert"
)

func TestPublishReachesOnlyTargetUser(t *testing.T) {
	hub := realtime.NewHub()
	alice := hub.Subscribe(1)
	bob := hub.Subscribe(2)
	defer alice.Close()
	defer bob.Close()

	hub.Publish(1, realtime.Event{Type: "ping"})

	select {
	case event := <-alice.Events:
		assert.Equal(t, "ping", event.Type)
	default:
		t.Fatal("alice should receive the event")
	}
	select {
	case <-bob.Events:
		t.Fatal("bob must not receive alice's event")
	default:
	}
}

func TestPublishWithoutSubscribersIsNoOp(t *testing.T) {
	hub := realtime.NewHub()
	hub.Publish(42, realtime.Event{Type: "ping"})
	assert.Zero(t, hub.SubscriberCount(42))
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	hub := realtime.NewHub()
	sub := hub.Subscribe(1)
	defer sub.Close()

	// Overflow the buffer: Publish must never block.
	for i := 0; i < 100; i++ {
		hub.Publish(1, realtime.Event{Type: "tick"})
	}
	assert.Equal(t, cap(sub.Events), len(sub.Events))
}

func TestCloseDetachesSubscription(t *testing.T) {
	hub := realtime.NewHub()
	sub := hub.Subscribe(7)
	assert.Equal(t, 1, hub.SubscriberCount(7))

	sub.Close()
	assert.Zero(t, hub.SubscriberCount(7))

	_, open := <-sub.Events
	assert.False(t, open, "channel closes with the subscription")

	// Double close is safe.
	sub.Close()
}
