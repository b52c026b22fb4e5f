package realtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/pokestock/internal/model"
)

func receive(t *testing.T, s *Subscription) model.ChangeEvent {
	t.Helper()
	select {
	case ev, ok := <-s.Events():
		require.True(t, ok, "subscription closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return model.ChangeEvent{}
	}
}

func TestPublishReachesOnlyOwner(t *testing.T) {
	hub := NewHub()
	ash := hub.Subscribe(1)
	defer ash.Close()
	gary := hub.Subscribe(2)
	defer gary.Close()

	hub.Publish(context.Background(), NewEvent(model.EventInsert, 1, 10))

	ev := receive(t, ash)
	assert.Equal(t, model.EventInsert, ev.Type)
	assert.Equal(t, int64(10), ev.CardID)
	assert.NotEmpty(t, ev.ID)

	select {
	case ev := <-gary.Events():
		t.Fatalf("unexpected event for other owner: %+v", ev)
	default:
	}
}

func TestCloseUnsubscribes(t *testing.T) {
	hub := NewHub()
	s := hub.Subscribe(1)
	assert.Equal(t, 1, hub.Subscribers(1))

	s.Close()
	s.Close()
	assert.Equal(t, 0, hub.Subscribers(1))

	_, ok := <-s.Events()
	assert.False(t, ok, "expected closed channel")

	// Publishing after close must not panic.
	hub.Publish(context.Background(), NewEvent(model.EventDelete, 1, 1))
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub()
	s := hub.Subscribe(1)
	defer s.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			hub.Publish(context.Background(), NewEvent(model.EventUpdate, 1, int64(i)))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	assert.Len(t, s.Events(), subscriberBuffer)
}

type recordingForwarder struct {
	events []model.ChangeEvent
	err    error
}

func (f *recordingForwarder) Forward(_ context.Context, ev model.ChangeEvent) error {
	f.events = append(f.events, ev)
	return f.err
}

func TestForwarders(t *testing.T) {
	hub := NewHub()
	ok := &recordingForwarder{}
	failing := &recordingForwarder{err: errors.New("down")}
	hub.AddForwarder(failing)
	hub.AddForwarder(ok)

	hub.Publish(context.Background(), NewEvent(model.EventInsert, 1, 1))
	hub.Deliver(NewEvent(model.EventInsert, 1, 2))

	// Remote deliveries are not forwarded again.
	require.Len(t, ok.events, 1)
	assert.Equal(t, int64(1), ok.events[0].CardID)
	assert.Len(t, failing.events, 1)
}
