// Package realtime fans card change events out to per-owner subscribers.
package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/pokestock/internal/metrics"
	"github.com/erazemk/pokestock/internal/model"
)

// subscriberBuffer is the number of undelivered events a subscriber may lag.
const subscriberBuffer = 16

// Forwarder receives every locally published event, e.g. to relay it to
// other server instances.
type Forwarder interface {
	Forward(ctx context.Context, ev model.ChangeEvent) error
}

// Hub delivers change events to subscribers of the event's owner.
type Hub struct {
	mu         sync.RWMutex
	subs       map[int64]map[*Subscription]struct{}
	forwarders []Forwarder
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int64]map[*Subscription]struct{})}
}

// AddForwarder registers f for all subsequent Publish calls.
func (h *Hub) AddForwarder(f Forwarder) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.forwarders = append(h.forwarders, f)
}

// NewEvent builds a change event stamped with a fresh ID and the current time.
func NewEvent(typ string, ownerID, cardID int64) model.ChangeEvent {
	return model.ChangeEvent{
		ID:      uuid.NewString(),
		Type:    typ,
		OwnerID: ownerID,
		CardID:  cardID,
		At:      time.Now().UTC(),
	}
}

// Publish delivers ev to local subscribers and hands it to the forwarders.
func (h *Hub) Publish(ctx context.Context, ev model.ChangeEvent) {
	h.deliver(ev, "local")

	h.mu.RLock()
	forwarders := h.forwarders
	h.mu.RUnlock()

	for _, f := range forwarders {
		if err := f.Forward(ctx, ev); err != nil {
			slog.Error("failed to forward change event", "event", ev.ID, "error", err)
		}
	}
}

// Deliver hands ev to local subscribers only. Used for events that arrived
// from another instance.
func (h *Hub) Deliver(ev model.ChangeEvent) {
	h.deliver(ev, "remote")
}

func (h *Hub) deliver(ev model.ChangeEvent, source string) {
	metrics.RealtimeEvents.WithLabelValues(source).Inc()

	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.subs[ev.OwnerID] {
		select {
		case s.ch <- ev:
		default:
			metrics.RealtimeDropped.Inc()
		}
	}
}

// Subscribe opens a subscription to ownerID's change events.
// The caller must Close it.
func (h *Hub) Subscribe(ownerID int64) *Subscription {
	s := &Subscription{
		hub:   h,
		owner: ownerID,
		ch:    make(chan model.ChangeEvent, subscriberBuffer),
	}

	h.mu.Lock()
	if h.subs[ownerID] == nil {
		h.subs[ownerID] = make(map[*Subscription]struct{})
	}
	h.subs[ownerID][s] = struct{}{}
	h.mu.Unlock()

	metrics.Subscribers.Inc()
	return s
}

// Subscribers returns the number of open subscriptions for ownerID.
func (h *Hub) Subscribers(ownerID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[ownerID])
}

// Subscription is one listener on an owner's change feed.
type Subscription struct {
	hub   *Hub
	owner int64
	ch    chan model.ChangeEvent
	once  sync.Once
}

// Events returns the delivery channel. It is closed by Close.
func (s *Subscription) Events() <-chan model.ChangeEvent {
	return s.ch
}

// Close detaches the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		delete(h.subs[s.owner], s)
		if len(h.subs[s.owner]) == 0 {
			delete(h.subs, s.owner)
		}
		close(s.ch)
		h.mu.Unlock()

		metrics.Subscribers.Dec()
	})
}
