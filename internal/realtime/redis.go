package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/erazemk/pokestock/internal/model"
)

// DefaultChannel is the Redis pub/sub channel shared by all instances.
const DefaultChannel = "pokestock:changes"

// envelope tags an event with the instance that published it so the
// publisher can skip its own echo.
type envelope struct {
	Instance string            `json:"instance"`
	Event    model.ChangeEvent `json:"event"`
}

// RedisBridge relays change events between instances over Redis pub/sub.
type RedisBridge struct {
	client   *redis.Client
	hub      *Hub
	channel  string
	instance string
}

// NewRedisBridge creates a bridge for hub and registers it as a forwarder.
func NewRedisBridge(client *redis.Client, hub *Hub, channel string) *RedisBridge {
	if channel == "" {
		channel = DefaultChannel
	}
	b := &RedisBridge{
		client:   client,
		hub:      hub,
		channel:  channel,
		instance: uuid.NewString(),
	}
	hub.AddForwarder(b)
	return b
}

// Forward publishes a locally originated event to the other instances.
func (b *RedisBridge) Forward(ctx context.Context, ev model.ChangeEvent) error {
	payload, err := json.Marshal(envelope{Instance: b.instance, Event: ev})
	if err != nil {
		return fmt.Errorf("encoding change event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publishing change event: %w", err)
	}
	return nil
}

// Run delivers events published by other instances until ctx is cancelled.
func (b *RedisBridge) Run(ctx context.Context) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	// Wait for the subscription to be confirmed before reporting ready.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to %s: %w", b.channel, err)
	}
	slog.Info("realtime bridge subscribed", "channel", b.channel, "instance", b.instance)

	msgs := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				slog.Warn("dropping malformed change event", "error", err)
				continue
			}
			if env.Instance == b.instance {
				continue
			}
			b.hub.Deliver(env.Event)
		}
	}
}
