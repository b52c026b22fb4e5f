package realtime

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/pokestock/internal/model"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisBridgeRelaysBetweenHubs(t *testing.T) {
	client := getRedisClient(t)
	channel := "pokestock:test:" + t.Name()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hubA, hubB := NewHub(), NewHub()
	bridgeA := NewRedisBridge(client, hubA, channel)
	bridgeB := NewRedisBridge(client, hubB, channel)
	go bridgeA.Run(ctx)
	go bridgeB.Run(ctx)

	subA := hubA.Subscribe(1)
	defer subA.Close()
	subB := hubB.Subscribe(1)
	defer subB.Close()

	// Give both subscriptions time to register with Redis.
	require.Eventually(t, func() bool {
		n, err := client.PubSubNumSub(ctx, channel).Result()
		return err == nil && n[channel] == 2
	}, 2*time.Second, 20*time.Millisecond)

	hubA.Publish(ctx, NewEvent(model.EventInsert, 1, 42))

	local := receive(t, subA)
	remote := receive(t, subB)
	assert.Equal(t, local.ID, remote.ID)
	assert.Equal(t, int64(42), remote.CardID)

	// The publisher must not see its own echo.
	select {
	case ev := <-subA.Events():
		t.Fatalf("unexpected echo: %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}
