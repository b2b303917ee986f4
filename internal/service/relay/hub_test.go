package relay_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/swipe-server/internal/cache"
	"github.com/oggyb/swipe-server/internal/config"
	"github.com/oggyb/swipe-server/internal/logger"
	"github.com/oggyb/swipe-server/internal/service/relay"
)

func setupPresence(t *testing.T) *cache.RedisCache {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	c := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestHub_PublishToUserAndRoom(t *testing.T) {
	hub := relay.NewHub(logger.Discard(), nil)

	a := hub.NewSubscriber(4)
	b := hub.NewSubscriber(4)
	hub.Identify(a, 1)
	hub.Identify(b, 2)
	hub.Join(a, relay.RoomChannel("7"))
	hub.Join(b, relay.RoomChannel("7"))

	hub.PublishToUser(2, "match", map[string]any{"userId": 1})
	ev := <-b.Events()
	assert.Equal(t, "match", ev.Name)
	assert.Equal(t, float64(1), ev.Data["userId"])
	assert.Len(t, a.Events(), 0)

	hub.PublishToRoom("7", "room message", map[string]any{"text": "hi"}, 1)
	assert.Len(t, a.Events(), 0, "sender is excluded")
	ev = <-b.Events()
	assert.Equal(t, "room message", ev.Name)
	assert.Equal(t, "hi", ev.Data["text"])
}

func TestHub_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	hub := relay.NewHub(logger.Discard(), nil)

	sub := hub.NewSubscriber(1)
	hub.Identify(sub, 5)

	assert.Equal(t, 1, hub.Publish(relay.UserChannel(5), "first", nil, nil, 0))
	assert.Equal(t, 0, hub.Publish(relay.UserChannel(5), "second", nil, nil, 0))

	ev := <-sub.Events()
	assert.Equal(t, "first", ev.Name)
}

func TestHub_NonObjectPayloadIsWrapped(t *testing.T) {
	hub := relay.NewHub(logger.Discard(), nil)
	sub := hub.NewSubscriber(1)
	hub.Identify(sub, 3)

	hub.PublishToUser(3, "count", 42)
	ev := <-sub.Events()
	assert.Equal(t, float64(42), ev.Data["value"])
}

func TestHub_RemoveClosesQueueAndTracksPresence(t *testing.T) {
	ctx := context.Background()
	presence := setupPresence(t)
	hub := relay.NewHub(logger.Discard(), presence)

	first := hub.NewSubscriber(1)
	second := hub.NewSubscriber(1)
	hub.Identify(first, 9)
	hub.Identify(second, 9)

	online, err := presence.IsOnline(ctx, 9)
	require.NoError(t, err)
	assert.True(t, online)

	hub.Remove(first)
	_, open := <-first.Events()
	assert.False(t, open)
	assert.False(t, hub.Send(first, "late", nil))

	online, err = presence.IsOnline(ctx, 9)
	require.NoError(t, err)
	assert.True(t, online, "second connection keeps the user online")
	assert.Equal(t, 1, hub.Publish(relay.UserChannel(9), "ping", nil, nil, 0))

	hub.Remove(second)
	hub.Remove(second)
	online, err = presence.IsOnline(ctx, 9)
	require.NoError(t, err)
	assert.False(t, online)
	assert.Zero(t, hub.Publish(relay.UserChannel(9), "ping", nil, nil, 0))
}

func TestFrameRoundTrip(t *testing.T) {
	frame, err := relay.EncodeFrame("typing", map[string]any{"room": "3"})
	require.NoError(t, err)

	event, data := relay.DecodeFrame(frame)
	assert.Equal(t, "typing", event)
	assert.Equal(t, "3", data["room"])
}
