package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestNotifier_NilRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishUser(context.Background(), 1, "test payload"))
	assert.NoError(t, n.Publish(context.Background(), 2, Event{Type: EventNewFollower, ActorID: 1}))
	assert.NoError(t, n.StartPatternSubscriber(context.Background(), func(string, string) {}))
}

func TestUserChannel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		userID   uint
		expected string
	}{
		{1, "notifications:user:1"},
		{100, "notifications:user:100"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, UserChannel(tt.userID))
	}
}

func TestNotifier_PublishDeliversToRecipient(t *testing.T) {
	rdb := newTestRedis(t)
	n := NewNotifier(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type message struct{ channel, payload string }
	received := make(chan message, 4)
	require.NoError(t, n.StartPatternSubscriber(ctx, func(channel, payload string) {
		received <- message{channel, payload}
	}))

	require.NoError(t, n.Publish(ctx, 7, Event{Type: EventStyleLiked, ActorID: 3, StyleID: 11}))

	select {
	case msg := <-received:
		assert.Equal(t, "notifications:user:7", msg.channel)
		var ev Event
		require.NoError(t, json.Unmarshal([]byte(msg.payload), &ev))
		assert.Equal(t, EventStyleLiked, ev.Type)
		assert.Equal(t, uint(3), ev.ActorID)
		assert.Equal(t, uint(11), ev.StyleID)
		assert.False(t, ev.CreatedAt.IsZero())
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestNotifier_SelfEventsAreDropped(t *testing.T) {
	rdb := newTestRedis(t)
	n := NewNotifier(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan string, 1)
	require.NoError(t, n.StartPatternSubscriber(ctx, func(_ string, payload string) {
		received <- payload
	}))

	require.NoError(t, n.Publish(ctx, 5, Event{Type: EventStyleCommented, ActorID: 5}))
	require.NoError(t, n.Publish(ctx, 0, Event{Type: EventStyleCommented, ActorID: 5}))

	select {
	case payload := <-received:
		t.Fatalf("unexpected delivery: %s", payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestNotifier_SubscriberRecoversFromPanic(t *testing.T) {
	rdb := newTestRedis(t)
	n := NewNotifier(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan string, 2)
	require.NoError(t, n.StartPatternSubscriber(ctx, func(_ string, payload string) {
		calls <- payload
		if payload == "boom" {
			panic("handler failure")
		}
	}))

	require.NoError(t, n.PublishUser(ctx, 1, "boom"))
	require.NoError(t, n.PublishUser(ctx, 1, "after"))

	var got []string
	for len(got) < 2 {
		select {
		case p := <-calls:
			got = append(got, p)
		case <-time.After(time.Second):
			t.Fatalf("subscriber stopped after panic, got %v", got)
		}
	}
	assert.Equal(t, []string{"boom", "after"}, got)
}
