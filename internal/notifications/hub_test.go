package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_RegisterAndBroadcast(t *testing.T) {
	hub := NewHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()

	a, err := hub.Register(1, nil)
	require.NoError(t, err)
	b, err := hub.Register(1, nil)
	require.NoError(t, err)
	other, err := hub.Register(2, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, hub.Broadcast(1, []byte("hello")))
	assert.Equal(t, "hello", string(<-a.Send))
	assert.Equal(t, "hello", string(<-b.Send))
	assert.Len(t, other.Send, 0)

	assert.Equal(t, 0, hub.Broadcast(99, []byte("nobody")))
}

func TestHub_PerUserLimit(t *testing.T) {
	hub := NewHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()

	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(3, nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(3, nil)
	assert.ErrorIs(t, err, ErrConnectionLimit)

	_, err = hub.Register(4, nil)
	assert.NoError(t, err)
}

func TestHub_UnregisterIsIdempotent(t *testing.T) {
	hub := NewHub()

	c, err := hub.Register(8, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, hub.Connections(8))

	hub.UnregisterClient(c)
	hub.UnregisterClient(c)
	assert.Equal(t, 0, hub.Connections(8))

	_, ok := <-c.Send
	assert.False(t, ok, "send channel should be closed")
	assert.False(t, c.TrySend([]byte("late")))
}

func TestHub_TrySendDropsWhenFull(t *testing.T) {
	hub := NewHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()

	c, err := hub.Register(9, nil)
	require.NoError(t, err)
	for i := 0; i < cap(c.Send); i++ {
		require.True(t, c.TrySend([]byte("x")))
	}
	assert.False(t, c.TrySend([]byte("overflow")))
}

func TestHub_ShutdownRejectsNewClients(t *testing.T) {
	hub := NewHub()
	_, err := hub.Register(1, nil)
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))
	require.NoError(t, hub.Shutdown(context.Background()))
	assert.Equal(t, 0, hub.Connections(1))

	_, err = hub.Register(1, nil)
	assert.Error(t, err)
}

func TestHub_StartWiringForwardsPublishedEvents(t *testing.T) {
	rdb := newTestRedis(t)
	n := NewNotifier(rdb)
	hub := NewHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, hub.StartWiring(ctx, n))

	c, err := hub.Register(21, nil)
	require.NoError(t, err)

	require.NoError(t, n.Publish(ctx, 21, Event{Type: EventNewFollower, ActorID: 4}))

	select {
	case msg := <-c.Send:
		assert.Contains(t, string(msg), `"type":"new_follower"`)
		assert.Contains(t, string(msg), `"actorId":4`)
	case <-time.After(time.Second):
		t.Fatal("event was not forwarded to the connection")
	}
}

func TestHub_ShutdownClosesStreamsWithGoingAway(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(5, nil)
	require.NoError(t, err)
	require.True(t, c.TrySend([]byte("queued")))

	require.NoError(t, hub.Shutdown(context.Background()))

	assert.Equal(t, "queued", string(<-c.Send), "buffered events drain before the close")
	_, ok := <-c.Send
	assert.False(t, ok)
	assert.Equal(t, 1001, c.closeCode)
	assert.False(t, c.TrySend([]byte("late")))
	assert.False(t, c.closeSend(1000, ""), "second close is a no-op")
}
