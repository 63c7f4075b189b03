package notifications

import (
	"context"
	"encoding/json"
	"testing"

	"devgram/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := NewHub()

	a, err := hub.Register("alice", nil)
	require.NoError(t, err)
	b, err := hub.Register("alice", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, hub.Connections("alice"))

	hub.UnregisterClient(a)
	hub.UnregisterClient(a)
	assert.Equal(t, 1, hub.Connections("alice"))

	hub.UnregisterClient(b)
	assert.Zero(t, hub.Connections("alice"))
	assert.Zero(t, hub.totalConns)
}

func TestHub_PerUserLimit(t *testing.T) {
	hub := NewHub()
	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register("alice", nil)
		require.NoError(t, err)
	}
	_, err := hub.Register("alice", nil)
	assert.ErrorIs(t, err, ErrUserConnLimit)

	_, err = hub.Register("bob", nil)
	assert.NoError(t, err)
}

func TestHub_ServerLimit(t *testing.T) {
	hub := NewHub()
	hub.totalConns = maxTotalConns

	_, err := hub.Register("alice", nil)
	assert.ErrorIs(t, err, ErrServerConnLimit)
}

func TestHub_DeliverRoutesToRecipient(t *testing.T) {
	hub := NewHub()
	alice, err := hub.Register("alice", nil)
	require.NoError(t, err)
	bob, err := hub.Register("bob", nil)
	require.NoError(t, err)

	n := &models.Notification{ID: "n1", Sender: "bob", Recipient: "alice", Type: models.NotificationLike, Content: models.ContentLiked}
	require.NoError(t, hub.Deliver(n))

	select {
	case data := <-alice.Send:
		frame, got, err := DecodeFrame(data)
		require.NoError(t, err)
		assert.Equal(t, FrameTypeNotification, frame.Type)
		assert.Equal(t, "n1", got.ID)
		assert.Equal(t, models.NotificationLike, got.Type)
	default:
		t.Fatal("alice received nothing")
	}
	assert.Empty(t, bob.Send)
}

func TestClient_TrySendDropsWhenFull(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register("alice", nil)
	require.NoError(t, err)

	for i := 0; i < sendBufferSize; i++ {
		c.TrySend([]byte("x"))
	}
	assert.NotPanics(t, func() { c.TrySend([]byte("overflow")) })
	assert.Len(t, c.Send, sendBufferSize)

	close(c.Send)
	assert.NotPanics(t, func() { c.TrySend([]byte("after close")) })
}

func TestHub_ShutdownClearsConnections(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register("alice", nil)
	require.NoError(t, err)
	c.TrySend([]byte("queued"))

	require.NoError(t, hub.Shutdown(context.Background()))
	assert.Zero(t, hub.Connections("alice"))

	msg, ok := <-c.Send
	assert.True(t, ok)
	assert.Equal(t, []byte("queued"), msg)
	_, ok = <-c.Send
	assert.False(t, ok, "send queue is closed so WritePump sends the close frame")

	assert.NotPanics(t, c.Close)
	assert.NotPanics(t, func() { c.TrySend([]byte("late")) })
}

func TestFrame_Shape(t *testing.T) {
	data, err := EncodeFrame(&models.Notification{ID: "n1", Recipient: "alice", Type: models.NotificationFollow})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "notification", raw["type"])
	payload, ok := raw["payload"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "n1", payload["id"])
	assert.Equal(t, "follow", payload["type"])
}
