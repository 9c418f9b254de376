package sse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, c *Client) string {
	t.Helper()
	select {
	case msg, ok := <-c.Events:
		require.True(t, ok, "channel closed")
		return string(msg)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return ""
}

func TestBroadcastReachesClients(t *testing.T) {
	h := NewHub()
	go h.Run()
	defer h.Close()

	c := NewClient()
	h.Register(c)
	h.Broadcast("scene", []byte(`{"text":"HI"}`))

	assert.Equal(t, "event: scene\ndata: {\"text\":\"HI\"}\n\n", receive(t, c))
	assert.Equal(t, 1, h.Count())
	assert.NotEmpty(t, c.ID)
}

func TestLateClientGetsLastOfEachEvent(t *testing.T) {
	h := NewHub()
	go h.Run()
	defer h.Close()

	h.Broadcast("scene", []byte("1"))
	h.Broadcast("presets", []byte("p"))
	h.Broadcast("scene", []byte("2"))

	assert.Eventually(t, func() bool {
		h.mu.RLock()
		defer h.mu.RUnlock()
		return string(h.last["scene"]) == "event: scene\ndata: 2\n\n" && len(h.order) == 2
	}, 2*time.Second, 5*time.Millisecond)

	early := NewClient()
	h.Register(early)
	assert.Equal(t, "event: scene\ndata: 2\n\n", receive(t, early))
	assert.Equal(t, "event: presets\ndata: p\n\n", receive(t, early))
}

func TestUnregisterClosesChannel(t *testing.T) {
	h := NewHub()
	go h.Run()
	defer h.Close()

	c := NewClient()
	h.Register(c)
	h.Unregister(c)

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-c.Events:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestCloseIsIdempotent(t *testing.T) {
	h := NewHub()
	go h.Run()
	h.Close()
	h.Close()
	h.Broadcast("scene", nil)
	h.Register(NewClient())
}
