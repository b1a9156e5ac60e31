package hub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient registers a connectionless client whose send channel the
// test drains directly.
func newTestClient(h *Hub, buffer int) *Client {
	c := &Client{hub: h, send: make(chan Message, buffer)}
	h.register <- c
	return c
}

func runHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	h := New("test", nil)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.Done()
	})
	return h, cancel
}

func receive(t *testing.T, c *Client) (Message, bool) {
	t.Helper()
	select {
	case m, ok := <-c.send:
		return m, ok
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}, false
	}
}

func TestHub_BroadcastReachesEveryClient(t *testing.T) {
	h, _ := runHub(t)
	a := newTestClient(h, 4)
	b := newTestClient(h, 4)
	assert.Eventually(t, func() bool { return h.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, h.BroadcastEvent("status", map[string]string{"current_phase": "LOCATE"}))

	for _, c := range []*Client{a, b} {
		m, ok := receive(t, c)
		require.True(t, ok)
		var ev struct {
			Type string            `json:"type"`
			Data map[string]string `json:"data"`
		}
		require.NoError(t, json.Unmarshal(m.Data, &ev))
		assert.Equal(t, "status", ev.Type)
		assert.Equal(t, "LOCATE", ev.Data["current_phase"])
	}
}

func TestHub_DropsSlowClient(t *testing.T) {
	h, _ := runHub(t)
	slow := newTestClient(h, 1)

	require.NoError(t, h.BroadcastJSON(1))
	require.NoError(t, h.BroadcastJSON(2))

	assert.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 5*time.Millisecond)

	_, ok := receive(t, slow)
	assert.True(t, ok, "first frame was queued")
	_, ok = receive(t, slow)
	assert.False(t, ok, "send closed after drop")
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	h, _ := runHub(t)
	c := newTestClient(h, 1)
	h.unregister <- c

	_, ok := receive(t, c)
	assert.False(t, ok)
	assert.Equal(t, 0, h.ClientCount())
}

func TestHub_StopClosesClients(t *testing.T) {
	h, cancel := runHub(t)
	c := newTestClient(h, 1)

	cancel()
	<-h.Done()

	_, ok := receive(t, c)
	assert.False(t, ok)
	assert.Equal(t, 0, h.ClientCount())
}

func TestEncodeEvent(t *testing.T) {
	m, err := EncodeEvent("row", map[string]int{"row": 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"row","data":{"row":3}}`, string(m.Data))

	_, err = EncodeEvent("bad", make(chan int))
	assert.Error(t, err)
}
