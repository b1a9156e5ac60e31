package sensor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Snapshot
		wantErr bool
	}{
		{"flat", `{"s1": 12.5, "s2": 0}`, Snapshot{"s1": 12.5, "s2": 0}, false},
		{"nested", `{"readings": {"s3": 7}}`, Snapshot{"s3": 7}, false},
		{"string numbers", `{"s1": "42.0"}`, Snapshot{"s1": 42}, false},
		{"empty", `{}`, Snapshot{}, false},
		{"not json", `hello`, nil, true},
		{"bad value", `{"s1": true}`, nil, true},
		{"bad string", `{"s1": "bright"}`, nil, true},
		{"nan string", `{"a": 1, "b": "NaN"}`, nil, true},
		{"inf string", `{"s1": "Inf"}`, nil, true},
		{"negative inf string", `{"readings": {"s1": "-Infinity"}}`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMessage([]byte(tt.in))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// sensorServer pushes msgs to every client then holds the connection open.
func sensorServer(t *testing.T, msgs ...string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, m := range msgs {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		// Wait for the client to go away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWSFeed_StreamsIntoBuffer(t *testing.T) {
	srv := sensorServer(t,
		`{"s1": 1, "s2": 2}`,
		`garbage`,
		`{"readings": {"s1": 30, "s2": 40}}`,
	)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	feed := NewWSFeed(url, 10*time.Millisecond, nil)
	got := make(chan Snapshot, 8)
	feed.OnMessage = func(s Snapshot) { got <- s }

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- feed.Run(ctx) }()

	for i := 0; i < 2; i++ {
		select {
		case <-got:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for sensor messages")
		}
	}

	assert.Equal(t, Snapshot{"s1": 30, "s2": 40}, feed.Snapshot())

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWSFeed_RetriesUntilCancelled(t *testing.T) {
	feed := NewWSFeed("ws://127.0.0.1:1/none", 5*time.Millisecond, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := feed.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, feed.Snapshot())
}
