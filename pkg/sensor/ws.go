package sensor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/lightnav/internal/log"
)

const (
	// handshakeTimeout bounds the websocket dial.
	handshakeTimeout = 10 * time.Second

	// DefaultReconnect is the pause between reconnect attempts.
	DefaultReconnect = 2 * time.Second
)

// WSFeed streams readings from the sensor acquisition server into a Buffer.
//
// Each text message is either a flat object {"s1": 12.5, "s2": 0} or
// {"readings": {...}}. Numbers may also arrive as strings.
type WSFeed struct {
	url       string
	reconnect time.Duration
	buf       *Buffer
	logger    *slog.Logger

	// OnMessage is invoked after every applied message (optional).
	OnMessage func(Snapshot)
}

// NewWSFeed creates a feed for url. A nil logger discards output.
func NewWSFeed(url string, reconnect time.Duration, logger *slog.Logger) *WSFeed {
	if reconnect <= 0 {
		reconnect = DefaultReconnect
	}
	return &WSFeed{
		url:       url,
		reconnect: reconnect,
		buf:       NewBuffer(),
		logger:    log.OrDiscard(logger).With("component", "sensor_feed"),
	}
}

// Snapshot returns the latest readings.
func (f *WSFeed) Snapshot() Snapshot {
	return f.buf.Snapshot()
}

// Buffer exposes the underlying buffer.
func (f *WSFeed) Buffer() *Buffer {
	return f.buf
}

// Run connects and reads until ctx is done, reconnecting after failures.
func (f *WSFeed) Run(ctx context.Context) error {
	for {
		err := f.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.logger.Warn("sensor stream lost", "url", f.url, "error", err, "retry_in", f.reconnect)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.reconnect):
		}
	}
}

// session runs one connection until it fails or ctx is done.
func (f *WSFeed) session(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("sensor connect failed: %w", err)
	}
	defer conn.Close()
	f.logger.Info("sensor stream connected", "url", f.url)

	// Unblock ReadMessage on cancellation
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if msgType != websocket.TextMessage {
			continue
		}

		snap, err := ParseMessage(data)
		if err != nil {
			f.logger.Debug("dropping malformed sensor message", "error", err)
			continue
		}
		f.buf.Update(snap)
		if f.OnMessage != nil {
			f.OnMessage(snap)
		}
	}
}

// ParseMessage decodes one sensor message.
func ParseMessage(data []byte) (Snapshot, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid sensor message: %w", err)
	}

	if nested, ok := raw["readings"]; ok {
		raw = nil
		if err := json.Unmarshal(nested, &raw); err != nil {
			return nil, fmt.Errorf("invalid readings object: %w", err)
		}
	}

	out := make(Snapshot, len(raw))
	for id, v := range raw {
		val, err := parseNumber(v)
		if err != nil {
			return nil, fmt.Errorf("sensor %s: %w", id, err)
		}
		out[id] = val
	}
	return out, nil
}

func parseNumber(v json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return 0, fmt.Errorf("not a number: %s", string(v))
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %s", s)
	}
	return f, nil
}
