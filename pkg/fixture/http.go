package fixture

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/teslashibe/lightnav/internal/httpc"
	"github.com/teslashibe/lightnav/pkg/fixes"
)

// DefaultTimeout bounds every console request.
const DefaultTimeout = 2 * time.Second

// HTTPController implements Controller against a console bridge's REST API.
// Fixes are kept in a fixes.Store rather than on the console.
type HTTPController struct {
	BaseURL string

	client  *http.Client
	store   fixes.Store
	timeout time.Duration
}

// NewHTTPController creates a controller for the bridge at baseURL.
// A nil store keeps fixes in memory.
func NewHTTPController(baseURL string, timeout time.Duration, store fixes.Store) *HTTPController {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if store == nil {
		store = fixes.NewMemoryStore()
	}
	return &HTTPController{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  httpc.NewClient(timeout),
		store:   store,
		timeout: timeout,
	}
}

// rangeResponse is the bridge's range payload: {"pan":[min,max],"tilt":[min,max]}
type rangeResponse struct {
	Pan  [2]float64 `json:"pan"`
	Tilt [2]float64 `json:"tilt"`
}

type moveRequest struct {
	Current float64 `json:"current"`
	Delta   float64 `json:"delta"`
	Degrees bool    `json:"degrees"`
}

// ListFixtures returns the patched channels.
func (c *HTTPController) ListFixtures() ([]int, error) {
	var channels []int
	if err := httpc.GetJSON(c.client, c.BaseURL+"/api/fixtures", &channels); err != nil {
		return nil, fmt.Errorf("list fixtures: %w", err)
	}
	return channels, nil
}

// SetIntensity sets the channel's intensity (0-100).
func (c *HTTPController) SetIntensity(channel int, level float64) error {
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	payload := map[string]float64{"level": level}
	if err := httpc.PostJSON(c.client, c.fixtureURL(channel, "intensity"), payload); err != nil {
		return fmt.Errorf("set intensity ch%d: %w", channel, err)
	}
	return nil
}

// SetPan moves pan by delta from current.
func (c *HTTPController) SetPan(channel int, current, delta float64, useDegrees bool) error {
	return c.move(channel, "pan", current, delta, useDegrees)
}

// SetTilt moves tilt by delta from current.
func (c *HTTPController) SetTilt(channel int, current, delta float64, useDegrees bool) error {
	return c.move(channel, "tilt", current, delta, useDegrees)
}

func (c *HTTPController) move(channel int, axis string, current, delta float64, useDegrees bool) error {
	req := moveRequest{Current: current, Delta: delta, Degrees: useDegrees}
	if err := httpc.PostJSON(c.client, c.fixtureURL(channel, axis), req); err != nil {
		return fmt.Errorf("set %s ch%d: %w", axis, channel, err)
	}
	return nil
}

// PanRange returns the pan travel of channel.
func (c *HTTPController) PanRange(channel int) (Range, error) {
	r, err := c.ranges(channel)
	if err != nil {
		return Range{}, err
	}
	return Range{Min: r.Pan[0], Max: r.Pan[1]}, nil
}

// TiltRange returns the tilt travel of channel.
func (c *HTTPController) TiltRange(channel int) (Range, error) {
	r, err := c.ranges(channel)
	if err != nil {
		return Range{}, err
	}
	return Range{Min: r.Tilt[0], Max: r.Tilt[1]}, nil
}

func (c *HTTPController) ranges(channel int) (rangeResponse, error) {
	var r rangeResponse
	if err := httpc.GetJSON(c.client, c.fixtureURL(channel, "range"), &r); err != nil {
		return rangeResponse{}, fmt.Errorf("get range ch%d: %w", channel, err)
	}
	return r, nil
}

// SetSensorData publishes a fix to the store.
func (c *HTTPController) SetSensorData(fix Fix) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	return c.store.Put(ctx, fix)
}

// SensorData reads a published fix back.
func (c *HTTPController) SensorData(channel int, sensorID string) (Fix, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	return c.store.Get(ctx, channel, sensorID)
}

// Store returns the fix store backing the result sink.
func (c *HTTPController) Store() fixes.Store {
	return c.store
}

func (c *HTTPController) fixtureURL(channel int, leaf string) string {
	return fmt.Sprintf("%s/api/fixtures/%d/%s", c.BaseURL, channel, leaf)
}
