// Package sim provides a simulated lighting rig: moving heads on a console
// and photo-sensors that respond to their beams.
//
// The beam lags the commanded pan by the same overshoot the correction model
// removes, so a navigator run against the rig recovers each sensor's true
// position.
package sim

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/teslashibe/lightnav/pkg/correction"
	"github.com/teslashibe/lightnav/pkg/fixes"
	"github.com/teslashibe/lightnav/pkg/fixture"
	"github.com/teslashibe/lightnav/pkg/sensor"
)

// DefaultBeamWidth is the beam's gaussian sigma in degrees.
const DefaultBeamWidth = 2.0

// Spot is a sensor's true position in a fixture's pan/tilt space.
type Spot struct {
	Pan  float64 `json:"pan" yaml:"pan"`
	Tilt float64 `json:"tilt" yaml:"tilt"`
}

// head is one simulated moving head.
type head struct {
	pan, tilt fixture.Range
	panPos    float64
	tiltPos   float64
	dir       int
	level     float64
}

// Rig implements fixture.Controller, sensor.Feed and sensor.GUI.
type Rig struct {
	mu        sync.Mutex
	heads     map[int]*head
	sensors   map[string]Spot
	beamWidth float64
	model     correction.Model
	store     fixes.Store
	commands  int
}

var (
	_ fixture.Controller = (*Rig)(nil)
	_ sensor.Feed        = (*Rig)(nil)
	_ sensor.GUI         = (*Rig)(nil)
)

// NewRig creates an empty rig. A nil store keeps fixes in memory.
func NewRig(store fixes.Store) *Rig {
	if store == nil {
		store = fixes.NewMemoryStore()
	}
	return &Rig{
		heads:     make(map[int]*head),
		sensors:   make(map[string]Spot),
		beamWidth: DefaultBeamWidth,
		model:     correction.DefaultModel(),
		store:     store,
	}
}

// AddFixture patches a moving head on channel.
func (r *Rig) AddFixture(channel int, pan, tilt fixture.Range) {
	r.mu.Lock()
	r.heads[channel] = &head{pan: pan, tilt: tilt, dir: 1}
	r.mu.Unlock()
}

// AddSensor places a sensor.
func (r *Rig) AddSensor(id string, at Spot) {
	r.mu.Lock()
	r.sensors[id] = at
	r.mu.Unlock()
}

// SetBeamWidth changes the beam's gaussian sigma.
func (r *Rig) SetBeamWidth(sigma float64) {
	r.mu.Lock()
	r.beamWidth = sigma
	r.mu.Unlock()
}

// SetModel changes the lag the beam exhibits.
func (r *Rig) SetModel(m correction.Model) {
	r.mu.Lock()
	r.model = m
	r.mu.Unlock()
}

// Commands returns how many pan/tilt/intensity commands were accepted.
func (r *Rig) Commands() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.commands
}

// Store returns the fix store backing the result sink.
func (r *Rig) Store() fixes.Store {
	return r.store
}

// ListFixtures returns the patched channels in ascending order.
func (r *Rig) ListFixtures() ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]int, 0, len(r.heads))
	for ch := range r.heads {
		out = append(out, ch)
	}
	sort.Ints(out)
	return out, nil
}

// SetIntensity sets a head's level (0-100).
func (r *Rig) SetIntensity(channel int, level float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, err := r.head(channel)
	if err != nil {
		return err
	}
	h.level = math.Max(0, math.Min(100, level))
	r.commands++
	return nil
}

// SetPan moves pan to current+delta, clamped to the head's range.
func (r *Rig) SetPan(channel int, current, delta float64, _ bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, err := r.head(channel)
	if err != nil {
		return err
	}
	target := h.pan.Clamp(current + delta)
	switch {
	case target > h.panPos:
		h.dir = 1
	case target < h.panPos:
		h.dir = -1
	}
	h.panPos = target
	r.commands++
	return nil
}

// SetTilt moves tilt to current+delta, clamped to the head's range.
func (r *Rig) SetTilt(channel int, current, delta float64, _ bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, err := r.head(channel)
	if err != nil {
		return err
	}
	h.tiltPos = h.tilt.Clamp(current + delta)
	r.commands++
	return nil
}

// PanRange returns the head's pan travel.
func (r *Rig) PanRange(channel int) (fixture.Range, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, err := r.head(channel)
	if err != nil {
		return fixture.Range{}, err
	}
	return h.pan, nil
}

// TiltRange returns the head's tilt travel.
func (r *Rig) TiltRange(channel int) (fixture.Range, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, err := r.head(channel)
	if err != nil {
		return fixture.Range{}, err
	}
	return h.tilt, nil
}

// SetSensorData publishes a fix.
func (r *Rig) SetSensorData(fix fixture.Fix) error {
	return r.store.Put(context.Background(), fix)
}

// SensorData reads a fix back.
func (r *Rig) SensorData(channel int, sensorID string) (fixture.Fix, error) {
	return r.store.Get(context.Background(), channel, sensorID)
}

// Position returns the commanded pan/tilt of channel.
func (r *Rig) Position(channel int) (pan, tilt float64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, err := r.head(channel)
	if err != nil {
		return 0, 0, err
	}
	return h.panPos, h.tiltPos, nil
}

// Snapshot computes every sensor's reading from the lit heads.
func (r *Rig) Snapshot() sensor.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(sensor.Snapshot, len(r.sensors))
	for id, spot := range r.sensors {
		best := 0.0
		for _, h := range r.heads {
			if h.level == 0 {
				continue
			}
			if v := r.response(h, spot); v > best {
				best = v
			}
		}
		out[id] = best
	}
	return out
}

// response is the intensity a sensor at spot sees from h.
func (r *Rig) response(h *head, spot Spot) float64 {
	beamPan := h.panPos - r.model.Overshoot(h.panPos, h.tiltPos, h.dir)
	d := math.Hypot(beamPan-spot.Pan, h.tiltPos-spot.Tilt)
	return h.level * math.Exp(-(d*d)/(2*r.beamWidth*r.beamWidth))
}

// SensorIDs returns the placed sensors in lexical order.
func (r *Rig) SensorIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.sensors))
	for id := range r.sensors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SensorPositions draws each sensor at its true pan (x) and tilt (y).
func (r *Rig) SensorPositions() map[string]sensor.Point {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]sensor.Point, len(r.sensors))
	for id, s := range r.sensors {
		out[id] = sensor.Point{X: s.Pan, Y: s.Tilt}
	}
	return out
}

func (r *Rig) head(channel int) (*head, error) {
	h, ok := r.heads[channel]
	if !ok {
		return nil, fmt.Errorf("no fixture on channel %d", channel)
	}
	return h, nil
}
