// Package history records per-fixture, per-sensor scan observations.
//
// A History is keyed by fixture channel, then by sensor id. Each sensor's
// observations are kept in scan order. A channel's log is reset when its scan
// starts and frozen once the scan completes; appends to a frozen channel are
// rejected.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrFrozen is returned when appending to a channel whose scan has finished.
var ErrFrozen = errors.New("channel history is frozen")

// Observation is one sensor sample taken at a commanded fixture position.
type Observation struct {
	Intensity float64 `json:"intensity"`
	Pan       float64 `json:"pan"`
	Tilt      float64 `json:"tilt"`
	Direction int     `json:"direction"` // +1 forward, -1 reverse
}

// History is the observation log for every channel scanned in a run.
// It is safe for concurrent use.
type History struct {
	mu       sync.RWMutex
	channels map[int]map[string][]Observation
	frozen   map[int]bool
}

// New creates an empty history.
func New() *History {
	return &History{
		channels: make(map[int]map[string][]Observation),
		frozen:   make(map[int]bool),
	}
}

// Reset clears the log for channel and seeds empty sequences for sensorIDs.
func (h *History) Reset(channel int, sensorIDs ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sensors := make(map[string][]Observation, len(sensorIDs))
	for _, id := range sensorIDs {
		sensors[id] = []Observation{}
	}
	h.channels[channel] = sensors
	delete(h.frozen, channel)
}

// Append records an observation for sensorID under channel.
func (h *History) Append(channel int, sensorID string, obs Observation) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.frozen[channel] {
		return fmt.Errorf("append to channel %d: %w", channel, ErrFrozen)
	}

	sensors, ok := h.channels[channel]
	if !ok {
		sensors = make(map[string][]Observation)
		h.channels[channel] = sensors
	}
	sensors[sensorID] = append(sensors[sensorID], obs)
	return nil
}

// Freeze marks the channel's scan as complete.
func (h *History) Freeze(channel int) {
	h.mu.Lock()
	h.frozen[channel] = true
	h.mu.Unlock()
}

// Frozen reports whether the channel's scan has completed.
func (h *History) Frozen(channel int) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.frozen[channel]
}

// Channels returns the recorded channels in ascending order.
func (h *History) Channels() []int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]int, 0, len(h.channels))
	for ch := range h.channels {
		out = append(out, ch)
	}
	sort.Ints(out)
	return out
}

// Sensors returns the sensor ids recorded for channel in lexical order.
func (h *History) Sensors(channel int) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]string, 0, len(h.channels[channel]))
	for id := range h.channels[channel] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Observations returns a copy of the sequence recorded for sensorID on channel.
func (h *History) Observations(channel int, sensorID string) []Observation {
	h.mu.RLock()
	defer h.mu.RUnlock()

	src := h.channels[channel][sensorID]
	out := make([]Observation, len(src))
	copy(out, src)
	return out
}

// Len returns the number of observations for sensorID on channel.
func (h *History) Len(channel int, sensorID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel][sensorID])
}

// MarshalJSON writes {"<channel>": {"<sensor>": [observation, ...]}}.
func (h *History) MarshalJSON() ([]byte, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return json.Marshal(h.channels)
}

// UnmarshalJSON replaces the history with the decoded log. Every loaded
// channel is frozen.
func (h *History) UnmarshalJSON(data []byte) error {
	var channels map[int]map[string][]Observation
	if err := json.Unmarshal(data, &channels); err != nil {
		return err
	}
	if channels == nil {
		channels = make(map[int]map[string][]Observation)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.channels = channels
	h.frozen = make(map[int]bool, len(channels))
	for ch := range channels {
		h.frozen[ch] = true
	}
	return nil
}
