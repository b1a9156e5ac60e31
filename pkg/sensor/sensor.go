// Package sensor provides access to live photo-sensor readings.
//
// Readings are produced by an acquisition path (a websocket stream, a
// simulator) and consumed by the navigator. Consumers only ever see whole
// snapshots: Feed.Snapshot copies the current reading set under a lock held
// for the copy alone.
package sensor

import (
	"sync"
	"time"
)

// Snapshot maps sensor id to intensity.
type Snapshot map[string]float64

// Feed provides atomic snapshots of the current readings.
type Feed interface {
	Snapshot() Snapshot
}

// Point is a sensor's position on the operator's screen.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GUI is the operator interface that knows which sensors exist and where
// they are drawn.
type GUI interface {
	SensorIDs() []string
	SensorPositions() map[string]Point
}

// Reading is a snapshot entry enriched with its screen position.
type Reading struct {
	Intensity float64 `json:"intensity"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// Enrich joins a snapshot with GUI positions. Sensors without a position
// report (0,0).
func Enrich(s Snapshot, positions map[string]Point) map[string]Reading {
	out := make(map[string]Reading, len(s))
	for id, v := range s {
		p := positions[id]
		out[id] = Reading{Intensity: v, X: p.X, Y: p.Y}
	}
	return out
}

// Buffer holds the latest reading set. Producers call Update or Set; the
// navigator calls Snapshot. It is safe for concurrent use.
type Buffer struct {
	mu      sync.Mutex
	current Snapshot
	updated time.Time
}

// NewBuffer creates an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{current: make(Snapshot)}
}

// Snapshot returns a copy of the current reading set.
func (b *Buffer) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(Snapshot, len(b.current))
	for id, v := range b.current {
		out[id] = v
	}
	return out
}

// Update replaces the whole reading set.
func (b *Buffer) Update(s Snapshot) {
	next := make(Snapshot, len(s))
	for id, v := range s {
		next[id] = v
	}

	b.mu.Lock()
	b.current = next
	b.updated = time.Now()
	b.mu.Unlock()
}

// Set updates a single sensor's reading.
func (b *Buffer) Set(id string, intensity float64) {
	b.mu.Lock()
	b.current[id] = intensity
	b.updated = time.Now()
	b.mu.Unlock()
}

// LastUpdate returns when the buffer last changed.
func (b *Buffer) LastUpdate() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.updated
}

// StaticGUI is a fixed sensor layout, typically loaded from configuration.
type StaticGUI map[string]Point

// SensorIDs returns the configured ids.
func (g StaticGUI) SensorIDs() []string {
	ids := make([]string, 0, len(g))
	for id := range g {
		ids = append(ids, id)
	}
	return ids
}

// SensorPositions returns a copy of the layout.
func (g StaticGUI) SensorPositions() map[string]Point {
	out := make(map[string]Point, len(g))
	for id, p := range g {
		out[id] = p
	}
	return out
}
