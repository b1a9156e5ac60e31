// Package fixes stores the corrected aim point found for each sensor.
package fixes

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrNotFound is returned when no fix has been published for a sensor.
var ErrNotFound = errors.New("fix not found")

// Fix is the corrected aim of one fixture channel onto one sensor.
type Fix struct {
	Channel   int     `json:"channel"`
	SensorID  string  `json:"sensor_id"`
	Pan       float64 `json:"pan"` // corrected
	Tilt      float64 `json:"tilt"`
	Direction int     `json:"direction"`
	RawPan    float64 `json:"raw_pan"`
	Intensity float64 `json:"intensity"`
}

// Store defines the interface for fix storage operations.
type Store interface {
	// Put creates or replaces the fix for (fix.Channel, fix.SensorID)
	Put(ctx context.Context, fix Fix) error

	// Get retrieves one fix
	Get(ctx context.Context, channel int, sensorID string) (Fix, error)

	// List returns all fixes ordered by channel, then sensor id
	List(ctx context.Context) ([]Fix, error)
}

// Sort orders fixes by channel, then sensor id.
func Sort(fs []Fix) {
	sort.Slice(fs, func(i, j int) bool {
		if fs[i].Channel != fs[j].Channel {
			return fs[i].Channel < fs[j].Channel
		}
		return fs[i].SensorID < fs[j].SensorID
	})
}

type key struct {
	channel  int
	sensorID string
}

// MemoryStore implements Store in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	fixes map[key]Fix
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{fixes: make(map[key]Fix)}
}

// Put stores fix.
func (s *MemoryStore) Put(_ context.Context, fix Fix) error {
	s.mu.Lock()
	s.fixes[key{fix.Channel, fix.SensorID}] = fix
	s.mu.Unlock()
	return nil
}

// Get retrieves one fix.
func (s *MemoryStore) Get(_ context.Context, channel int, sensorID string) (Fix, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fix, ok := s.fixes[key{channel, sensorID}]
	if !ok {
		return Fix{}, ErrNotFound
	}
	return fix, nil
}

// List returns every stored fix.
func (s *MemoryStore) List(_ context.Context) ([]Fix, error) {
	s.mu.RLock()
	out := make([]Fix, 0, len(s.fixes))
	for _, f := range s.fixes {
		out = append(out, f)
	}
	s.mu.RUnlock()

	Sort(out)
	return out, nil
}
