package navigator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/teslashibe/lightnav/pkg/fixes"
	"github.com/teslashibe/lightnav/pkg/fixture"
	"github.com/teslashibe/lightnav/pkg/sensor"
)

var errConsole = errors.New("console offline")

// mockConsole records all commands for testing
type mockConsole struct {
	mu sync.Mutex

	channels  []int
	panRange  map[int]fixture.Range
	tiltRange map[int]fixture.Range

	position  map[int]Aim
	intensity map[int]float64
	calls     []string
	panMoves  []float64 // deltas sent through SetPan

	failPan   bool
	failTilt  bool
	failRange bool
	listErr   error

	// litDuringMove records, per absolute move, which channels were lit
	litDuringMove []map[int]bool

	store *fixes.MemoryStore
}

func newMockConsole(channels ...int) *mockConsole {
	m := &mockConsole{
		channels:  channels,
		panRange:  make(map[int]fixture.Range),
		tiltRange: make(map[int]fixture.Range),
		position:  make(map[int]Aim),
		intensity: make(map[int]float64),
		store:     fixes.NewMemoryStore(),
	}
	for _, ch := range channels {
		m.panRange[ch] = fixture.Range{Min: 0, Max: 10}
		m.tiltRange[ch] = fixture.Range{Min: 0, Max: 5}
	}
	return m
}

func (m *mockConsole) ListFixtures() ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]int(nil), m.channels...), nil
}

func (m *mockConsole) SetIntensity(ch int, level float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intensity[ch] = level
	m.calls = append(m.calls, fmt.Sprintf("intensity %d %v", ch, level))
	return nil
}

func (m *mockConsole) SetPan(ch int, current, delta float64, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPan {
		return errConsole
	}
	p := m.position[ch]
	p.Pan = current + delta
	m.position[ch] = p
	m.panMoves = append(m.panMoves, delta)
	m.calls = append(m.calls, fmt.Sprintf("pan %d %v", ch, p.Pan))

	lit := make(map[int]bool)
	for c, v := range m.intensity {
		if v > 0 {
			lit[c] = true
		}
	}
	m.litDuringMove = append(m.litDuringMove, lit)
	return nil
}

func (m *mockConsole) SetTilt(ch int, current, delta float64, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failTilt {
		return errConsole
	}
	p := m.position[ch]
	p.Tilt = current + delta
	m.position[ch] = p
	m.calls = append(m.calls, fmt.Sprintf("tilt %d %v", ch, p.Tilt))
	return nil
}

func (m *mockConsole) PanRange(ch int) (fixture.Range, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRange {
		return fixture.Range{}, errConsole
	}
	return m.panRange[ch], nil
}

func (m *mockConsole) TiltRange(ch int) (fixture.Range, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRange {
		return fixture.Range{}, errConsole
	}
	return m.tiltRange[ch], nil
}

func (m *mockConsole) SetSensorData(fix fixture.Fix) error {
	return m.store.Put(context.Background(), fix)
}

func (m *mockConsole) SensorData(ch int, id string) (fixture.Fix, error) {
	return m.store.Get(context.Background(), ch, id)
}

func (m *mockConsole) pos(ch int) Aim {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position[ch]
}

func (m *mockConsole) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockConsole) lastCalls(n int) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > len(m.calls) {
		n = len(m.calls)
	}
	return append([]string(nil), m.calls[len(m.calls)-n:]...)
}

// funcFeed computes each snapshot on demand.
type funcFeed func() sensor.Snapshot

func (f funcFeed) Snapshot() sensor.Snapshot { return f() }

// constFeed always reports the same readings.
func constFeed(s sensor.Snapshot) sensor.Feed {
	return funcFeed(func() sensor.Snapshot {
		out := make(sensor.Snapshot, len(s))
		for k, v := range s {
			out[k] = v
		}
		return out
	})
}

// testConfig is DefaultConfig without delays or persistence.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Settle = 0
	cfg.Stabilize = 0
	cfg.HistoryPath = ""
	return cfg
}
