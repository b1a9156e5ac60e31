package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/lightnav/pkg/fixes"
	"github.com/teslashibe/lightnav/pkg/fixture"
)

// FixtureSpec describes one simulated head.
type FixtureSpec struct {
	Channel int        `yaml:"channel"`
	Pan     [2]float64 `yaml:"pan"`
	Tilt    [2]float64 `yaml:"tilt"`
}

// Layout is a rig definition, loadable from YAML:
//
//	beam_width: 2
//	fixtures:
//	  - {channel: 1, pan: [0, 60], tilt: [0, 15]}
//	sensors:
//	  s1: {pan: 20, tilt: 10}
type Layout struct {
	BeamWidth float64         `yaml:"beam_width"`
	Fixtures  []FixtureSpec   `yaml:"fixtures"`
	Sensors   map[string]Spot `yaml:"sensors"`
}

// DefaultLayout is a two-head, three-sensor rig small enough for a quick
// dry run.
func DefaultLayout() Layout {
	return Layout{
		BeamWidth: DefaultBeamWidth,
		Fixtures: []FixtureSpec{
			{Channel: 1, Pan: [2]float64{0, 60}, Tilt: [2]float64{0, 15}},
			{Channel: 2, Pan: [2]float64{0, 60}, Tilt: [2]float64{0, 15}},
		},
		Sensors: map[string]Spot{
			"s1": {Pan: 20, Tilt: 10},
			"s2": {Pan: 40, Tilt: 4},
			"s3": {Pan: 30, Tilt: 12},
		},
	}
}

// LoadLayout reads a rig definition from a YAML file.
func LoadLayout(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("failed to read layout: %w", err)
	}

	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("failed to parse layout: %w", err)
	}
	if len(l.Fixtures) == 0 {
		return Layout{}, fmt.Errorf("layout %s defines no fixtures", path)
	}
	return l, nil
}

// Build creates a rig from the layout. A nil store keeps fixes in memory.
func (l Layout) Build(store fixes.Store) *Rig {
	r := NewRig(store)
	if l.BeamWidth > 0 {
		r.SetBeamWidth(l.BeamWidth)
	}
	for _, f := range l.Fixtures {
		r.AddFixture(f.Channel,
			fixture.Range{Min: f.Pan[0], Max: f.Pan[1]},
			fixture.Range{Min: f.Tilt[0], Max: f.Tilt[1]})
	}
	for id, at := range l.Sensors {
		r.AddSensor(id, at)
	}
	return r
}
