// Package fixture provides interfaces and implementations for steering
// moving-head lighting fixtures through a lighting console.
//
// This package follows the Interface Segregation Principle (ISP) by defining
// small, focused interfaces that can be composed as needed. Consumers should
// depend only on the interfaces they actually use.
package fixture

import "github.com/teslashibe/lightnav/pkg/fixes"

// Fix is the corrected aim published for one sensor.
type Fix = fixes.Fix

// Range is the mechanical travel of one axis, in degrees.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Clamp restricts v to the range.
func (r Range) Clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Enumerator lists the fixture channels patched on the console.
type Enumerator interface {
	ListFixtures() ([]int, error)
}

// Dimmer provides intensity control (0-100).
type Dimmer interface {
	SetIntensity(channel int, level float64) error
}

// Positioner provides relative pan/tilt moves. The console applies delta to
// current.
type Positioner interface {
	SetPan(channel int, current, delta float64, useDegrees bool) error
	SetTilt(channel int, current, delta float64, useDegrees bool) error
}

// Ranger reports the mechanical travel of each axis.
type Ranger interface {
	PanRange(channel int) (Range, error)
	TiltRange(channel int) (Range, error)
}

// ResultSink receives the per-sensor fixes and serves them back.
type ResultSink interface {
	SetSensorData(fix Fix) error
	SensorData(channel int, sensorID string) (Fix, error)
}

// Controller is the composite interface for full fixture control.
// Use this when you need complete console capabilities.
type Controller interface {
	Enumerator
	Dimmer
	Positioner
	Ranger
	ResultSink
}

// Ensure HTTPController implements Controller
var _ Controller = (*HTTPController)(nil)
