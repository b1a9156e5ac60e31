package navigator

import (
	"github.com/teslashibe/lightnav/pkg/fixture"
)

// Aim is the believed fixture orientation in degrees.
type Aim struct {
	Pan  float64 `json:"pan"`
	Tilt float64 `json:"tilt"`
}

// SendLightCommand moves the fixture by (panMove, tiltMove) from the believed
// aim, clamped to the channel's mechanical range. Each axis's belief advances
// by its clamped delta once that axis's command is accepted.
// Returns the aim after the command.
func (n *Navigator) SendLightCommand(channel int, panMove, tiltMove float64, useDegrees bool) Aim {
	panRange, tiltRange, err := n.ranges(channel)
	if err != nil {
		n.logger.Error("failed to read fixture ranges", "channel", channel, "error", err)
		return n.aim()
	}

	current := n.aim()
	proposed := Aim{
		Pan:  panRange.Clamp(current.Pan + panMove),
		Tilt: tiltRange.Clamp(current.Tilt + tiltMove),
	}

	actualPan := proposed.Pan - current.Pan
	actualTilt := proposed.Tilt - current.Tilt

	if actualPan == 0 && actualTilt == 0 {
		n.logger.Debug("move clamped to nothing, no command sent",
			"channel", channel, "pan", current.Pan, "tilt", current.Tilt)
		return current
	}

	if err := n.console.SetPan(channel, current.Pan, actualPan, useDegrees); err != nil {
		n.logger.Error("failed to send pan command", "channel", channel, "error", err)
		return current
	}
	n.setPan(proposed.Pan)

	if err := n.console.SetTilt(channel, current.Tilt, actualTilt, useDegrees); err != nil {
		n.logger.Error("failed to send tilt command", "channel", channel, "error", err)
		return n.aim()
	}
	n.setTilt(proposed.Tilt)

	n.logger.Debug("sent move",
		"channel", channel,
		"pan_move", actualPan, "tilt_move", actualTilt,
		"pan", proposed.Pan, "tilt", proposed.Tilt)
	return proposed
}

// moveTo commands an absolute position (relative to zero) after clamping.
func (n *Navigator) moveTo(channel int, pan, tilt float64, panRange, tiltRange fixture.Range) {
	target := Aim{Pan: panRange.Clamp(pan), Tilt: tiltRange.Clamp(tilt)}

	if err := n.console.SetPan(channel, 0, target.Pan, true); err != nil {
		n.logger.Error("failed to send pan command", "channel", channel, "error", err)
		return
	}
	n.setPan(target.Pan)

	if err := n.console.SetTilt(channel, 0, target.Tilt, true); err != nil {
		n.logger.Error("failed to send tilt command", "channel", channel, "error", err)
		return
	}
	n.setTilt(target.Tilt)
}

func (n *Navigator) ranges(channel int) (pan, tilt fixture.Range, err error) {
	pan, err = n.console.PanRange(channel)
	if err != nil {
		return
	}
	tilt, err = n.console.TiltRange(channel)
	return
}

func (n *Navigator) aim() Aim {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.current
}

func (n *Navigator) setAim(a Aim) {
	n.mu.Lock()
	n.current = a
	n.mu.Unlock()
}

func (n *Navigator) setPan(pan float64) {
	n.mu.Lock()
	n.current.Pan = pan
	n.mu.Unlock()
}

func (n *Navigator) setTilt(tilt float64) {
	n.mu.Lock()
	n.current.Tilt = tilt
	n.mu.Unlock()
}
