package navigator

import (
	"github.com/teslashibe/lightnav/pkg/correction"
	"github.com/teslashibe/lightnav/pkg/fixes"
	"github.com/teslashibe/lightnav/pkg/history"
)

// FixFor turns a channel's best observation of a sensor into a corrected fix.
func FixFor(b history.Best, model correction.Model) fixes.Fix {
	o := b.Observation
	return fixes.Fix{
		Channel:   b.Channel,
		SensorID:  b.SensorID,
		Pan:       model.CorrectedPan(o.Pan, o.Tilt, o.Direction),
		Tilt:      o.Tilt,
		Direction: o.Direction,
		RawPan:    o.Pan,
		Intensity: o.Intensity,
	}
}

// calculate reduces the channel's history to one corrected fix per sensor
// and publishes each through the console's result sink.
func (n *Navigator) calculate(channel int) {
	n.logger.Info("calculating best aim per sensor", "channel", channel)

	found, missing := n.history.Best(channel)
	for _, id := range missing {
		n.logger.Info("no fix found", "channel", channel, "sensor", id)
	}

	for _, b := range found {
		o := b.Observation
		n.logger.Info("sensor max intensity",
			"channel", channel, "sensor", b.SensorID,
			"intensity", o.Intensity, "pan", o.Pan, "tilt", o.Tilt, "direction", o.Direction)

		fix := FixFor(b, n.config.Model)
		if err := n.console.SetSensorData(fix); err != nil {
			n.logger.Error("failed to publish fix", "channel", channel, "sensor", b.SensorID, "error", err)
			continue
		}

		n.mu.Lock()
		n.fixes = append(n.fixes, fix)
		n.mu.Unlock()
	}

	for _, b := range found {
		stored, err := n.console.SensorData(channel, b.SensorID)
		if err != nil {
			n.logger.Debug("fix read-back failed", "channel", channel, "sensor", b.SensorID, "error", err)
			continue
		}
		n.logger.Info("sensor fix", "channel", channel, "sensor", b.SensorID,
			"pan", stored.Pan, "tilt", stored.Tilt, "direction", stored.Direction)
	}
}
