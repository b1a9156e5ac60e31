// Package navigator aims moving-head fixtures at photo-sensors whose
// positions are unknown.
//
// A Navigator advances one phase per Execute call:
//
//	SETUP  -> darken and home every fixture, wait to stabilise
//	LOCATE -> per fixture: light it alone, raster its envelope, reduce the
//	          samples to a corrected aim per sensor, publish the fixes
//	COMPLETE / FAILED -> terminal
package navigator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/lightnav/internal/log"
	"github.com/teslashibe/lightnav/pkg/fixes"
	"github.com/teslashibe/lightnav/pkg/fixture"
	"github.com/teslashibe/lightnav/pkg/history"
	"github.com/teslashibe/lightnav/pkg/sensor"
)

// Status is the snapshot returned by every Execute call.
type Status struct {
	RunID string  `json:"run_id"`
	Phase string  `json:"current_phase"`
	Pan   float64 `json:"pan"`
	Tilt  float64 `json:"tilt"`
}

// Navigator runs the calibration phase machine for every patched fixture.
type Navigator struct {
	config  Config
	console fixture.Controller
	feed    sensor.Feed
	gui     sensor.GUI
	logger  *slog.Logger

	history  *history.History
	handlers map[Phase]handler
	runID    string

	// Only one Execute at a time
	execMu sync.Mutex

	// State read by Status from other goroutines
	mu      sync.RWMutex
	phase   Phase
	current Aim
	fixes   []fixes.Fix

	// OnStatus is invoked after every Execute (optional)
	OnStatus func(Status)

	// OnRow is invoked after every completed raster row (optional)
	OnRow func(RowEvent)
}

// New creates a navigator in PhaseSetup. A nil logger discards output.
func New(config Config, console fixture.Controller, feed sensor.Feed, logger *slog.Logger) (*Navigator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if console == nil {
		return nil, fmt.Errorf("navigator: fixture controller is required")
	}
	if feed == nil {
		return nil, fmt.Errorf("navigator: sensor feed is required")
	}

	runID := uuid.New().String()
	n := &Navigator{
		config:  config,
		console: console,
		feed:    feed,
		logger:  log.OrDiscard(logger).With("run", runID),
		history: history.New(),
		runID:   runID,
		phase:   PhaseSetup,
	}
	n.handlers = n.transitions()
	return n, nil
}

// SetGUI attaches the operator GUI. Its sensor ids seed each channel's
// history so sensors that never report still appear in the output.
func (n *Navigator) SetGUI(gui sensor.GUI) {
	n.gui = gui
}

// RunID identifies this navigator's run.
func (n *Navigator) RunID() string {
	return n.runID
}

// History returns the observation log.
func (n *Navigator) History() *history.History {
	return n.history
}

// Phase returns the current phase.
func (n *Navigator) Phase() Phase {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.phase
}

// Fixes returns the fixes published so far in this run.
func (n *Navigator) Fixes() []fixes.Fix {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]fixes.Fix, len(n.fixes))
	copy(out, n.fixes)
	return out
}

// Status returns the current phase and believed aim.
func (n *Navigator) Status() Status {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return Status{
		RunID: n.runID,
		Phase: n.phase.String(),
		Pan:   n.current.Pan,
		Tilt:  n.current.Tilt,
	}
}

// Execute runs the current phase and transitions to the next one.
// Terminal phases are re-reported unchanged.
func (n *Navigator) Execute(ctx context.Context) Status {
	n.execMu.Lock()
	defer n.execMu.Unlock()

	phase := n.Phase()
	n.logger.Debug("executing phase", "phase", phase)

	if h, ok := n.handlers[phase]; ok {
		next := h(ctx)
		n.mu.Lock()
		n.phase = next
		n.mu.Unlock()
	}

	status := n.Status()
	n.logger.Info("current status", "phase", status.Phase, "pan", status.Pan, "tilt", status.Tilt)
	if n.OnStatus != nil {
		n.OnStatus(status)
	}
	return status
}

// Run calls Execute every interval until a terminal phase or ctx is done.
func (n *Navigator) Run(ctx context.Context, interval time.Duration) (Status, error) {
	for {
		status := n.Execute(ctx)
		if n.Phase().Terminal() {
			return status, nil
		}
		if err := sleep(ctx, interval); err != nil {
			return status, err
		}
	}
}

// setup darkens and homes every fixture.
func (n *Navigator) setup(ctx context.Context) Phase {
	n.logger.Info("entering SETUP phase")

	channels, err := n.console.ListFixtures()
	if err != nil {
		n.logger.Error("failed to list fixtures", "error", err)
	}

	for _, ch := range channels {
		if err := n.console.SetIntensity(ch, 0); err != nil {
			n.logger.Error("failed to darken fixture", "channel", ch, "error", err)
		}
		if err := n.console.SetPan(ch, 0, 0, true); err != nil {
			n.logger.Error("failed to home pan", "channel", ch, "error", err)
		}
		if err := n.console.SetTilt(ch, 0, 0, true); err != nil {
			n.logger.Error("failed to home tilt", "channel", ch, "error", err)
		}
	}
	n.setAim(Aim{})

	// Wait for system to stabilize
	if err := sleep(ctx, n.config.Stabilize); err != nil {
		n.logger.Warn("stabilization wait interrupted", "error", err)
	}

	n.logger.Debug("setup complete", "fixtures", len(channels))
	return PhaseLocate
}

// locate scans every fixture in turn, then persists the history.
func (n *Navigator) locate(ctx context.Context) Phase {
	n.logger.Info("entering LOCATE phase", "strategy", n.config.Strategy)

	channels, err := n.console.ListFixtures()
	if err != nil {
		n.logger.Error("failed to list fixtures", "error", err)
	}

	next := PhaseComplete
	for _, ch := range channels {
		res, ok := n.locateChannel(ctx, ch, channels)
		if res.Reason == EndCancelled {
			n.logger.Warn("scan cancelled", "channel", ch)
			next = PhaseFailed
			break
		}
		if n.config.Strategy == ThresholdSeek && (!ok || res.Reason != EndThreshold) {
			n.logger.Warn("threshold not reached", "channel", ch,
				"threshold", n.config.Threshold, "peak", res.Peak, "reason", res.Reason)
			next = PhaseFailed
		}
	}

	n.persist()
	return next
}

// locateChannel lights channel alone, rasters it and publishes its fixes.
// ok is false when the scan could not run.
func (n *Navigator) locateChannel(ctx context.Context, channel int, all []int) (ScanResult, bool) {
	if err := n.console.SetIntensity(channel, 100); err != nil {
		n.logger.Error("failed to light fixture", "channel", channel, "error", err)
	}
	// turn off all other fixtures
	for _, other := range all {
		if other == channel {
			continue
		}
		if err := n.console.SetIntensity(other, 0); err != nil {
			n.logger.Error("failed to darken fixture", "channel", other, "error", err)
		}
	}

	var seed []string
	if n.gui != nil {
		seed = n.gui.SensorIDs()
	}
	n.history.Reset(channel, seed...)

	panRange, tiltRange, err := n.ranges(channel)
	if err != nil {
		n.logger.Error("failed to read fixture ranges, skipping", "channel", channel, "error", err)
		n.history.Freeze(channel)
		return ScanResult{}, false
	}

	n.SendLightCommand(channel, panRange.Min, 0, true)

	s := Scan{
		Channel:    channel,
		Pan:        panRange,
		Tilt:       tiltRange,
		PanStep:    n.config.PanStep,
		TiltStep:   n.config.TiltStep,
		Settle:     n.config.Settle,
		GiveUpTilt: n.config.GiveUpTilt,
	}
	if n.config.Strategy == ThresholdSeek {
		s.Threshold = n.config.Threshold
		s.TargetSensor = n.config.TargetSensor
	}

	n.logger.Info("scanning fixture", "channel", channel,
		"pan_min", panRange.Min, "pan_max", panRange.Max, "tilt_max", tiltRange.Max,
		"max_samples", s.MaxSamples())

	res, err := n.scan(ctx, s)
	n.history.Freeze(channel)
	if err != nil {
		n.logger.Error("scan rejected", "channel", channel, "error", err)
		return res, false
	}
	n.logger.Info("scan finished", "channel", channel,
		"reason", res.Reason, "rows", res.Rows, "samples", res.Samples, "peak", res.Peak)

	n.calculate(channel)
	return res, true
}

// persist writes the history file if a path is configured.
func (n *Navigator) persist() {
	if n.config.HistoryPath == "" {
		return
	}
	if err := n.history.Save(n.config.HistoryPath); err != nil {
		n.logger.Error("failed to persist sensor history", "path", n.config.HistoryPath, "error", err)
		return
	}
	n.logger.Info("sensor history written", "path", n.config.HistoryPath)
}
