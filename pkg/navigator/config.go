package navigator

import (
	"fmt"
	"time"

	"github.com/teslashibe/lightnav/internal/config"
	"github.com/teslashibe/lightnav/pkg/correction"
	"github.com/teslashibe/lightnav/pkg/history"
)

// Config holds all tunable parameters for a calibration run
type Config struct {
	// Raster
	PanStep    float64       // Pan increment per sample (degrees, > 0)
	TiltStep   float64       // Tilt increment per row (degrees, > 0)
	Settle     time.Duration // Wait between commanding a position and sampling
	GiveUpTilt float64       // Abort a fixture's scan once |tilt| exceeds this

	// Setup
	Stabilize time.Duration // Wait after homing all fixtures

	// Locate strategy
	Strategy     Strategy
	Threshold    float64 // ThresholdSeek: stop once a reading reaches this
	TargetSensor string  // ThresholdSeek: only this sensor counts (empty = any)

	// Output
	Model       correction.Model
	HistoryPath string // Empty disables persistence
}

// DefaultConfig returns the calibrated sweep parameters
func DefaultConfig() Config {
	return Config{
		PanStep:    1,
		TiltStep:   1,
		Settle:     20 * time.Millisecond,
		GiveUpTilt: 85,

		Stabilize: 5 * time.Second,

		Strategy: FullScan,

		Model:       correction.DefaultModel(),
		HistoryPath: history.DefaultPath,
	}
}

// FromFile converts the file configuration.
func FromFile(c *config.Config) (Config, error) {
	strategy, err := ParseStrategy(c.Strategy.Mode)
	if err != nil {
		return Config{}, err
	}
	return Config{
		PanStep:      c.Scan.PanStep,
		TiltStep:     c.Scan.TiltStep,
		Settle:       c.Scan.Settle,
		GiveUpTilt:   c.Scan.GiveUpTilt,
		Stabilize:    c.Scan.Stabilize,
		Strategy:     strategy,
		Threshold:    c.Strategy.Threshold,
		TargetSensor: c.Strategy.TargetSensor,
		Model: correction.Model{
			K1: c.Correction.K1,
			K2: c.Correction.K2,
			K3: c.Correction.K3,
		},
		HistoryPath: c.History.Path,
	}, nil
}

// Validate rejects configurations that would let the scanner stall.
func (c Config) Validate() error {
	if c.PanStep <= 0 || c.TiltStep <= 0 {
		return fmt.Errorf("%w: steps must be > 0 (pan=%v tilt=%v)", ErrInvalidScan, c.PanStep, c.TiltStep)
	}
	if c.GiveUpTilt < 0 {
		return fmt.Errorf("%w: give-up tilt must be >= 0, got %v", ErrInvalidScan, c.GiveUpTilt)
	}
	if c.Strategy == ThresholdSeek && c.Threshold <= 0 {
		return fmt.Errorf("%w: threshold must be > 0 for %s", ErrInvalidScan, ThresholdSeek)
	}
	return nil
}
