package navigator

import (
	"fmt"

	"github.com/teslashibe/lightnav/internal/config"
)

// Strategy selects how a channel's scan may end early.
type Strategy int

const (
	// FullScan rasters the whole envelope of every fixture.
	FullScan Strategy = iota
	// ThresholdSeek stops a fixture's scan once a reading reaches the
	// threshold; a fixture that never does fails the run.
	ThresholdSeek
)

func (s Strategy) String() string {
	switch s {
	case FullScan:
		return config.StrategyFullScan
	case ThresholdSeek:
		return config.StrategyThresholdSeek
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy maps a config mode to a Strategy.
func ParseStrategy(mode string) (Strategy, error) {
	switch mode {
	case config.StrategyFullScan, "":
		return FullScan, nil
	case config.StrategyThresholdSeek:
		return ThresholdSeek, nil
	default:
		return 0, fmt.Errorf("unknown strategy %q", mode)
	}
}
