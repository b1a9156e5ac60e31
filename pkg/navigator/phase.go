package navigator

import (
	"context"
	"fmt"
)

// Phase is a state of the calibration run.
type Phase int

const (
	// PhaseSetup darkens and homes every fixture.
	PhaseSetup Phase = iota
	// PhaseLocate scans each fixture and publishes fixes.
	PhaseLocate
	// PhaseComplete is terminal: all fixtures were processed.
	PhaseComplete
	// PhaseFailed is terminal: the run was cancelled or, under
	// threshold_seek, a fixture never reached the threshold.
	PhaseFailed
)

var phaseNames = map[Phase]string{
	PhaseSetup:    "SETUP",
	PhaseLocate:   "LOCATE",
	PhaseComplete: "COMPLETE",
	PhaseFailed:   "FAILED",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Terminal reports whether the phase absorbs further Execute calls.
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseFailed
}

// handler runs one phase and returns the phase to enter next.
type handler func(ctx context.Context) Phase

// transitions builds the phase table. Terminal phases have no entry.
func (n *Navigator) transitions() map[Phase]handler {
	return map[Phase]handler{
		PhaseSetup:  n.setup,
		PhaseLocate: n.locate,
	}
}
