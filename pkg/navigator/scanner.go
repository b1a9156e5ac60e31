package navigator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/teslashibe/lightnav/pkg/fixture"
	"github.com/teslashibe/lightnav/pkg/history"
)

// ErrInvalidScan is returned for scan parameters that cannot make progress.
var ErrInvalidScan = errors.New("invalid scan parameters")

// EndReason says why a channel's raster stopped.
type EndReason int

const (
	// EndRangeExhausted: the next row would exceed the tilt maximum.
	EndRangeExhausted EndReason = iota
	// EndGaveUp: |tilt| passed the give-up threshold; the fixture was darkened and homed.
	EndGaveUp
	// EndThreshold: a reading reached the ThresholdSeek threshold.
	EndThreshold
	// EndCancelled: the context was cancelled mid-scan.
	EndCancelled
)

func (r EndReason) String() string {
	switch r {
	case EndRangeExhausted:
		return "range_exhausted"
	case EndGaveUp:
		return "gave_up"
	case EndThreshold:
		return "threshold"
	case EndCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("EndReason(%d)", int(r))
	}
}

// Scan describes one channel's boustrophedon raster.
type Scan struct {
	Channel    int
	Pan        fixture.Range // swept fully each row
	Tilt       fixture.Range // only Max bounds the raster
	PanStep    float64
	TiltStep   float64
	Settle     time.Duration
	GiveUpTilt float64

	// ThresholdSeek only; zero disables early exit.
	Threshold    float64
	TargetSensor string
}

// Validate rejects non-advancing steps and inverted ranges.
func (s Scan) Validate() error {
	if s.PanStep <= 0 || s.TiltStep <= 0 {
		return fmt.Errorf("%w: steps must be > 0 (pan=%v tilt=%v)", ErrInvalidScan, s.PanStep, s.TiltStep)
	}
	if s.Pan.Max < s.Pan.Min {
		return fmt.Errorf("%w: pan range [%v,%v] is inverted", ErrInvalidScan, s.Pan.Min, s.Pan.Max)
	}
	if math.IsNaN(s.Pan.Min) || math.IsNaN(s.Pan.Max) || math.IsNaN(s.Tilt.Max) {
		return fmt.Errorf("%w: range is NaN", ErrInvalidScan)
	}
	return nil
}

// RowLength is the number of samples taken per pan sweep.
func (s Scan) RowLength() int {
	n := int(math.Ceil((s.Pan.Max - s.Pan.Min) / s.PanStep))
	if n < 1 {
		return 1
	}
	return n
}

// MaxSamples bounds the number of positions a full raster visits.
func (s Scan) MaxSamples() int {
	if s.Tilt.Max < 0 {
		return 0
	}
	rows := int(math.Floor(s.Tilt.Max/s.TiltStep)) + 1
	return s.RowLength() * rows
}

// ScanResult summarises a finished raster.
type ScanResult struct {
	Reason  EndReason
	Rows    int // completed rows
	Samples int // positions sampled
	Peak    float64
}

// RowEvent is reported after every completed raster row.
type RowEvent struct {
	Channel   int     `json:"channel"`
	Row       int     `json:"row"`
	Tilt      float64 `json:"tilt"`
	Direction int     `json:"direction"`
	Samples   int     `json:"samples"`
}

// scan rasters one channel, appending every sample to the history.
//
// Each row sweeps pan from one bound to the other, then the direction flips
// and tilt advances by one step. The raster ends once tilt passes Tilt.Max,
// or once |tilt| passes GiveUpTilt (the fixture is then darkened and homed).
func (n *Navigator) scan(ctx context.Context, s Scan) (ScanResult, error) {
	if err := s.Validate(); err != nil {
		return ScanResult{}, err
	}

	var (
		res      ScanResult
		scanPan  = s.Pan.Min
		scanTilt = 0.0
		dir      = 1
		rowLen   = s.RowLength()
	)

	for {
		for i := 0; i < rowLen; i++ {
			if ctx.Err() != nil {
				res.Reason = EndCancelled
				return res, nil
			}

			n.moveTo(s.Channel, scanPan, scanTilt, s.Pan, s.Tilt)
			if err := sleep(ctx, s.Settle); err != nil {
				res.Reason = EndCancelled
				return res, nil
			}

			hit := n.sample(s, dir, &res)
			res.Samples++
			if hit {
				res.Reason = EndThreshold
				return res, nil
			}

			scanPan += s.PanStep * float64(dir)
		}

		res.Rows++
		if n.OnRow != nil {
			n.OnRow(RowEvent{Channel: s.Channel, Row: res.Rows, Tilt: scanTilt, Direction: dir, Samples: res.Samples})
		}

		// Row exhausted: reverse from the bound just reached and step tilt
		if dir == 1 {
			dir = -1
			scanPan = s.Pan.Max
		} else {
			dir = 1
			scanPan = s.Pan.Min
		}
		scanTilt += s.TiltStep

		if scanTilt > s.Tilt.Max {
			res.Reason = EndRangeExhausted
			return res, nil
		}
		if math.Abs(scanTilt) > s.GiveUpTilt {
			n.logger.Info("end of scan, give-up tilt reached", "channel", s.Channel, "tilt", scanTilt)
			if err := n.console.SetIntensity(s.Channel, 0); err != nil {
				n.logger.Error("failed to darken fixture", "channel", s.Channel, "error", err)
			}
			n.moveTo(s.Channel, 0, 0, s.Pan, s.Tilt)
			res.Reason = EndGaveUp
			return res, nil
		}
	}
}

// sample records one snapshot at the believed aim. It reports whether the
// threshold was reached.
func (n *Navigator) sample(s Scan, dir int, res *ScanResult) bool {
	snap := n.feed.Snapshot()
	at := n.aim()

	hit := false
	for id, intensity := range snap {
		if math.IsNaN(intensity) || math.IsInf(intensity, 0) {
			n.logger.Debug("dropping non-finite reading", "channel", s.Channel, "sensor", id)
			continue
		}
		obs := history.Observation{
			Intensity: intensity,
			Pan:       at.Pan,
			Tilt:      at.Tilt,
			Direction: dir,
		}
		if err := n.history.Append(s.Channel, id, obs); err != nil {
			n.logger.Error("failed to record observation", "channel", s.Channel, "sensor", id, "error", err)
			continue
		}
		if intensity > res.Peak {
			res.Peak = intensity
		}
		if s.Threshold > 0 && intensity >= s.Threshold && (s.TargetSensor == "" || s.TargetSensor == id) {
			hit = true
		}
	}
	return hit
}

// sleep waits d or until ctx is done. It yields to other goroutines either way.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
