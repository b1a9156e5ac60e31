package correction

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrTooFewSamples is returned by Fit with fewer samples than coefficients.
var ErrTooFewSamples = errors.New("need at least 3 samples")

// Sample pairs a raw best-fit reading with the pan the sensor truly sits at.
type Sample struct {
	Pan       float64 `json:"pan" yaml:"pan"`
	Tilt      float64 `json:"tilt" yaml:"tilt"`
	Direction int     `json:"direction" yaml:"direction"`
	TruePan   float64 `json:"true_pan" yaml:"true_pan"`
}

// Fit estimates K1..K3 by linear least squares over samples.
// Each sample contributes pan-truePan = dir*(K1*t + K2*t² + K3*t*pan).
func Fit(samples []Sample) (Model, error) {
	if len(samples) < 3 {
		return Model{}, ErrTooFewSamples
	}

	a := mat.NewDense(len(samples), 3, nil)
	b := mat.NewVecDense(len(samples), nil)
	for i, s := range samples {
		d := float64(s.Direction)
		a.Set(i, 0, d*s.Tilt)
		a.Set(i, 1, d*s.Tilt*s.Tilt)
		a.Set(i, 2, d*s.Tilt*s.Pan)
		b.SetVec(i, s.Pan-s.TruePan)
	}

	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return Model{}, fmt.Errorf("least squares fit failed: %w", err)
	}

	return Model{K1: x.AtVec(0), K2: x.AtVec(1), K3: x.AtVec(2)}, nil
}
