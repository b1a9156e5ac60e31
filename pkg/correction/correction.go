// Package correction compensates the pan overshoot a continuously moving
// fixture accumulates between command and sample.
//
// The model is a calibrated fit in tilt and pan, signed by scan direction:
//
//	overshoot = (K1*tilt + K2*tilt² + K3*tilt*pan) * direction
//	corrected = pan - overshoot
package correction

// Calibrated coefficients of the default model.
const (
	DefaultK1 = 1.5728
	DefaultK2 = -0.0187
	DefaultK3 = 0.0000630
)

// Model holds the overshoot coefficients.
type Model struct {
	K1 float64 `json:"k1"`
	K2 float64 `json:"k2"`
	K3 float64 `json:"k3"`
}

// DefaultModel returns the calibrated model.
func DefaultModel() Model {
	return Model{K1: DefaultK1, K2: DefaultK2, K3: DefaultK3}
}

// Overshoot returns the signed pan overshoot for a sample taken at pan/tilt
// while moving in direction.
func (m Model) Overshoot(pan, tilt float64, direction int) float64 {
	return (m.K1*tilt + m.K2*tilt*tilt + m.K3*tilt*pan) * float64(direction)
}

// CorrectedPan removes the overshoot from a raw best-fit pan. NaN and Inf
// inputs propagate.
func (m Model) CorrectedPan(pan, tilt float64, direction int) float64 {
	return pan - m.Overshoot(pan, tilt, direction)
}

// CorrectedPan applies the default model.
func CorrectedPan(pan, tilt float64, direction int) float64 {
	return DefaultModel().CorrectedPan(pan, tilt, direction)
}
