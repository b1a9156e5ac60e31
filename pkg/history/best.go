package history

import (
	"gonum.org/v1/gonum/floats"
)

// Best is the strongest observation of one sensor under one channel.
type Best struct {
	Channel     int         `json:"channel"`
	SensorID    string      `json:"sensor_id"`
	Index       int         `json:"index"` // position in scan order
	Samples     int         `json:"samples"`
	Observation Observation `json:"observation"`
}

// BestObservation returns the observation with maximal intensity. Ties go to
// the earliest index. ok is false for an empty sequence.
func BestObservation(obs []Observation) (best Observation, index int, ok bool) {
	if len(obs) == 0 {
		return Observation{}, -1, false
	}

	intensities := make([]float64, len(obs))
	for i, o := range obs {
		intensities[i] = o.Intensity
	}
	index = floats.MaxIdx(intensities)
	return obs[index], index, true
}

// Best reduces every sensor recorded for channel to its strongest
// observation, in sensor id order. Sensors with no observations are
// returned in missing.
func (h *History) Best(channel int) (found []Best, missing []string) {
	for _, id := range h.Sensors(channel) {
		obs := h.Observations(channel, id)
		o, idx, ok := BestObservation(obs)
		if !ok {
			missing = append(missing, id)
			continue
		}
		found = append(found, Best{
			Channel:     channel,
			SensorID:    id,
			Index:       idx,
			Samples:     len(obs),
			Observation: o,
		})
	}
	return found, missing
}
