package history

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReset_SeedsSensors(t *testing.T) {
	h := New()
	h.Reset(1, "a", "b")

	assert.Equal(t, []int{1}, h.Channels())
	assert.Equal(t, []string{"a", "b"}, h.Sensors(1))
	assert.Equal(t, 0, h.Len(1, "a"))
}

func TestAppend_KeepsScanOrder(t *testing.T) {
	h := New()
	h.Reset(2)

	for i := 0; i < 5; i++ {
		require.NoError(t, h.Append(2, "s1", Observation{Intensity: float64(i), Pan: float64(i), Direction: 1}))
		assert.Equal(t, i+1, h.Len(2, "s1"), "length must grow monotonically")
	}

	obs := h.Observations(2, "s1")
	for i, o := range obs {
		assert.Equal(t, float64(i), o.Pan)
	}
}

func TestAppend_FrozenRejected(t *testing.T) {
	h := New()
	h.Reset(1)
	require.NoError(t, h.Append(1, "s1", Observation{Intensity: 1}))
	h.Freeze(1)

	err := h.Append(1, "s1", Observation{Intensity: 2})
	assert.ErrorIs(t, err, ErrFrozen)
	assert.Equal(t, 1, h.Len(1, "s1"))

	// Resetting starts a fresh scan
	h.Reset(1)
	assert.False(t, h.Frozen(1))
	assert.NoError(t, h.Append(1, "s1", Observation{Intensity: 3}))
}

func TestObservations_ReturnsCopy(t *testing.T) {
	h := New()
	require.NoError(t, h.Append(1, "s1", Observation{Intensity: 4}))

	obs := h.Observations(1, "s1")
	obs[0].Intensity = 99

	assert.Equal(t, 4.0, h.Observations(1, "s1")[0].Intensity)
}

func TestBestObservation_TieGoesToEarliest(t *testing.T) {
	obs := []Observation{
		{Intensity: 5, Pan: 1, Tilt: 0, Direction: 1},
		{Intensity: 9, Pan: 2, Tilt: 1, Direction: 1},
		{Intensity: 9, Pan: 3, Tilt: 2, Direction: -1},
	}

	best, idx, ok := BestObservation(obs)
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, 2.0, best.Pan)
	assert.Equal(t, 1.0, best.Tilt)
	assert.Equal(t, 1, best.Direction)
}

func TestBestObservation_Empty(t *testing.T) {
	_, idx, ok := BestObservation(nil)
	assert.False(t, ok)
	assert.Equal(t, -1, idx)
}

func TestBestObservation_SkipsNaN(t *testing.T) {
	obs := []Observation{
		{Intensity: math.NaN(), Pan: 1},
		{Intensity: 3, Pan: 2},
	}
	best, _, ok := BestObservation(obs)
	require.True(t, ok)
	assert.Equal(t, 2.0, best.Pan)
}

func TestBest_ReportsMissing(t *testing.T) {
	h := New()
	h.Reset(7, "quiet", "loud")
	require.NoError(t, h.Append(7, "loud", Observation{Intensity: 1, Pan: 10}))
	require.NoError(t, h.Append(7, "loud", Observation{Intensity: 8, Pan: 20}))

	found, missing := h.Best(7)
	require.Len(t, found, 1)
	assert.Equal(t, "loud", found[0].SensorID)
	assert.Equal(t, 7, found[0].Channel)
	assert.Equal(t, 20.0, found[0].Observation.Pan)
	assert.Equal(t, 2, found[0].Samples)
	assert.Equal(t, []string{"quiet"}, missing)
}

func TestJSON_Schema(t *testing.T) {
	h := New()
	require.NoError(t, h.Append(1, "s1", Observation{Intensity: 42, Pan: 3, Tilt: 4, Direction: -1}))

	data, err := json.Marshal(h)
	require.NoError(t, err)
	assert.JSONEq(t, `{"1":{"s1":[{"intensity":42,"pan":3,"tilt":4,"direction":-1}]}}`, string(data))
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", DefaultPath)

	h := New()
	h.Reset(1, "s1", "s2")
	require.NoError(t, h.Append(1, "s1", Observation{Intensity: 1, Pan: 2, Tilt: 3, Direction: 1}))
	require.NoError(t, h.Append(3, "s2", Observation{Intensity: 4, Pan: 5, Tilt: 6, Direction: -1}))
	require.NoError(t, h.Save(path))

	// Overwrites, never appends
	require.NoError(t, h.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, loaded.Channels())
	assert.Equal(t, h.Observations(1, "s1"), loaded.Observations(1, "s1"))
	assert.Equal(t, 0, loaded.Len(1, "s2"))
	assert.True(t, loaded.Frozen(3))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "failed to read history")

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "failed to parse history")
}
