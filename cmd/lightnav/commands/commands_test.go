package commands

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/teslashibe/lightnav/internal/log"
	"github.com/teslashibe/lightnav/pkg/correction"
	"github.com/teslashibe/lightnav/pkg/history"
)

func init() {
	color.NoColor = true
}

// execute runs the CLI with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestRoot_ShowsHelpWhenNoSubcommand(t *testing.T) {
	out, _, err := execute(t)
	assert.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	for _, sub := range []string{"run", "serve", "correct", "fit", "report"} {
		assert.Contains(t, out, sub)
	}
}

func TestRoot_RejectsUnknownFlags(t *testing.T) {
	_, _, err := execute(t, "--pan", "3")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flag")
}

func TestCorrect(t *testing.T) {
	out, _, err := execute(t, "correct", "--pan", "2", "--tilt", "1", "--direction", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "corrected pan: 0.445774")
}

func TestCorrect_RejectsBadDirection(t *testing.T) {
	_, errOut, err := execute(t, "correct", "--pan", "2", "--tilt", "1", "--direction", "0")
	assert.EqualError(t, err, "invalid direction")
	assert.Contains(t, errOut, "must be 1 or -1")
}

func TestCorrect_BadConfig(t *testing.T) {
	cfg := writeFile(t, "lightnav.yml", "version: \"9\"\n")
	_, errOut, err := execute(t, "--config", cfg, "correct")
	assert.Error(t, err)
	assert.Contains(t, errOut, "unsupported version")
}

func TestFit(t *testing.T) {
	m := correction.DefaultModel()
	var samples []correction.Sample
	for _, tilt := range []float64{5, 10, 20, 40} {
		for _, dir := range []int{1, -1} {
			samples = append(samples, correction.Sample{
				Pan: 30, Tilt: tilt, Direction: dir, TruePan: m.CorrectedPan(30, tilt, dir),
			})
		}
	}
	samples = append(samples, correction.Sample{Pan: 120, Tilt: 15, Direction: 1, TruePan: m.CorrectedPan(120, 15, 1)})
	data, err := yaml.Marshal(samples)
	require.NoError(t, err)

	out, _, err := execute(t, "fit", writeFile(t, "samples.yml", string(data)))
	require.NoError(t, err)
	assert.Contains(t, out, "fitted 9 samples")

	var got struct {
		Correction correction.Model `yaml:"correction"`
	}
	idx := bytes.Index([]byte(out), []byte("correction:"))
	require.GreaterOrEqual(t, idx, 0, out)
	require.NoError(t, yaml.Unmarshal([]byte(out[idx:]), &got))
	assert.InDelta(t, m.K1, got.Correction.K1, 1e-6)
	assert.InDelta(t, m.K2, got.Correction.K2, 1e-6)
	assert.InDelta(t, m.K3, got.Correction.K3, 1e-8)
}

func TestFit_TooFewSamples(t *testing.T) {
	_, errOut, err := execute(t, "fit", writeFile(t, "samples.yml", "- {pan: 1, tilt: 1, direction: 1, true_pan: 0}\n"))
	assert.EqualError(t, err, "fit failed")
	assert.Contains(t, errOut, "at least 3 samples")
}

func TestReport(t *testing.T) {
	h := history.New()
	h.Reset(1, "s1", "s2")
	require.NoError(t, h.Append(1, "s1", history.Observation{Intensity: 10, Pan: 5, Tilt: 1, Direction: 1}))
	require.NoError(t, h.Append(1, "s1", history.Observation{Intensity: 90, Pan: 2, Tilt: 1, Direction: 1}))
	path := filepath.Join(t.TempDir(), "sensor_history.json")
	require.NoError(t, h.Save(path))

	out, _, err := execute(t, "report", path)
	require.NoError(t, err)
	assert.Contains(t, out, "s1")
	assert.Contains(t, out, "0.446") // corrected 2,1,+1
	assert.Contains(t, out, "sensor s2 has no observations")
}

func TestReport_MissingFile(t *testing.T) {
	_, errOut, err := execute(t, "report", filepath.Join(t.TempDir(), "nope.json"))
	assert.EqualError(t, err, "failed to load history")
	assert.Contains(t, errOut, "lightnav run")
}

func TestRun_Simulated(t *testing.T) {
	dir := t.TempDir()
	historyPath := filepath.Join(dir, "sensor_history.json")
	cfg := writeFile(t, "lightnav.yml", `version: "1.0"
scan:
  settle: 0s
  stabilize: 0s
history:
  path: "`+historyPath+`"
`)
	layout := writeFile(t, "rig.yml", `fixtures:
  - {channel: 3, pan: [0, 30], tilt: [0, 6]}
sensors:
  a: {pan: 12, tilt: 4}
`)

	out, _, err := execute(t, "--config", cfg, "--log-level", "error", "run", "--sim", "--layout", layout)
	require.NoError(t, err)
	assert.Contains(t, out, "calibration COMPLETE")
	assert.Contains(t, out, "History written to "+historyPath)

	h, err := history.Load(historyPath)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, h.Channels())
	found, missing := h.Best(3)
	assert.Empty(t, missing)
	require.Len(t, found, 1)
	assert.Equal(t, 4.0, found[0].Observation.Tilt)
}

func TestRun_SimulatedThresholdFailure(t *testing.T) {
	cfg := writeFile(t, "lightnav.yml", `version: "1.0"
scan:
  settle: 0s
  stabilize: 0s
strategy:
  mode: threshold_seek
  threshold: 1000
history:
  path: "`+filepath.Join(t.TempDir(), "h.json")+`"
`)
	layout := writeFile(t, "rig.yml", `fixtures:
  - {channel: 1, pan: [0, 10], tilt: [0, 2]}
sensors:
  a: {pan: 5, tilt: 1}
`)

	_, errOut, err := execute(t, "--config", cfg, "--log-level", "error", "run", "--sim", "--layout", layout)
	assert.EqualError(t, err, "calibration FAILED")
	assert.Contains(t, errOut, "threshold")
}

func TestRig_CloseLogsErrors(t *testing.T) {
	var buf bytes.Buffer
	var order []string
	r := &rig{
		logger: log.NewWriter(&buf, "info", "text"),
		close: []func() error{
			func() error { order = append(order, "store"); return errors.New("redis gone") },
			func() error { order = append(order, "feed"); return nil },
		},
	}

	r.Close()

	assert.Equal(t, []string{"feed", "store"}, order)
	assert.Contains(t, buf.String(), "failed to close rig resource")
	assert.Contains(t, buf.String(), "redis gone")
}
