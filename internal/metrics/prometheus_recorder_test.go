package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Recorder = NoopRecorder{}
var _ Recorder = (*PrometheusRecorder)(nil)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStepDuration("copy-hex", 15*time.Millisecond)
	pr.IncStepResult("copy-hex", ResultSuccess)
	pr.IncStepResult("zip-binary", ResultFailed)
	pr.ObserveRunDuration(40 * time.Millisecond)
	pr.IncRunOutcome("partial")
	pr.SetArtifactBytes("hex", 1024)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	for _, want := range []string{
		"fwpack_step_duration_seconds",
		"fwpack_step_results_total",
		"fwpack_run_duration_seconds",
		"fwpack_run_outcomes_total",
		"fwpack_artifact_bytes",
		"fwpack_last_run_timestamp_seconds",
	} {
		assert.True(t, names[want], "missing metric %s", want)
	}
}

func TestWriteTextfile(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncRunOutcome("success")

	path := filepath.Join(t.TempDir(), "textfile", "fwpack.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `fwpack_run_outcomes_total{outcome="success"} 1`), string(data))
}
