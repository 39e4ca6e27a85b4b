package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveConversion(15*time.Millisecond, ResultSuccess)
	pr.ObserveConversion(5*time.Millisecond, ResultFailed)
	pr.IncConversionFailure("source")
	pr.IncOutputDeletion(true)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncBuildOutcome(BuildOutcomePartial)
	pr.IncWatchEvent("source")
	pr.IncTemplatePropagation(true)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	for _, want := range []string{
		"docsplice_conversion_duration_seconds",
		"docsplice_conversions_total",
		"docsplice_conversion_failures_total",
		"docsplice_output_deletions_total",
		"docsplice_build_duration_seconds",
		"docsplice_build_outcomes_total",
		"docsplice_watch_events_total",
		"docsplice_template_propagations_total",
	} {
		assert.True(t, names[want], "missing metric %s", want)
	}
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.ObserveConversion(time.Second, ResultSuccess)
		pr.IncBuildOutcome(BuildOutcomeSuccess)
		pr.IncWatchEvent("ignored")
	})
}

func TestPrometheusRecorder_WriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.ObserveConversion(time.Millisecond, ResultSuccess)

	path := filepath.Join(t.TempDir(), "docsplice.prom")
	require.NoError(t, pr.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `docsplice_conversions_total{result="success"} 1`)
}

func TestNoopRecorderSatisfiesInterface(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveConversion(time.Second, ResultFailed)
	r.IncTemplatePropagation(false)
}
