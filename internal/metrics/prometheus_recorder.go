package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stepDuration  *prom.HistogramVec
	stepResults   *prom.CounterVec
	runDuration   prom.Histogram
	runOutcome    *prom.CounterVec
	artifactBytes *prom.GaugeVec
	lastRun       prom.Gauge
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stepDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "fwpack",
			Name:      "step_duration_seconds",
			Help:      "Duration of individual packaging steps",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"step"}),
		stepResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "fwpack",
			Name:      "step_results_total",
			Help:      "Packaging step results by outcome",
		}, []string{"step", "result"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "fwpack",
			Name:      "run_duration_seconds",
			Help:      "Total packaging run duration",
			Buckets:   prom.DefBuckets,
		}),
		runOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "fwpack",
			Name:      "run_outcomes_total",
			Help:      "Packaging runs by final status",
		}, []string{"outcome"}),
		artifactBytes: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "fwpack",
			Name:      "artifact_bytes",
			Help:      "Size of the produced distribution files",
		}, []string{"artifact"}),
		lastRun: prom.NewGauge(prom.GaugeOpts{
			Namespace: "fwpack",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last packaging run",
		}),
	}
	reg.MustRegister(pr.stepDuration, pr.stepResults, pr.runDuration, pr.runOutcome, pr.artifactBytes, pr.lastRun)
	return pr
}

func (p *PrometheusRecorder) ObserveStepDuration(step string, d time.Duration) {
	p.stepDuration.WithLabelValues(step).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStepResult(step string, result ResultLabel) {
	p.stepResults.WithLabelValues(step, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	p.runDuration.Observe(d.Seconds())
	p.lastRun.SetToCurrentTime()
}

func (p *PrometheusRecorder) IncRunOutcome(outcome string) {
	p.runOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) SetArtifactBytes(artifact string, n int64) {
	p.artifactBytes.WithLabelValues(artifact).Set(float64(n))
}
