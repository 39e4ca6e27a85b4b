package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "docsplice"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg                  *prom.Registry
	conversionDuration   *prom.HistogramVec
	conversions          *prom.CounterVec
	conversionFailures   *prom.CounterVec
	outputDeletions      *prom.CounterVec
	buildDuration        prom.Histogram
	buildOutcomes        *prom.CounterVec
	watchEvents          *prom.CounterVec
	templatePropagations *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		conversionDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "conversion_duration_seconds",
			Help:      "Duration of single source to output conversions",
			Buckets:   prom.DefBuckets,
		}, []string{"result"}),
		conversions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_total",
			Help:      "Conversions by result",
		}, []string{"result"}),
		conversionFailures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "conversion_failures_total",
			Help:      "Failed conversions by error category",
		}, []string{"category"}),
		outputDeletions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "output_deletions_total",
			Help:      "Output documents deleted before regeneration",
		}, []string{"result"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total batch build duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Batch builds by final status",
		}, []string{"outcome"}),
		watchEvents: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "watch_events_total",
			Help:      "Filesystem events by classification",
		}, []string{"kind"}),
		templatePropagations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "template_propagations_total",
			Help:      "Template change propagations by completion",
		}, []string{"result"}),
	}
	reg.MustRegister(pr.conversionDuration, pr.conversions, pr.conversionFailures, pr.outputDeletions,
		pr.buildDuration, pr.buildOutcomes, pr.watchEvents, pr.templatePropagations)
	return pr
}

// Registry exposes the backing registry for export.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

func (p *PrometheusRecorder) ObserveConversion(d time.Duration, result ResultLabel) {
	if p == nil {
		return
	}
	p.conversionDuration.WithLabelValues(string(result)).Observe(d.Seconds())
	p.conversions.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncConversionFailure(category string) {
	if p == nil {
		return
	}
	p.conversionFailures.WithLabelValues(category).Inc()
}

func (p *PrometheusRecorder) IncOutputDeletion(success bool) {
	if p == nil {
		return
	}
	p.outputDeletions.WithLabelValues(successLabel(success)).Inc()
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil {
		return
	}
	p.buildOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncWatchEvent(kind string) {
	if p == nil {
		return
	}
	p.watchEvents.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncTemplatePropagation(canceled bool) {
	if p == nil {
		return
	}
	res := "completed"
	if canceled {
		res = "canceled"
	}
	p.templatePropagations.WithLabelValues(res).Inc()
}

// WriteTextfile atomically writes the registry in text exposition format,
// suitable for the node-exporter textfile collector.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	return prom.WriteToTextfile(path, p.reg)
}

func successLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failed"
}
