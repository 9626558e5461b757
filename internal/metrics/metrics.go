package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's Prometheus collectors. All methods are safe
// to call on a nil *Metrics.
type Metrics struct {
	generationAttempts *prometheus.CounterVec
	generationLatency  *prometheus.HistogramVec
	pipelineDuration   *prometheus.HistogramVec
	patternFallbacks   prometheus.Counter
	cacheLookups       *prometheus.CounterVec
	documentsParsed    *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		generationAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "uml",
			Name:      "generation_attempts_total",
			Help:      "Backend candidate attempts by variant, model and outcome.",
		}, []string{"variant", "model", "outcome"}),
		generationLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "uml",
			Name:      "generation_attempt_seconds",
			Help:      "Latency of a single backend candidate attempt.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"outcome"}),
		pipelineDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "uml",
			Name:      "pipeline_seconds",
			Help:      "End-to-end duration of diagram and pattern pipelines.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 8),
		}, []string{"operation", "degraded"}),
		patternFallbacks: f.NewCounter(prometheus.CounterOpts{
			Namespace: "uml",
			Name:      "pattern_fallbacks_total",
			Help:      "Pattern detections answered with the default list.",
		}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "uml",
			Name:      "analysis_cache_lookups_total",
			Help:      "Analysis cache lookups by result.",
		}, []string{"result"}),
		documentsParsed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "uml",
			Name:      "documents_parsed_total",
			Help:      "Uploaded documents by detected format and outcome.",
		}, []string{"format", "outcome"}),
	}
}

// ObserveAttempt records one backend candidate attempt.
func (m *Metrics) ObserveAttempt(variant, model, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.generationAttempts.WithLabelValues(variant, model, outcome).Inc()
	m.generationLatency.WithLabelValues(outcome).Observe(seconds)
}

// ObservePipeline records a finished pipeline run.
func (m *Metrics) ObservePipeline(operation string, degraded bool, seconds float64) {
	if m == nil {
		return
	}
	m.pipelineDuration.WithLabelValues(operation, strconv.FormatBool(degraded)).Observe(seconds)
}

// PatternFallback counts a default pattern list substitution.
func (m *Metrics) PatternFallback() {
	if m == nil {
		return
	}
	m.patternFallbacks.Inc()
}

// CacheLookup counts a cache hit, miss or error.
func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// DocumentParsed counts an uploaded document extraction.
func (m *Metrics) DocumentParsed(format, outcome string) {
	if m == nil {
		return
	}
	m.documentsParsed.WithLabelValues(format, outcome).Inc()
}
