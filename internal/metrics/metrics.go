// Package metrics exposes Prometheus instrumentation for phishing analyses.
package metrics

import (
	"net/http"
	"time"

	"github.com/mikey/llm-phish-detector/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// Namespace prefixes every metric name
	Namespace = "phish_detector"

	OutcomePhishing     = "phishing"
	OutcomeNotPhishing  = "not_phishing"
	OutcomeUndetermined = "undetermined"
	OutcomeError        = "error"
)

// Metrics records analysis outcomes and implements core.AnalysisObserver
type Metrics struct {
	registry *prometheus.Registry

	AnalysesTotal    *prometheus.CounterVec
	AnalysisDuration prometheus.Histogram
	CacheHitsTotal   prometheus.Counter
}

// New creates the metrics on a dedicated registry
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		AnalysesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "analyses_total",
				Help:      "Total number of email analyses by outcome",
			},
			[]string{"outcome"},
		),
		AnalysisDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "analysis_duration_seconds",
				Help:      "Duration of email analyses in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
			},
		),
		CacheHitsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of analyses served from the cache",
			},
		),
	}
}

// ObserveAnalysis records the outcome and duration of one analysis
func (m *Metrics) ObserveAnalysis(result *core.AnalysisResult, duration time.Duration) {
	m.AnalysesTotal.WithLabelValues(Outcome(result)).Inc()
	m.AnalysisDuration.Observe(duration.Seconds())
}

// ObserveCacheHit records an analysis answered from the cache
func (m *Metrics) ObserveCacheHit() {
	m.CacheHitsTotal.Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Outcome maps a result onto its outcome label
func Outcome(result *core.AnalysisResult) string {
	switch {
	case !result.Success:
		return OutcomeError
	case result.IsPhishing == nil:
		return OutcomeUndetermined
	case *result.IsPhishing:
		return OutcomePhishing
	default:
		return OutcomeNotPhishing
	}
}
