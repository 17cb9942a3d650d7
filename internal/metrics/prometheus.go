package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fitgen"

var (
	generationRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "generation",
		Name:      "requests_total",
		Help:      "Generation gateway requests by content kind and outcome.",
	}, []string{"kind", "outcome"})

	upstreamLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "generation",
		Name:      "upstream_duration_seconds",
		Help:      "Latency of model API calls.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30},
	}, []string{"kind"})

	cacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "generation",
		Name:      "idempotency_hits_total",
		Help:      "Generation results served from the duplicate-submission cache.",
	}, []string{"kind"})

	exportsRendered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "export",
		Name:      "pdf_rendered_total",
		Help:      "Rendered PDF exports by content kind and delivery mode.",
	}, []string{"kind", "mode"})

	rateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the per-IP limiter.",
	})
)

func init() {
	prometheus.MustRegister(generationRequests, upstreamLatency, cacheHits, exportsRendered, rateLimited)
}

// RecordGeneration counts one gateway outcome (ok, invalid_request, parse_error, ...).
func RecordGeneration(kind, outcome string) {
	generationRequests.WithLabelValues(kind, outcome).Inc()
}

func ObserveUpstream(kind string, d time.Duration) {
	upstreamLatency.WithLabelValues(kind).Observe(d.Seconds())
}

func RecordCacheHit(kind string) {
	cacheHits.WithLabelValues(kind).Inc()
}

func RecordExport(kind, mode string) {
	exportsRendered.WithLabelValues(kind, mode).Inc()
}

func RecordRateLimited() {
	rateLimited.Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
