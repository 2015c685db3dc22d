// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "soundmatch"

var (
	ProviderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_requests_total",
		Help:      "Provider calls by platform and outcome (ok, empty, failed).",
	}, []string{"platform", "outcome"})

	ProviderDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "provider_request_duration_seconds",
		Help:      "Provider call latency in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"platform"})

	RecommendationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recommendations_total",
		Help:      "Recommendation requests by path taken (live, fallback).",
	}, []string{"path"})

	StrategyTracksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "strategy_tracks_total",
		Help:      "Tracks emitted per recommendation strategy before de-duplication.",
	}, []string{"strategy"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 30},
	}, []string{"method", "path"})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		ProviderRequestsTotal,
		ProviderDuration,
		RecommendationsTotal,
		StrategyTracksTotal,
		HTTPRequestsTotal,
		HTTPRequestDuration,
	)
}

// ObserveProvider records one provider call.
func ObserveProvider(platform, outcome string, elapsed time.Duration) {
	ProviderRequestsTotal.WithLabelValues(platform, outcome).Inc()
	ProviderDuration.WithLabelValues(platform).Observe(elapsed.Seconds())
}
