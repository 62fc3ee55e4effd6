package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instrumentation for the engine. It also
// implements fetch.Events so the adapters report through the same registry.
type Metrics struct {
	requestCounter  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	upstreamErrors  *prometheus.CounterVec
	fallbackServed  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	sentimentScore  prometheus.Gauge
	fearIndex       prometheus.Gauge
}

// RegisterMetrics sets up Prometheus metrics collection.
func RegisterMetrics() *Metrics {
	m := &Metrics{
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_requests_total",
				Help: "Total number of requests processed",
			},
			[]string{"endpoint", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketpulse_request_duration_seconds",
				Help:    "Request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		upstreamErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_upstream_errors_total",
				Help: "Total number of upstream provider errors",
			},
			[]string{"provider"},
		),
		fallbackServed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_fallback_served_total",
				Help: "Total number of synthetic fallback payloads served",
			},
			[]string{"provider"},
		),
		cacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_cache_hits_total",
				Help: "Upstream cache hits",
			},
			[]string{"provider"},
		),
		cacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_cache_misses_total",
				Help: "Upstream cache misses",
			},
			[]string{"provider"},
		),
		sentimentScore: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "marketpulse_sentiment_score",
				Help: "Last computed composite sentiment score",
			},
		),
		fearIndex: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "marketpulse_fear_index",
				Help: "Last computed fear index",
			},
		),
	}

	prometheus.MustRegister(
		m.requestCounter,
		m.requestDuration,
		m.upstreamErrors,
		m.fallbackServed,
		m.cacheHits,
		m.cacheMisses,
		m.sentimentScore,
		m.fearIndex,
	)

	return m
}

// fetch.Events implementation.

func (m *Metrics) UpstreamError(provider string) {
	m.upstreamErrors.WithLabelValues(provider).Inc()
}

func (m *Metrics) FallbackServed(provider string) {
	m.fallbackServed.WithLabelValues(provider).Inc()
}

func (m *Metrics) CacheHit(provider string) {
	m.cacheHits.WithLabelValues(provider).Inc()
}

func (m *Metrics) CacheMiss(provider string) {
	m.cacheMisses.WithLabelValues(provider).Inc()
}
