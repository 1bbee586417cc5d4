package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "pollship"

// metrics holds the Prometheus collectors of one Server.
type metrics struct {
	payloadsTotal  *prometheus.CounterVec
	payloadBytes   prometheus.Histogram
	pollDuration   prometheus.Histogram
	encodeErrors   *prometheus.CounterVec
	activeSessions prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)

	return &metrics{
		payloadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "payloads_total",
			Help:      "Total number of polling payloads sent",
		}, []string{"protocol", "framing"}),

		payloadBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "payload_bytes",
			Help:      "Size of polling payloads in bytes",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 8),
		}),

		pollDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "poll_duration_seconds",
			Help:      "Time a poll request waited for its payload",
			Buckets:   prometheus.DefBuckets,
		}),

		encodeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "encode_errors_total",
			Help:      "Total number of polls that ended without a payload",
		}, []string{"reason"}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "active_sessions",
			Help:      "Number of registered polling sessions",
		}),
	}
}

func framing(binary bool) string {
	if binary {
		return "binary"
	}
	return "text"
}
