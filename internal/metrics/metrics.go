// Package metrics exposes Prometheus collectors for the ambient operational
// surface: handshake outcomes/timing, session lifecycle, and message/byte
// counters. Nothing in pkg/session's Encrypt/Decrypt hot path touches this
// package directly; it is wired in at the handshake-orchestration layer, the
// session Registry, and the demo server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "adatp"

// Registry is the collector registry all metrics in this package register
// against. A dedicated registry (rather than prometheus.DefaultRegisterer)
// keeps repeated test runs from panicking on duplicate registration.
var Registry = prometheus.NewRegistry()

var (
	// HandshakesInitiated counts handshakes started, by role.
	HandshakesInitiated = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "handshakes",
			Name:      "initiated_total",
			Help:      "Total number of handshakes initiated",
		},
		[]string{"role"}, // client, server
	)

	// HandshakesCompleted counts handshakes that reached a terminal outcome.
	HandshakesCompleted = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "handshakes",
			Name:      "completed_total",
			Help:      "Total number of handshakes completed",
		},
		[]string{"status"}, // success, failure
	)

	// HandshakesFailed breaks out failures by cause.
	HandshakesFailed = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "handshakes",
			Name:      "failed_total",
			Help:      "Total number of failed handshakes by error type",
		},
		[]string{"error_type"}, // connection, malformed, verification, unexpected_message, other
	)

	// HandshakeDuration tracks end-to-end handshake latency.
	HandshakeDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "handshakes",
			Name:      "duration_seconds",
			Help:      "Handshake duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
		},
		[]string{"role"},
	)
)

var (
	// SessionsActive is the number of sessions currently held by a registry.
	SessionsActive = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "active",
			Help:      "Number of secure sessions currently tracked",
		},
	)

	// SessionsEvicted counts sessions removed by idle sweep.
	SessionsEvicted = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "evicted_total",
			Help:      "Total number of sessions evicted for exceeding the idle timeout",
		},
	)
)

var (
	// MessagesSent counts frames written to a connection, by message type.
	MessagesSent = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "sent_total",
			Help:      "Total number of frames sent",
		},
		[]string{"type"},
	)

	// MessagesReceived counts frames read from a connection, by message type.
	MessagesReceived = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "received_total",
			Help:      "Total number of frames received",
		},
		[]string{"type"},
	)

	// BytesSent sums serialized packet bytes written to connections.
	BytesSent = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "bytes_sent_total",
			Help:      "Total number of bytes written across all connections",
		},
	)

	// BytesReceived sums serialized packet bytes read from connections.
	BytesReceived = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "bytes_received_total",
			Help:      "Total number of bytes read across all connections",
		},
	)
)

// Handler returns the HTTP handler serving this package's registry in the
// Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
