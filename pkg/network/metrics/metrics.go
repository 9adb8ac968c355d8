// Package metrics exposes Prometheus instrumentation for the node: peer
// counts, the address pool's size, message throughput, and ping lag.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	peerCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "rustybit",
		Subsystem: "peer",
		Name:      "connected_total",
		Help:      "Number of peers currently in the Connected state.",
	})

	addressPoolSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "rustybit",
		Subsystem: "addrmgr",
		Name:      "pool_size",
		Help:      "Total addresses currently stored across all buckets.",
	})

	messagesReceived = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rustybit",
		Subsystem: "peer",
		Name:      "messages_received_total",
		Help:      "Messages received, labeled by command.",
	}, []string{"command"})

	messagesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rustybit",
		Subsystem: "peer",
		Name:      "messages_sent_total",
		Help:      "Messages sent, labeled by command.",
	}, []string{"command"})

	pingLag = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "rustybit",
		Subsystem: "peer",
		Name:      "ping_lag_seconds",
		Help:      "Round-trip lag inferred from Ping/Pong nonces.",
		Buckets:   prometheus.DefBuckets,
	})
)

// Register adds every collector in this package to the default
// Prometheus registry. Call it once at startup.
func Register() {
	prometheus.MustRegister(peerCount, addressPoolSize, messagesReceived, messagesSent, pingLag)
}

// SetPeerCount records the current number of Connected peers.
func SetPeerCount(n int) {
	peerCount.Set(float64(n))
}

// SetAddressPoolSize records the address manager's current total.
func SetAddressPoolSize(n int) {
	addressPoolSize.Set(float64(n))
}

// ObserveMessageReceived increments the received counter for command.
func ObserveMessageReceived(command string) {
	messagesReceived.WithLabelValues(command).Inc()
}

// ObserveMessageSent increments the sent counter for command.
func ObserveMessageSent(command string) {
	messagesSent.WithLabelValues(command).Inc()
}

// ObservePingLag records a measured Ping/Pong round trip.
func ObservePingLag(lag time.Duration) {
	pingLag.Observe(lag.Seconds())
}
