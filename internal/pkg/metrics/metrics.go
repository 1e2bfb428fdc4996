package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Counters for the session manager. Registered on the default registry; the
// module itself listens on nothing, so exposition is left to the embedding
// process.
var (
	ConnectTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_connect_total",
			Help: "Wallet connection attempts by outcome.",
		},
		[]string{"outcome"},
	)

	RefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_refresh_total",
			Help: "Read-model refresh operations by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	RefreshSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_refresh_skipped_total",
			Help: "Refresh ticks skipped because one of the same kind was in flight.",
		},
		[]string{"kind"},
	)

	BroadcastTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_broadcast_total",
			Help: "Signed transaction broadcasts by message type and outcome.",
		},
		[]string{"msg_type", "outcome"},
	)
)

var registered bool

// MustRegisterMetrics registers all collectors on the default registry.
// Safe to call once from main; guarded so tests that build the manager
// repeatedly do not hit a double-registration panic.
func MustRegisterMetrics() {
	if registered {
		return
	}
	prometheus.MustRegister(ConnectTotal, RefreshTotal, RefreshSkippedTotal, BroadcastTotal)
	registered = true
}
