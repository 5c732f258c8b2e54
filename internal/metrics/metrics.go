// Package metrics exposes prometheus collectors for the store. Registration
// happens on the default registry; serving /metrics is the embedding
// server's business.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StoreOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "winsome_store_operations_total",
		Help: "Store facade operations by name and outcome.",
	}, []string{"operation", "status"})

	StagedEntriesPulled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "winsome_staged_entries_pulled_total",
		Help: "Interactions drained from the new-entries node.",
	})

	RewardCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "winsome_reward_cycles_total",
		Help: "Completed reward computation cycles.",
	})

	RewardsCredited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "winsome_rewards_credited_total",
		Help: "Wallet credits written by the reward engine.",
	})
)

// ObserveOp counts one facade operation with its outcome.
func ObserveOp(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	StoreOperations.WithLabelValues(operation, status).Inc()
}
