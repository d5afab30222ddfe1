package calnder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncPassesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "calnder_client",
			Name:      "sync_passes_total",
			Help:      "Sync passes by outcome (applied, stale, failed).",
		},
		[]string{"outcome"},
	)

	syncSourceFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "calnder_client",
			Name:      "sync_source_failures_total",
			Help:      "Individual source fetch failures during sync.",
		},
		[]string{"origin"},
	)

	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "calnder_client",
			Name:      "mutations_total",
			Help:      "Optimistic mutations accepted by the store, by operation and key shard.",
		},
		[]string{"op", "shard"},
	)

	rollbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "calnder_client",
			Name:      "mutation_rollbacks_total",
			Help:      "Optimistic mutations rolled back after gateway failure, by operation and key shard.",
		},
		[]string{"op", "shard"},
	)
)
