package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeCommitted  = "committed"
	outcomeRolledBack = "rolled_back"
	outcomeRejected   = "rejected"
	outcomeNoop       = "noop"
)

var (
	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_session_mutations_total",
			Help: "Session store mutations by store, operation and outcome",
		},
		[]string{"store", "op", "outcome"},
	)

	coalescedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_session_coalesced_total",
			Help: "Queued mutations superseded by a newer request for the same line",
		},
		[]string{"store"},
	)

	remoteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_session_remote_duration_seconds",
			Help:    "Latency of persistence calls made by session stores",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"store", "op"},
	)
)
