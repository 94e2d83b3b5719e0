package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ChatRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gen_chat_requests_total",
			Help: "Total chat requests by assistant mode",
		},
		[]string{"mode"},
	)

	FilesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gen_files_generated_total",
			Help: "Total generated files by kind",
		},
		[]string{"kind"},
	)

	RouterAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gen_router_attempts_total",
			Help: "Model router attempts by model and outcome",
		},
		[]string{"model", "outcome"},
	)

	RouterExhaustions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gen_router_exhaustions_total",
			Help: "Requests for which every model in the chain was unavailable",
		},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gen_cache_lookups_total",
			Help: "TTL cache lookups by outcome",
		},
		[]string{"outcome"},
	)

	ChatDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "gen_chat_duration_seconds",
			Help: "End to end chat request duration in seconds",
		},
	)
)
