package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "logseer_scheduler_runs_total",
		Help: "Completed entity runs by kind and status.",
	}, []string{"kind", "status"})

	skipsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "logseer_scheduler_skips_total",
		Help: "Wakes dropped because the entity's previous run was still in flight.",
	}, []string{"kind"})

	triggersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "logseer_scheduler_triggers_total",
		Help: "Alert and synthetic trigger events by suppression verdict.",
	}, []string{"kind", "suppressed"})

	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "logseer_scheduler_run_duration_seconds",
		Help:    "Entity run duration.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	scheduledEntities = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "logseer_scheduler_entities",
		Help: "Entities currently registered with the scheduler.",
	}, []string{"kind"})

	cacheResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "logseer_query_cache_results_total",
		Help: "Query cache lookups by outcome (hit or miss).",
	}, []string{"outcome"})
)
