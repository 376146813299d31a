package logic

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	finalizationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stats_engine_finalizations_total",
		Help: "Game writes handled by the finalizer, by result",
	}, []string{"result"})

	ticketsSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stats_engine_tickets_settled_total",
		Help: "Tickets settled, by settlement tag",
	}, []string{"settlement"})

	scoreCorrectionsUnpropagated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stats_engine_score_corrections_unpropagated_total",
		Help: "Settled tickets whose outcome differs after a post-final score correction",
	})

	statsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stats_engine_stats_applied_total",
		Help: "Per-ticket stats applications, by result",
	}, []string{"result"})

	downstreamFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stats_engine_downstream_failures_total",
		Help: "Failures of follow-up work after a settlement commit",
	}, []string{"step"})

	jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stats_engine_job_duration_seconds",
		Help:    "Duration of periodic rebuild jobs",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"job"})
)
