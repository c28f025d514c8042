package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the job server, exposed on /metrics.
var (
	metricJobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "anneal",
		Name:      "jobs_total",
		Help:      "Jobs by terminal state.",
	}, []string{"state"})

	metricRunningJobs = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "anneal",
		Name:      "running_jobs",
		Help:      "Jobs currently running.",
	})

	metricIterations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "anneal",
		Name:      "iterations_total",
		Help:      "Annealing iterations executed across all jobs.",
	})

	metricAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "anneal",
		Name:      "accepted_transitions_total",
		Help:      "Accepted transitions across all jobs.",
	})

	metricCheckpoints = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "anneal",
		Name:      "checkpoint_saves_total",
		Help:      "Checkpoints written by the periodic snapshot loop.",
	})

	metricBestEnergy = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "anneal",
		Name:      "best_energy",
		Help:      "Best energy per problem, from the most recently updated job.",
	}, []string{"problem"})
)
