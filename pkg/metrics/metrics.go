// Package metrics exposes coordinator counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthRequests counts auth gateway decisions by outcome:
	// legacy, signed, unauthorized, rate_limited, forbidden.
	AuthRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "greenidle_auth_requests_total",
		Help: "Auth gateway decisions by outcome",
	}, []string{"outcome"})

	// TasksAssigned counts successful task claims.
	TasksAssigned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "greenidle_tasks_assigned_total",
		Help: "Tasks handed to polling machines",
	})

	// ReportsReceived counts report calls by kind: task, duplicate, unknown.
	ReportsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "greenidle_reports_total",
		Help: "Result reports by kind",
	}, []string{"kind"})

	// JobsCompleted counts jobs that reached DONE.
	JobsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "greenidle_jobs_completed_total",
		Help: "Jobs whose tasks all completed",
	})

	// PendingTasks is the current number of unassigned tasks.
	PendingTasks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "greenidle_tasks_pending",
		Help: "Tasks waiting for assignment",
	})

	// MachinesKnown is the current size of the machine registry.
	MachinesKnown = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "greenidle_machines_known",
		Help: "Machines in the registry",
	})

	// ComputeSeconds accumulates seconds reported by machines.
	ComputeSeconds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "greenidle_compute_seconds_total",
		Help: "Compute seconds reported by all machines",
	})
)
