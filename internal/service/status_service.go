package service

import (
	"context"
	"math"

	"greenidle/internal/model"
	"greenidle/internal/store"
	"greenidle/pkg/metrics"
)

// StatusService builds the public network counters.
type StatusService struct {
	machines *store.MachineStore
	jobs     *store.JobStore
}

// NewStatusService creates a new status service
func NewStatusService(machines *store.MachineStore, jobs *store.JobStore) *StatusService {
	return &StatusService{machines: machines, jobs: jobs}
}

// Snapshot returns the current counters and machine list.
func (s *StatusService) Snapshot(ctx context.Context) *model.StatusResponse {
	jobsCount, jobsDone, pending := s.jobs.Counts()
	totalSeconds := s.machines.TotalSeconds()

	return &model.StatusResponse{
		MachinesCount: s.machines.Count(),
		TotalHours:    roundHours(totalSeconds),
		JobsCount:     jobsCount,
		JobsDone:      jobsDone,
		PendingTasks:  pending,
		Machines:      s.machines.List(),
	}
}

// RefreshGauges pushes current registry/store sizes to Prometheus.
// Called periodically by a background job.
func (s *StatusService) RefreshGauges(ctx context.Context) {
	_, _, pending := s.jobs.Counts()
	metrics.PendingTasks.Set(float64(pending))
	metrics.MachinesKnown.Set(float64(s.machines.Count()))
}

// roundHours converts seconds to hours rounded to 4 decimals, matching
// the long-standing dashboard format.
func roundHours(seconds int64) float64 {
	return math.Round(float64(seconds)/3600*10000) / 10000
}
