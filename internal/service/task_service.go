package service

import (
	"context"

	"greenidle/internal/model"
	"greenidle/internal/store"
	"greenidle/pkg/logger"
	"greenidle/pkg/metrics"
)

// ResultArchiver receives a copy of every result row. Implemented by
// pkg/archive; nil when archiving is disabled.
type ResultArchiver interface {
	Append(ctx context.Context, row *model.ResultRow) error
}

// TaskService is the dispatch and reporting engine: it hands pending
// tasks to polling machines and folds reports back into the job store,
// the machine registry and the audit log.
type TaskService struct {
	jobs     *store.JobStore
	machines *store.MachineStore
	results  *store.ResultLog
	archiver ResultArchiver
}

// NewTaskService creates a new task service. archiver may be nil.
func NewTaskService(jobs *store.JobStore, machines *store.MachineStore, results *store.ResultLog, archiver ResultArchiver) *TaskService {
	return &TaskService{
		jobs:     jobs,
		machines: machines,
		results:  results,
		archiver: archiver,
	}
}

// NextTask assigns the first pending task (creation order) to the
// machine. Returns nil when no task is available or the machine is
// disabled: a deliberately stopped machine never receives work, and the
// disabled check runs before any scan. Polling also counts as a sign of
// life, so the machine record is upserted either way.
func (s *TaskService) NextTask(ctx context.Context, machineID string) *model.TaskAssignment {
	s.machines.Upsert(machineID, "")

	cfg := s.machines.GetConfig(machineID)
	if !cfg.Enabled {
		logger.DebugCtx(ctx, "machine disabled, no task assigned, machine_id: %s", machineID)
		return nil
	}

	task := s.jobs.NextTask(machineID)
	if task == nil {
		return nil
	}

	metrics.TasksAssigned.Inc()
	logger.InfoCtx(ctx, "task assigned, task_id: %s, machine_id: %s", task.ID, machineID)

	assignment := &model.TaskAssignment{
		TaskID:               task.ID,
		Payload:              task.TaskType,
		Params:               task.Params,
		TaskMaxSeconds:       cfg.TaskMaxSeconds,
		PostTaskSleepSeconds: cfg.PostTaskSleepSeconds,
	}
	if n, ok := numberField(task.Params, "n"); ok {
		assignment.Size = int(n)
	}
	return assignment
}

// Report processes a result report. Regardless of whether the task_id
// is recognized, the machine's seconds are accumulated, its last_seen
// refreshed, and a result row appended; unknown task ids degrade to a
// row with no job reference so ad-hoc traffic from already-deployed
// clients still leaves an audit trail. Known tasks are marked done
// idempotently and parent-job completion is recomputed.
func (s *TaskService) Report(ctx context.Context, req *model.ReportRequest) {
	s.machines.AccumulateSeconds(req.MachineID, req.Seconds)
	if req.Seconds > 0 {
		metrics.ComputeSeconds.Add(float64(req.Seconds))
	}

	outcome := s.jobs.Report(req.TaskID, req.Seconds, req.Result)

	row := s.results.Append(outcome.JobID, req.TaskID, req.MachineID, req.Seconds, req.Result)
	if s.archiver != nil {
		if err := s.archiver.Append(ctx, row); err != nil {
			logger.WarnCtx(ctx, "failed to archive result row, task_id: %s: %v", req.TaskID, err)
		}
	}

	switch {
	case !outcome.Known:
		metrics.ReportsReceived.WithLabelValues("unknown").Inc()
		logger.InfoCtx(ctx, "report for unknown task logged, task_id: %s, machine_id: %s, seconds: %d",
			req.TaskID, req.MachineID, req.Seconds)
	case outcome.AlreadyDone:
		metrics.ReportsReceived.WithLabelValues("duplicate").Inc()
		logger.InfoCtx(ctx, "duplicate report accepted, task_id: %s, machine_id: %s", req.TaskID, req.MachineID)
	default:
		metrics.ReportsReceived.WithLabelValues("task").Inc()
		logger.InfoCtx(ctx, "report received, task_id: %s, machine_id: %s, seconds: %d",
			req.TaskID, req.MachineID, req.Seconds)
	}

	if outcome.JobDone {
		metrics.JobsCompleted.Inc()
		logger.InfoCtx(ctx, "job completed, job_id: %s", outcome.JobID)
	}
}

// ReleaseTask is the manual requeue escape hatch for a machine that
// went silent after claiming a task.
func (s *TaskService) ReleaseTask(ctx context.Context, taskID string) error {
	if err := s.jobs.ReleaseTask(taskID); err != nil {
		return err
	}
	logger.WarnCtx(ctx, "task released back to pending, task_id: %s", taskID)
	return nil
}

func numberField(params map[string]interface{}, key string) (float64, bool) {
	if params == nil {
		return 0, false
	}
	switch v := params[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
