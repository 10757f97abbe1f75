package model

import (
	"time"
)

// JobStatus job status
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING" // No task assigned yet
	JobStatusRunning JobStatus = "RUNNING" // At least one task assigned
	JobStatusDone    JobStatus = "DONE"    // All tasks done
)

// TaskStatus task status
type TaskStatus string

const (
	TaskStatusPending  TaskStatus = "PENDING"
	TaskStatusAssigned TaskStatus = "ASSIGNED"
	TaskStatusDone     TaskStatus = "DONE"
)

// Task types understood by the result aggregator. Any other task_type is
// passed through to the machine's plugin untouched and never aggregated.
const (
	TaskTypeMonteCarlo    = "montecarlo"
	TaskTypeOptimizerGrid = "optimizer_grid"
)

// Job administrator-submitted unit of work, decomposed into tasks
type Job struct {
	ID           string    `json:"job_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	TaskType     string    `json:"task_type"`
	TotalChunks  int       `json:"total_chunks"`
	CreatedAt    time.Time `json:"created_at"`
	Status       JobStatus `json:"status"`
	TotalSeconds int64     `json:"total_seconds"` // Sum of seconds reported by its tasks
}

// Task one chunk of a job
type Task struct {
	ID         string                 `json:"task_id"` // {job_id}_part_{i}
	JobID      string                 `json:"job_id"`
	TaskType   string                 `json:"task_type"`
	Params     map[string]interface{} `json:"params"` // Opaque, passed verbatim to the plugin
	Status     TaskStatus             `json:"status"`
	AssignedTo string                 `json:"assigned_to,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
	Seconds    int64                  `json:"seconds"`
	Result     map[string]interface{} `json:"result,omitempty"`
}

// ResultRow append-only audit entry, one per report call
type ResultRow struct {
	JobID     string                 `json:"job_id,omitempty"` // Empty for reports on unknown tasks
	TaskID    string                 `json:"task_id"`
	MachineID string                 `json:"machine_id"`
	Seconds   int64                  `json:"seconds"`
	Timestamp time.Time              `json:"timestamp"`
	Result    map[string]interface{} `json:"result,omitempty"`
}

// CreateJobRequest admin job submission
type CreateJobRequest struct {
	Name        string                 `json:"name" binding:"required"`
	Description string                 `json:"description,omitempty"`
	TaskType    string                 `json:"task_type" binding:"required"`
	ChunkCount  int                    `json:"chunk_count" binding:"required,min=1"`
	Params      map[string]interface{} `json:"params,omitempty"` // Shared base params, copied into every chunk
}

// TaskAssignment what a polling machine receives
type TaskAssignment struct {
	TaskID               string                 `json:"task_id"`
	Payload              string                 `json:"payload"` // task_type, kept as "payload" on the wire
	Params               map[string]interface{} `json:"params,omitempty"`
	Size                 int                    `json:"size,omitempty"`
	TaskMaxSeconds       int                    `json:"task_max_seconds"`
	PostTaskSleepSeconds int                    `json:"post_task_sleep_seconds"`
}

// ReportRequest result report from a machine
type ReportRequest struct {
	MachineID string                 `json:"machine_id" binding:"required"`
	TaskID    string                 `json:"task_id" binding:"required"`
	Seconds   int64                  `json:"seconds"`
	Result    map[string]interface{} `json:"result,omitempty"`
}

// AggregateResult job-level statistic combined from completed tasks.
// Estimate is nil when no samples have been reported yet.
type AggregateResult struct {
	JobID      string                 `json:"job_id"`
	TaskType   string                 `json:"task_type"`
	Estimate   *float64               `json:"estimate"`
	InsideSum  int64                  `json:"inside_sum,omitempty"`
	TotalSum   int64                  `json:"total_sum"`
	BestParams map[string]interface{} `json:"best_params,omitempty"`
	BestScore  *float64               `json:"best_score,omitempty"`
	Evaluated  int64                  `json:"evaluated,omitempty"`
	DoneTasks  int                    `json:"done_tasks"`
}
