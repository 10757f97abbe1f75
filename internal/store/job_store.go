package store

import (
	"fmt"
	"sync"
	"time"

	"greenidle/internal/model"
)

// JobStore owns jobs and their constituent tasks. A job is created
// atomically with its full set of tasks; task status moves
// PENDING -> ASSIGNED -> DONE and never reverses. The claim in NextTask
// is a single critical section, so a task can only ever be handed to
// one machine.
type JobStore struct {
	mu    sync.RWMutex
	jobs  map[string]*model.Job
	tasks map[string]*model.Task

	jobOrder  []string
	taskOrder []string // Creation order, drives FIFO assignment

	now func() time.Time
}

// NewJobStore creates an empty job store.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs:  make(map[string]*model.Job),
		tasks: make(map[string]*model.Task),
		now:   time.Now,
	}
}

// CreateJob atomically creates a job with status PENDING and exactly
// len(perChunkParams) tasks, ids derived as {job_id}_part_{i} with
// 1-based chunk indices in creation order.
func (s *JobStore) CreateJob(jobID, name, description, taskType string, perChunkParams []map[string]interface{}) (*model.Job, error) {
	if len(perChunkParams) == 0 {
		return nil, fmt.Errorf("%w: job needs at least one chunk", ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[jobID]; exists {
		return nil, fmt.Errorf("%w: job %s already exists", ErrInvalidArgument, jobID)
	}

	now := s.now()
	job := &model.Job{
		ID:          jobID,
		Name:        name,
		Description: description,
		TaskType:    taskType,
		TotalChunks: len(perChunkParams),
		CreatedAt:   now,
		Status:      model.JobStatusPending,
	}
	s.jobs[jobID] = job
	s.jobOrder = append(s.jobOrder, jobID)

	for i, params := range perChunkParams {
		taskID := fmt.Sprintf("%s_part_%d", jobID, i+1)
		s.tasks[taskID] = &model.Task{
			ID:        taskID,
			JobID:     jobID,
			TaskType:  taskType,
			Params:    params,
			Status:    model.TaskStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.taskOrder = append(s.taskOrder, taskID)
	}

	return s.copyJob(job), nil
}

// NextTask claims the first pending task in creation order for the
// given machine. The scan and the mutation run under one lock; two
// concurrent callers can never claim the same task. Returns nil when
// nothing is pending.
func (s *JobStore) NextTask(machineID string) *model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, taskID := range s.taskOrder {
		task := s.tasks[taskID]
		if task.Status != model.TaskStatusPending {
			continue
		}

		task.Status = model.TaskStatusAssigned
		task.AssignedTo = machineID
		task.UpdatedAt = s.now()

		// First assignment moves the parent job out of PENDING.
		if job := s.jobs[task.JobID]; job.Status == model.JobStatusPending {
			job.Status = model.JobStatusRunning
		}

		return s.copyTask(task)
	}

	return nil
}

// ReportOutcome what Report did with a task_id.
type ReportOutcome struct {
	Known       bool   // task_id names a task in the store
	JobID       string // Empty when unknown
	JobDone     bool   // Parent job reached DONE on this report
	AlreadyDone bool   // Task was DONE before this report (duplicate)
}

// Report records a task result. Reporting is idempotent: a duplicate
// report still accumulates seconds and overwrites the result, and the
// task stays DONE. Job completion is recomputed after every known
// report; once DONE a job stays DONE.
func (s *JobStore) Report(taskID string, seconds int64, result map[string]interface{}) ReportOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return ReportOutcome{}
	}

	out := ReportOutcome{Known: true, JobID: task.JobID, AlreadyDone: task.Status == model.TaskStatusDone}

	task.Status = model.TaskStatusDone
	task.UpdatedAt = s.now()
	if seconds > 0 {
		task.Seconds += seconds
	}
	if result != nil {
		task.Result = result
	}

	job := s.jobs[task.JobID]
	if seconds > 0 {
		job.TotalSeconds += seconds
	}

	if job.Status != model.JobStatusDone && s.allTasksDoneLocked(job.ID) {
		job.Status = model.JobStatusDone
		out.JobDone = true
	}

	return out
}

// ReleaseTask puts an assigned task back to PENDING so another machine
// can claim it. This is the manual lease-release escape hatch for
// machines that vanished mid-task; nothing in the coordinator calls it
// automatically.
func (s *JobStore) ReleaseTask(taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return fmt.Errorf("%w: task %s", ErrNotFound, taskID)
	}
	if task.Status != model.TaskStatusAssigned {
		return fmt.Errorf("%w: task %s is %s, only assigned tasks can be released", ErrInvalidArgument, taskID, task.Status)
	}

	task.Status = model.TaskStatusPending
	task.AssignedTo = ""
	task.UpdatedAt = s.now()
	return nil
}

// GetJob returns a job by id.
func (s *JobStore) GetJob(jobID string) (*model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: job %s", ErrNotFound, jobID)
	}
	return s.copyJob(job), nil
}

// GetTask returns a task by id.
func (s *JobStore) GetTask(taskID string) (*model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: task %s", ErrNotFound, taskID)
	}
	return s.copyTask(task), nil
}

// ListJobs returns all jobs in creation order.
func (s *JobStore) ListJobs() []*model.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Job, 0, len(s.jobOrder))
	for _, id := range s.jobOrder {
		out = append(out, s.copyJob(s.jobs[id]))
	}
	return out
}

// JobTasks returns the job's tasks in chunk order.
func (s *JobStore) JobTasks(jobID string) ([]*model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: job %s", ErrNotFound, jobID)
	}

	out := make([]*model.Task, 0, job.TotalChunks)
	for i := 1; i <= job.TotalChunks; i++ {
		taskID := fmt.Sprintf("%s_part_%d", jobID, i)
		out = append(out, s.copyTask(s.tasks[taskID]))
	}
	return out, nil
}

// Counts returns job count, done-job count and pending-task count for
// the public status surface.
func (s *JobStore) Counts() (jobs, jobsDone, pendingTasks int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs = len(s.jobs)
	for _, job := range s.jobs {
		if job.Status == model.JobStatusDone {
			jobsDone++
		}
	}
	for _, task := range s.tasks {
		if task.Status == model.TaskStatusPending {
			pendingTasks++
		}
	}
	return jobs, jobsDone, pendingTasks
}

func (s *JobStore) allTasksDoneLocked(jobID string) bool {
	job := s.jobs[jobID]
	for i := 1; i <= job.TotalChunks; i++ {
		taskID := fmt.Sprintf("%s_part_%d", jobID, i)
		if s.tasks[taskID].Status != model.TaskStatusDone {
			return false
		}
	}
	return true
}

func (s *JobStore) copyJob(job *model.Job) *model.Job {
	out := *job
	return &out
}

func (s *JobStore) copyTask(task *model.Task) *model.Task {
	out := *task
	return &out
}
