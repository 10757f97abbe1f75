package service

import (
	"context"
	"strings"

	"greenidle/internal/model"
	"greenidle/internal/store"
	"greenidle/pkg/logger"

	"github.com/google/uuid"
)

// JobService job creation and inspection
type JobService struct {
	jobs *store.JobStore
}

// NewJobService creates a new job service
func NewJobService(jobs *store.JobStore) *JobService {
	return &JobService{jobs: jobs}
}

// CreateJob splits an admin submission into chunk_count tasks and
// creates job + tasks atomically. Chunk ordering is stable: task ids
// and per-chunk parameters (seed, chunk_index) derive from the 1-based
// creation index, so re-running the same submission produces the same
// chunk layout.
func (s *JobService) CreateJob(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	jobID := newJobID()

	perChunk := make([]map[string]interface{}, req.ChunkCount)
	for i := 0; i < req.ChunkCount; i++ {
		params := make(map[string]interface{}, len(req.Params)+3)
		for k, v := range req.Params {
			params[k] = v
		}
		params["seed"] = i + 1
		params["chunk_index"] = i + 1
		params["chunk_count"] = req.ChunkCount
		perChunk[i] = params
	}

	// Monte Carlo jobs carry a total sample size; split it across
	// chunks, remainder to the last one.
	if req.TaskType == model.TaskTypeMonteCarlo {
		if size, ok := numberField(req.Params, "size"); ok && size > 0 {
			total := int(size)
			per := total / req.ChunkCount
			for i := 0; i < req.ChunkCount; i++ {
				n := per
				if i == req.ChunkCount-1 {
					n = total - per*(req.ChunkCount-1)
				}
				perChunk[i]["n"] = n
				delete(perChunk[i], "size")
			}
		}
	}

	job, err := s.jobs.CreateJob(jobID, req.Name, req.Description, req.TaskType, perChunk)
	if err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "job created, job_id: %s, task_type: %s, chunks: %d", job.ID, job.TaskType, job.TotalChunks)
	return job, nil
}

// GetJob returns a job with its tasks.
func (s *JobService) GetJob(ctx context.Context, jobID string) (*model.Job, []*model.Task, error) {
	job, err := s.jobs.GetJob(jobID)
	if err != nil {
		return nil, nil, err
	}
	tasks, err := s.jobs.JobTasks(jobID)
	if err != nil {
		return nil, nil, err
	}
	return job, tasks, nil
}

// ListJobs returns all jobs in creation order.
func (s *JobService) ListJobs(ctx context.Context) []*model.Job {
	return s.jobs.ListJobs()
}

// newJobID returns a short opaque id. Eight hex chars are plenty at
// coordinator scale and keep derived task ids readable.
func newJobID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}
