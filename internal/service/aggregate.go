package service

import (
	"context"
	"errors"
	"fmt"

	"greenidle/internal/model"
	"greenidle/internal/store"
)

// ErrNotAggregatable the job's task_type has no job-level combine rule.
var ErrNotAggregatable = errors.New("task type is not aggregatable")

// Aggregator combines completed task results into a job-level answer.
// It only reads the job store, so it can run concurrently with
// in-flight reports; it simply sees whatever was done at read time.
type Aggregator struct {
	jobs *store.JobStore
}

// NewAggregator creates a new aggregator
func NewAggregator(jobs *store.JobStore) *Aggregator {
	return &Aggregator{jobs: jobs}
}

// Aggregate combines the job's completed task results.
//
// montecarlo: sums inside/total over every done task and applies the
// circle-area identity estimate = 4*inside/total. Purely additive and
// order-independent, which is why unrelated machines can compute chunks
// that combine losslessly. Zero samples yields a nil estimate.
//
// optimizer_grid: picks the best chunk by score (direction given by the
// chunk's metric field, minimize_loss unless maximize_score) and sums
// the evaluated counts.
func (a *Aggregator) Aggregate(ctx context.Context, jobID string) (*model.AggregateResult, error) {
	job, err := a.jobs.GetJob(jobID)
	if err != nil {
		return nil, err
	}

	tasks, err := a.jobs.JobTasks(jobID)
	if err != nil {
		return nil, err
	}

	switch job.TaskType {
	case model.TaskTypeMonteCarlo:
		return a.aggregateMonteCarlo(job, tasks), nil
	case model.TaskTypeOptimizerGrid:
		return a.aggregateGrid(job, tasks), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotAggregatable, job.TaskType)
	}
}

func (a *Aggregator) aggregateMonteCarlo(job *model.Job, tasks []*model.Task) *model.AggregateResult {
	out := &model.AggregateResult{
		JobID:    job.ID,
		TaskType: job.TaskType,
	}

	for _, task := range tasks {
		if task.Status != model.TaskStatusDone || task.Result == nil {
			continue
		}
		out.DoneTasks++
		if inside, ok := numberField(task.Result, "inside"); ok {
			out.InsideSum += int64(inside)
		}
		if total, ok := numberField(task.Result, "total"); ok {
			out.TotalSum += int64(total)
		}
	}

	if out.TotalSum > 0 {
		estimate := 4 * float64(out.InsideSum) / float64(out.TotalSum)
		out.Estimate = &estimate
	}
	return out
}

func (a *Aggregator) aggregateGrid(job *model.Job, tasks []*model.Task) *model.AggregateResult {
	out := &model.AggregateResult{
		JobID:    job.ID,
		TaskType: job.TaskType,
	}

	for _, task := range tasks {
		if task.Status != model.TaskStatusDone || task.Result == nil {
			continue
		}
		out.DoneTasks++

		if evaluated, ok := numberField(task.Result, "evaluated"); ok {
			out.Evaluated += int64(evaluated)
		}

		score, ok := numberField(task.Result, "best_score")
		if !ok {
			continue
		}

		maximize := false
		if metric, ok := task.Result["metric"].(string); ok {
			maximize = metric == "maximize_score"
		}

		better := out.BestScore == nil ||
			(maximize && score > *out.BestScore) ||
			(!maximize && score < *out.BestScore)
		if better {
			s := score
			out.BestScore = &s
			if params, ok := task.Result["best_params"].(map[string]interface{}); ok {
				out.BestParams = params
			}
		}
	}

	return out
}
