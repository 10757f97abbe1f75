package service

import (
	"context"
	"testing"

	"greenidle/internal/model"
	"greenidle/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGridJob(t *testing.T, jobs *store.JobStore, jobID string, chunks int) {
	t.Helper()
	params := make([]map[string]interface{}, chunks)
	for i := range params {
		params[i] = map[string]interface{}{"chunk_index": i + 1}
	}
	_, err := jobs.CreateJob(jobID, "test", "", model.TaskTypeOptimizerGrid, params)
	require.NoError(t, err)
}

func newMonteCarloJob(t *testing.T, jobs *store.JobStore, jobID string, chunks int) {
	t.Helper()
	params := make([]map[string]interface{}, chunks)
	for i := range params {
		params[i] = map[string]interface{}{"n": 1000}
	}
	_, err := jobs.CreateJob(jobID, "test", "", model.TaskTypeMonteCarlo, params)
	require.NoError(t, err)
}

func TestAggregateMonteCarlo(t *testing.T) {
	jobs := store.NewJobStore()
	newMonteCarloJob(t, jobs, "j1", 2)
	agg := NewAggregator(jobs)

	jobs.Report("j1_part_1", 10, map[string]interface{}{"inside": 785.0, "total": 1000.0})
	jobs.Report("j1_part_2", 10, map[string]interface{}{"inside": 790.0, "total": 1000.0})

	out, err := agg.Aggregate(context.Background(), "j1")
	require.NoError(t, err)
	assert.Equal(t, int64(1575), out.InsideSum)
	assert.Equal(t, int64(2000), out.TotalSum)
	assert.Equal(t, 2, out.DoneTasks)
	require.NotNil(t, out.Estimate)
	assert.InDelta(t, 3.15, *out.Estimate, 1e-9)
}

func TestAggregateMonteCarloPartial(t *testing.T) {
	jobs := store.NewJobStore()
	newMonteCarloJob(t, jobs, "j1", 3)
	agg := NewAggregator(jobs)

	// Only one of three chunks reported: aggregate over what is done
	jobs.Report("j1_part_2", 5, map[string]interface{}{"inside": 80.0, "total": 100.0})

	out, err := agg.Aggregate(context.Background(), "j1")
	require.NoError(t, err)
	assert.Equal(t, 1, out.DoneTasks)
	assert.Equal(t, int64(80), out.InsideSum)
	assert.Equal(t, int64(100), out.TotalSum)
	require.NotNil(t, out.Estimate)
	assert.InDelta(t, 3.2, *out.Estimate, 1e-9)
}

func TestAggregateMonteCarloNoSamples(t *testing.T) {
	jobs := store.NewJobStore()
	newMonteCarloJob(t, jobs, "j1", 2)
	agg := NewAggregator(jobs)

	out, err := agg.Aggregate(context.Background(), "j1")
	require.NoError(t, err)
	assert.Nil(t, out.Estimate, "zero samples must not divide")
	assert.Equal(t, int64(0), out.TotalSum)
	assert.Equal(t, 0, out.DoneTasks)
}

func TestAggregateGridMinimize(t *testing.T) {
	jobs := store.NewJobStore()
	newGridJob(t, jobs, "j1", 3)
	agg := NewAggregator(jobs)

	jobs.Report("j1_part_1", 1, map[string]interface{}{
		"best_score": 0.42, "best_params": map[string]interface{}{"lr": 0.1}, "evaluated": 20.0,
	})
	jobs.Report("j1_part_2", 1, map[string]interface{}{
		"best_score": 0.17, "best_params": map[string]interface{}{"lr": 0.01}, "evaluated": 20.0,
	})
	jobs.Report("j1_part_3", 1, map[string]interface{}{
		"best_score": 0.33, "best_params": map[string]interface{}{"lr": 0.5}, "evaluated": 20.0,
	})

	out, err := agg.Aggregate(context.Background(), "j1")
	require.NoError(t, err)
	require.NotNil(t, out.BestScore)
	assert.InDelta(t, 0.17, *out.BestScore, 1e-9)
	assert.Equal(t, map[string]interface{}{"lr": 0.01}, out.BestParams)
	assert.Equal(t, int64(60), out.Evaluated)
	assert.Equal(t, 3, out.DoneTasks)
}

func TestAggregateGridMaximize(t *testing.T) {
	jobs := store.NewJobStore()
	newGridJob(t, jobs, "j1", 2)
	agg := NewAggregator(jobs)

	jobs.Report("j1_part_1", 1, map[string]interface{}{
		"best_score": 0.91, "metric": "maximize_score", "best_params": map[string]interface{}{"k": 3.0}, "evaluated": 10.0,
	})
	jobs.Report("j1_part_2", 1, map[string]interface{}{
		"best_score": 0.88, "metric": "maximize_score", "best_params": map[string]interface{}{"k": 5.0}, "evaluated": 10.0,
	})

	out, err := agg.Aggregate(context.Background(), "j1")
	require.NoError(t, err)
	require.NotNil(t, out.BestScore)
	assert.InDelta(t, 0.91, *out.BestScore, 1e-9)
	assert.Equal(t, map[string]interface{}{"k": 3.0}, out.BestParams)
}

func TestAggregateUnknownTaskType(t *testing.T) {
	jobs := store.NewJobStore()
	_, err := jobs.CreateJob("j1", "test", "", "protein_fold", []map[string]interface{}{{}})
	require.NoError(t, err)
	agg := NewAggregator(jobs)

	_, err = agg.Aggregate(context.Background(), "j1")
	assert.ErrorIs(t, err, ErrNotAggregatable)
}

func TestAggregateMissingJob(t *testing.T) {
	agg := NewAggregator(store.NewJobStore())
	_, err := agg.Aggregate(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
