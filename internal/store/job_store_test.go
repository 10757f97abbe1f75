package store

import (
	"fmt"
	"sync"
	"testing"

	"greenidle/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunkParams(n int) []map[string]interface{} {
	out := make([]map[string]interface{}, n)
	for i := 0; i < n; i++ {
		out[i] = map[string]interface{}{"seed": i + 1}
	}
	return out
}

func TestCreateJobCreatesAllTasks(t *testing.T) {
	s := NewJobStore()

	job, err := s.CreateJob("j1", "pi", "", "montecarlo", chunkParams(5))
	require.NoError(t, err)
	require.Equal(t, 5, job.TotalChunks)
	require.Equal(t, model.JobStatusPending, job.Status)

	tasks, err := s.JobTasks("j1")
	require.NoError(t, err)
	require.Len(t, tasks, 5)

	seen := make(map[string]bool)
	for i, task := range tasks {
		require.Equal(t, fmt.Sprintf("j1_part_%d", i+1), task.ID)
		require.False(t, seen[task.ID], "task ids must be unique")
		seen[task.ID] = true
		require.Equal(t, "j1", task.JobID)
		require.Equal(t, model.TaskStatusPending, task.Status)
		require.Equal(t, i+1, task.Params["seed"])
	}
}

func TestCreateJobRejectsEmptyAndDuplicate(t *testing.T) {
	s := NewJobStore()

	_, err := s.CreateJob("j1", "pi", "", "montecarlo", nil)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = s.CreateJob("j1", "pi", "", "montecarlo", chunkParams(1))
	require.NoError(t, err)

	_, err = s.CreateJob("j1", "pi", "", "montecarlo", chunkParams(1))
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNextTaskAssignsInCreationOrder(t *testing.T) {
	s := NewJobStore()
	_, err := s.CreateJob("j1", "pi", "", "montecarlo", chunkParams(3))
	require.NoError(t, err)

	first := s.NextTask("m1")
	require.NotNil(t, first)
	assert.Equal(t, "j1_part_1", first.ID)
	assert.Equal(t, model.TaskStatusAssigned, first.Status)
	assert.Equal(t, "m1", first.AssignedTo)

	// First assignment flips the job to RUNNING
	job, err := s.GetJob("j1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusRunning, job.Status)

	second := s.NextTask("m2")
	require.NotNil(t, second)
	assert.Equal(t, "j1_part_2", second.ID)
}

func TestNextTaskReturnsNilWhenNothingPending(t *testing.T) {
	s := NewJobStore()
	require.Nil(t, s.NextTask("m1"))
}

func TestNextTaskConcurrentSingleWinner(t *testing.T) {
	s := NewJobStore()
	_, err := s.CreateJob("j1", "pi", "", "montecarlo", chunkParams(1))
	require.NoError(t, err)

	const callers = 32
	results := make([]*model.Task, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.NextTask(fmt.Sprintf("m%d", i))
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, task := range results {
		if task != nil {
			winners++
			assert.Equal(t, "j1_part_1", task.ID)
		}
	}
	assert.Equal(t, 1, winners, "exactly one caller must claim the task")
}

func TestReportIdempotent(t *testing.T) {
	s := NewJobStore()
	_, err := s.CreateJob("j1", "pi", "", "montecarlo", chunkParams(2))
	require.NoError(t, err)
	s.NextTask("m1")

	out := s.Report("j1_part_1", 10, map[string]interface{}{"inside": 7.0, "total": 10.0})
	require.True(t, out.Known)
	require.False(t, out.AlreadyDone)
	require.False(t, out.JobDone)

	// Duplicate report still accumulates seconds and updates the result
	out = s.Report("j1_part_1", 5, map[string]interface{}{"inside": 8.0, "total": 10.0})
	require.True(t, out.Known)
	require.True(t, out.AlreadyDone)

	task, err := s.GetTask("j1_part_1")
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusDone, task.Status)
	assert.Equal(t, int64(15), task.Seconds)
	assert.Equal(t, 8.0, task.Result["inside"])

	job, err := s.GetJob("j1")
	require.NoError(t, err)
	assert.Equal(t, int64(15), job.TotalSeconds)
}

func TestReportUnknownTask(t *testing.T) {
	s := NewJobStore()
	out := s.Report("nope", 3, nil)
	assert.False(t, out.Known)
	assert.Empty(t, out.JobID)
}

func TestJobCompletionRequiresAllTasks(t *testing.T) {
	s := NewJobStore()
	_, err := s.CreateJob("j1", "pi", "", "montecarlo", chunkParams(3))
	require.NoError(t, err)

	// Tasks can complete without ever being assigned (direct reports)
	s.Report("j1_part_1", 1, nil)
	s.Report("j1_part_2", 1, nil)

	job, err := s.GetJob("j1")
	require.NoError(t, err)
	assert.NotEqual(t, model.JobStatusDone, job.Status, "N-1 done tasks must not complete the job")

	out := s.Report("j1_part_3", 1, nil)
	assert.True(t, out.JobDone)

	job, err = s.GetJob("j1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusDone, job.Status)

	// DONE is terminal even under further duplicate reports
	out = s.Report("j1_part_3", 1, nil)
	assert.False(t, out.JobDone)
	job, _ = s.GetJob("j1")
	assert.Equal(t, model.JobStatusDone, job.Status)
}

func TestReleaseTask(t *testing.T) {
	s := NewJobStore()
	_, err := s.CreateJob("j1", "pi", "", "montecarlo", chunkParams(1))
	require.NoError(t, err)

	require.ErrorIs(t, s.ReleaseTask("nope"), ErrNotFound)
	require.ErrorIs(t, s.ReleaseTask("j1_part_1"), ErrInvalidArgument, "pending task cannot be released")

	s.NextTask("m1")
	require.NoError(t, s.ReleaseTask("j1_part_1"))

	task, err := s.GetTask("j1_part_1")
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusPending, task.Status)
	assert.Empty(t, task.AssignedTo)

	// Another machine can now claim it
	claimed := s.NextTask("m2")
	require.NotNil(t, claimed)
	assert.Equal(t, "m2", claimed.AssignedTo)

	require.ErrorIs(t, s.ReleaseTask("j1_part_1"), ErrInvalidArgument)
	s.Report("j1_part_1", 1, nil)
	require.ErrorIs(t, s.ReleaseTask("j1_part_1"), ErrInvalidArgument, "done task cannot be released")
}

func TestCounts(t *testing.T) {
	s := NewJobStore()
	_, err := s.CreateJob("j1", "pi", "", "montecarlo", chunkParams(2))
	require.NoError(t, err)
	_, err = s.CreateJob("j2", "grid", "", "optimizer_grid", chunkParams(1))
	require.NoError(t, err)

	jobs, done, pending := s.Counts()
	assert.Equal(t, 2, jobs)
	assert.Equal(t, 0, done)
	assert.Equal(t, 3, pending)

	s.Report("j2_part_1", 1, nil)
	jobs, done, pending = s.Counts()
	assert.Equal(t, 2, jobs)
	assert.Equal(t, 1, done)
	assert.Equal(t, 2, pending)
}
