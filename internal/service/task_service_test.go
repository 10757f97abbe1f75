package service

import (
	"context"
	"errors"
	"testing"

	"greenidle/internal/model"
	"greenidle/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type taskFixture struct {
	jobs     *store.JobStore
	machines *store.MachineStore
	results  *store.ResultLog
	svc      *TaskService
}

func newTaskFixture(archiver ResultArchiver) *taskFixture {
	f := &taskFixture{
		jobs: store.NewJobStore(),
		machines: store.NewMachineStore(model.MachineConfig{
			Enabled:              true,
			TaskMaxSeconds:       1800,
			PostTaskSleepSeconds: 5,
		}),
		results: store.NewResultLog(),
	}
	f.svc = NewTaskService(f.jobs, f.machines, f.results, archiver)
	return f
}

func TestNextTaskAssignment(t *testing.T) {
	f := newTaskFixture(nil)
	_, err := f.jobs.CreateJob("j1", "pi", "", model.TaskTypeMonteCarlo,
		[]map[string]interface{}{{"n": 5000, "seed": 1}})
	require.NoError(t, err)

	a := f.svc.NextTask(context.Background(), "laptop")
	require.NotNil(t, a)
	assert.Equal(t, "j1_part_1", a.TaskID)
	assert.Equal(t, model.TaskTypeMonteCarlo, a.Payload)
	assert.Equal(t, 5000, a.Size)
	assert.Equal(t, 1800, a.TaskMaxSeconds)
	assert.Equal(t, 5, a.PostTaskSleepSeconds)

	// Polling registers the machine
	assert.NotNil(t, f.machines.Get("laptop"))
}

func TestNextTaskEmptyQueue(t *testing.T) {
	f := newTaskFixture(nil)
	assert.Nil(t, f.svc.NextTask(context.Background(), "laptop"))
	assert.NotNil(t, f.machines.Get("laptop"), "machine is registered even when no work exists")
}

func TestNextTaskDisabledMachine(t *testing.T) {
	f := newTaskFixture(nil)
	_, err := f.jobs.CreateJob("j1", "pi", "", model.TaskTypeMonteCarlo,
		[]map[string]interface{}{{"n": 100}})
	require.NoError(t, err)

	f.machines.SetEnabled("laptop", false)
	assert.Nil(t, f.svc.NextTask(context.Background(), "laptop"))

	// The task stays pending for everyone else
	other := f.svc.NextTask(context.Background(), "desktop")
	require.NotNil(t, other)
	assert.Equal(t, "j1_part_1", other.TaskID)
}

func TestReportFlowsToAllStores(t *testing.T) {
	f := newTaskFixture(nil)
	_, err := f.jobs.CreateJob("j1", "pi", "", model.TaskTypeMonteCarlo,
		[]map[string]interface{}{{"n": 100}})
	require.NoError(t, err)
	f.svc.NextTask(context.Background(), "laptop")

	f.svc.Report(context.Background(), &model.ReportRequest{
		MachineID: "laptop",
		TaskID:    "j1_part_1",
		Seconds:   30,
		Result:    map[string]interface{}{"inside": 78.0, "total": 100.0},
	})

	task, err := f.jobs.GetTask("j1_part_1")
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusDone, task.Status)

	m := f.machines.Get("laptop")
	require.NotNil(t, m)
	assert.Equal(t, int64(30), m.TotalSeconds)
	assert.NotNil(t, m.LastSeen)

	rows := f.results.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "j1", rows[0].JobID)
	assert.Equal(t, "laptop", rows[0].MachineID)
}

func TestReportUnknownTaskStillLogged(t *testing.T) {
	f := newTaskFixture(nil)

	f.svc.Report(context.Background(), &model.ReportRequest{
		MachineID: "laptop",
		TaskID:    "ghost_part_1",
		Seconds:   12,
	})

	rows := f.results.Rows()
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0].JobID, "unknown task rows carry no job reference")
	assert.Equal(t, "ghost_part_1", rows[0].TaskID)

	m := f.machines.Get("laptop")
	require.NotNil(t, m)
	assert.Equal(t, int64(12), m.TotalSeconds, "seconds count even for unknown tasks")
}

func TestDuplicateReportAppendsRow(t *testing.T) {
	f := newTaskFixture(nil)
	_, err := f.jobs.CreateJob("j1", "pi", "", model.TaskTypeMonteCarlo,
		[]map[string]interface{}{{"n": 100}})
	require.NoError(t, err)

	req := &model.ReportRequest{MachineID: "laptop", TaskID: "j1_part_1", Seconds: 10}
	f.svc.Report(context.Background(), req)
	f.svc.Report(context.Background(), req)

	assert.Equal(t, 2, f.results.Len())
	assert.Equal(t, int64(20), f.machines.Get("laptop").TotalSeconds)

	task, err := f.jobs.GetTask("j1_part_1")
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusDone, task.Status)
	assert.Equal(t, int64(20), task.Seconds)
}

type recordingArchiver struct {
	rows []*model.ResultRow
	err  error
}

func (a *recordingArchiver) Append(ctx context.Context, row *model.ResultRow) error {
	a.rows = append(a.rows, row)
	return a.err
}

func TestReportArchiving(t *testing.T) {
	arch := &recordingArchiver{}
	f := newTaskFixture(arch)

	f.svc.Report(context.Background(), &model.ReportRequest{MachineID: "laptop", TaskID: "x", Seconds: 1})
	require.Len(t, arch.rows, 1)
	assert.Equal(t, "x", arch.rows[0].TaskID)
}

func TestReportArchiveFailureIsNonFatal(t *testing.T) {
	arch := &recordingArchiver{err: errors.New("redis down")}
	f := newTaskFixture(arch)

	f.svc.Report(context.Background(), &model.ReportRequest{MachineID: "laptop", TaskID: "x", Seconds: 1})

	// The in-memory log still got the row
	assert.Equal(t, 1, f.results.Len())
}

func TestReleaseTaskService(t *testing.T) {
	f := newTaskFixture(nil)
	_, err := f.jobs.CreateJob("j1", "pi", "", model.TaskTypeMonteCarlo,
		[]map[string]interface{}{{"n": 100}})
	require.NoError(t, err)
	f.svc.NextTask(context.Background(), "laptop")

	require.NoError(t, f.svc.ReleaseTask(context.Background(), "j1_part_1"))
	assert.ErrorIs(t, f.svc.ReleaseTask(context.Background(), "j1_part_1"), store.ErrInvalidArgument)
	assert.ErrorIs(t, f.svc.ReleaseTask(context.Background(), "nope"), store.ErrNotFound)
}
