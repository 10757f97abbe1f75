package archive

import (
	"context"
	"testing"
	"time"

	"greenidle/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSink(t *testing.T) *Sink {
	t.Helper()
	mr := miniredis.RunT(t)

	sink, err := NewSink(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { sink.Close() })
	return sink
}

func TestSinkAppendAndReadBack(t *testing.T) {
	sink := newTestSink(t)
	ctx := context.Background()

	first := &model.ResultRow{
		JobID:     "j1",
		TaskID:    "j1_part_1",
		MachineID: "laptop",
		Seconds:   30,
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Result:    map[string]interface{}{"inside": 78.0, "total": 100.0},
	}
	second := &model.ResultRow{
		TaskID:    "ghost_part_1",
		MachineID: "laptop",
		Seconds:   5,
		Timestamp: time.Date(2026, 3, 1, 12, 1, 0, 0, time.UTC),
	}

	require.NoError(t, sink.Append(ctx, first))
	require.NoError(t, sink.Append(ctx, second))

	n, err := sink.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	rows, err := sink.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "j1", rows[0].JobID)
	assert.Equal(t, "j1_part_1", rows[0].TaskID)
	assert.Equal(t, int64(30), rows[0].Seconds)
	assert.Equal(t, 78.0, rows[0].Result["inside"])
	assert.Empty(t, rows[1].JobID, "unknown-task rows keep their empty job reference")
}

func TestNewSinkUnreachable(t *testing.T) {
	_, err := NewSink(context.Background(), "127.0.0.1:1", "", 0)
	assert.Error(t, err)
}
