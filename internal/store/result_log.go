package store

import (
	"sync"
	"time"

	"greenidle/internal/model"
)

// ResultLog append-only log of report calls. Rows are never mutated or
// deleted; duplicate reports each get their own row, which keeps the
// audit trail complete even for retried or ad-hoc traffic.
type ResultLog struct {
	mu   sync.RWMutex
	rows []*model.ResultRow

	now func() time.Time
}

// NewResultLog creates an empty result log.
func NewResultLog() *ResultLog {
	return &ResultLog{now: time.Now}
}

// Append adds a row stamped with the current time and returns it.
func (l *ResultLog) Append(jobID, taskID, machineID string, seconds int64, result map[string]interface{}) *model.ResultRow {
	row := &model.ResultRow{
		JobID:     jobID,
		TaskID:    taskID,
		MachineID: machineID,
		Seconds:   seconds,
		Timestamp: l.now(),
		Result:    result,
	}

	l.mu.Lock()
	l.rows = append(l.rows, row)
	l.mu.Unlock()

	return row
}

// Rows returns a snapshot of all rows in append order.
func (l *ResultLog) Rows() []*model.ResultRow {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*model.ResultRow, len(l.rows))
	copy(out, l.rows)
	return out
}

// Len returns the number of rows.
func (l *ResultLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.rows)
}
