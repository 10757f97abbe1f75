package model

import (
	"time"
)

// AuthMode how a request passed the auth gateway
type AuthMode string

const (
	AuthModeLegacy AuthMode = "legacy" // No credentials, tightly rate-limited
	AuthModeSigned AuthMode = "signed" // Valid client id + body signature
)

// ClientCredential signing secret bound to a claimed client identity
type ClientCredential struct {
	ClientID   string    `json:"client_id"`
	MachineKey string    `json:"-"` // Never serialized after creation
	CreatedAt  time.Time `json:"created_at"`
}

// AuthResult outcome of a successful gateway check
type AuthResult struct {
	Mode     AuthMode `json:"mode"`
	ClientID string   `json:"client_id,omitempty"`
}

// StatusResponse public network counters
type StatusResponse struct {
	MachinesCount int        `json:"machines_count"`
	TotalHours    float64    `json:"total_hours"`
	JobsCount     int        `json:"jobs_count"`
	JobsDone      int        `json:"jobs_done"`
	PendingTasks  int        `json:"pending_tasks"`
	Machines      []*Machine `json:"machines"`
}
