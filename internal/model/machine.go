package model

import (
	"time"
)

// Machine volunteer compute node
type Machine struct {
	ID           string     `json:"machine_id"`   // Externally supplied, unique
	DisplayName  string     `json:"display_name,omitempty"`
	RegisteredAt time.Time  `json:"registered_at"`
	LastSeen     *time.Time `json:"last_seen,omitempty"`
	TotalSeconds int64      `json:"total_seconds"` // Monotonically increasing
	LastCPU      float64    `json:"last_cpu"`      // Last reported CPU percentage
}

// NightMode night-time operating window for a machine
type NightMode struct {
	Enabled      bool    `json:"enabled" yaml:"enabled"`
	StartHour    int     `json:"start_hour" yaml:"start_hour"`
	EndHour      int     `json:"end_hour" yaml:"end_hour"`
	CPUThreshold float64 `json:"cpu_threshold" yaml:"cpu_threshold"`
}

// MachineConfig per-machine operating policy, keyed 1:1 with Machine
type MachineConfig struct {
	Enabled              bool      `json:"enabled" yaml:"enabled"`
	CPUPauseThreshold    float64   `json:"cpu_pause_threshold" yaml:"cpu_pause_threshold"`
	TaskMaxSeconds       int       `json:"task_max_seconds" yaml:"task_max_seconds"`
	PostTaskSleepSeconds int       `json:"post_task_sleep_seconds" yaml:"post_task_sleep_seconds"`
	PluginsRequired      []string  `json:"plugins_required" yaml:"plugins_required"`
	NightMode            NightMode `json:"night_mode" yaml:"night_mode"`
}

// MachineConfigUpdate partial config update; nil fields are left untouched
type MachineConfigUpdate struct {
	Enabled              *bool      `json:"enabled,omitempty"`
	CPUPauseThreshold    *float64   `json:"cpu_pause_threshold,omitempty"`
	TaskMaxSeconds       *int       `json:"task_max_seconds,omitempty"`
	PostTaskSleepSeconds *int       `json:"post_task_sleep_seconds,omitempty"`
	PluginsRequired      []string   `json:"plugins_required,omitempty"`
	NightMode            *NightMode `json:"night_mode,omitempty"`
}

// RegisterRequest machine registration request
type RegisterRequest struct {
	MachineID  string `json:"machine_id" binding:"required"`
	ClientName string `json:"client_name,omitempty"`
	ClientID   string `json:"client_id,omitempty"`
	MachineKey string `json:"machine_key,omitempty"`
}

// RegisterResponse machine registration response.
// MachineKey is echoed only here, at creation time.
type RegisterResponse struct {
	Status     string            `json:"status"`
	ClientID   string            `json:"client_id"`
	MachineKey string            `json:"machine_key,omitempty"`
	HowToSign  string            `json:"how_to_sign"`
	Headers    map[string]string `json:"headers"`
}

// HeartbeatRequest liveness ping from a machine
type HeartbeatRequest struct {
	MachineID  string  `json:"machine_id" binding:"required"`
	CPUPercent float64 `json:"cpu_percent"`
}
