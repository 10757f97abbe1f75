package store

import (
	"sync"
	"time"

	"greenidle/internal/model"
)

// MachineStore owns the machine registry and per-machine configs.
// Machines are created on demand and never deleted; every mutating
// operation is an idempotent upsert, so an unknown machine id is never
// an error here.
type MachineStore struct {
	mu       sync.RWMutex
	machines map[string]*model.Machine
	configs  map[string]*model.MachineConfig
	order    []string // Registration order, for stable listings

	defaults model.MachineConfig
	now      func() time.Time
}

// NewMachineStore creates a machine store. New machines receive a copy
// of defaults as their initial config.
func NewMachineStore(defaults model.MachineConfig) *MachineStore {
	return &MachineStore{
		machines: make(map[string]*model.Machine),
		configs:  make(map[string]*model.MachineConfig),
		defaults: defaults,
		now:      time.Now,
	}
}

// Upsert creates the machine if absent, otherwise updates the display
// name if one is provided and leaves all other fields untouched.
func (s *MachineStore) Upsert(machineID, displayName string) *model.Machine {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.upsertLocked(machineID)
	if displayName != "" {
		m.DisplayName = displayName
	}
	return s.copyMachine(m)
}

// TouchHeartbeat updates last_seen and last reported CPU.
func (s *MachineStore) TouchHeartbeat(machineID string, cpu float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.upsertLocked(machineID)
	now := s.now()
	m.LastSeen = &now
	m.LastCPU = cpu
}

// AccumulateSeconds adds reported compute seconds to the machine's
// running total and refreshes last_seen. Negative values are ignored so
// the total stays monotonic.
func (s *MachineStore) AccumulateSeconds(machineID string, seconds int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.upsertLocked(machineID)
	if seconds > 0 {
		m.TotalSeconds += seconds
	}
	now := s.now()
	m.LastSeen = &now
}

// Get returns the machine, or nil if it was never seen.
func (s *MachineStore) Get(machineID string) *model.Machine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.machines[machineID]
	if !ok {
		return nil
	}
	return s.copyMachine(m)
}

// GetConfig returns the machine's config, creating the machine and a
// default config lazily on first access.
func (s *MachineStore) GetConfig(machineID string) *model.MachineConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.upsertLocked(machineID)
	return s.copyConfig(s.configs[machineID])
}

// SetConfig applies a partial config update and returns the result.
func (s *MachineStore) SetConfig(machineID string, update model.MachineConfigUpdate) *model.MachineConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.upsertLocked(machineID)
	cfg := s.configs[machineID]

	if update.Enabled != nil {
		cfg.Enabled = *update.Enabled
	}
	if update.CPUPauseThreshold != nil {
		cfg.CPUPauseThreshold = *update.CPUPauseThreshold
	}
	if update.TaskMaxSeconds != nil {
		cfg.TaskMaxSeconds = *update.TaskMaxSeconds
	}
	if update.PostTaskSleepSeconds != nil {
		cfg.PostTaskSleepSeconds = *update.PostTaskSleepSeconds
	}
	if update.PluginsRequired != nil {
		cfg.PluginsRequired = append([]string(nil), update.PluginsRequired...)
	}
	if update.NightMode != nil {
		cfg.NightMode = *update.NightMode
	}

	return s.copyConfig(cfg)
}

// SetEnabled flips the task-assignment gate for the machine.
func (s *MachineStore) SetEnabled(machineID string, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.upsertLocked(machineID)
	s.configs[machineID].Enabled = enabled
}

// Enabled reports whether the machine may receive work. Machines never
// seen before are enabled by default (they get created on first poll).
func (s *MachineStore) Enabled(machineID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.configs[machineID]
	if !ok {
		return s.defaults.Enabled
	}
	return cfg.Enabled
}

// Rename sets the machine's display name.
func (s *MachineStore) Rename(machineID, newName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.upsertLocked(machineID).DisplayName = newName
}

// List returns all machines in registration order.
func (s *MachineStore) List() []*model.Machine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Machine, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.copyMachine(s.machines[id]))
	}
	return out
}

// Count returns the number of known machines.
func (s *MachineStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.machines)
}

// TotalSeconds returns the sum of all machines' accumulated seconds.
func (s *MachineStore) TotalSeconds() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, m := range s.machines {
		total += m.TotalSeconds
	}
	return total
}

func (s *MachineStore) upsertLocked(machineID string) *model.Machine {
	if m, ok := s.machines[machineID]; ok {
		return m
	}
	m := &model.Machine{
		ID:           machineID,
		RegisteredAt: s.now(),
	}
	s.machines[machineID] = m
	s.order = append(s.order, machineID)

	cfg := s.defaults
	cfg.PluginsRequired = append([]string(nil), s.defaults.PluginsRequired...)
	s.configs[machineID] = &cfg
	return m
}

func (s *MachineStore) copyMachine(m *model.Machine) *model.Machine {
	out := *m
	if m.LastSeen != nil {
		ts := *m.LastSeen
		out.LastSeen = &ts
	}
	return &out
}

func (s *MachineStore) copyConfig(cfg *model.MachineConfig) *model.MachineConfig {
	out := *cfg
	out.PluginsRequired = append([]string(nil), cfg.PluginsRequired...)
	return &out
}
