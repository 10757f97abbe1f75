package service

import (
	"context"

	"greenidle/internal/model"
	"greenidle/internal/store"
	"greenidle/pkg/logger"
	"greenidle/pkg/signing"

	"github.com/google/uuid"
)

// Request headers carrying the signed-mode credentials.
const (
	HeaderClientID  = "X-Client-ID"
	HeaderSignature = "X-Signature"
)

// MachineService registry operations and credential issuance.
type MachineService struct {
	machines    *store.MachineStore
	credentials *store.CredentialStore
}

// NewMachineService creates a new machine service
func NewMachineService(machines *store.MachineStore, credentials *store.CredentialStore) *MachineService {
	return &MachineService{machines: machines, credentials: credentials}
}

// Register upserts the machine and stores its signing credentials.
// Clients may bring their own client_id/machine_key pair; otherwise both
// are generated. The machine key is echoed back only when this call
// issued it, never on later re-registrations with an existing pair.
func (s *MachineService) Register(ctx context.Context, req *model.RegisterRequest) *model.RegisterResponse {
	clientID := req.ClientID
	machineKey := req.MachineKey

	issued := false
	if clientID == "" {
		clientID = uuid.New().String()
		issued = true
	}
	if machineKey == "" {
		machineKey = uuid.New().String()
		issued = true
	}

	s.credentials.Put(clientID, machineKey)
	s.credentials.BindMachine(req.MachineID, clientID)
	s.machines.Upsert(req.MachineID, req.ClientName)

	logger.InfoCtx(ctx, "machine registered, machine_id: %s, client_id: %s, issued: %v", req.MachineID, clientID, issued)

	resp := &model.RegisterResponse{
		Status:    "ok",
		ClientID:  clientID,
		HowToSign: signing.HowToSign,
		Headers: map[string]string{
			"client_id": HeaderClientID,
			"signature": HeaderSignature,
		},
	}
	if issued {
		resp.MachineKey = machineKey
	}
	return resp
}

// Heartbeat records liveness and current CPU load.
func (s *MachineService) Heartbeat(ctx context.Context, req *model.HeartbeatRequest) {
	s.machines.TouchHeartbeat(req.MachineID, req.CPUPercent)
	logger.DebugCtx(ctx, "heartbeat, machine_id: %s, cpu: %.1f", req.MachineID, req.CPUPercent)
}

// GetConfig returns the machine's operating policy, creating the machine
// with defaults on first sight.
func (s *MachineService) GetConfig(ctx context.Context, machineID string) *model.MachineConfig {
	return s.machines.GetConfig(machineID)
}

// SetConfig applies a partial policy update.
func (s *MachineService) SetConfig(ctx context.Context, machineID string, update model.MachineConfigUpdate) *model.MachineConfig {
	cfg := s.machines.SetConfig(machineID, update)
	logger.InfoCtx(ctx, "machine config updated, machine_id: %s", machineID)
	return cfg
}

// SetEnabled flips whether the machine may receive work.
func (s *MachineService) SetEnabled(ctx context.Context, machineID string, enabled bool) {
	s.machines.SetEnabled(machineID, enabled)
	logger.InfoCtx(ctx, "machine enabled=%v, machine_id: %s", enabled, machineID)
}

// Rename sets the machine's display name.
func (s *MachineService) Rename(ctx context.Context, machineID, name string) {
	s.machines.Rename(machineID, name)
}

// Get returns the machine record, or nil if never seen.
func (s *MachineService) Get(ctx context.Context, machineID string) *model.Machine {
	return s.machines.Get(machineID)
}
