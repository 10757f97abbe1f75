package store

import (
	"sync"
	"time"

	"greenidle/internal/model"
)

// CredentialStore holds per-client signing secrets and the
// machine -> client binding. Secrets go in at registration time and are
// never echoed back out of this store.
type CredentialStore struct {
	mu          sync.RWMutex
	credentials map[string]*model.ClientCredential
	byMachine   map[string]string // machine_id -> client_id, last writer wins

	now func() time.Time
}

// NewCredentialStore creates an empty credential store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{
		credentials: make(map[string]*model.ClientCredential),
		byMachine:   make(map[string]string),
		now:         time.Now,
	}
}

// Put stores or replaces the secret for a client id.
func (s *CredentialStore) Put(clientID, machineKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.credentials[clientID] = &model.ClientCredential{
		ClientID:   clientID,
		MachineKey: machineKey,
		CreatedAt:  s.now(),
	}
}

// Key returns the signing secret for a client id.
func (s *CredentialStore) Key(clientID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.credentials[clientID]
	if !ok {
		return "", false
	}
	return cred.MachineKey, true
}

// BindMachine records which client a machine authenticates as.
// Re-registration overwrites the previous binding.
func (s *CredentialStore) BindMachine(machineID, clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byMachine[machineID] = clientID
}

// ClientForMachine returns the client id bound to a machine, if any.
func (s *CredentialStore) ClientForMachine(machineID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clientID, ok := s.byMachine[machineID]
	return clientID, ok
}
