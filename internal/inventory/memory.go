package inventory

import (
	"context"
	"sort"
	"sync"

	"github.com/keyvigil/keyvigil/internal/errors"
)

// MemoryStore is an in-memory Store used in tests and single-shot tool runs.
type MemoryStore struct {
	mu          sync.RWMutex
	credentials map[string]Credential
}

// NewMemoryStore creates an empty in-memory inventory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{credentials: make(map[string]Credential)}
}

// Put inserts or replaces a credential record. The kind label is normalized
// on the way in, as a discovery source would do.
func (s *MemoryStore) Put(cred Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred.Kind = NormalizeKind(string(cred.Kind))
	s.credentials[cred.ID] = cred
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context) ([]Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Credential, 0, len(s.credentials))
	for _, cred := range s.credentials {
		out = append(out, cred)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListDue implements Store.
func (s *MemoryStore) ListDue(ctx context.Context, thresholdDays int) ([]Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []Credential
	for _, cred := range s.credentials {
		if cred.Status == StatusRotating {
			continue
		}
		switch {
		case cred.Status == StatusExpiring, cred.Status == StatusExpired, cred.Status == StatusFailed:
			due = append(due, cred)
		case cred.ExpiresIn < thresholdDays:
			due = append(due, cred)
		}
	}
	return due, nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.credentials[id]
	if !ok {
		return nil, errors.NotFoundError{CredentialID: id}
	}
	copy := cred
	return &copy, nil
}

// UpdateStatus implements Store.
func (s *MemoryStore) UpdateStatus(ctx context.Context, id string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.credentials[id]
	if !ok {
		return errors.NotFoundError{CredentialID: id}
	}
	cred.Status = status
	s.credentials[id] = cred
	return nil
}

// UpdateStatusIf implements Store.
func (s *MemoryStore) UpdateStatusIf(ctx context.Context, id string, expect, next Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.credentials[id]
	if !ok {
		return false, errors.NotFoundError{CredentialID: id}
	}
	if cred.Status != expect {
		return false, nil
	}
	cred.Status = next
	s.credentials[id] = cred
	return true, nil
}

// UpdateAfterRotation implements Store.
func (s *MemoryStore) UpdateAfterRotation(ctx context.Context, id string, update RotationUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.credentials[id]
	if !ok {
		return errors.NotFoundError{CredentialID: id}
	}
	cred.LastRotated = update.LastRotated
	cred.ExpiresIn = update.ExpiresIn
	cred.Status = update.Status
	s.credentials[id] = cred
	return nil
}

// MergeProviderMetadata implements Store.
func (s *MemoryStore) MergeProviderMetadata(ctx context.Context, id string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.credentials[id]
	if !ok {
		return errors.NotFoundError{CredentialID: id}
	}
	if cred.ProviderMeta == nil {
		cred.ProviderMeta = make(map[string]string, len(fields))
	}
	for k, v := range fields {
		cred.ProviderMeta[k] = v
	}
	s.credentials[id] = cred
	return nil
}
