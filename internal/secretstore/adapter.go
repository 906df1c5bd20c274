package secretstore

import (
	"context"
	"sync"

	"github.com/keyvigil/keyvigil/internal/errors"
)

// Adapter provides read/write access to secret payloads by opaque reference.
//
// Write acknowledgment does not imply durability of subsequent reads; the
// backing store may be eventually consistent, which is why the rotation
// engine verifies every write with a re-read.
type Adapter interface {
	// Name identifies the adapter for logging and audit records.
	Name() string

	// Read fetches and parses the payload at ref.
	Read(ctx context.Context, ref string) (Payload, error)

	// Write persists the payload at ref.
	Write(ctx context.Context, ref string, payload Payload) error
}

// MemoryAdapter is an in-memory Adapter for tests. Optional hooks simulate
// store failures and eventual consistency.
type MemoryAdapter struct {
	mu      sync.RWMutex
	secrets map[string]string

	// ReadErr, when set, is consulted before every read; returning a non-nil
	// error fails that read. The attempt counter starts at 1.
	ReadErr func(ref string, attempt int) error

	// WriteErr, when set, can fail writes per reference.
	WriteErr func(ref string) error

	readAttempts map[string]int
}

// NewMemoryAdapter creates an empty in-memory secret store.
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		secrets:      make(map[string]string),
		readAttempts: make(map[string]int),
	}
}

// Seed stores a raw payload without going through Write.
func (m *MemoryAdapter) Seed(ref, raw string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[ref] = raw
}

// RawValue returns the stored raw payload, for test assertions.
func (m *MemoryAdapter) RawValue(ref string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.secrets[ref]
	return raw, ok
}

// Name implements Adapter.
func (m *MemoryAdapter) Name() string { return "memory" }

// Read implements Adapter.
func (m *MemoryAdapter) Read(ctx context.Context, ref string) (Payload, error) {
	m.mu.Lock()
	m.readAttempts[ref]++
	attempt := m.readAttempts[ref]
	m.mu.Unlock()

	if m.ReadErr != nil {
		if err := m.ReadErr(ref, attempt); err != nil {
			return Payload{}, errors.StoreReadError{Ref: ref, Err: err}
		}
	}

	m.mu.RLock()
	raw, ok := m.secrets[ref]
	m.mu.RUnlock()
	if !ok {
		return Payload{}, errors.StoreReadError{Ref: ref, Err: errNoSuchSecret}
	}
	return ParsePayload(raw), nil
}

// Write implements Adapter.
func (m *MemoryAdapter) Write(ctx context.Context, ref string, payload Payload) error {
	if m.WriteErr != nil {
		if err := m.WriteErr(ref); err != nil {
			return errors.StoreWriteError{Ref: ref, Err: err}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[ref] = payload.Raw()
	return nil
}

var errNoSuchSecret = errNotFound("no such secret")

type errNotFound string

func (e errNotFound) Error() string { return string(e) }
