// Package audit provides the append-only activity log for rotation attempts.
// Exactly one record is appended per attempt, success or failure.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Action values used by the rotation engine.
const (
	ActionRotation       = "rotation"
	ActionRotationFailed = "rotation_failed"
)

// RecordType tags audit documents in shared collections.
const RecordType = "audit_log"

// Record is one audit log entry.
type Record struct {
	ID          string            `bson:"_id" json:"id"`
	Type        string            `bson:"type" json:"type"`
	Action      string            `bson:"action" json:"action"`
	Description string            `bson:"description" json:"description"`
	Metadata    map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`
	Timestamp   time.Time         `bson:"timestamp" json:"timestamp"`
}

// NewRecord builds a record with a fresh id and the audit_log type tag.
func NewRecord(action, description string, metadata map[string]string) Record {
	return Record{
		ID:          uuid.NewString(),
		Type:        RecordType,
		Action:      action,
		Description: description,
		Metadata:    metadata,
		Timestamp:   time.Now().UTC(),
	}
}

// Sink is the append-only audit log.
type Sink interface {
	// Append adds one record. Append failures are the caller's to log;
	// they never change a rotation outcome.
	Append(ctx context.Context, record Record) error

	// List returns records, newest first, up to limit (0 for all).
	List(ctx context.Context, limit int) ([]Record, error)
}

// MemorySink is an in-memory Sink for tests and tool runs.
type MemorySink struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Append implements Sink.
func (s *MemorySink) Append(ctx context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

// List implements Sink.
func (s *MemorySink) List(ctx context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, len(s.records))
	for i, r := range s.records {
		out[len(s.records)-1-i] = r
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ByAction returns records with the given action, for test assertions.
func (s *MemorySink) ByAction(action string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for _, r := range s.records {
		if r.Action == action {
			out = append(out, r)
		}
	}
	return out
}
