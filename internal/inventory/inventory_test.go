package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/keyvigil/keyvigil/internal/errors"
)

func TestNormalizeKind(t *testing.T) {
	tests := []struct {
		raw  string
		want Kind
	}{
		{"AWS IAM", KindIAMAccessKey},
		{"AWS_IAM_KEY", KindIAMAccessKey},
		{"iam-access-key", KindIAMAccessKey},
		{"database", KindDatabasePassword},
		{"RDS", KindDatabasePassword},
		{"smtp", KindSMTPPassword},
		{"api_key", KindAPIToken},
		{"github-token", KindAPIToken},
		{"from-secret-store", KindGenericSecret},
		{"  Generic-Secret  ", KindGenericSecret},
		{"something-nobody-knows", KindGenericSecret},
	}

	for _, tt := range tests {
		if got := NormalizeKind(tt.raw); got != tt.want {
			t.Errorf("NormalizeKind(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestMemoryStoreListDue(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	store.Put(Credential{ID: "fresh", Status: StatusActive, ExpiresIn: 60})
	store.Put(Credential{ID: "aging", Status: StatusActive, ExpiresIn: 10})
	store.Put(Credential{ID: "flagged", Status: StatusExpiring, ExpiresIn: 45})
	store.Put(Credential{ID: "inflight", Status: StatusRotating, ExpiresIn: 1})
	store.Put(Credential{ID: "boundary", Status: StatusActive, ExpiresIn: 30})
	store.Put(Credential{ID: "lapsed", Status: StatusExpired, ExpiresIn: 45})
	store.Put(Credential{ID: "broken", Status: StatusFailed, ExpiresIn: 45})

	due, err := store.ListDue(ctx, 30)
	if err != nil {
		t.Fatalf("ListDue: %v", err)
	}

	got := map[string]bool{}
	for _, cred := range due {
		got[cred.ID] = true
	}

	if !got["aging"] || !got["flagged"] {
		t.Errorf("expected aging and flagged to be due, got %v", got)
	}
	if !got["lapsed"] || !got["broken"] {
		t.Errorf("expired and failed credentials are due regardless of days remaining, got %v", got)
	}
	if got["fresh"] {
		t.Error("fresh credential should not be due")
	}
	if got["inflight"] {
		t.Error("rotating credential must never be selected")
	}
	if got["boundary"] {
		t.Error("expiresIn equal to threshold is not due (strict less-than)")
	}
}

func TestMemoryStoreConditionalUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Put(Credential{ID: "c1", Status: StatusActive})

	ok, err := store.UpdateStatusIf(ctx, "c1", StatusActive, StatusRotating)
	if err != nil || !ok {
		t.Fatalf("first guard should pass: ok=%v err=%v", ok, err)
	}

	// Second attempt races against the flag and must lose.
	ok, err = store.UpdateStatusIf(ctx, "c1", StatusActive, StatusRotating)
	if err != nil {
		t.Fatalf("guard failure is not an error: %v", err)
	}
	if ok {
		t.Error("guard should fail while credential is rotating")
	}

	if _, err := store.UpdateStatusIf(ctx, "ghost", StatusActive, StatusRotating); !errors.IsNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestMemoryStoreUpdateAfterRotation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Put(Credential{ID: "c1", Status: StatusRotating, ExpiresIn: 3})

	now := time.Now()
	err := store.UpdateAfterRotation(ctx, "c1", RotationUpdate{
		LastRotated: now,
		ExpiresIn:   90,
		Status:      StatusActive,
	})
	if err != nil {
		t.Fatalf("UpdateAfterRotation: %v", err)
	}

	cred, err := store.Get(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if cred.Status != StatusActive || cred.ExpiresIn != 90 || !cred.LastRotated.Equal(now) {
		t.Errorf("unexpected record after commit: %+v", cred)
	}
}

func TestMemoryStoreMergeProviderMetadata(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Put(Credential{ID: "c1", ProviderMeta: map[string]string{"user": "svc", "old_key_id": "AKIA1"}})

	if err := store.MergeProviderMetadata(ctx, "c1", map[string]string{"old_key_id": "AKIA2"}); err != nil {
		t.Fatal(err)
	}

	cred, _ := store.Get(ctx, "c1")
	if cred.Meta("user") != "svc" {
		t.Error("merge must preserve unrelated fields")
	}
	if cred.Meta("old_key_id") != "AKIA2" {
		t.Errorf("old_key_id = %q, want AKIA2", cred.Meta("old_key_id"))
	}
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Put(Credential{ID: "c1", Status: StatusActive})

	cred, _ := store.Get(ctx, "c1")
	cred.Status = StatusFailed

	again, _ := store.Get(ctx, "c1")
	if again.Status != StatusActive {
		t.Error("mutating a returned credential must not affect the store")
	}
}
