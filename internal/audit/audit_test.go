package audit

import (
	"context"
	"testing"
)

func TestNewRecord(t *testing.T) {
	r := NewRecord(ActionRotation, "rotated credential c1", map[string]string{"credential_id": "c1"})

	if r.ID == "" {
		t.Error("record must have an id")
	}
	if r.Type != RecordType {
		t.Errorf("Type = %q, want %q", r.Type, RecordType)
	}
	if r.Timestamp.IsZero() {
		t.Error("record must be timestamped")
	}
}

func TestMemorySinkOrdering(t *testing.T) {
	ctx := context.Background()
	sink := NewMemorySink()

	for _, desc := range []string{"first", "second", "third"} {
		if err := sink.Append(ctx, NewRecord(ActionRotation, desc, nil)); err != nil {
			t.Fatal(err)
		}
	}

	records, err := sink.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("len = %d, want 3", len(records))
	}
	if records[0].Description != "third" {
		t.Errorf("List must return newest first, got %q", records[0].Description)
	}

	limited, _ := sink.List(ctx, 2)
	if len(limited) != 2 {
		t.Errorf("limit not applied: len = %d", len(limited))
	}
}

func TestMemorySinkByAction(t *testing.T) {
	ctx := context.Background()
	sink := NewMemorySink()

	_ = sink.Append(ctx, NewRecord(ActionRotation, "ok", nil))
	_ = sink.Append(ctx, NewRecord(ActionRotationFailed, "broken", nil))
	_ = sink.Append(ctx, NewRecord(ActionRotation, "ok again", nil))

	if got := len(sink.ByAction(ActionRotationFailed)); got != 1 {
		t.Errorf("rotation_failed count = %d, want 1", got)
	}
	if got := len(sink.ByAction(ActionRotation)); got != 2 {
		t.Errorf("rotation count = %d, want 2", got)
	}
}
