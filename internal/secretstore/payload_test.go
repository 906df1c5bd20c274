package secretstore

import (
	"encoding/json"
	"testing"
)

func TestParsePayloadOpaque(t *testing.T) {
	p := ParsePayload("just-a-password")
	if p.Structured() {
		t.Error("plain string should be opaque")
	}
	if p.Raw() != "just-a-password" {
		t.Errorf("Raw() = %q", p.Raw())
	}
	if _, ok := p.Field("password"); ok {
		t.Error("opaque payload has no fields")
	}
}

func TestParsePayloadStructured(t *testing.T) {
	p := ParsePayload(`{"username":"app","password":"old123","port":5432}`)
	if !p.Structured() {
		t.Fatal("JSON object should be structured")
	}

	user, ok := p.Field("username")
	if !ok || user != "app" {
		t.Errorf("Field(username) = %q, %v", user, ok)
	}

	// Non-string fields exist but don't read as strings.
	if !p.HasField("port") {
		t.Error("port field should exist")
	}
	if _, ok := p.Field("port"); ok {
		t.Error("numeric field must not read as string")
	}
}

func TestParsePayloadNonObjectJSON(t *testing.T) {
	for _, raw := range []string{`[1,2,3]`, `"quoted"`, `42`, `null`} {
		if ParsePayload(raw).Structured() {
			t.Errorf("%s should be treated as opaque", raw)
		}
	}
}

func TestSetFieldPreservesSiblings(t *testing.T) {
	p := ParsePayload(`{"username":"app","password":"old123","host":"db.example.com","port":5432}`)
	updated := p.SetField("password", "new-password")

	var fields map[string]any
	if err := json.Unmarshal([]byte(updated.Raw()), &fields); err != nil {
		t.Fatalf("re-serialized payload is not JSON: %v", err)
	}
	if fields["password"] != "new-password" {
		t.Errorf("password = %v", fields["password"])
	}
	if fields["username"] != "app" || fields["host"] != "db.example.com" {
		t.Error("sibling fields must be preserved")
	}
	if fields["port"] != float64(5432) {
		t.Errorf("numeric sibling lost: %v", fields["port"])
	}

	// Original payload is unchanged.
	if old, _ := p.Field("password"); old != "old123" {
		t.Error("SetField must not mutate the receiver")
	}
}

func TestSetFieldCreatesMissingField(t *testing.T) {
	p := ParsePayload(`{"smtp_user":"mailer"}`)
	updated := p.SetField("smtp_password", "s3cret")

	v, ok := updated.Field("smtp_password")
	if !ok || v != "s3cret" {
		t.Errorf("smtp_password = %q, %v", v, ok)
	}
}

func TestPayloadStringNeverLeaksValue(t *testing.T) {
	p := ParsePayload(`{"password":"hunter22-long"}`)
	if s := p.String(); s != "structured payload (1 fields)" {
		t.Errorf("String() = %q", s)
	}
	if NewOpaque("hunter22-long").String() != "opaque payload" {
		t.Error("opaque String() should not expose the value")
	}
}
