package logging

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

func TestSecretRedaction(t *testing.T) {
	s := Secret("super-secret-password")

	if got := s.String(); got != "[REDACTED]" {
		t.Errorf("String() = %q, want [REDACTED]", got)
	}
	if got := fmt.Sprintf("%v", s); got != "[REDACTED]" {
		t.Errorf("%%v = %q, want [REDACTED]", got)
	}
	if got := fmt.Sprintf("%#v", s); got != "[REDACTED]" {
		t.Errorf("%%#v = %q, want [REDACTED]", got)
	}
}

func TestRedact(t *testing.T) {
	out := Redact("password is hunter22 and token is abc", []string{"hunter22", "abc"})
	if strings.Contains(out, "hunter22") {
		t.Errorf("long secret not redacted: %q", out)
	}
	// Short fragments are left alone to avoid shredding unrelated text.
	if !strings.Contains(out, "abc") {
		t.Errorf("short fragment should not be redacted: %q", out)
	}
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, false, true)

	logger.Info("rotated %s", "c1")
	logger.Debug("should not appear")

	out := buf.String()
	if !strings.Contains(out, "rotated c1") {
		t.Errorf("info message missing: %q", out)
	}
	if strings.Contains(out, "should not appear") {
		t.Errorf("debug message emitted with debug disabled: %q", out)
	}

	buf.Reset()
	debugLogger := NewWithWriter(&buf, true, true)
	debugLogger.Debug("verbose detail")
	if !strings.Contains(buf.String(), "verbose detail") {
		t.Errorf("debug message missing with debug enabled: %q", buf.String())
	}
}

func TestLoggerNeverPrintsSecretValues(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, false, true)

	logger.Info("new value for %s is %s", "db-password", Secret("p@ssw0rd123"))
	if strings.Contains(buf.String(), "p@ssw0rd123") {
		t.Fatalf("secret leaked into log output: %q", buf.String())
	}
}
