package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	def, err := Load("")
	if err != nil {
		t.Fatalf("Load with no file: %v", err)
	}

	if def.Rotation.ThresholdDays != 30 {
		t.Errorf("ThresholdDays = %d, want 30", def.Rotation.ThresholdDays)
	}
	if def.Rotation.PeriodDays != 90 {
		t.Errorf("PeriodDays = %d, want 90", def.Rotation.PeriodDays)
	}
	if def.Rotation.VerifyInterval() != time.Second {
		t.Errorf("VerifyInterval = %v, want 1s", def.Rotation.VerifyInterval())
	}
	if def.Rotation.VerifyAttempts != 3 {
		t.Errorf("VerifyAttempts = %d, want 3", def.Rotation.VerifyAttempts)
	}
	if def.Rotation.PasswordLength != 32 {
		t.Errorf("PasswordLength = %d, want 32", def.Rotation.PasswordLength)
	}
	if def.Rotation.TokenBytes != 32 {
		t.Errorf("TokenBytes = %d, want 32", def.Rotation.TokenBytes)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keyvigil.yaml")
	content := `version: 1
rotation:
  threshold_days: 14
  period_days: 60
  verify_interval_ms: 250
  verify_attempts: 5
  password_length: 24
  token_bytes: 48
  batch_concurrency: 2
secretStore:
  type: aws.secretsmanager
  region: eu-west-1
notifications:
  webhook_url: https://hooks.example.com/rotations
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	def, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if def.Rotation.ThresholdDays != 14 {
		t.Errorf("ThresholdDays = %d, want 14", def.Rotation.ThresholdDays)
	}
	if def.Rotation.VerifyInterval() != 250*time.Millisecond {
		t.Errorf("VerifyInterval = %v, want 250ms", def.Rotation.VerifyInterval())
	}
	if def.Store.Type != "aws.secretsmanager" || def.Store.Region != "eu-west-1" {
		t.Errorf("unexpected store config: %+v", def.Store)
	}
	if def.Notify.WebhookURL != "https://hooks.example.com/rotations" {
		t.Errorf("unexpected webhook url: %s", def.Notify.WebhookURL)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	def, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if def.Rotation.ThresholdDays != 30 {
		t.Errorf("ThresholdDays = %d, want default 30", def.Rotation.ThresholdDays)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("KEYVIGIL_ROTATION_THRESHOLD_DAYS", "7")
	t.Setenv("KEYVIGIL_VERIFY_ATTEMPTS", "4")
	t.Setenv("KEYVIGIL_WEBHOOK_URL", "https://override.example.com")

	def, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if def.Rotation.ThresholdDays != 7 {
		t.Errorf("ThresholdDays = %d, want env override 7", def.Rotation.ThresholdDays)
	}
	if def.Rotation.VerifyAttempts != 4 {
		t.Errorf("VerifyAttempts = %d, want env override 4", def.Rotation.VerifyAttempts)
	}
	if def.Notify.WebhookURL != "https://override.example.com" {
		t.Errorf("WebhookURL = %s, want env override", def.Notify.WebhookURL)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Definition)
	}{
		{"zero period", func(d *Definition) { d.Rotation.PeriodDays = 0 }},
		{"zero attempts", func(d *Definition) { d.Rotation.VerifyAttempts = 0 }},
		{"short password", func(d *Definition) { d.Rotation.PasswordLength = 4 }},
		{"weak token", func(d *Definition) { d.Rotation.TokenBytes = 8 }},
		{"negative threshold", func(d *Definition) { d.Rotation.ThresholdDays = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := Load("")
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(def)
			if err := def.Validate(); err == nil {
				t.Error("Validate accepted an invalid definition")
			}
		})
	}
}
