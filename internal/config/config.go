// Package config loads the keyvigil.yaml runtime configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/keyvigil/keyvigil/internal/logging"
	"gopkg.in/yaml.v3"
)

// Default tunables. All of them are overridable per installation; none are
// business law.
const (
	DefaultRotationThresholdDays = 30
	DefaultRotationPeriodDays    = 90
	DefaultVerifyIntervalMs      = 1000
	DefaultVerifyAttempts        = 3
	DefaultPasswordLength        = 32
	DefaultTokenBytes            = 32
	DefaultBatchConcurrency      = 5
)

// Config holds the runtime configuration.
type Config struct {
	Path       string
	Logger     *logging.Logger
	Definition *Definition
}

// Definition represents the keyvigil.yaml structure.
type Definition struct {
	Version   int             `yaml:"version"`
	Rotation  RotationConfig  `yaml:"rotation"`
	Inventory InventoryConfig `yaml:"inventory,omitempty"`
	Store     StoreConfig     `yaml:"secretStore,omitempty"`
	Audit     AuditConfig     `yaml:"audit,omitempty"`
	Notify    NotifyConfig    `yaml:"notifications,omitempty"`
	Deps      DepsConfig      `yaml:"dependents,omitempty"`
}

// RotationConfig holds the engine tunables.
type RotationConfig struct {
	ThresholdDays    int `yaml:"threshold_days"`
	PeriodDays       int `yaml:"period_days"`
	VerifyIntervalMs int `yaml:"verify_interval_ms"`
	VerifyAttempts   int `yaml:"verify_attempts"`
	PasswordLength   int `yaml:"password_length"`
	TokenBytes       int `yaml:"token_bytes"`
	BatchConcurrency int `yaml:"batch_concurrency"`
}

// VerifyInterval returns the verification wait interval as a duration.
func (r RotationConfig) VerifyInterval() time.Duration {
	return time.Duration(r.VerifyIntervalMs) * time.Millisecond
}

// InventoryConfig selects the credential inventory backend.
type InventoryConfig struct {
	Type       string `yaml:"type"` // "mongo" or "memory"
	URI        string `yaml:"uri,omitempty"`
	Database   string `yaml:"database,omitempty"`
	Collection string `yaml:"collection,omitempty"`
}

// StoreConfig selects the secret value store backend.
type StoreConfig struct {
	Type     string `yaml:"type"` // "aws.secretsmanager", "aws.ssm" or "memory"
	Region   string `yaml:"region,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"` // LocalStack or testing

	// Static credentials for testing against local endpoints.
	AccessKeyID     string `yaml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`
}

// AuditConfig selects the audit sink backend.
type AuditConfig struct {
	Type       string `yaml:"type"` // "mongo" or "memory"
	URI        string `yaml:"uri,omitempty"`
	Database   string `yaml:"database,omitempty"`
	Collection string `yaml:"collection,omitempty"`
}

// NotifyConfig configures the outbound notification webhook.
type NotifyConfig struct {
	WebhookURL string            `yaml:"webhook_url,omitempty"`
	Headers    map[string]string `yaml:"headers,omitempty"`
	TimeoutMs  int               `yaml:"timeout_ms,omitempty"`
	QueueSize  int               `yaml:"queue_size,omitempty"`
}

// DepsConfig configures the dependent-service notifier.
type DepsConfig struct {
	Type     string `yaml:"type"` // "ecs" or "none"
	Cluster  string `yaml:"cluster,omitempty"`
	Region   string `yaml:"region,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"`
}

// Load reads the config file at path and applies defaults and environment
// overrides. A missing file is not an error; the defaults stand alone.
func Load(path string) (*Definition, error) {
	def := &Definition{
		Version: 1,
		Rotation: RotationConfig{
			ThresholdDays:    DefaultRotationThresholdDays,
			PeriodDays:       DefaultRotationPeriodDays,
			VerifyIntervalMs: DefaultVerifyIntervalMs,
			VerifyAttempts:   DefaultVerifyAttempts,
			PasswordLength:   DefaultPasswordLength,
			TokenBytes:       DefaultTokenBytes,
			BatchConcurrency: DefaultBatchConcurrency,
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, def); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(def)

	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// Validate checks the tunables for values the engine cannot operate with.
func (d *Definition) Validate() error {
	r := d.Rotation
	if r.ThresholdDays < 0 {
		return fmt.Errorf("rotation.threshold_days must not be negative (got %d)", r.ThresholdDays)
	}
	if r.PeriodDays <= 0 {
		return fmt.Errorf("rotation.period_days must be positive (got %d)", r.PeriodDays)
	}
	if r.VerifyAttempts < 1 {
		return fmt.Errorf("rotation.verify_attempts must be at least 1 (got %d)", r.VerifyAttempts)
	}
	if r.PasswordLength < 8 {
		return fmt.Errorf("rotation.password_length must be at least 8 (got %d)", r.PasswordLength)
	}
	if r.TokenBytes < 16 {
		return fmt.Errorf("rotation.token_bytes must be at least 16 (got %d)", r.TokenBytes)
	}
	if r.BatchConcurrency < 1 {
		return fmt.Errorf("rotation.batch_concurrency must be at least 1 (got %d)", r.BatchConcurrency)
	}
	return nil
}

// applyEnvOverrides lets environment variables win over file values, so the
// engine can be tuned per deployment without editing the file.
func applyEnvOverrides(def *Definition) {
	overrideInt("KEYVIGIL_ROTATION_THRESHOLD_DAYS", &def.Rotation.ThresholdDays)
	overrideInt("KEYVIGIL_ROTATION_PERIOD_DAYS", &def.Rotation.PeriodDays)
	overrideInt("KEYVIGIL_VERIFY_INTERVAL_MS", &def.Rotation.VerifyIntervalMs)
	overrideInt("KEYVIGIL_VERIFY_ATTEMPTS", &def.Rotation.VerifyAttempts)
	overrideInt("KEYVIGIL_PASSWORD_LENGTH", &def.Rotation.PasswordLength)
	overrideInt("KEYVIGIL_TOKEN_BYTES", &def.Rotation.TokenBytes)
	overrideInt("KEYVIGIL_BATCH_CONCURRENCY", &def.Rotation.BatchConcurrency)
	overrideString("KEYVIGIL_INVENTORY_URI", &def.Inventory.URI)
	overrideString("KEYVIGIL_WEBHOOK_URL", &def.Notify.WebhookURL)
	overrideString("KEYVIGIL_STORE_REGION", &def.Store.Region)
	overrideString("KEYVIGIL_STORE_ENDPOINT", &def.Store.Endpoint)
}

func overrideInt(name string, dst *int) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func overrideString(name string, dst *string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}
