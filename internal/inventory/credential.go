// Package inventory holds the credential records the rotation engine operates
// on. The inventory never contains secret values; it tracks identity, kind,
// lifecycle status and the opaque reference into the secret value store.
package inventory

import (
	"strings"
	"time"
)

// Kind is the canonical credential kind. Dispatch logic sees exactly these
// tags; legacy synonyms from discovery sources are normalized at this boundary.
type Kind string

const (
	KindIAMAccessKey     Kind = "iam-access-key"
	KindDatabasePassword Kind = "database-password"
	KindSMTPPassword     Kind = "smtp-password"
	KindAPIToken         Kind = "api-token"
	KindGenericSecret    Kind = "generic-secret"
)

// Status is the credential lifecycle status.
type Status string

const (
	StatusActive   Status = "active"
	StatusExpiring Status = "expiring"
	StatusExpired  Status = "expired"
	StatusRotating Status = "rotating"
	StatusFailed   Status = "failed"
)

// Credential is the unit of rotation.
type Credential struct {
	ID           string            `bson:"_id" json:"id"`
	Name         string            `bson:"name" json:"name"`
	Kind         Kind              `bson:"kind" json:"kind"`
	Status       Status            `bson:"status" json:"status"`
	Source       string            `bson:"source" json:"source"`
	LastRotated  time.Time         `bson:"last_rotated" json:"lastRotated"`
	ExpiresIn    int               `bson:"expires_in" json:"expiresIn"` // days remaining
	SecretRef    string            `bson:"secret_ref" json:"secretRef"`
	ProviderMeta map[string]string `bson:"provider_meta,omitempty" json:"providerMetadata,omitempty"`
}

// Meta returns a provider metadata field, or "" when absent.
func (c *Credential) Meta(key string) string {
	if c.ProviderMeta == nil {
		return ""
	}
	return c.ProviderMeta[key]
}

// legacy kind labels seen in discovery sources, mapped to canonical kinds.
var kindSynonyms = map[string]Kind{
	"iam-access-key":    KindIAMAccessKey,
	"aws iam":           KindIAMAccessKey,
	"aws_iam_key":       KindIAMAccessKey,
	"aws-iam-key":       KindIAMAccessKey,
	"access-key":        KindIAMAccessKey,
	"database-password": KindDatabasePassword,
	"database":          KindDatabasePassword,
	"db-password":       KindDatabasePassword,
	"rds":               KindDatabasePassword,
	"smtp-password":     KindSMTPPassword,
	"smtp":              KindSMTPPassword,
	"ses_smtp":          KindSMTPPassword,
	"api-token":         KindAPIToken,
	"api_key":           KindAPIToken,
	"github-token":      KindAPIToken,
	"token":             KindAPIToken,
	"generic-secret":    KindGenericSecret,
	"generic":           KindGenericSecret,
	"secret":            KindGenericSecret,
	"from-secret-store": KindGenericSecret,
	"secrets-manager":   KindGenericSecret,
}

// NormalizeKind maps a raw kind label from a discovery source to its canonical
// Kind. Unknown labels map to the generic kind so they still reach the
// classifier instead of being dropped.
func NormalizeKind(raw string) Kind {
	key := strings.ToLower(strings.TrimSpace(raw))
	if kind, ok := kindSynonyms[key]; ok {
		return kind
	}
	return KindGenericSecret
}

// RotationUpdate carries the fields the orchestrator commits after a
// successful rotation.
type RotationUpdate struct {
	LastRotated time.Time
	ExpiresIn   int
	Status      Status
}
