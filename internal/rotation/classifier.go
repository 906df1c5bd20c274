package rotation

import (
	"context"
	"strings"

	"github.com/keyvigil/keyvigil/internal/inventory"
	"github.com/keyvigil/keyvigil/internal/logging"
	"github.com/keyvigil/keyvigil/internal/secretstore"
)

// Classifier infers a concrete credential kind for generic secrets from
// naming convention or payload shape. It is heuristic, not a guarantee: the
// contract is the documented rule order, nothing more.
type Classifier struct {
	adapter secretstore.Adapter
	logger  *logging.Logger
}

// NewClassifier creates a classifier that inspects payloads via adapter.
func NewClassifier(adapter secretstore.Adapter, logger *logging.Logger) *Classifier {
	return &Classifier{adapter: adapter, logger: logger}
}

var (
	databaseTokens = []string{"database", "db", "rds"}
	mailTokens     = []string{"smtp", "email"}
	passwordFields = []string{"password", "pass", "pwd", "db_password"}
	connectFields  = []string{"username", "host", "engine"}
	smtpFields     = []string{"smtp_password", "smtp_user", "smtp_host"}
)

// Classify resolves a generic credential to a concrete kind. Rules are
// ordered and the first match wins:
//
//  1. name contains a database token -> database-password
//  2. name contains a mail token -> smtp-password
//  3. payload inspection: password+connection fields -> database-password;
//     SMTP-specific field -> smtp-password; any password field or an opaque
//     payload -> database-password
//  4. payload unreadable -> database-password (best effort, not fatal)
//
// Credentials that already carry a concrete kind are returned unchanged.
func (c *Classifier) Classify(ctx context.Context, cred *inventory.Credential) inventory.Kind {
	if cred.Kind != inventory.KindGenericSecret {
		return cred.Kind
	}

	name := strings.ToLower(cred.Name)
	for _, token := range databaseTokens {
		if containsToken(name, token) {
			c.logger.Debug("classified '%s' as database-password by name token '%s'", cred.ID, token)
			return inventory.KindDatabasePassword
		}
	}
	for _, token := range mailTokens {
		if containsToken(name, token) {
			c.logger.Debug("classified '%s' as smtp-password by name token '%s'", cred.ID, token)
			return inventory.KindSMTPPassword
		}
	}

	payload, err := c.adapter.Read(ctx, cred.SecretRef)
	if err != nil {
		c.logger.Warn("payload inspection failed for '%s', defaulting to database-password: %v", cred.ID, err)
		return inventory.KindDatabasePassword
	}
	return classifyPayload(payload)
}

func classifyPayload(payload secretstore.Payload) inventory.Kind {
	if !payload.Structured() {
		// Plain text: default bias.
		return inventory.KindDatabasePassword
	}

	hasPassword := false
	for _, f := range passwordFields {
		if payload.HasField(f) {
			hasPassword = true
			break
		}
	}
	if hasPassword {
		for _, f := range connectFields {
			if payload.HasField(f) {
				return inventory.KindDatabasePassword
			}
		}
	}
	for _, f := range smtpFields {
		if payload.HasField(f) {
			return inventory.KindSMTPPassword
		}
	}
	return inventory.KindDatabasePassword
}

// containsToken matches a token against a name, tolerating common separators
// so "db" matches "prod/db-creds" but not "deadbeef".
func containsToken(name, token string) bool {
	if name == token {
		return true
	}
	for _, sep := range []string{"-", "_", "/", "."} {
		if strings.Contains(name, token+sep) || strings.Contains(name, sep+token) {
			return true
		}
	}
	// Longer tokens are unambiguous enough for a plain substring match.
	return len(token) > 3 && strings.Contains(name, token)
}
