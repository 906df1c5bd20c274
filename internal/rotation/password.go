package rotation

import (
	"context"

	"github.com/keyvigil/keyvigil/internal/inventory"
	"github.com/keyvigil/keyvigil/internal/logging"
	"github.com/keyvigil/keyvigil/internal/rotation/deps"
	"github.com/keyvigil/keyvigil/internal/secretstore"
)

// PasswordStrategy rotates password-shaped credentials: database passwords,
// SMTP passwords and generic stored secrets. The new password is written to
// the secret store; no provider API call is needed because the consumer of
// the secret is expected to be reconfigured out-of-band (or via the
// dependent-service notifier).
type PasswordStrategy struct {
	kind      inventory.Kind
	fields    []string
	adapter   secretstore.Adapter
	verifier  *Verifier
	generator *Generator
	notifier  deps.Notifier
	logger    *logging.Logger
}

// NewDatabasePasswordStrategy rotates the "password" field of a database
// credential payload, leaving connection fields like username and host intact.
func NewDatabasePasswordStrategy(adapter secretstore.Adapter, verifier *Verifier, generator *Generator, notifier deps.Notifier, logger *logging.Logger) *PasswordStrategy {
	return &PasswordStrategy{
		kind:      inventory.KindDatabasePassword,
		fields:    []string{"password"},
		adapter:   adapter,
		verifier:  verifier,
		generator: generator,
		notifier:  notifier,
		logger:    logger,
	}
}

// NewSMTPPasswordStrategy rotates a mail credential. It prefers the
// "smtp_password" field when the payload carries one and falls back to
// "password" otherwise.
func NewSMTPPasswordStrategy(adapter secretstore.Adapter, verifier *Verifier, generator *Generator, notifier deps.Notifier, logger *logging.Logger) *PasswordStrategy {
	return &PasswordStrategy{
		kind:      inventory.KindSMTPPassword,
		fields:    []string{"smtp_password", "password"},
		adapter:   adapter,
		verifier:  verifier,
		generator: generator,
		notifier:  notifier,
		logger:    logger,
	}
}

// NewGenericSecretStrategy rotates an unclassified stored secret the same
// way a database password is rotated.
func NewGenericSecretStrategy(adapter secretstore.Adapter, verifier *Verifier, generator *Generator, notifier deps.Notifier, logger *logging.Logger) *PasswordStrategy {
	return &PasswordStrategy{
		kind:      inventory.KindGenericSecret,
		fields:    []string{"password"},
		adapter:   adapter,
		verifier:  verifier,
		generator: generator,
		notifier:  notifier,
		logger:    logger,
	}
}

// Kind implements Strategy.
func (s *PasswordStrategy) Kind() inventory.Kind { return s.kind }

// Rotate implements Strategy. For a structured payload only the password
// field is replaced and every sibling field is preserved; an opaque payload
// is replaced wholesale.
func (s *PasswordStrategy) Rotate(ctx context.Context, cred *inventory.Credential) (*StrategyResult, error) {
	current, err := s.adapter.Read(ctx, cred.SecretRef)
	if err != nil {
		return nil, err
	}

	password, err := s.generator.Password()
	if err != nil {
		return nil, err
	}
	defer password.Destroy()
	newValue := password.String()

	var next secretstore.Payload
	var verifyField string
	if current.Structured() {
		verifyField = s.targetField(current)
		next = current.SetField(verifyField, newValue)
	} else {
		next = secretstore.NewOpaque(newValue)
	}

	if err := s.adapter.Write(ctx, cred.SecretRef, next); err != nil {
		return nil, err
	}
	if err := s.verifier.VerifyWritten(ctx, cred.SecretRef, newValue, verifyField); err != nil {
		return nil, err
	}

	s.logger.Info("rotated %s '%s' in %s", s.kind, cred.ID, s.adapter.Name())
	notifyDependents(ctx, s.notifier, cred, s.logger)
	return &StrategyResult{}, nil
}

// targetField picks which field of a structured payload holds the password.
// The first preferred field already present wins; when none exist the primary
// preference is created.
func (s *PasswordStrategy) targetField(payload secretstore.Payload) string {
	for _, name := range s.fields {
		if payload.HasField(name) {
			return name
		}
	}
	return s.fields[0]
}
