package rotation

import (
	"context"

	"github.com/keyvigil/keyvigil/internal/inventory"
	"github.com/keyvigil/keyvigil/internal/logging"
	"github.com/keyvigil/keyvigil/internal/rotation/deps"
	"github.com/keyvigil/keyvigil/internal/secretstore"
)

// TokenStrategy rotates API tokens. A fresh random token replaces the stored
// value wholesale; the old token is not revoked here because the issuing
// service invalidates it on its own schedule.
type TokenStrategy struct {
	adapter   secretstore.Adapter
	verifier  *Verifier
	generator *Generator
	notifier  deps.Notifier
	logger    *logging.Logger
}

// NewTokenStrategy creates the API token strategy.
func NewTokenStrategy(adapter secretstore.Adapter, verifier *Verifier, generator *Generator, notifier deps.Notifier, logger *logging.Logger) *TokenStrategy {
	return &TokenStrategy{
		adapter:   adapter,
		verifier:  verifier,
		generator: generator,
		notifier:  notifier,
		logger:    logger,
	}
}

// Kind implements Strategy.
func (s *TokenStrategy) Kind() inventory.Kind { return inventory.KindAPIToken }

// Rotate implements Strategy.
func (s *TokenStrategy) Rotate(ctx context.Context, cred *inventory.Credential) (*StrategyResult, error) {
	token, err := s.generator.Token()
	if err != nil {
		return nil, err
	}
	defer token.Destroy()
	newValue := token.String()

	if err := s.adapter.Write(ctx, cred.SecretRef, secretstore.NewOpaque(newValue)); err != nil {
		return nil, err
	}
	if err := s.verifier.VerifyWritten(ctx, cred.SecretRef, newValue, ""); err != nil {
		return nil, err
	}

	s.logger.Info("rotated %s '%s' in %s", inventory.KindAPIToken, cred.ID, s.adapter.Name())
	notifyDependents(ctx, s.notifier, cred, s.logger)
	return &StrategyResult{}, nil
}
