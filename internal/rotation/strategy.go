package rotation

import (
	"context"

	"github.com/keyvigil/keyvigil/internal/inventory"
	"github.com/keyvigil/keyvigil/internal/logging"
	"github.com/keyvigil/keyvigil/internal/rotation/deps"
)

// Strategy is the kind-specific rotation algorithm. A strategy generates the
// new credential value, applies it through the secret store adapter and
// verifies the write. It never returns the raw new value: the value is
// persisted, not echoed.
type Strategy interface {
	// Kind returns the credential kind this strategy rotates.
	Kind() inventory.Kind

	// Rotate performs the rotation for one credential. On success it returns
	// the provider metadata updates to merge into the inventory record.
	Rotate(ctx context.Context, cred *inventory.Credential) (*StrategyResult, error)
}

// StrategyResult carries the bookkeeping a successful rotation produces.
type StrategyResult struct {
	// MetadataUpdates are merged into the credential's provider metadata.
	MetadataUpdates map[string]string
}

// notifyDependents runs the dependent-service refresh after a verified write.
// Failures are logged and swallowed: the credential is already durably
// rotated, so a stale consumer is an operational follow-up, not a rotation
// failure.
func notifyDependents(ctx context.Context, notifier deps.Notifier, cred *inventory.Credential, logger *logging.Logger) {
	if notifier == nil {
		return
	}
	if err := notifier.NotifyDependents(ctx, cred); err != nil {
		logger.Warn("dependent refresh after rotating '%s' failed (non-fatal): %v", cred.ID, err)
	}
}
