// Package deps notifies services that consume a rotated credential so they
// pick up the new value. Everything here is best-effort: failures are logged
// by the caller and never change a rotation outcome.
package deps

import (
	"context"

	"github.com/keyvigil/keyvigil/internal/inventory"
)

// Notifier triggers a refresh of the services that depend on a credential.
type Notifier interface {
	// Name identifies the notifier for logging.
	Name() string

	// NotifyDependents asks each dependent service to reload the credential.
	NotifyDependents(ctx context.Context, cred *inventory.Credential) error
}

// NoopNotifier is used when no dependent-service integration is configured.
type NoopNotifier struct{}

// Name implements Notifier.
func (NoopNotifier) Name() string { return "none" }

// NotifyDependents implements Notifier.
func (NoopNotifier) NotifyDependents(ctx context.Context, cred *inventory.Credential) error {
	return nil
}
