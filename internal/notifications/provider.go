package notifications

import "context"

// Provider defines the interface for an outbound notification channel.
type Provider interface {
	// Name returns the provider name for logging.
	Name() string

	// Send delivers one event. Errors are logged by the manager and dropped.
	Send(ctx context.Context, event Event) error
}
