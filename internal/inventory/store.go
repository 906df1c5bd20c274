package inventory

import "context"

// Store provides read/write access to credential records.
//
// Implementations must make status updates durably visible to other readers
// before returning, since the rotating status doubles as an advisory lock
// across processes.
type Store interface {
	// List returns every credential in the inventory.
	List(ctx context.Context) ([]Credential, error)

	// ListDue returns credentials due for rotation: expiring, expired or
	// failed status, or fewer days remaining than the threshold. Credentials
	// already rotating are never included.
	ListDue(ctx context.Context, thresholdDays int) ([]Credential, error)

	// Get returns the credential with the given id.
	Get(ctx context.Context, id string) (*Credential, error)

	// UpdateStatus sets the credential's status unconditionally.
	UpdateStatus(ctx context.Context, id string, status Status) error

	// UpdateStatusIf sets the status only when the current status matches
	// expect. Returns false without error when the guard fails. This is the
	// conditional write that makes the rotating flag authoritative.
	UpdateStatusIf(ctx context.Context, id string, expect, next Status) (bool, error)

	// UpdateAfterRotation commits the post-rotation bookkeeping in one write.
	UpdateAfterRotation(ctx context.Context, id string, update RotationUpdate) error

	// MergeProviderMetadata merges fields into the credential's provider
	// metadata, preserving unrelated keys.
	MergeProviderMetadata(ctx context.Context, id string, fields map[string]string) error
}
