package rotation

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/keyvigil/keyvigil/internal/inventory"
	"github.com/keyvigil/keyvigil/internal/logging"
	"github.com/keyvigil/keyvigil/internal/rotation/deps"
	"github.com/keyvigil/keyvigil/internal/secretstore"
)

// Provider metadata fields the IAM strategy reads and writes.
const (
	metaIAMUsername       = "iam_username"
	metaAccessKeyID       = "access_key_id"
	metaPreviousAccessKey = "previous_access_key_id"
)

// IAMClientAPI defines the interface for the IAM operations the strategy
// needs. This allows for mocking in tests.
type IAMClientAPI interface {
	CreateAccessKey(ctx context.Context, params *iam.CreateAccessKeyInput, optFns ...func(*iam.Options)) (*iam.CreateAccessKeyOutput, error)
	UpdateAccessKey(ctx context.Context, params *iam.UpdateAccessKeyInput, optFns ...func(*iam.Options)) (*iam.UpdateAccessKeyOutput, error)
}

// IAMKeyStrategy rotates AWS IAM access keys: create a new key pair, persist
// and verify it in the secret store, then deactivate the previous key. The
// old key is deactivated, not deleted, so it can be reactivated if a consumer
// turns out to still need it.
type IAMKeyStrategy struct {
	client   IAMClientAPI
	adapter  secretstore.Adapter
	verifier *Verifier
	notifier deps.Notifier
	logger   *logging.Logger
}

// IAMOption is a functional option for configuring the strategy.
type IAMOption func(*IAMKeyStrategy)

// WithIAMClient sets a custom IAM client (for testing).
func WithIAMClient(client IAMClientAPI) IAMOption {
	return func(s *IAMKeyStrategy) {
		s.client = client
	}
}

// NewIAMKeyStrategy creates the IAM access-key strategy.
func NewIAMKeyStrategy(ctx context.Context, region, endpoint string, adapter secretstore.Adapter, verifier *Verifier, notifier deps.Notifier, logger *logging.Logger, opts ...IAMOption) (*IAMKeyStrategy, error) {
	s := &IAMKeyStrategy{
		adapter:  adapter,
		verifier: verifier,
		notifier: notifier,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client != nil {
		return s, nil
	}

	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var clientOpts []func(*iam.Options)
	if endpoint != "" {
		clientOpts = append(clientOpts, func(o *iam.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	s.client = iam.NewFromConfig(awsCfg, clientOpts...)
	return s, nil
}

// Kind implements Strategy.
func (s *IAMKeyStrategy) Kind() inventory.Kind { return inventory.KindIAMAccessKey }

// Rotate implements Strategy. The new key is created first, then written and
// verified in the secret store, and only then is the old key deactivated, so
// there is never a moment without a working key.
func (s *IAMKeyStrategy) Rotate(ctx context.Context, cred *inventory.Credential) (*StrategyResult, error) {
	username := cred.Meta(metaIAMUsername)
	if username == "" {
		return nil, fmt.Errorf("credential '%s' has no %s metadata", cred.ID, metaIAMUsername)
	}
	oldKeyID := cred.Meta(metaAccessKeyID)

	created, err := s.client.CreateAccessKey(ctx, &iam.CreateAccessKeyInput{
		UserName: aws.String(username),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create access key for '%s': %w", username, err)
	}
	newKeyID := aws.ToString(created.AccessKey.AccessKeyId)
	newSecret := aws.ToString(created.AccessKey.SecretAccessKey)

	next := s.payloadWithKey(ctx, cred.SecretRef, newKeyID, newSecret)
	if err := s.adapter.Write(ctx, cred.SecretRef, next); err != nil {
		s.cleanupUnusedKey(ctx, username, newKeyID)
		return nil, err
	}
	if err := s.verifier.VerifyWritten(ctx, cred.SecretRef, newSecret, "secret_access_key"); err != nil {
		return nil, err
	}

	if oldKeyID != "" && oldKeyID != newKeyID {
		_, err := s.client.UpdateAccessKey(ctx, &iam.UpdateAccessKeyInput{
			UserName:    aws.String(username),
			AccessKeyId: aws.String(oldKeyID),
			Status:      iamtypes.StatusTypeInactive,
		})
		if err != nil {
			// The new key is already live and durable; leaving the old key
			// active is a cleanup task, not a rotation failure.
			s.logger.Warn("failed to deactivate previous access key '%s' for '%s': %v", oldKeyID, username, err)
		}
	}

	s.logger.Info("rotated %s '%s' for user '%s'", inventory.KindIAMAccessKey, cred.ID, username)
	notifyDependents(ctx, s.notifier, cred, s.logger)

	return &StrategyResult{
		MetadataUpdates: map[string]string{
			metaAccessKeyID:       newKeyID,
			metaPreviousAccessKey: oldKeyID,
		},
	}, nil
}

// payloadWithKey merges the new key pair into the current payload, preserving
// sibling fields of a structured payload. A missing or opaque current payload
// is replaced with a fresh two-field structure.
func (s *IAMKeyStrategy) payloadWithKey(ctx context.Context, ref, keyID, secret string) secretstore.Payload {
	current, err := s.adapter.Read(ctx, ref)
	if err != nil || !current.Structured() {
		current = secretstore.Payload{}
	}
	return current.SetField("access_key_id", keyID).SetField("secret_access_key", secret)
}

// cleanupUnusedKey deactivates a freshly created key that never made it into
// the secret store, so failed rotations do not leak active keys.
func (s *IAMKeyStrategy) cleanupUnusedKey(ctx context.Context, username, keyID string) {
	_, err := s.client.UpdateAccessKey(ctx, &iam.UpdateAccessKeyInput{
		UserName:    aws.String(username),
		AccessKeyId: aws.String(keyID),
		Status:      iamtypes.StatusTypeInactive,
	})
	if err != nil {
		s.logger.Warn("failed to deactivate orphaned access key '%s' for '%s': %v", keyID, username, err)
	}
}
