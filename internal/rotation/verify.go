package rotation

import (
	"context"
	"fmt"
	"time"

	"github.com/keyvigil/keyvigil/internal/errors"
	"github.com/keyvigil/keyvigil/internal/logging"
	"github.com/keyvigil/keyvigil/internal/secretstore"
)

// Verifier confirms a secret write is durably visible before the orchestrator
// commits. The backing store may be eventually consistent, so a read
// immediately after a write can return stale data; a write acknowledgment is
// never trusted on its own.
type Verifier struct {
	adapter  secretstore.Adapter
	interval time.Duration
	attempts int
	logger   *logging.Logger
	metrics  *Metrics
}

// NewVerifier creates a verifier. interval is the fixed wait before each read
// attempt; attempts is the total number of reads before giving up.
func NewVerifier(adapter secretstore.Adapter, interval time.Duration, attempts int, logger *logging.Logger, metrics *Metrics) *Verifier {
	if attempts < 1 {
		attempts = 1
	}
	return &Verifier{
		adapter:  adapter,
		interval: interval,
		attempts: attempts,
		logger:   logger,
		metrics:  metrics,
	}
}

// VerifyWritten re-reads ref until the stored value matches the expectation.
//
// When expectedField is empty the whole payload must equal expected; when it
// names a field of a structured payload, only that field is compared, so an
// unrelated field changing concurrently does not fail the verification.
//
// Each attempt waits one fixed interval first, covering the store's write
// propagation delay. Exhausting all attempts returns a VerificationError;
// the caller must report the rotation as failed even though the write call
// itself succeeded.
func (v *Verifier) VerifyWritten(ctx context.Context, ref, expected, expectedField string) error {
	var lastErr error

	for attempt := 1; attempt <= v.attempts; attempt++ {
		if err := v.wait(ctx); err != nil {
			return errors.VerificationError{Ref: ref, Attempts: attempt, Err: err}
		}

		payload, err := v.adapter.Read(ctx, ref)
		if err != nil {
			lastErr = err
			v.logger.Debug("verification read %d/%d for '%s' failed: %v", attempt, v.attempts, ref, err)
			if v.metrics != nil {
				v.metrics.RecordVerifyRetry()
			}
			continue
		}

		if err := compare(payload, expected, expectedField); err != nil {
			lastErr = err
			v.logger.Debug("verification compare %d/%d for '%s' failed: %v", attempt, v.attempts, ref, err)
			if v.metrics != nil {
				v.metrics.RecordVerifyRetry()
			}
			continue
		}

		v.logger.Debug("verified write to '%s' on attempt %d", ref, attempt)
		return nil
	}

	return errors.VerificationError{Ref: ref, Attempts: v.attempts, Err: lastErr}
}

func (v *Verifier) wait(ctx context.Context) error {
	if v.interval <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(v.interval)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func compare(payload secretstore.Payload, expected, expectedField string) error {
	if expectedField == "" {
		if payload.Raw() != expected {
			return fmt.Errorf("payload does not match written value")
		}
		return nil
	}

	got, ok := payload.Field(expectedField)
	if !ok {
		return fmt.Errorf("field '%s' missing from re-read payload", expectedField)
	}
	if got != expected {
		return fmt.Errorf("field '%s' does not match written value", expectedField)
	}
	return nil
}
