// Package errors defines the typed error taxonomy for the rotation engine.
//
// Every failure class the orchestrator distinguishes has its own type so
// outcomes can be classified with errors.As instead of string matching.
// None of these are process-fatal: each aborts at most one credential's
// rotation attempt.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// NotFoundError indicates an unknown credential id.
type NotFoundError struct {
	CredentialID string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("credential '%s' not found", e.CredentialID)
}

// UnsupportedKindError indicates no rotation strategy exists for a credential kind.
type UnsupportedKindError struct {
	Kind string
}

func (e UnsupportedKindError) Error() string {
	return fmt.Sprintf("no rotation strategy for credential kind '%s'", e.Kind)
}

// StoreReadError wraps a failure reading from the secret value store.
type StoreReadError struct {
	Ref string
	Err error
}

func (e StoreReadError) Error() string {
	return fmt.Sprintf("secret store read failed for ref '%s': %v", e.Ref, e.Err)
}

func (e StoreReadError) Unwrap() error { return e.Err }

// StoreWriteError wraps a failure writing to the secret value store.
type StoreWriteError struct {
	Ref string
	Err error
}

func (e StoreWriteError) Error() string {
	return fmt.Sprintf("secret store write failed for ref '%s': %v", e.Ref, e.Err)
}

func (e StoreWriteError) Unwrap() error { return e.Err }

// VerificationError indicates a write was acknowledged but the re-read never
// confirmed the new value. The rotation must be reported as failed even though
// the write call itself succeeded.
type VerificationError struct {
	Ref      string
	Attempts int
	Err      error
}

func (e VerificationError) Error() string {
	msg := fmt.Sprintf("verification failed for ref '%s' after %d attempts", e.Ref, e.Attempts)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e VerificationError) Unwrap() error { return e.Err }

// DependentNotifyError wraps a failure refreshing a dependent service.
// Always non-fatal: logged and recorded but never propagated into an outcome.
type DependentNotifyError struct {
	Service string
	Err     error
}

func (e DependentNotifyError) Error() string {
	return fmt.Sprintf("dependent service '%s' refresh failed: %v", e.Service, e.Err)
}

func (e DependentNotifyError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

// IsVerificationFailure reports whether err is a VerificationError.
func IsVerificationFailure(err error) bool {
	var ve VerificationError
	return errors.As(err, &ve)
}

// IsRetryable checks if an error looks transient enough to retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"timeout",
		"temporary failure",
		"connection reset",
		"broken pipe",
		"rate limit",
		"throttling",
		"too many requests",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// As re-exports the stdlib helper so callers need one errors import.
func As(err error, target any) bool { return errors.As(err, target) }

// Is re-exports the stdlib helper so callers need one errors import.
func Is(err, target error) bool { return errors.Is(err, target) }
