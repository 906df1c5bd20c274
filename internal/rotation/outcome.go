// Package rotation implements the credential rotation engine: due selection,
// kind classification, provider strategies, write verification and outcome
// accounting.
package rotation

import "time"

// Outcome is the result of one credential rotation attempt.
type Outcome struct {
	CredentialID   string    `json:"credentialId"`
	CredentialName string    `json:"credentialName"`
	Kind           string    `json:"kind"`
	Success        bool      `json:"success"`
	Skipped        bool      `json:"skipped,omitempty"`
	Error          string    `json:"error,omitempty"`
	CompletedAt    time.Time `json:"completedAt"`
}

// failed builds a failure outcome from an error.
func failed(id, name, kind string, err error) Outcome {
	return Outcome{
		CredentialID:   id,
		CredentialName: name,
		Kind:           kind,
		Success:        false,
		Error:          err.Error(),
		CompletedAt:    time.Now().UTC(),
	}
}

// succeeded builds a success outcome.
func succeeded(id, name, kind string) Outcome {
	return Outcome{
		CredentialID:   id,
		CredentialName: name,
		Kind:           kind,
		Success:        true,
		CompletedAt:    time.Now().UTC(),
	}
}

// skipped builds a no-op outcome for credentials that were not rotated.
func skipped(id, name, kind, reason string) Outcome {
	return Outcome{
		CredentialID:   id,
		CredentialName: name,
		Kind:           kind,
		Success:        true,
		Skipped:        true,
		Error:          reason,
		CompletedAt:    time.Now().UTC(),
	}
}
