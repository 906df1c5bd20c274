// Package notifications delivers best-effort outbound messages about rotation
// attempts. Delivery failures never alter a rotation outcome.
package notifications

import "time"

// Status is the outcome carried by a notification.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Event is one rotation attempt notification. Exactly one is emitted per
// attempt, after the outcome is known.
type Event struct {
	CredentialName string    `json:"credentialName"`
	CredentialType string    `json:"credentialType"`
	Status         Status    `json:"status"`
	Error          string    `json:"error,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}
