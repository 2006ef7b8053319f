package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for caller-side input problems, e.g. a
	// query that is empty after trimming. It never reaches the network.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when a valid request yields zero results.
	// Absence is expected and must be distinguished from failure.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable is returned when a required capability is missing,
	// e.g. no geolocation provider is configured.
	ErrUnavailable = errors.New("capability unavailable")
)

// UpstreamError is a non-2xx, non-auth failure from a provider. Message
// carries the provider's own message verbatim when one was available.
type UpstreamError struct {
	Op      string
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: upstream returned status %d", e.Op, e.Status)
}

// AuthError means the provider rejected the credential. Remediation is
// user-facing guidance, surfaced verbatim by the orchestrator.
type AuthError struct {
	Op          string
	Remediation string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: authentication failed: %s", e.Op, e.Remediation)
}
