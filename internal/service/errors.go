package service

import (
	"fmt"
	"strings"

	"github.com/parishpost/parishpost/internal/models"
)

// ConfigurationError means a platform's OAuth credentials are not set.
// Fatal for the flow, never retried.
type ConfigurationError struct {
	Platform models.Platform
	Key      string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s is not configured: missing %s", e.Platform, e.Key)
}

// InvalidStateError is a CSRF rejection: the callback's state parameter did
// not match the server-issued nonce (or none was pending).
type InvalidStateError struct {
	Platform models.Platform
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid OAuth state for %s", e.Platform)
}

// UnauthorizedError means the caller's identity could not be established or
// did not match the claimed user.
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string {
	return e.Reason
}

// ExchangeError wraps a failed token exchange or profile/page lookup,
// carrying the platform's own error description.
type ExchangeError struct {
	Platform models.Platform
	Reason   string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("%s token exchange failed: %s", e.Platform, e.Reason)
}

// MissingConnectionError aborts a publish before any network call when one
// or more requested platforms have no connected account.
type MissingConnectionError struct {
	Platforms []models.Platform
}

func (e *MissingConnectionError) Error() string {
	names := make([]string, len(e.Platforms))
	for i, p := range e.Platforms {
		names[i] = string(p)
	}
	return fmt.Sprintf("no connected account for: %s", strings.Join(names, ", "))
}

// UnsupportedPlatformError marks a platform whose publish API is not
// implemented. It fails only that platform's attempt.
type UnsupportedPlatformError struct {
	Platform models.Platform
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("publishing to %s is not supported", e.Platform)
}

// PublishError is a single platform's publish failure, isolated from its
// siblings and collected into a PublishReport.
type PublishError struct {
	Platform models.Platform
	Reason   string
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("%s: %s", e.Platform, e.Reason)
}

type PublishFailure struct {
	Platform models.Platform `json:"platform"`
	Reason   string          `json:"reason"`
}

// PublishReport aggregates a partially or fully failed fan-out. The message
// names every failing platform with its reason and still lists the platforms
// that succeeded, so callers can report partial success.
type PublishReport struct {
	Succeeded []models.Platform `json:"succeeded"`
	Failed    []PublishFailure  `json:"failed"`
}

func (e *PublishReport) Error() string {
	parts := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		parts[i] = fmt.Sprintf("%s: %s", f.Platform, f.Reason)
	}
	msg := fmt.Sprintf("failed to post to some platforms: %s", strings.Join(parts, "; "))
	if len(e.Succeeded) > 0 {
		names := make([]string, len(e.Succeeded))
		for i, p := range e.Succeeded {
			names[i] = string(p)
		}
		msg += fmt.Sprintf(" (succeeded: %s)", strings.Join(names, ", "))
	}
	return msg
}
