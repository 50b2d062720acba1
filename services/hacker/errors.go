package hacker

import (
	"errors"
	"fmt"
)

// Kind classifies why an API call failed so callers can react without
// string-matching messages.
type Kind int

const (
	// KindTransport covers network failures, timeouts, and 5xx responses.
	KindTransport Kind = iota + 1
	// KindAuth covers missing, invalid, or expired tokens (401/403).
	KindAuth
	// KindValidation covers requests the service rejected as malformed or
	// conflicting, e.g. a duplicate username (remaining 4xx).
	KindValidation
	// KindNotFound covers unknown story or user ids (404).
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindAuth:
		return "auth"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// Error is returned for any request the remote service did not accept.
type Error struct {
	Kind    Kind
	Status  int // HTTP status, 0 for transport failures
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("hacker api: %s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("hacker api: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is (or wraps) an API error of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool { return IsKind(err, KindAuth) }

// IsNotFound reports whether err is a not-found failure.
func IsNotFound(err error) bool { return IsKind(err, KindNotFound) }

func kindForStatus(status int) Kind {
	switch {
	case status == 401 || status == 403:
		return KindAuth
	case status == 404:
		return KindNotFound
	case status >= 400 && status < 500:
		return KindValidation
	default:
		return KindTransport
	}
}
