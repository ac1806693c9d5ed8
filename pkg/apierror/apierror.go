package apierror

import (
	"errors"
	"fmt"
)

// Kind is the semantic outcome of a failed backend operation. Every public
// operation in this module returns one of these, never a raw transport error.
type Kind string

const (
	KindNoNetwork          Kind = "no_network"
	KindServerDown         Kind = "server_down"
	KindServerError        Kind = "server_error"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindEmailNotFound      Kind = "email_not_found"
	KindTokenExpired       Kind = "token_expired"
	KindTokenRefreshFailed Kind = "token_refresh_failed"
	KindValidationFailed   Kind = "validation_failed"
	KindRateLimited        Kind = "rate_limited"
	KindUnknown            Kind = "unknown"
)

// Error is a classified backend failure. Fields is populated only for
// KindValidationFailed; Status is the HTTP status when a response existed.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Fields  map[string][]string
	cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a classified error without an underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a classified error preserving the underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// Validation creates a KindValidationFailed error carrying per-field messages.
func Validation(fields map[string][]string) *Error {
	return &Error{Kind: KindValidationFailed, Message: "validation failed", Fields: fields}
}

// KindOf extracts the Kind from err, or KindUnknown if err is not classified.
// Returns an empty Kind for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is classified as the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
