// Package apperror provides domain-specific error types for Epic Events.
// These errors carry a machine-readable kind and a user-safe message. The
// CLI layer maps them to terminal output; nothing in the core treats them
// as fatal to the process.
//
// NEVER surface raw database or infrastructure errors to the user. Always
// wrap them in an apperror type or return a generic internal error.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for programmatic handling.
type Kind string

const (
	// KindValidation is a field-level format or length violation.
	KindValidation Kind = "validation_rejected"

	// KindAuthentication is a failed login. The message is deliberately
	// generic to avoid username enumeration.
	KindAuthentication Kind = "authentication_failed"

	// KindSession is a missing, tampered, or expired token. Forces re-login.
	KindSession Kind = "session_invalid"

	// KindAuthorization is a role or ownership mismatch for an
	// already-authenticated caller.
	KindAuthorization Kind = "authorization_denied"

	// KindPrecondition is a domain-state violation, e.g. creating an event
	// against an unsigned contract.
	KindPrecondition Kind = "precondition_failed"

	// KindNotFound means the target record does not exist.
	KindNotFound Kind = "not_found"

	// KindConflict means a uniqueness constraint would be violated.
	KindConflict Kind = "conflict"

	// KindInternal is an unexpected infrastructure failure.
	KindInternal Kind = "internal_error"
)

// AppError is the base error type for all domain errors. It carries a
// machine-readable kind and a human-readable message safe to show to the
// user.
type AppError struct {
	// Kind is the machine-readable error classifier.
	Kind Kind

	// Message is a human-readable description safe for the user.
	Message string

	// Internal holds the underlying error for logging. Never shown to the user.
	Internal error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Kind, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Internal
}

// --- Constructors for common error kinds ---

// NewValidation creates a validation error with the rejection reason.
func NewValidation(message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message}
}

// NewAuthentication creates a login failure. The same message is used for
// unknown usernames and wrong passwords.
func NewAuthentication() *AppError {
	return &AppError{Kind: KindAuthentication, Message: "incorrect username or password"}
}

// NewSession creates a session error. Tampered and expired tokens share
// this kind so the deny path cannot be used to probe why a token failed.
func NewSession(message string) *AppError {
	return &AppError{Kind: KindSession, Message: message}
}

// NewAuthorization creates a permission denial with a descriptive reason.
func NewAuthorization(message string) *AppError {
	return &AppError{Kind: KindAuthorization, Message: message}
}

// NewPrecondition creates a domain-state violation error.
func NewPrecondition(message string) *AppError {
	return &AppError{Kind: KindPrecondition, Message: message}
}

// NewNotFound creates a missing-record error.
func NewNotFound(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

// NewConflict creates a uniqueness-violation error.
func NewConflict(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

// NewInternal creates an internal error. The real error is stored in
// Internal for logging but the user only sees a generic message.
func NewInternal(err error) *AppError {
	return &AppError{
		Kind:     KindInternal,
		Message:  "an unexpected error occurred, please try again",
		Internal: err,
	}
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// SafeMessage returns the user-safe message from an error. If the error is
// an AppError, its Message field is returned. Any other error type maps to
// a generic message to prevent leaking internal details like table names
// or query structure.
func SafeMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "an unexpected error occurred"
}
