package application

import (
	"errors"
	"net/http"
)

// Kind classifies an application error for the transport layer.
type Kind int

const (
	KindAuthentication Kind = iota + 1
	KindAuthorization
	KindValidation
	KindNotFound
	KindDependency
)

// Error is returned by services. Message is safe to show to the caller;
// Err carries the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the error kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func Unauthenticated(msg string) *Error { return &Error{Kind: KindAuthentication, Message: msg} }
func Forbidden(msg string) *Error       { return &Error{Kind: KindAuthorization, Message: msg} }
func Invalid(msg string) *Error         { return &Error{Kind: KindValidation, Message: msg} }
func NotFound(msg string) *Error        { return &Error{Kind: KindNotFound, Message: msg} }

func Dependency(msg string, err error) *Error {
	return &Error{Kind: KindDependency, Message: msg, Err: err}
}

// KindOf returns the kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return 0
}

var (
	ErrTaskNotFound    = NotFound("Task not found")
	ErrForbidden       = Forbidden("Forbidden")
	ErrTitleRequired   = Invalid("title is required")
	ErrOwnerImmutable  = Invalid("ownerUid is immutable")
	ErrInvalidRole     = Invalid("Invalid role")
	ErrUIDRequired     = Invalid("uid is required")
	ErrAccountNotFound = NotFound("Account not found")
	ErrExportNotReady  = Dependency("export storage not configured", nil)
	ErrClaimsNotReady  = Dependency("identity provider admin not configured", nil)
	ErrIdentityMissing = Unauthenticated("Unauthenticated")
)
