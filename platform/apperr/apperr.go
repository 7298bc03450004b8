// Package apperr defines the typed errors services return. Each error
// carries a Kind so the HTTP layer can map it to a status code without
// string matching.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	// KindUnknown is the zero value, used when no kind was assigned.
	KindUnknown Kind = iota
	// KindNotFound means the requested resource does not exist.
	KindNotFound
	// KindValidation means the input failed a domain rule.
	KindValidation
	// KindConflict means the request collided with existing state.
	KindConflict
	// KindForbidden means the caller may not perform this action.
	KindForbidden
	// KindUnauthorized means authentication is missing or failed.
	KindUnauthorized
	// KindBadRequest means the request itself was malformed.
	KindBadRequest
	// KindInternal means something unexpected broke on our side.
	KindInternal
	// KindGone means the resource existed but has lapsed, such as an
	// offer whose response window closed.
	KindGone
)

// Error is the domain error type. Services build these with the
// constructors below; handlers pass them to httpkit.HandleError.
type Error struct {
	Kind    Kind
	Message string
	Op      string // operation that produced the error, optional
	Err     error  // wrapped cause, optional
	Details any    // extra payload surfaced in the response body, optional
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the kind to a status code. Unrecognized kinds fall
// back to 400 rather than 500 so a missing mapping never masks a
// client mistake as a server fault.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation, KindBadRequest:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindInternal:
		return http.StatusInternalServerError
	case KindGone:
		return http.StatusGone
	default:
		return http.StatusBadRequest
	}
}

// New builds an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an error of the given kind around a cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithOp sets the failing operation and returns the error for chaining.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// WithDetails attaches a response payload and returns the error for chaining.
func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

// NotFound builds a KindNotFound error.
func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// Validation builds a KindValidation error.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// Conflict builds a KindConflict error.
func Conflict(message string) *Error {
	return New(KindConflict, message)
}

// Forbidden builds a KindForbidden error.
func Forbidden(message string) *Error {
	return New(KindForbidden, message)
}

// Unauthorized builds a KindUnauthorized error.
func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

// BadRequest builds a KindBadRequest error.
func BadRequest(message string) *Error {
	return New(KindBadRequest, message)
}

// Internal builds a KindInternal error.
func Internal(message string) *Error {
	return New(KindInternal, message)
}

// Gone builds a KindGone error.
func Gone(message string) *Error {
	return New(KindGone, message)
}

// GetKind reports the kind of err, unwrapping as needed. Plain errors
// report KindUnknown.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}
