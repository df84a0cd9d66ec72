// Package apperr defines the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindUnauthenticated
	KindUnauthorized
	KindValidation
	KindInsufficientStock
	KindConflict
	KindInvalidTransition
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindUnauthorized:
		return "unauthorized"
	case KindValidation:
		return "validation"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindConflict:
		return "conflict"
	case KindInvalidTransition:
		return "invalid_transition"
	default:
		return "internal"
	}
}

// Error is the typed error returned by services. Msg is safe to show to callers.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Msg: entity + " not found"}
}

func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Msg: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Msg: msg}
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Msg: msg}
}

func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Msg: msg}
}

func InsufficientStock(productName string) *Error {
	return &Error{Kind: KindInsufficientStock, Msg: "Insufficient stock for " + productName}
}

func InvalidTransition(from, to string) *Error {
	return &Error{Kind: KindInvalidTransition, Msg: fmt.Sprintf("Cannot change status from %s to %s", from, to)}
}

// Internal wraps an unexpected failure. The cause is kept for logging only.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Msg: "Server error", Err: err}
}

// KindOf reports the Kind of err. Untyped errors are Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the caller-facing message for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Msg
	}
	return "Server error"
}

// FromStore translates storage errors. Anything unrecognized becomes Internal.
func FromStore(err error, entity string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound(entity)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Kind: KindConflict, Msg: entity + " already exists", Err: err}
	default:
		return Internal(err)
	}
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindUnauthorized:
		return http.StatusForbidden
	case KindValidation, KindInsufficientStock:
		return http.StatusBadRequest
	case KindConflict, KindInvalidTransition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
