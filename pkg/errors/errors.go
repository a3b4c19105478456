package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a coded failure that knows its HTTP status. Two errors with the
// same Code are equal under errors.Is regardless of message.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.Err == nil:
		return e.Message
	default:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e != nil && t != nil && e.Code == t.Code
}

func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap records err as the cause of a new coded error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

var (
	ErrValidation   = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrUnauthorized = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrForbidden    = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrNotFound     = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrConflict     = New("CONFLICT", http.StatusConflict, "conflict")
	ErrRateLimited  = New("RATE_LIMITED", http.StatusTooManyRequests, "too many requests")
	ErrInternal     = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// Ledger and request workflow failures.
var (
	ErrInsufficientBalance  = New("INSUFFICIENT_BALANCE", http.StatusUnprocessableEntity, "insufficient coin balance")
	ErrFeatureDisabled      = New("FEATURE_DISABLED", http.StatusForbidden, "feature disabled")
	ErrAlreadyProcessed     = New("ALREADY_PROCESSED", http.StatusConflict, "request already processed")
	ErrOverrideCreateFailed = New("OVERRIDE_CREATE_FAILED", http.StatusInternalServerError, "failed to create override")
	ErrStoreUnavailable     = New("STORE_UNAVAILABLE", http.StatusServiceUnavailable, "store unavailable")
)

// ErrCacheMiss is returned by cache lookups that found nothing.
var ErrCacheMiss = errors.New("cache miss")

// FromError returns the first *Error in err's chain, or wraps err as
// INTERNAL_ERROR when there is none.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var coded *Error
	if errors.As(err, &coded) {
		return coded
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone copies a sentinel, replacing its message when one is given.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	out := *err
	if message != "" {
		out.Message = message
	}
	return &out
}

// Store reports a persistence failure as STORE_UNAVAILABLE.
func Store(err error, message string) *Error {
	return Wrap(err, ErrStoreUnavailable.Code, ErrStoreUnavailable.Status, message)
}
