package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a domain error so callers can branch without
// matching on message text.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNotFound
	KindNoPermission
	KindConstraint
	KindConnectivity
	KindSQL
)

// Error codes used in HTTP responses
const (
	CodeNotFound     = "NOT_FOUND"
	CodeNoPermission = "NO_PERMISSION"
	CodeConstraint   = "CONSTRAINT_VIOLATION"
	CodeConnectivity = "CONNECTIVITY_FAILURE"
	CodeSQL          = "SQL_EXCEPTION"
	CodeUnknown      = "UNKNOWN"
	CodeBadRequest   = "INVALID_REQUEST"
	CodeRateLimit    = "RATE_LIMIT_EXCEEDED"
	CodeContentType  = "INVALID_CONTENT_TYPE"
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return CodeNotFound
	case KindNoPermission:
		return CodeNoPermission
	case KindConstraint:
		return CodeConstraint
	case KindConnectivity:
		return CodeConnectivity
	case KindSQL:
		return CodeSQL
	default:
		return CodeUnknown
	}
}

// Error is the single error type crossing the storage and service
// boundaries. Store failures are wrapped exactly once at the data-access
// layer; services only add domain meaning (e.g. zero rows -> not found).
type Error struct {
	Kind ErrorKind
	Op   string // operation that failed, e.g. "storage.update"
	Msg  string
	Err  error // underlying driver error, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E builds a domain error from an operation and an underlying cause.
func E(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// NotFound reports an absent entity or an update that affected no rows.
func NotFound(op, msg string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Msg: msg}
}

// NoPermission reports a failed verification or a duplicate username.
func NoPermission(op, msg string) *Error {
	return &Error{Kind: KindNoPermission, Op: op, Msg: msg}
}

// Unknown reports an unexpected state, e.g. a missing generated key.
func Unknown(op, msg string) *Error {
	return &Error{Kind: KindUnknown, Op: op, Msg: msg}
}

// KindOf extracts the classification from an error chain.
// Errors that never passed the storage boundary report KindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ErrorResponse is the JSON error body returned by all handlers.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
