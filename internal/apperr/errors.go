// Package apperr defines the error kinds shared by the services.
// Handlers translate a Kind into an HTTP status; services only decide which Kind applies.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindConflict
	KindInvalidArgument
	KindInvalidState
	KindMissingAuthorization
	KindInvalidAuthorization
	KindRateLimited
	KindInsufficientFunds
	KindUnauthorized
	KindForbidden
	KindTransient
)

var kindNames = map[Kind]string{
	KindUnknown:              "unknown",
	KindNotFound:             "not_found",
	KindConflict:             "conflict",
	KindInvalidArgument:      "invalid_argument",
	KindInvalidState:         "invalid_state",
	KindMissingAuthorization: "missing_authorization",
	KindInvalidAuthorization: "invalid_authorization",
	KindRateLimited:          "rate_limited",
	KindInsufficientFunds:    "insufficient_funds",
	KindUnauthorized:         "unauthorized",
	KindForbidden:            "forbidden",
	KindTransient:            "transient",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// Error is a failure the client is allowed to see.
// Message is user-facing; Err, when set, is the underlying cause and is never rendered.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind, so errors.Is(err, apperr.ErrRateLimited) works
// regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the Kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound             = New(KindNotFound, "not found")
	ErrConflict             = New(KindConflict, "conflict")
	ErrInvalidArgument      = New(KindInvalidArgument, "invalid argument")
	ErrInvalidState         = New(KindInvalidState, "invalid state")
	ErrMissingAuthorization = New(KindMissingAuthorization, "missing authorization")
	ErrInvalidAuthorization = New(KindInvalidAuthorization, "invalid authorization")
	ErrRateLimited          = New(KindRateLimited, "rate limited")
	ErrInsufficientFunds    = New(KindInsufficientFunds, "insufficient funds")
	ErrUnauthorized         = New(KindUnauthorized, "unauthorized")
	ErrForbidden            = New(KindForbidden, "forbidden")
	ErrTransient            = New(KindTransient, "transient failure")
)
