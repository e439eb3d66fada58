// Package errors defines the failure taxonomy of the sync core.
//
// Every mutation surfaces exactly one typed error carrying the final
// user-facing message; consumers classify with errors.Is against the
// Kind sentinels and show Message at the UI boundary.
package errors

import "fmt"

type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindConflict
	KindAuth
	KindStorage
)

// Kind sentinels for errors.Is classification.
var (
	ErrValidation = &Error{kind: KindValidation, Message: "validation failed"}
	ErrNotFound   = &Error{kind: KindNotFound, Message: "not found"}
	ErrConflict   = &Error{kind: KindConflict, Message: "conflict"}
	ErrAuth       = &Error{kind: KindAuth, Message: "authentication failed"}
	ErrStorage    = &Error{kind: KindStorage, Message: "storage failure"}
)

// Error is a classified failure with a user-facing message. Code is set for
// auth failures only and carries the provider error code.
type Error struct {
	kind    Kind
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Kind() Kind { return e.kind }

// Is matches any *Error of the same kind, so errors.Is(err, ErrAuth)
// classifies without comparing messages.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.kind == e.kind
}

func Validation(msg string) *Error {
	return &Error{kind: KindValidation, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{kind: KindNotFound, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{kind: KindConflict, Message: msg}
}

func Auth(code, msg string, cause error) *Error {
	return &Error{kind: KindAuth, Code: code, Message: msg, cause: cause}
}

func Storage(msg string, cause error) *Error {
	return &Error{kind: KindStorage, Message: msg, cause: cause}
}

// CodeOf extracts the provider code from an auth error, "" otherwise.
func CodeOf(err error) string {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// MessageOf extracts the user-facing message, falling back to Error()
// for untyped errors.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := err.(*Error); ok {
		return e.Message
	}
	return err.Error()
}
