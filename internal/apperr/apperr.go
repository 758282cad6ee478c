package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an application error so the HTTP layer can map it to a
// status code without string matching.
type Kind int

const (
	KindUnauthenticated Kind = iota
	KindNotFound
	KindForbidden
	KindUpstream
	KindConsistency
	KindInvalid
)

// Error is an application error with a kind and a user-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error // underlying cause, optional
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

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Common constructors, one per taxonomy entry.

func Unauthenticated() *Error {
	return New(KindUnauthenticated, "user not authenticated")
}

func NotFound(what string) *Error {
	return New(KindNotFound, what+" not found")
}

func Forbidden(action string) *Error {
	return New(KindForbidden, "not authorized to "+action)
}

func Upstream(message string, err error) *Error {
	return Wrap(KindUpstream, message, err)
}

func Consistency(message string) *Error {
	return New(KindConsistency, message)
}

func Invalid(message string) *Error {
	return New(KindInvalid, message)
}

// KindOf reports the kind of err if it is (or wraps) an *Error. The second
// return is false for plain errors.
func KindOf(err error) (Kind, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return 0, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
