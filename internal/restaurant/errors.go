package restaurant

import (
	"github.com/pkg/errors"
)

// Kind classifies a failed operation.  It is reported to GraphQL clients as extensions.code.
type Kind string

const (
	KindInvalidInput   Kind = "INVALID_INPUT"   // malformed argument, eg a phone not in international format
	KindInvalidPhone   Kind = "INVALID_PHONE"   // phone rejected by the validation service
	KindNotFound       Kind = "NOT_FOUND"       // unknown restaurant or empty upstream lookup
	KindDuplicatePhone Kind = "DUPLICATE_PHONE" // phone already registered
	KindUpstream       Kind = "UPSTREAM_ERROR"  // a third-party API failed
	KindInternal       Kind = "INTERNAL"
)

// Error is returned by all Service operations.  Message is meant for clients so never
// contains upstream payloads or storage details; the underlying error is kept for logging.
type Error struct {
	Kind    Kind
	Message string
	err     error
}

func (e *Error) Error() string { return e.Message }

// Code is used by the GraphQL handler to fill in the error's extensions.
func (e *Error) Code() string { return string(e.Kind) }

func (e *Error) Unwrap() error { return e.err }

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, err: cause}
}

// KindOf returns the Kind of err, KindInternal if err was not produced by this package,
// or "" if err is nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
