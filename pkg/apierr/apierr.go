// Package apierr classifies failures from downstream services so callers
// can tell transient errors (worth retrying) from terminal ones.
package apierr

import (
	"errors"
	"fmt"
)

// Kind is the failure class of an Error.
type Kind int

const (
	// Transport covers network failures and 5xx-equivalent responses.
	// These are the only retryable errors.
	Transport Kind = iota
	// Service covers 4xx-equivalent responses and API-level error payloads.
	Service
	// Validation covers bad input caught before any downstream call.
	Validation
	// Parse covers unexpected payload shapes.
	Parse
)

func (k Kind) String() string {
	switch k {
	case Transport:
		return "transport"
	case Service:
		return "service"
	case Validation:
		return "validation"
	case Parse:
		return "parse"
	}
	return "unknown"
}

// Error is a kind-tagged error with the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap tags err with a kind and operation.
func Wrap(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a kind-tagged error from a format string.
func Errorf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// FromStatus maps a non-2xx HTTP status to an error: 5xx responses are
// transient, everything else is a terminal service error. The body is
// truncated by callers before it gets here.
func FromStatus(op string, status int, body []byte) error {
	kind := Service
	if status >= 500 {
		kind = Transport
	}
	msg := fmt.Errorf("HTTP %d", status)
	if len(body) > 0 {
		msg = fmt.Errorf("HTTP %d: %s", status, body)
	}
	return &Error{Kind: kind, Op: op, Err: msg}
}

// IsTransient reports whether err is worth retrying. Errors that were never
// classified are treated as terminal.
func IsTransient(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == Transport
	}
	return false
}

// KindOf returns the kind of a classified error, or Service for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Service
}
