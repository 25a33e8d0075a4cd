package catalog

import (
	"errors"
	"fmt"
)

// Kind classifies provider failures.
type Kind string

const (
	KindInvalidURL     Kind = "invalidURL"
	KindRequestFailed  Kind = "requestFailed"  // transport failure or non-2xx response
	KindDecodingFailed Kind = "decodingFailed" // body is not the expected JSON
	KindInvalidData    Kind = "invalidData"    // well-formed response missing expected content
	KindUnknown        Kind = "unknown"
)

// Sentinels for errors.Is. Any *Error matches the sentinel of its Kind.
var (
	ErrInvalidURL     = &Error{Kind: KindInvalidURL}
	ErrRequestFailed  = &Error{Kind: KindRequestFailed}
	ErrDecodingFailed = &Error{Kind: KindDecodingFailed}
	ErrInvalidData    = &Error{Kind: KindInvalidData}
	ErrUnknown        = &Error{Kind: KindUnknown}
)

// Error is the failure type returned by every provider client.
type Error struct {
	Kind       Kind
	Op         string // e.g. "librivox.trending"
	StatusCode int    // set for non-2xx responses
	Err        error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinels by Kind only.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.StatusCode == 0 && t.Kind == e.Kind
}

// KindOf returns the Kind of err, or KindUnknown when err is not a provider error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

var (
	errEmptyArgument = errors.New("empty query argument")
	errNoResults     = errors.New("no results")
)

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func isNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindRequestFailed && e.StatusCode == 404
}
