package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies adapter and pipeline failures so the call processor
// can branch on the failure class instead of inspecting error strings.
type ErrorKind string

const (
	// ErrTransport - network failure or external service unreachable
	ErrTransport ErrorKind = "transport"
	// ErrAuth - external service rejected our credentials
	ErrAuth ErrorKind = "auth"
	// ErrService - external service reported its own failure (e.g. diarization error)
	ErrService ErrorKind = "service"
	// ErrMalformedResponse - external response does not match the expected schema
	ErrMalformedResponse ErrorKind = "malformed_response"
	// ErrPersistence - local database or file write failure
	ErrPersistence ErrorKind = "persistence"
	// ErrNotFound - referenced entity absent
	ErrNotFound ErrorKind = "not_found"
)

// AdapterError is the tagged failure every adapter returns instead of letting
// raw errors cross its boundary.
type AdapterError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *AdapterError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// NewAdapterError tags err with a kind and the operation it failed in.
func NewAdapterError(kind ErrorKind, op string, err error) *AdapterError {
	return &AdapterError{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the error kind, or ErrService for untagged errors.
func KindOf(err error) ErrorKind {
	var ae *AdapterError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ErrService
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
