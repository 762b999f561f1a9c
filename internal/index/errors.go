package index

import (
	"errors"
	"fmt"
)

// Kind classifies index failures so callers can dispatch on a typed condition
// instead of matching error strings.
type Kind string

const (
	// KindReadOnly means the backing store rejected a write because it is in a
	// read-only state. Eligible for one permission-repair retry.
	KindReadOnly Kind = "readonly"
	// KindUnavailable means the index service could not be reached or failed
	// for a reason other than read-only storage. Never retried locally.
	KindUnavailable Kind = "unavailable"
	// KindNotFound means the referenced collection or records do not exist.
	KindNotFound Kind = "not_found"
)

// Error is a classified index failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("index %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("index %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsReadOnly reports whether err is classified as a read-only storage failure.
func IsReadOnly(err error) bool {
	var ie *Error
	return errors.As(err, &ie) && ie.Kind == KindReadOnly
}

// IsNotFound reports whether err is classified as not-found.
func IsNotFound(err error) bool {
	var ie *Error
	return errors.As(err, &ie) && ie.Kind == KindNotFound
}
