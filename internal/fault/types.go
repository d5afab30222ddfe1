// Package fault classifies gateway and store failures so callers can
// branch on the failure kind and retry logic can decide recoverability.
package fault

import (
	"errors"
	"fmt"
)

// Kind names the failure the same way the user-facing surface reports it.
type Kind int

const (
	// NetworkFailure: the request could not complete.
	NetworkFailure Kind = iota
	// Unauthenticated: missing or expired provider credential.
	Unauthenticated
	// NotFound: the mutation target no longer exists upstream.
	NotFound
	// ValidationFailed: missing title, or end before start.
	ValidationFailed
	// Busy: a second mutation was requested on a key with one in flight.
	Busy
	// Aggregated: every sync source failed; summary of the pass.
	Aggregated
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case NetworkFailure:
		return "NetworkFailure"
	case Unauthenticated:
		return "Unauthenticated"
	case NotFound:
		return "NotFound"
	case ValidationFailed:
		return "ValidationFailed"
	case Busy:
		return "Busy"
	case Aggregated:
		return "Aggregated"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Category determines how errors should be handled by retry logic.
type Category int

const (
	// Recoverable errors may be retried with exponential backoff.
	Recoverable Category = iota

	// Irrecoverable errors fail immediately without retry.
	Irrecoverable
)

// String returns a human-readable representation of the category.
func (c Category) String() string {
	switch c {
	case Recoverable:
		return "Recoverable"
	case Irrecoverable:
		return "Irrecoverable"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// Fault wraps an error with its kind and retry category.
type Fault struct {
	Kind       Kind
	Category   Category
	StatusCode int    // HTTP status code (0 for non-HTTP failures)
	Body       string // response body snippet for debugging
	Op         string // operation that failed, e.g. "backend list"
	Err        error
}

// Error implements the error interface.
func (f *Fault) Error() string {
	if f.StatusCode > 0 {
		return fmt.Sprintf("%s: [%s/%s] HTTP %d: %v", f.Op, f.Kind, f.Category, f.StatusCode, f.Err)
	}
	return fmt.Sprintf("%s: [%s/%s] %v", f.Op, f.Kind, f.Category, f.Err)
}

// Unwrap returns the underlying error for error chain compatibility.
func (f *Fault) Unwrap() error { return f.Err }

// New builds a Fault of the given kind with its default retry category.
// Only network-level failures are worth retrying; every other kind
// reflects a state the retry cannot change.
func New(kind Kind, op string, err error) *Fault {
	category := Irrecoverable
	if kind == NetworkFailure {
		category = Recoverable
	}
	return &Fault{Kind: kind, Category: category, Op: op, Err: err}
}

// KindOf extracts the kind from an error chain.
func KindOf(err error) (Kind, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return 0, false
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// IsIrrecoverable reports whether the error should not be retried.
// Unclassified errors are treated as recoverable, matching HTTP
// transport failures which arrive as plain errors.
func IsIrrecoverable(err error) bool {
	var f *Fault
	if errors.As(err, &f) {
		return f.Category == Irrecoverable
	}
	return false
}
