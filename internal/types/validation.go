package types

import (
	"errors"

	"github.com/calnder/calnder-client/internal/fault"
)

// ValidateDraft enforces the save-boundary invariants: a non-empty title
// and start ≤ end. The store rejects violations instead of persisting
// them.
func ValidateDraft(d EventDraft) error {
	if d.Title == "" {
		return fault.New(fault.ValidationFailed, "validate draft", errors.New("title is required"))
	}
	if d.End.Before(d.Start) {
		return fault.New(fault.ValidationFailed, "validate draft", errors.New("end precedes start"))
	}
	return nil
}
