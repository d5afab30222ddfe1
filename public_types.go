package calnder

import (
	"github.com/calnder/calnder-client/internal/credstore"
	"github.com/calnder/calnder-client/internal/types"
)

// Public type aliases so SDK consumers can import only this package.
type (
	// Domain entities
	Event        = types.Event
	EventKey     = types.EventKey
	EventDraft   = types.EventDraft
	RawEvent     = types.RawEvent
	Origin       = types.Origin
	EventType    = types.EventType
	PendingState = types.PendingState

	// Credential surface
	Profile    = credstore.Profile
	Credential = credstore.Credential
)

const (
	OriginLocal    = types.OriginLocal
	OriginExternal = types.OriginExternal

	TypeEvent       = types.TypeEvent
	TypeTask        = types.TypeTask
	TypeAppointment = types.TypeAppointment

	StateConfirmed = types.StateConfirmed
	StateCreating  = types.StateCreating
	StateUpdating  = types.StateUpdating
	StateDeleting  = types.StateDeleting
)

// ResolveKey assigns the stable composite key for a raw event id.
func ResolveKey(origin Origin, rawID string) EventKey {
	return types.ResolveKey(origin, rawID)
}
