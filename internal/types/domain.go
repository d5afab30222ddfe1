package types

import "time"

// ------------------------------
// Core Domain Entities
// ------------------------------

// Origin identifies the system of record an event came from.
type Origin string

const (
	// OriginLocal marks events persisted by the private backend.
	OriginLocal Origin = "local"
	// OriginExternal marks events imported from the external provider.
	OriginExternal Origin = "external"
)

// DefaultColor is the display color used when a source supplies none.
func (o Origin) DefaultColor() string {
	if o == OriginExternal {
		return "#0b8043"
	}
	return "#1a73e8"
}

// EventKey is the composite identity (origin, originId) of an event.
// Raw ids are opaque strings issued by the owning source; namespacing on
// origin guarantees two sources can never collide on the same raw id.
type EventKey struct {
	Origin Origin `json:"origin"`
	ID     string `json:"id"`
}

// ResolveKey assigns the stable composite key for a raw event id.
// Display fields such as the title are user-editable free text and are
// never part of identity.
func ResolveKey(origin Origin, rawID string) EventKey {
	return EventKey{Origin: origin, ID: rawID}
}

func (k EventKey) String() string { return string(k.Origin) + "/" + k.ID }

// IsZero reports whether the key is unset.
func (k EventKey) IsZero() bool { return k.Origin == "" && k.ID == "" }

// PendingState tracks the optimistic-mutation lifecycle of a store entry.
type PendingState string

const (
	StateConfirmed PendingState = "confirmed"
	StateCreating  PendingState = "creating"
	StateUpdating  PendingState = "updating"
	StateDeleting  PendingState = "deleting"
)

// EventType controls default color and grouping, not persisted behavior.
type EventType string

const (
	TypeEvent       EventType = "event"
	TypeTask        EventType = "task"
	TypeAppointment EventType = "appointment"
)

// Event is the reconciled calendar entity owned by the store.
type Event struct {
	Key         EventKey     `json:"key"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Guests      string       `json:"guests,omitempty"`
	Location    string       `json:"location,omitempty"`
	Type        EventType    `json:"type,omitempty"`
	Color       string       `json:"color,omitempty"`
	Start       time.Time    `json:"start"`
	End         time.Time    `json:"end"`
	Pending     PendingState `json:"pendingState"`
}

// Group returns the visibility-grouping key for the event: its type when
// present, otherwise its origin. Titles are deliberately not used here.
func (e Event) Group() string {
	if e.Type != "" {
		return string(e.Type)
	}
	return string(e.Key.Origin)
}

// RawEvent is a source event as returned by a gateway, before identity
// assignment and normalization. Timestamps stay ISO-8601 strings exactly
// as found on the wire; the backend serves this shape directly and the
// provider gateway normalizes its items into it.
type RawEvent struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Guests      string `json:"guests,omitempty"`
	Location    string `json:"location,omitempty"`
	Type        string `json:"type,omitempty"`
	Color       string `json:"color,omitempty"`
	Start       string `json:"start"`
	End         string `json:"end"`
}
