package calnder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/calnder/calnder-client/internal/fault"
)

// SessionState is the edit session's position in its lifecycle.
type SessionState int

const (
	// SessionClosed: no draft is being edited.
	SessionClosed SessionState = iota
	// SessionCreating: a new event is being drafted for a slot.
	SessionCreating
	// SessionEditing: an existing event's copy is being edited.
	SessionEditing
)

func (s SessionState) String() string {
	switch s {
	case SessionClosed:
		return "closed"
	case SessionCreating:
		return "creating"
	case SessionEditing:
		return "editing"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Session tracks the single event currently being created or edited. It
// owns a scoped copy of the editable fields; the store is untouched until
// Save or Delete, and Cancel discards the draft without any gateway
// contact. The client owns exactly one Session.
type Session struct {
	mu    sync.Mutex
	state SessionState
	key   EventKey
	draft EventDraft
	store *Store
}

func newSession(store *Store) *Session { return &Session{store: store} }

// State returns the current lifecycle position.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OpenSlot starts drafting a new event for the given slot. Fails with
// ErrSessionActive while another draft is open.
func (s *Session) OpenSlot(start, end time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SessionClosed {
		return ErrSessionActive
	}
	s.state = SessionCreating
	s.key = EventKey{}
	s.draft = EventDraft{Type: TypeEvent, Start: start, End: end}
	return nil
}

// OpenEvent starts editing an existing event by copying its editable
// fields into the draft.
func (s *Session) OpenEvent(key EventKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SessionClosed {
		return ErrSessionActive
	}
	ev, ok := s.store.Get(key)
	if !ok {
		return fault.New(fault.NotFound, "session open", fmt.Errorf("no event %s", key))
	}
	s.state = SessionEditing
	s.key = key
	s.draft = EventDraft{
		Title:       ev.Title,
		Description: ev.Description,
		Guests:      ev.Guests,
		Location:    ev.Location,
		Type:        ev.Type,
		Color:       ev.Color,
		Start:       ev.Start,
		End:         ev.End,
	}
	return nil
}

// Draft returns a copy of the in-progress draft.
func (s *Session) Draft() (EventDraft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft, s.state != SessionClosed
}

// SetDraft replaces the in-progress draft, e.g. after form edits.
func (s *Session) SetDraft(d EventDraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SessionClosed {
		return ErrNoSession
	}
	s.draft = d
	return nil
}

// Save dispatches the draft to the store: create when the session was
// opened on a slot, update when opened on an existing key. On acceptance
// the session closes and the returned Pending carries the gateway
// outcome; on rejection (validation, busy) the session stays open so the
// draft can be fixed.
func (s *Session) Save(ctx context.Context) (EventKey, *Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case SessionCreating:
		key, p, err := s.store.Create(ctx, s.draft)
		if err != nil {
			return EventKey{}, nil, err
		}
		s.reset()
		return key, p, nil
	case SessionEditing:
		key := s.key
		p, err := s.store.Update(ctx, key, s.draft)
		if err != nil {
			return EventKey{}, nil, err
		}
		s.reset()
		return key, p, nil
	default:
		return EventKey{}, nil, ErrNoSession
	}
}

// Delete removes the event under edit. Only reachable from an editing
// session; drafts for new events have nothing to delete.
func (s *Session) Delete(ctx context.Context) (*Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SessionEditing {
		return nil, ErrNoSession
	}
	p, err := s.store.Remove(ctx, s.key)
	if err != nil {
		return nil, err
	}
	s.reset()
	return p, nil
}

// Cancel discards the draft without contacting any gateway.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Session) reset() {
	s.state = SessionClosed
	s.key = EventKey{}
	s.draft = EventDraft{}
}
