package calnder

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/calnder/calnder-client/internal/fault"
	"github.com/calnder/calnder-client/internal/job"
	"github.com/calnder/calnder-client/internal/shardqueue"
	"github.com/calnder/calnder-client/internal/types"
)

// ChangeOp names what happened to the store's collection.
type ChangeOp int

const (
	// ChangeSync: a sync pass replaced the collection.
	ChangeSync ChangeOp = iota
	// ChangeCreated: an optimistic entry was inserted.
	ChangeCreated
	// ChangeRekeyed: a temporary create key was replaced by the
	// server-issued one. NewKey carries the confirmed key.
	ChangeRekeyed
	// ChangeUpdated: an entry's fields or pending state changed.
	ChangeUpdated
	// ChangeRemoved: an entry left the visible collection.
	ChangeRemoved
)

// Change describes one store notification.
type Change struct {
	Op     ChangeOp
	Key    EventKey
	NewKey EventKey // set for ChangeRekeyed
}

// Pending reports the eventual outcome of an optimistic mutation.
type Pending struct {
	done chan struct{}
	err  error
}

func newPending() *Pending { return &Pending{done: make(chan struct{})} }

// Done is closed once the gateway call settled.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Err blocks until the mutation settled and returns its outcome.
func (p *Pending) Err(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		return p.err
	}
}

func (p *Pending) resolve(err error) {
	p.err = err
	close(p.done)
}

// entry is a store slot: the current event plus the state needed to roll
// an optimistic mutation back.
type entry struct {
	ev      Event
	saved   Event    // pre-mutation copy, valid while pending != nil
	pending *Pending // non-nil while a gateway call is in flight
}

// Store owns the canonical reconciled event collection. The only writers
// are the sync coordinator (bulk replace) and the store's own mutation
// methods; readers hold snapshots.
type Store struct {
	mu         sync.Mutex
	order      []EventKey
	byKey      map[EventKey]*entry
	appliedSeq uint64

	exec     Executor
	backend  Gateway
	provider Gateway

	listeners []func(Change)
}

func newStore(exec Executor, backend, provider Gateway) *Store {
	return &Store{
		byKey:    make(map[EventKey]*entry),
		exec:     exec,
		backend:  backend,
		provider: provider,
	}
}

// OnChange registers a listener for store notifications. Listeners must
// be registered before the store is shared across goroutines; they are
// invoked without the store lock held.
func (s *Store) OnChange(fn func(Change)) {
	s.listeners = append(s.listeners, fn)
}

func (s *Store) notify(c Change) {
	for _, fn := range s.listeners {
		fn(c)
	}
}

// List returns the events in insertion order from the last sync pass,
// locally-created pending events appended at the end. Entries with a
// delete in flight are already hidden.
func (s *Store) List() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, 0, len(s.order))
	for _, k := range s.order {
		e := s.byKey[k]
		if e == nil || e.ev.Pending == StateDeleting {
			continue
		}
		out = append(out, e.ev)
	}
	return out
}

// Get returns the event under key, if present and not hidden by a
// pending delete.
func (s *Store) Get(key EventKey) (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byKey[key]
	if !ok || e.ev.Pending == StateDeleting {
		return Event{}, false
	}
	return e.ev, true
}

func (s *Store) gatewayFor(origin Origin) Gateway {
	if origin == OriginExternal {
		return s.provider
	}
	return s.backend
}

// submit hands a mutation job to the per-key executor, translating queue
// overflow into the public back-pressure sentinel.
func (s *Store) submit(ctx context.Context, key EventKey, j shardqueue.Job) error {
	if err := s.exec.Submit(ctx, key.String(), j); err != nil {
		if errors.Is(err, shardqueue.ErrQueueFull) {
			return fmt.Errorf("%w: %v", ErrBackPressure, err)
		}
		return err
	}
	return nil
}

// Flush blocks until every mutation already submitted for key has
// settled, success or failure. Useful before reading an entry whose
// Pending handles were discarded.
func (s *Store) Flush(ctx context.Context, key EventKey) error {
	return s.exec.Barrier(ctx, key.String())
}

// Create inserts the draft optimistically under a temporary local key and
// returns immediately. The backend create runs asynchronously: on success
// the temporary entry is replaced in place by the confirmed entry with the
// server-issued id (announced via ChangeRekeyed); on failure the entry is
// removed and the error delivered through the Pending handle.
func (s *Store) Create(ctx context.Context, draft EventDraft) (EventKey, *Pending, error) {
	if err := types.ValidateDraft(draft); err != nil {
		return EventKey{}, nil, err
	}

	tempKey := types.ResolveKey(OriginLocal, "tmp-"+uuid.NewString())
	ev := draftEvent(draft, tempKey)
	ev.Pending = StateCreating
	p := newPending()

	s.mu.Lock()
	s.byKey[tempKey] = &entry{ev: ev, pending: p}
	s.order = append(s.order, tempKey)
	s.mu.Unlock()
	mutationsTotal.WithLabelValues("create", job.ShardLabel(tempKey.String())).Inc()
	s.notify(Change{Op: ChangeCreated, Key: tempKey})

	var created *RawEvent
	run := func(jobCtx context.Context) error {
		raw, err := s.backend.Create(jobCtx, draft.Raw())
		if err != nil {
			return err
		}
		created = raw
		return nil
	}
	done := func(err error) {
		if err != nil || created == nil {
			if err == nil {
				err = fault.Network("store create", errors.New("gateway returned no event"))
			}
			s.dropEntry(tempKey)
			rollbacksTotal.WithLabelValues("create", job.ShardLabel(tempKey.String())).Inc()
			s.notify(Change{Op: ChangeRemoved, Key: tempKey})
			p.resolve(err)
			return
		}
		newKey := s.confirmCreate(tempKey, *created)
		s.notify(Change{Op: ChangeRekeyed, Key: tempKey, NewKey: newKey})
		p.resolve(nil)
	}

	if err := s.submit(ctx, tempKey, job.Tracked(run, done)); err != nil {
		s.dropEntry(tempKey)
		s.notify(Change{Op: ChangeRemoved, Key: tempKey})
		return EventKey{}, nil, err
	}
	return tempKey, p, nil
}

// Update applies the patch optimistically in place and fires the gateway
// update. On failure the prior field values are restored and the error
// delivered through the Pending handle.
func (s *Store) Update(ctx context.Context, key EventKey, patch EventDraft) (*Pending, error) {
	if err := types.ValidateDraft(patch); err != nil {
		return nil, err
	}
	p := newPending()

	s.mu.Lock()
	e, ok := s.byKey[key]
	if !ok {
		s.mu.Unlock()
		return nil, fault.New(fault.NotFound, "store update", fmt.Errorf("no event %s", key))
	}
	if e.pending != nil {
		s.mu.Unlock()
		return nil, fault.New(fault.Busy, "store update", fmt.Errorf("mutation in flight for %s", key))
	}
	e.saved = e.ev
	e.ev = draftEvent(patch, key)
	e.ev.Pending = StateUpdating
	e.pending = p
	s.mu.Unlock()
	mutationsTotal.WithLabelValues("update", job.ShardLabel(key.String())).Inc()
	s.notify(Change{Op: ChangeUpdated, Key: key})

	run := func(jobCtx context.Context) error {
		_, err := s.gatewayFor(key.Origin).Update(jobCtx, key.ID, patch.Raw())
		return err
	}
	done := func(err error) {
		s.settle(key, err)
		if err != nil {
			rollbacksTotal.WithLabelValues("update", job.ShardLabel(key.String())).Inc()
		}
		s.notify(Change{Op: ChangeUpdated, Key: key})
		p.resolve(err)
	}

	if err := s.submit(ctx, key, job.Tracked(run, done)); err != nil {
		s.rollback(key)
		s.notify(Change{Op: ChangeUpdated, Key: key})
		return nil, err
	}
	return p, nil
}

// Remove marks the entry deleting, which hides it from List, and fires
// the gateway delete. On failure the entry is restored; on success it is
// purged.
func (s *Store) Remove(ctx context.Context, key EventKey) (*Pending, error) {
	p := newPending()

	s.mu.Lock()
	e, ok := s.byKey[key]
	if !ok || e.ev.Pending == StateDeleting {
		s.mu.Unlock()
		return nil, fault.New(fault.NotFound, "store remove", fmt.Errorf("no event %s", key))
	}
	if e.pending != nil {
		s.mu.Unlock()
		return nil, fault.New(fault.Busy, "store remove", fmt.Errorf("mutation in flight for %s", key))
	}
	e.saved = e.ev
	e.ev.Pending = StateDeleting
	e.pending = p
	s.mu.Unlock()
	mutationsTotal.WithLabelValues("remove", job.ShardLabel(key.String())).Inc()
	s.notify(Change{Op: ChangeRemoved, Key: key})

	run := func(jobCtx context.Context) error {
		return s.gatewayFor(key.Origin).Delete(jobCtx, key.ID)
	}
	done := func(err error) {
		if err != nil {
			s.settle(key, err)
			rollbacksTotal.WithLabelValues("remove", job.ShardLabel(key.String())).Inc()
			s.notify(Change{Op: ChangeUpdated, Key: key})
		} else {
			s.dropEntry(key)
		}
		p.resolve(err)
	}

	if err := s.submit(ctx, key, job.Tracked(run, done)); err != nil {
		s.rollback(key)
		s.notify(Change{Op: ChangeUpdated, Key: key})
		return nil, err
	}
	return p, nil
}

// applySync atomically replaces the collection with the pass's merged
// result. fresh holds the new per-origin contributions; an origin absent
// from the map keeps its last-known contribution (its fetch failed).
// Passes older than the last applied one are discarded. Entries with a
// mutation in flight are never clobbered by a sync.
func (s *Store) applySync(seq uint64, fresh map[Origin][]Event) bool {
	s.mu.Lock()
	if seq <= s.appliedSeq {
		s.mu.Unlock()
		return false
	}
	s.appliedSeq = seq

	newOrder := make([]EventKey, 0, len(s.order))
	newMap := make(map[EventKey]*entry, len(s.byKey))
	add := func(k EventKey, e *entry) {
		if _, dup := newMap[k]; !dup {
			newMap[k] = e
			newOrder = append(newOrder, k)
		}
	}

	for _, origin := range []Origin{OriginLocal, OriginExternal} {
		events, ok := fresh[origin]
		if !ok {
			// Source failed this pass: keep its last-known contribution.
			for _, k := range s.order {
				if k.Origin != origin {
					continue
				}
				if e := s.byKey[k]; e != nil && e.pending == nil {
					add(k, e)
				}
			}
			continue
		}
		for i := range events {
			ev := events[i]
			if old := s.byKey[ev.Key]; old != nil && old.pending != nil {
				add(ev.Key, old) // in-flight mutation wins this pass
				continue
			}
			add(ev.Key, &entry{ev: ev})
		}
	}

	// Entries with a mutation in flight but absent upstream (temporary
	// creates, deletes racing the fetch) are carried at the end.
	for _, k := range s.order {
		if e := s.byKey[k]; e != nil && e.pending != nil {
			add(k, e)
		}
	}

	s.order = newOrder
	s.byKey = newMap
	s.mu.Unlock()
	s.notify(Change{Op: ChangeSync})
	return true
}

// ------------------------- internals -------------------------

// confirmCreate swaps the temporary entry for the confirmed one at the
// same position, under the server-issued key.
func (s *Store) confirmCreate(tempKey EventKey, raw RawEvent) EventKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byKey[tempKey]
	if !ok {
		return tempKey
	}
	newKey := types.ResolveKey(tempKey.Origin, raw.ID)
	if ev, err := types.Normalize(raw, tempKey.Origin); err == nil {
		e.ev = ev
	} else {
		// Keep the optimistic fields if the server response is malformed.
		e.ev.Key = newKey
	}
	e.ev.Pending = StateConfirmed
	e.pending = nil
	e.saved = Event{}
	delete(s.byKey, tempKey)
	if existing, dup := s.byKey[newKey]; dup {
		// A sync pass already listed the event under its server key.
		// Merge into that slot and drop the temporary one so the key
		// never appears twice in order.
		if existing.pending == nil {
			existing.ev = e.ev
		}
		for i, k := range s.order {
			if k == tempKey {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		return newKey
	}
	s.byKey[newKey] = e
	for i, k := range s.order {
		if k == tempKey {
			s.order[i] = newKey
			break
		}
	}
	return newKey
}

// settle clears the in-flight marker for key, restoring the saved copy on
// failure and confirming the applied one on success.
func (s *Store) settle(key EventKey, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byKey[key]
	if !ok {
		return
	}
	if err != nil {
		e.ev = e.saved
	} else {
		e.ev.Pending = StateConfirmed
	}
	e.pending = nil
	e.saved = Event{}
}

// rollback undoes an optimistic apply whose job was never accepted.
func (s *Store) rollback(key EventKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.byKey[key]; ok {
		e.ev = e.saved
		e.pending = nil
		e.saved = Event{}
	}
}

func (s *Store) dropEntry(key EventKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byKey[key]; !ok {
		return
	}
	delete(s.byKey, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// draftEvent materializes a draft under key, filling the color default
// from the key's origin.
func draftEvent(d EventDraft, key EventKey) Event {
	color := d.Color
	if color == "" {
		color = key.Origin.DefaultColor()
	}
	return Event{
		Key:         key,
		Title:       d.Title,
		Description: d.Description,
		Guests:      d.Guests,
		Location:    d.Location,
		Type:        d.Type,
		Color:       color,
		Start:       d.Start,
		End:         d.End,
	}
}
