package calnder

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/calnder/calnder-client/internal/fault"
	"github.com/calnder/calnder-client/internal/shardqueue"
)

// ---------- shared test doubles ----------

// fakeGateway lets each test script gateway behavior per operation.
type fakeGateway struct {
	listFn   func(ctx context.Context) ([]RawEvent, error)
	createFn func(ctx context.Context, payload RawEvent) (*RawEvent, error)
	updateFn func(ctx context.Context, id string, payload RawEvent) (*RawEvent, error)
	deleteFn func(ctx context.Context, id string) error
}

func (g *fakeGateway) List(ctx context.Context) ([]RawEvent, error) {
	if g.listFn == nil {
		return nil, nil
	}
	return g.listFn(ctx)
}

func (g *fakeGateway) Create(ctx context.Context, payload RawEvent) (*RawEvent, error) {
	if g.createFn == nil {
		return nil, errors.New("unexpected create")
	}
	return g.createFn(ctx, payload)
}

func (g *fakeGateway) Update(ctx context.Context, id string, payload RawEvent) (*RawEvent, error) {
	if g.updateFn == nil {
		return nil, errors.New("unexpected update")
	}
	return g.updateFn(ctx, id, payload)
}

func (g *fakeGateway) Delete(ctx context.Context, id string) error {
	if g.deleteFn == nil {
		return errors.New("unexpected delete")
	}
	return g.deleteFn(ctx, id)
}

// inlineExec runs jobs synchronously: one attempt, terminal outcome
// delivered immediately. Deterministic for rollback/confirm tests.
type inlineExec struct{}

func (inlineExec) Submit(ctx context.Context, key string, j shardqueue.Job) error {
	err := j.Run(ctx)
	if c, ok := j.(shardqueue.Completer); ok {
		c.Complete(err)
	}
	return nil
}

// Barrier is trivially satisfied: inline jobs finish inside Submit.
func (inlineExec) Barrier(ctx context.Context, key string) error { return ctx.Err() }

func (inlineExec) Stop() {}

func newTestStore(backend, provider Gateway) *Store {
	return newStore(inlineExec{}, backend, provider)
}

func draftAt(title string, start time.Time) EventDraft {
	return EventDraft{Title: title, Type: TypeEvent, Start: start, End: start.Add(time.Hour)}
}

func keys(events []Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Key.String()
	}
	return out
}

var t0 = time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)

// ---------- optimistic create ----------

func TestStore_CreateConfirmsInPlace(t *testing.T) {
	t.Parallel()
	backend := &fakeGateway{
		createFn: func(_ context.Context, payload RawEvent) (*RawEvent, error) {
			payload.ID = "srv-1"
			return &payload, nil
		},
	}
	s := newTestStore(backend, &fakeGateway{})

	var rekeys []Change
	s.OnChange(func(c Change) {
		if c.Op == ChangeRekeyed {
			rekeys = append(rekeys, c)
		}
	})

	tempKey, p, err := s.Create(context.Background(), draftAt("Lunch", t0))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := p.Err(context.Background()); err != nil {
		t.Fatalf("pending outcome: %v", err)
	}

	list := s.List()
	if len(list) != 1 {
		t.Fatalf("list has %d entries, want exactly 1", len(list))
	}
	got := list[0]
	if got.Key != ResolveKey(OriginLocal, "srv-1") {
		t.Fatalf("confirmed key = %v", got.Key)
	}
	if got.Pending != StateConfirmed {
		t.Fatalf("pending state = %q", got.Pending)
	}
	if len(rekeys) != 1 || rekeys[0].Key != tempKey || rekeys[0].NewKey != got.Key {
		t.Fatalf("rekey notification = %+v", rekeys)
	}
	if _, ok := s.Get(tempKey); ok {
		t.Fatal("temporary key still resolvable after confirm")
	}
}

func TestStore_CreateVisibleBeforeGatewayResponds(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	backend := &fakeGateway{
		createFn: func(_ context.Context, payload RawEvent) (*RawEvent, error) {
			<-release
			payload.ID = "srv-2"
			return &payload, nil
		},
	}
	exec := shardqueue.NewShardExecutor(shardqueue.Config{Shards: 1, QueueSize: 8, MaxAttempts: 1})
	defer exec.Stop()
	s := newStore(exec, backend, &fakeGateway{})

	tempKey, p, err := s.Create(context.Background(), draftAt("Lunch", t0))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	list := s.List()
	if len(list) != 1 || list[0].Key != tempKey || list[0].Pending != StateCreating {
		t.Fatalf("optimistic entry missing before ack: %+v", list)
	}

	close(release)
	if err := p.Err(context.Background()); err != nil {
		t.Fatalf("pending outcome: %v", err)
	}
	list = s.List()
	if len(list) != 1 || list[0].Pending != StateConfirmed || list[0].Key.ID != "srv-2" {
		t.Fatalf("confirmed entry wrong: %+v", list)
	}
}

func TestStore_CreateRollbackOnGatewayFailure(t *testing.T) {
	t.Parallel()
	backend := &fakeGateway{
		createFn: func(context.Context, RawEvent) (*RawEvent, error) {
			return nil, fault.Network("backend create", errors.New("down"))
		},
	}
	s := newTestStore(backend, &fakeGateway{})

	_, p, err := s.Create(context.Background(), draftAt("Lunch", t0))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := p.Err(context.Background()); !IsNetworkFailure(err) {
		t.Fatalf("pending outcome = %v, want NetworkFailure", err)
	}
	if got := s.List(); len(got) != 0 {
		t.Fatalf("failed create left %d entries in list", len(got))
	}
}

func TestStore_CreateRejectsInvalidDraft(t *testing.T) {
	t.Parallel()
	s := newTestStore(&fakeGateway{}, &fakeGateway{})

	if _, _, err := s.Create(context.Background(), EventDraft{Start: t0, End: t0.Add(time.Hour)}); !IsValidationFailed(err) {
		t.Fatalf("missing title: got %v", err)
	}
	bad := EventDraft{Title: "x", Start: t0, End: t0.Add(-time.Minute)}
	if _, _, err := s.Create(context.Background(), bad); !IsValidationFailed(err) {
		t.Fatalf("end before start: got %v", err)
	}
	if got := s.List(); len(got) != 0 {
		t.Fatalf("rejected drafts must not enter the store, got %d", len(got))
	}
}

// ---------- update ----------

func seedConfirmed(s *Store, origin Origin, id, title string) EventKey {
	key := ResolveKey(origin, id)
	ev := draftEvent(draftAt(title, t0), key)
	ev.Pending = StateConfirmed
	s.mu.Lock()
	s.byKey[key] = &entry{ev: ev}
	s.order = append(s.order, key)
	s.mu.Unlock()
	return key
}

func TestStore_UpdateAppliesOptimisticallyAndConfirms(t *testing.T) {
	t.Parallel()
	backend := &fakeGateway{
		updateFn: func(_ context.Context, id string, payload RawEvent) (*RawEvent, error) {
			payload.ID = id
			return &payload, nil
		},
	}
	s := newTestStore(backend, &fakeGateway{})
	key := seedConfirmed(s, OriginLocal, "a1", "Standup")

	p, err := s.Update(context.Background(), key, draftAt("Renamed", t0))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := p.Err(context.Background()); err != nil {
		t.Fatalf("pending outcome: %v", err)
	}
	got, _ := s.Get(key)
	if got.Title != "Renamed" || got.Pending != StateConfirmed {
		t.Fatalf("after update: %+v", got)
	}
}

func TestStore_UpdateRollbackRestoresPriorFields(t *testing.T) {
	t.Parallel()
	backend := &fakeGateway{
		updateFn: func(context.Context, string, RawEvent) (*RawEvent, error) {
			return nil, fault.Network("backend update", errors.New("down"))
		},
	}
	s := newTestStore(backend, &fakeGateway{})
	key := seedConfirmed(s, OriginLocal, "a1", "Standup")

	p, err := s.Update(context.Background(), key, draftAt("X", t0))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := p.Err(context.Background()); !IsNetworkFailure(err) {
		t.Fatalf("pending outcome = %v, want NetworkFailure", err)
	}
	got, _ := s.Get(key)
	if got.Title != "Standup" || got.Pending != StateConfirmed {
		t.Fatalf("rollback failed: %+v", got)
	}
}

func TestStore_UpdateUnknownKey(t *testing.T) {
	t.Parallel()
	s := newTestStore(&fakeGateway{}, &fakeGateway{})
	_, err := s.Update(context.Background(), ResolveKey(OriginLocal, "missing"), draftAt("x", t0))
	if !IsNotFound(err) {
		t.Fatalf("got %v, want NotFound", err)
	}
}

// ---------- busy guard ----------

func TestStore_BusyGuardRejectsSecondMutation(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	updates := 0
	backend := &fakeGateway{
		updateFn: func(_ context.Context, id string, payload RawEvent) (*RawEvent, error) {
			updates++
			<-release
			payload.ID = id
			return &payload, nil
		},
	}
	exec := shardqueue.NewShardExecutor(shardqueue.Config{Shards: 1, QueueSize: 8, MaxAttempts: 1})
	defer exec.Stop()
	s := newStore(exec, backend, &fakeGateway{})
	key := seedConfirmed(s, OriginLocal, "a1", "Standup")

	p1, err := s.Update(context.Background(), key, draftAt("First", t0))
	if err != nil {
		t.Fatalf("first update: %v", err)
	}

	if _, err := s.Update(context.Background(), key, draftAt("Second", t0)); !IsBusy(err) {
		t.Fatalf("second update = %v, want Busy", err)
	}
	if _, err := s.Remove(context.Background(), key); !IsBusy(err) {
		t.Fatalf("remove during update = %v, want Busy", err)
	}

	close(release)
	if err := p1.Err(context.Background()); err != nil {
		t.Fatalf("first update must be unaffected, got %v", err)
	}
	if updates != 1 {
		t.Fatalf("gateway saw %d updates, want 1", updates)
	}
	got, _ := s.Get(key)
	if got.Title != "First" {
		t.Fatalf("winning title = %q", got.Title)
	}
}

// ---------- remove ----------

func TestStore_RemoveHidesThenPurges(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	backend := &fakeGateway{
		deleteFn: func(context.Context, string) error {
			<-release
			return nil
		},
	}
	exec := shardqueue.NewShardExecutor(shardqueue.Config{Shards: 1, QueueSize: 8, MaxAttempts: 1})
	defer exec.Stop()
	s := newStore(exec, backend, &fakeGateway{})
	key := seedConfirmed(s, OriginLocal, "a1", "Standup")

	p, err := s.Remove(context.Background(), key)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := s.List(); len(got) != 0 {
		t.Fatal("deleting entry must be hidden from List")
	}

	close(release)
	if err := p.Err(context.Background()); err != nil {
		t.Fatalf("pending outcome: %v", err)
	}
	if _, ok := s.Get(key); ok {
		t.Fatal("entry still present after confirmed delete")
	}
}

func TestStore_RemoveRestoredOnFailure(t *testing.T) {
	t.Parallel()
	backend := &fakeGateway{
		deleteFn: func(context.Context, string) error {
			return fault.Network("backend delete", errors.New("down"))
		},
	}
	s := newTestStore(backend, &fakeGateway{})
	key := seedConfirmed(s, OriginLocal, "a1", "Standup")

	p, err := s.Remove(context.Background(), key)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := p.Err(context.Background()); !IsNetworkFailure(err) {
		t.Fatalf("pending outcome = %v", err)
	}
	got, ok := s.Get(key)
	if !ok || got.Pending != StateConfirmed || got.Title != "Standup" {
		t.Fatalf("entry not restored after failed delete: %+v ok=%v", got, ok)
	}
}

// ---------- routing ----------

func TestStore_ExternalMutationsUseProviderGateway(t *testing.T) {
	t.Parallel()
	var providerDeletes []string
	provider := &fakeGateway{
		deleteFn: func(_ context.Context, id string) error {
			providerDeletes = append(providerDeletes, id)
			return nil
		},
	}
	s := newTestStore(&fakeGateway{}, provider)
	key := seedConfirmed(s, OriginExternal, "g1", "Flight")

	p, err := s.Remove(context.Background(), key)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := p.Err(context.Background()); err != nil {
		t.Fatalf("pending outcome: %v", err)
	}
	if len(providerDeletes) != 1 || providerDeletes[0] != "g1" {
		t.Fatalf("provider deletes = %v", providerDeletes)
	}
}

// ---------- ordering ----------

func TestStore_PendingCreatesAppendAtEnd(t *testing.T) {
	t.Parallel()
	backend := &fakeGateway{
		createFn: func(_ context.Context, payload RawEvent) (*RawEvent, error) {
			payload.ID = "srv-9"
			return &payload, nil
		},
	}
	s := newTestStore(backend, &fakeGateway{})
	seedConfirmed(s, OriginLocal, "a1", "First")
	seedConfirmed(s, OriginLocal, "a2", "Second")

	if _, p, err := s.Create(context.Background(), draftAt("Third", t0)); err != nil {
		t.Fatalf("Create: %v", err)
	} else if err := p.Err(context.Background()); err != nil {
		t.Fatalf("pending: %v", err)
	}

	got := keys(s.List())
	want := []string{"local/a1", "local/a2", "local/srv-9"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

// ---------- back-pressure ----------

func TestStore_SubmitMapsQueueFullToBackPressure(t *testing.T) {
	t.Parallel()
	s := newStore(fullExec{}, &fakeGateway{}, &fakeGateway{})
	key := seedConfirmed(s, OriginLocal, "a1", "Standup")

	var changes []Change
	s.OnChange(func(c Change) { changes = append(changes, c) })

	_, err := s.Update(context.Background(), key, draftAt("x", t0))
	if !IsBackPressure(err) {
		t.Fatalf("got %v, want back-pressure", err)
	}
	got, _ := s.Get(key)
	if got.Title != "Standup" || got.Pending != StateConfirmed {
		t.Fatalf("optimistic patch not rolled back on rejected submit: %+v", got)
	}
	// The optimistic notification must be followed by a reverting one, so
	// listener-driven views never freeze on rejected state.
	if len(changes) != 2 || changes[0].Op != ChangeUpdated || changes[1].Op != ChangeUpdated {
		t.Fatalf("changes = %+v, want optimistic update then revert", changes)
	}

	changes = nil
	if _, err := s.Remove(context.Background(), key); !IsBackPressure(err) {
		t.Fatalf("remove = %v, want back-pressure", err)
	}
	if len(changes) != 2 || changes[0].Op != ChangeRemoved || changes[1].Op != ChangeUpdated {
		t.Fatalf("changes = %+v, want hide then restore", changes)
	}
	if got := s.List(); len(got) != 1 {
		t.Fatalf("entry hidden after rejected remove: %v", keys(got))
	}

	changes = nil
	if _, _, err := s.Create(context.Background(), draftAt("New", t0)); !IsBackPressure(err) {
		t.Fatalf("create = %v, want back-pressure", err)
	}
	if len(changes) != 2 || changes[0].Op != ChangeCreated || changes[1].Op != ChangeRemoved {
		t.Fatalf("changes = %+v, want insert then removal", changes)
	}
}

func TestStore_CreateRacingSyncNeverDuplicates(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	backend := &fakeGateway{
		createFn: func(_ context.Context, payload RawEvent) (*RawEvent, error) {
			<-release
			payload.ID = "srv-1"
			return &payload, nil
		},
	}
	exec := shardqueue.NewShardExecutor(shardqueue.Config{Shards: 1, QueueSize: 8, MaxAttempts: 1})
	defer exec.Stop()
	s := newStore(exec, backend, &fakeGateway{})

	_, p, err := s.Create(context.Background(), draftAt("Lunch", t0))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// A sync pass already lists the event under its server key before the
	// create's confirmation runs.
	synced := draftEvent(draftAt("Lunch", t0), ResolveKey(OriginLocal, "srv-1"))
	synced.Pending = StateConfirmed
	if !s.applySync(1, map[Origin][]Event{OriginLocal: {synced}}) {
		t.Fatal("sync pass rejected")
	}

	close(release)
	if err := p.Err(context.Background()); err != nil {
		t.Fatalf("pending: %v", err)
	}

	got := keys(s.List())
	count := 0
	for _, k := range got {
		if k == "local/srv-1" {
			count++
		}
	}
	if count != 1 || len(got) != 1 {
		t.Fatalf("list = %v: local/srv-1 appears %d times, want exactly 1", got, count)
	}
	ev, ok := s.Get(ResolveKey(OriginLocal, "srv-1"))
	if !ok || ev.Pending != StateConfirmed || ev.Title != "Lunch" {
		t.Fatalf("merged entry = %+v ok=%v", ev, ok)
	}
}

func TestStore_FlushWaitsForSettledMutations(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	backend := &fakeGateway{
		updateFn: func(_ context.Context, id string, payload RawEvent) (*RawEvent, error) {
			<-release
			payload.ID = id
			return &payload, nil
		},
	}
	exec := shardqueue.NewShardExecutor(shardqueue.Config{Shards: 1, QueueSize: 8, MaxAttempts: 1})
	defer exec.Stop()
	s := newStore(exec, backend, &fakeGateway{})
	key := seedConfirmed(s, OriginLocal, "a1", "Standup")

	if _, err := s.Update(context.Background(), key, draftAt("Renamed", t0)); err != nil {
		t.Fatalf("Update: %v", err)
	}
	close(release)

	if err := s.Flush(context.Background(), key); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	got, _ := s.Get(key)
	if got.Title != "Renamed" || got.Pending != StateConfirmed {
		t.Fatalf("entry not settled after flush: %+v", got)
	}
}

type fullExec struct{}

func (fullExec) Submit(ctx context.Context, key string, j shardqueue.Job) error {
	return &shardqueue.QueueFullError{Shard: 0, Length: 1, Capacity: 1}
}

func (fullExec) Barrier(ctx context.Context, key string) error { return nil }

func (fullExec) Stop() {}
