package calnder

import (
	"reflect"
	"testing"
	"time"
)

func eventOf(id string, typ EventType, origin Origin) Event {
	ev := draftEvent(EventDraft{Title: id, Type: typ, Start: t0, End: t0.Add(time.Hour)}, ResolveKey(origin, id))
	ev.Pending = StateConfirmed
	return ev
}

func TestApplyFilter_GroupsByTypeNotTitle(t *testing.T) {
	t.Parallel()
	events := []Event{
		eventOf("a", TypeEvent, OriginLocal),
		eventOf("b", TypeTask, OriginLocal),
		eventOf("c", TypeEvent, OriginLocal),
	}
	// Two events share a type but have distinct titles; hiding the type
	// hides both.
	f := FilterSet{}
	f.Toggle(string(TypeEvent))

	got := ApplyFilter(events, f)
	if len(got) != 1 || got[0].Key.ID != "b" {
		t.Fatalf("filtered = %v", keys(got))
	}
}

func TestApplyFilter_UntypedEventsGroupByOrigin(t *testing.T) {
	t.Parallel()
	events := []Event{
		eventOf("a", "", OriginLocal),
		eventOf("g", "", OriginExternal),
	}
	f := FilterSet{}
	f.Toggle(string(OriginExternal))

	got := ApplyFilter(events, f)
	if len(got) != 1 || got[0].Key.Origin != OriginLocal {
		t.Fatalf("filtered = %v", keys(got))
	}
}

func TestApplyFilter_UnknownGroupsVisible(t *testing.T) {
	t.Parallel()
	events := []Event{eventOf("a", TypeAppointment, OriginLocal)}
	got := ApplyFilter(events, FilterSet{"something-else": false})
	if len(got) != 1 {
		t.Fatalf("unlisted group hidden: %v", keys(got))
	}
}

func TestApplyFilter_PureAndOrderPreserving(t *testing.T) {
	t.Parallel()
	events := []Event{
		eventOf("a", TypeEvent, OriginLocal),
		eventOf("b", TypeTask, OriginLocal),
		eventOf("c", TypeAppointment, OriginExternal),
	}
	f := FilterSet{string(TypeTask): false}

	first := ApplyFilter(events, f)
	second := ApplyFilter(events, f)
	if !reflect.DeepEqual(keys(first), keys(second)) {
		t.Fatalf("repeated derivation differs: %v vs %v", keys(first), keys(second))
	}
	if want := []string{"local/a", "external/c"}; !reflect.DeepEqual(keys(first), want) {
		t.Fatalf("filtered = %v, want %v", keys(first), want)
	}
	// Input must be untouched.
	if events[1].Key.ID != "b" || len(events) != 3 {
		t.Fatal("filter mutated its input")
	}
}

func TestFilterSet_ToggleRoundTrip(t *testing.T) {
	t.Parallel()
	f := FilterSet{}
	if !f.Visible("event") {
		t.Fatal("default visibility must be true")
	}
	f.Toggle("event")
	if f.Visible("event") {
		t.Fatal("toggle did not hide")
	}
	f.Toggle("event")
	if !f.Visible("event") {
		t.Fatal("second toggle did not restore")
	}
}

func TestGroups_FirstSeenOrder(t *testing.T) {
	t.Parallel()
	events := []Event{
		eventOf("a", TypeTask, OriginLocal),
		eventOf("b", TypeEvent, OriginLocal),
		eventOf("c", TypeTask, OriginLocal),
		eventOf("g", "", OriginExternal),
	}
	got := Groups(events)
	want := []string{string(TypeTask), string(TypeEvent), string(OriginExternal)}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("groups = %v, want %v", got, want)
	}
}
