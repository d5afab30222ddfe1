package calnder

// FilterSet maps a grouping key (event type, or origin for untyped
// events) to its visibility. It is derived data, never authoritative:
// keys absent from the set are visible.
type FilterSet map[string]bool

// Visible reports whether the group is currently shown.
func (f FilterSet) Visible(group string) bool {
	v, ok := f[group]
	return !ok || v
}

// Toggle flips the visibility of the group.
func (f FilterSet) Toggle(group string) {
	f[group] = !f.Visible(group)
}

// ApplyFilter returns the subset of events whose group is visible,
// preserving the input order. It is a pure derivation: it never mutates
// events or filters, and repeated calls with the same inputs yield the
// same sequence.
func ApplyFilter(events []Event, filters FilterSet) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if filters.Visible(e.Group()) {
			out = append(out, e)
		}
	}
	return out
}

// Groups returns the distinct grouping keys present in events, in
// first-seen order. The sidebar's calendar list is built from this.
func Groups(events []Event) []string {
	seen := make(map[string]bool, len(events))
	var out []string
	for _, e := range events {
		g := e.Group()
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	return out
}
