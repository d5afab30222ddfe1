package types

import (
	"fmt"
	"time"
)

// instantLayouts are accepted timestamp formats. The backend stores full
// ISO-8601 instants; all-day provider events carry a bare date.
var instantLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"}

// ParseInstant parses an ISO-8601 wire timestamp.
func ParseInstant(s string) (time.Time, error) {
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable instant %q", s)
}

// Normalize converts a raw source event into the reconciled Event shape:
// key assigned via ResolveKey, instants parsed, missing color filled from
// the origin default, pending state confirmed.
func Normalize(raw RawEvent, origin Origin) (Event, error) {
	start, err := ParseInstant(raw.Start)
	if err != nil {
		return Event{}, fmt.Errorf("event %q start: %w", raw.ID, err)
	}
	end, err := ParseInstant(raw.End)
	if err != nil {
		return Event{}, fmt.Errorf("event %q end: %w", raw.ID, err)
	}
	color := raw.Color
	if color == "" {
		color = origin.DefaultColor()
	}
	return Event{
		Key:         ResolveKey(origin, raw.ID),
		Title:       raw.Title,
		Description: raw.Description,
		Guests:      raw.Guests,
		Location:    raw.Location,
		Type:        EventType(raw.Type),
		Color:       color,
		Start:       start,
		End:         end,
		Pending:     StateConfirmed,
	}, nil
}
