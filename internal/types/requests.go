package types

import "time"

// ------------------------------
// Request Types
// ------------------------------

// EventDraft holds the editable fields of an event, as captured by an
// edit session. A save applies the whole draft.
type EventDraft struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Guests      string    `json:"guests,omitempty"`
	Location    string    `json:"location,omitempty"`
	Type        EventType `json:"type,omitempty"`
	Color       string    `json:"color,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// Raw converts the draft into the wire shape sent to a gateway.
func (d EventDraft) Raw() RawEvent {
	return RawEvent{
		Title:       d.Title,
		Description: d.Description,
		Guests:      d.Guests,
		Location:    d.Location,
		Type:        string(d.Type),
		Color:       d.Color,
		Start:       d.Start.Format(time.RFC3339),
		End:         d.End.Format(time.RFC3339),
	}
}
