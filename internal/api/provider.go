package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/calnder/calnder-client/internal/fault"
	"github.com/calnder/calnder-client/internal/types"
)

// Provider wire shapes. The external calendar returns items keyed by
// summary/attendees with split dateTime|date instants; everything is
// normalized into RawEvent before it leaves this package.

type providerInstant struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
}

func (i providerInstant) iso() string {
	if i.DateTime != "" {
		return i.DateTime
	}
	return i.Date
}

type providerAttendee struct {
	Email string `json:"email"`
}

type providerEvent struct {
	ID          string             `json:"id,omitempty"`
	Summary     string             `json:"summary"`
	Description string             `json:"description,omitempty"`
	Location    string             `json:"location,omitempty"`
	Start       providerInstant    `json:"start"`
	End         providerInstant    `json:"end"`
	Attendees   []providerAttendee `json:"attendees,omitempty"`
}

type providerEventList struct {
	Items []providerEvent `json:"items"`
}

func normalizeProviderEvent(ev providerEvent) types.RawEvent {
	guests := make([]string, 0, len(ev.Attendees))
	for _, a := range ev.Attendees {
		if a.Email != "" {
			guests = append(guests, a.Email)
		}
	}
	return types.RawEvent{
		ID:          ev.ID,
		Title:       ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		Guests:      strings.Join(guests, ", "),
		Start:       ev.Start.iso(),
		End:         ev.End.iso(),
	}
}

func denormalizeProviderEvent(raw types.RawEvent) providerEvent {
	ev := providerEvent{
		Summary:     raw.Title,
		Description: raw.Description,
		Location:    raw.Location,
		Start:       providerInstant{DateTime: raw.Start},
		End:         providerInstant{DateTime: raw.End},
	}
	for _, g := range strings.Split(raw.Guests, ",") {
		if g = strings.TrimSpace(g); g != "" {
			ev.Attendees = append(ev.Attendees, providerAttendee{Email: g})
		}
	}
	return ev
}

// ListProviderEvents fetches the primary calendar's events, normalized.
func ListProviderEvents(ctx context.Context, httpClient *http.Client, baseURL string) ([]types.RawEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/calendars/primary/events", baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, fault.Network("provider list", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fault.FromStatus(resp.StatusCode, readBodySnippet(resp.Body), "provider list")
	}

	var list providerEventList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fault.Network("provider list", err)
	}
	events := make([]types.RawEvent, 0, len(list.Items))
	for _, item := range list.Items {
		events = append(events, normalizeProviderEvent(item))
	}
	return events, nil
}

// CreateProviderEvent inserts an event into the primary calendar.
func CreateProviderEvent(ctx context.Context, httpClient *http.Client, baseURL string, payload types.RawEvent) (*types.RawEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := json.Marshal(denormalizeProviderEvent(payload))
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/calendars/primary/events", baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, fault.Network("provider create", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fault.FromStatus(resp.StatusCode, readBodySnippet(resp.Body), "provider create")
	}

	var created providerEvent
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fault.Network("provider create", err)
	}
	raw := normalizeProviderEvent(created)
	return &raw, nil
}

// UpdateProviderEvent replaces an event in the primary calendar.
func UpdateProviderEvent(ctx context.Context, httpClient *http.Client, baseURL, id string, payload types.RawEvent) (*types.RawEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := json.Marshal(denormalizeProviderEvent(payload))
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/calendars/primary/events/%s", baseURL, id)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, fault.Network("provider update", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fault.FromStatus(resp.StatusCode, readBodySnippet(resp.Body), "provider update")
	}

	var updated providerEvent
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		return nil, fault.Network("provider update", err)
	}
	raw := normalizeProviderEvent(updated)
	return &raw, nil
}

// DeleteProviderEvent removes an event from the primary calendar.
func DeleteProviderEvent(ctx context.Context, httpClient *http.Client, baseURL, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	url := fmt.Sprintf("%s/calendars/primary/events/%s", baseURL, id)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return fault.Network("provider delete", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fault.FromStatus(resp.StatusCode, readBodySnippet(resp.Body), "provider delete")
	}
	return nil
}
