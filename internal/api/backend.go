// Package api contains the raw HTTP operations behind the gateways. No
// merging and no identity assignment happen here; failures come back as
// classified faults, never bare status-code errors.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/calnder/calnder-client/internal/fault"
	"github.com/calnder/calnder-client/internal/types"
)

// ListEvents fetches every event persisted by the backend.
func ListEvents(ctx context.Context, httpClient *http.Client, baseURL string) ([]types.RawEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/api/events", baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, fault.Network("backend list", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fault.FromStatus(resp.StatusCode, readBodySnippet(resp.Body), "backend list")
	}

	var events []types.RawEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fault.Network("backend list", err)
	}
	return events, nil
}

// CreateEvent persists a new event and returns it with the server-issued id.
func CreateEvent(ctx context.Context, httpClient *http.Client, baseURL string, payload types.RawEvent) (*types.RawEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/api/events", baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, fault.Network("backend create", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fault.FromStatus(resp.StatusCode, readBodySnippet(resp.Body), "backend create")
	}

	var created types.RawEvent
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fault.Network("backend create", err)
	}
	return &created, nil
}

// UpdateEvent replaces the stored fields of an existing event.
func UpdateEvent(ctx context.Context, httpClient *http.Client, baseURL, id string, payload types.RawEvent) (*types.RawEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/api/events/%s", baseURL, id)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, fault.Network("backend update", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fault.FromStatus(resp.StatusCode, readBodySnippet(resp.Body), "backend update")
	}

	var updated types.RawEvent
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		return nil, fault.Network("backend update", err)
	}
	return &updated, nil
}

// DeleteEvent removes an event by id.
func DeleteEvent(ctx context.Context, httpClient *http.Client, baseURL, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	url := fmt.Sprintf("%s/api/events/%s", baseURL, id)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return fault.Network("backend delete", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fault.FromStatus(resp.StatusCode, readBodySnippet(resp.Body), "backend delete")
	}
	return nil
}
