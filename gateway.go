package calnder

import (
	"context"
	"errors"
	"net/http"

	"github.com/calnder/calnder-client/internal/api"
	"github.com/calnder/calnder-client/internal/credstore"
	"github.com/calnder/calnder-client/internal/fault"
)

// Gateway is the minimal surface the store and coordinator need from a
// remote event source: fetch and mutate, nothing else. Implementations do
// no merging and no identity assignment, and report failures as
// classified faults.
type Gateway interface {
	List(ctx context.Context) ([]RawEvent, error)
	Create(ctx context.Context, payload RawEvent) (*RawEvent, error)
	Update(ctx context.Context, id string, payload RawEvent) (*RawEvent, error)
	Delete(ctx context.Context, id string) error
}

// backendGateway speaks the private backend's REST surface.
type backendGateway struct {
	http    *http.Client
	baseURL string
}

func (g *backendGateway) List(ctx context.Context) ([]RawEvent, error) {
	return api.ListEvents(ctx, g.http, g.baseURL)
}

func (g *backendGateway) Create(ctx context.Context, payload RawEvent) (*RawEvent, error) {
	return api.CreateEvent(ctx, g.http, g.baseURL, payload)
}

func (g *backendGateway) Update(ctx context.Context, id string, payload RawEvent) (*RawEvent, error) {
	return api.UpdateEvent(ctx, g.http, g.baseURL, id, payload)
}

func (g *backendGateway) Delete(ctx context.Context, id string) error {
	return api.DeleteEvent(ctx, g.http, g.baseURL, id)
}

// providerGateway speaks the external calendar provider. Every call
// requires a live bearer credential; calls without one fail fast instead
// of being attempted.
type providerGateway struct {
	http    *http.Client
	baseURL string
	cred    func() *credstore.Credential
}

func (g *providerGateway) ensureCredential(op string) error {
	if g.cred().Valid() {
		return nil
	}
	return fault.New(fault.Unauthenticated, op, errors.New("missing or expired provider credential"))
}

func (g *providerGateway) List(ctx context.Context) ([]RawEvent, error) {
	if err := g.ensureCredential("provider list"); err != nil {
		return nil, err
	}
	return api.ListProviderEvents(ctx, g.http, g.baseURL)
}

func (g *providerGateway) Create(ctx context.Context, payload RawEvent) (*RawEvent, error) {
	if err := g.ensureCredential("provider create"); err != nil {
		return nil, err
	}
	return api.CreateProviderEvent(ctx, g.http, g.baseURL, payload)
}

func (g *providerGateway) Update(ctx context.Context, id string, payload RawEvent) (*RawEvent, error) {
	if err := g.ensureCredential("provider update"); err != nil {
		return nil, err
	}
	return api.UpdateProviderEvent(ctx, g.http, g.baseURL, id, payload)
}

func (g *providerGateway) Delete(ctx context.Context, id string) error {
	if err := g.ensureCredential("provider delete"); err != nil {
		return err
	}
	return api.DeleteProviderEvent(ctx, g.http, g.baseURL, id)
}

// bearerTransport wraps an http.RoundTripper to present the current
// provider credential on every request.
type bearerTransport struct {
	base http.RoundTripper
	cred func() *credstore.Credential
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	cloned := req.Clone(req.Context())
	if c := t.cred(); c != nil {
		c.Token.SetAuthHeader(cloned)
	}
	return t.base.RoundTrip(cloned)
}
