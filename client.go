// Package calnder is the client-side event reconciliation core of the
// Calnder calendar app: it merges two asynchronously fetched event
// sources (the private backend and an external bearer-authenticated
// provider) into one authoritative in-memory store, applies optimistic
// local mutations with rollback, and derives filtered views without
// touching the source of truth.
package calnder

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/calnder/calnder-client/internal/credstore"
	"github.com/calnder/calnder-client/internal/fault"
	"github.com/calnder/calnder-client/internal/shardqueue"
)

// DefaultProviderBaseURL is the external calendar provider's API root.
const DefaultProviderBaseURL = "https://www.googleapis.com/calendar/v3"

// --------------------------------------------------------------------
// Client core
// --------------------------------------------------------------------

// Client wires the gateways, the event store, the sync coordinator and
// the single edit session together.
type Client struct {
	backendURL   string
	providerURL  string
	http         *http.Client
	providerHTTP *http.Client
	exec         Executor

	creds *credstore.Store // optional durable credential store
	cred  atomic.Pointer[credstore.Credential]

	store   *Store
	coord   *Coordinator
	session *Session

	closedOnce uint32 // ensures Close is idempotent
}

// New constructs a Client for the given backend base URL. Additional
// options can be provided via functional arguments.
func New(backendURL string, opts ...Option) *Client {
	if backendURL == "" {
		panic("backendURL cannot be empty")
	}

	c := &Client{
		backendURL:  backendURL,
		providerURL: DefaultProviderBaseURL,
		http:        &http.Client{Timeout: 30 * time.Second},
	}

	// Auto-enable debug via env variable without changing code.
	if debugLoggingRequested() {
		opts = append(opts, WithDebugLogging(true))
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			panic(err)
		}
	}
	if c.exec == nil {
		c.exec = newDefaultExecutor()
	}

	if c.creds != nil {
		cred, err := c.creds.Load()
		if err != nil {
			log.Warn().Err(err).Msg("persisted credential unreadable, starting logged out")
		} else if cred != nil {
			c.cred.Store(cred)
		}
	}

	// Provider calls present the current credential on every request.
	base := c.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c.providerHTTP = &http.Client{
		Timeout:   c.http.Timeout,
		Transport: &bearerTransport{base: base, cred: c.credential},
	}

	backend := &backendGateway{http: c.http, baseURL: c.backendURL}
	provider := &providerGateway{http: c.providerHTTP, baseURL: c.providerURL, cred: c.credential}
	c.store = newStore(c.exec, backend, provider)
	c.coord = newCoordinator(c.store, backend, provider, c.authenticated)
	c.session = newSession(c.store)

	return c
}

// newDefaultExecutor constructs the shardqueue executor from SQ_* env
// overrides on top of sane defaults.
func newDefaultExecutor() *shardqueue.ShardExecutor {
	cfg, err := shardqueue.LoadConfig()
	if err != nil {
		log.Warn().Err(err).Msg("invalid SQ_* environment, using defaults")
		cfg = shardqueue.Config{}
	}
	if cfg.Shards <= 0 {
		cfg.Shards = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	cfg.ErrorHandler = func(err error) {
		log.Warn().Err(err).Msg("gateway mutation failed")
	}
	return shardqueue.NewShardExecutor(cfg)
}

// Close stops the background executor (if any). Safe to call multiple times.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapUint32(&c.closedOnce, 0, 1) {
		return nil
	}
	if c.exec != nil {
		c.exec.Stop()
	}
	return nil
}

// Store returns the authoritative event store.
func (c *Client) Store() *Store { return c.store }

// Session returns the client's single edit session.
func (c *Client) Session() *Session { return c.session }

// Sync runs one reconciliation pass against both sources.
func (c *Client) Sync(ctx context.Context) error { return c.coord.Sync(ctx) }

// --------------------------------------------------------------------
// Provider credential
// --------------------------------------------------------------------

func (c *Client) credential() *credstore.Credential { return c.cred.Load() }

func (c *Client) authenticated() bool { return c.cred.Load().Valid() }

// Authenticated reports whether a live provider credential is installed.
func (c *Client) Authenticated() bool { return c.authenticated() }

// Profile returns the profile captured with the provider credential.
func (c *Client) Profile() (Profile, bool) {
	if cred := c.cred.Load(); cred != nil {
		return cred.Profile, true
	}
	return Profile{}, false
}

// SetCredential installs the token obtained from the external OAuth flow
// together with the minimal profile, persists it when a credential store
// is configured, and re-syncs so provider events join the view.
func (c *Client) SetCredential(ctx context.Context, token oauth2.Token, profile Profile) error {
	cred := &credstore.Credential{Token: token, Profile: profile}
	if !cred.Valid() {
		return fault.New(fault.Unauthenticated, "set credential", errMissingToken)
	}
	c.cred.Store(cred)
	if c.creds != nil {
		if err := c.creds.Save(cred); err != nil {
			return err
		}
	}
	return c.coord.Sync(ctx)
}

// Logout drops the provider credential, clears the persisted copy, and
// re-syncs so previously imported provider events leave the view.
func (c *Client) Logout(ctx context.Context) error {
	c.cred.Store(nil)
	if c.creds != nil {
		if err := c.creds.Clear(); err != nil {
			return err
		}
	}
	return c.coord.Sync(ctx)
}
