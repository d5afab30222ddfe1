package calnder

// This file defines functional options that configure the Client during
// construction. Keeping them in a standalone file avoids cluttering
// client.go and makes it easy to discover all available knobs at a glance.

import (
	"fmt"
	"net/http"
	"time"

	"github.com/calnder/calnder-client/internal/credstore"
)

// Option configures a Client during construction in New.
//
// Options are applied before the provider bearer transport is installed,
// so transport-related options (like debug logging) sit underneath it.
// Options must be deterministic and side-effect free.
type Option func(*Client) error

// WithHTTPTimeout sets the underlying http.Client Timeout used by the SDK.
//
// Prefer per-request context deadlines where possible; this timeout is a
// coarse safety net that bounds the total time spent on a single HTTP
// request. The value must be greater than zero.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be > 0")
		}
		c.http.Timeout = d
		return nil
	}
}

// WithDebugLogging wraps the client's transport so each request/response
// is logged when enabled is true. Do not enable in production; dumps
// include headers and payloads.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		if enabled {
			base := c.http.Transport
			if base == nil {
				base = http.DefaultTransport
			}
			c.http.Transport = &debugTransport{base: base}
		}
		return nil
	}
}

// WithProviderBaseURL overrides the external provider's API root, mainly
// for tests against a local stand-in.
func WithProviderBaseURL(baseURL string) Option {
	return func(c *Client) error {
		if baseURL == "" {
			return fmt.Errorf("provider base URL must not be empty")
		}
		c.providerURL = baseURL
		return nil
	}
}

// WithExecutor replaces the default shardqueue executor driving the
// store's asynchronous mutations. The client takes ownership and stops
// it on Close.
func WithExecutor(e Executor) Option {
	return func(c *Client) error {
		if e == nil {
			return fmt.Errorf("executor must not be nil")
		}
		c.exec = e
		return nil
	}
}

// WithCredentialDir enables durable credential persistence under dir, so
// the provider token and profile survive restarts until expiry or
// explicit logout.
func WithCredentialDir(dir string) Option {
	return func(c *Client) error {
		if dir == "" {
			return fmt.Errorf("credential dir must not be empty")
		}
		c.creds = credstore.New(dir)
		return nil
	}
}
