package calnder

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/calnder/calnder-client/internal/fault"
	"github.com/calnder/calnder-client/internal/types"
)

// Coordinator orchestrates one sync pass: fetch both sources
// concurrently, normalize, and load the store in a single atomic replace.
type Coordinator struct {
	store    *Store
	backend  Gateway
	provider Gateway
	authed   func() bool
	seq      atomic.Uint64
}

func newCoordinator(store *Store, backend, provider Gateway, authed func() bool) *Coordinator {
	return &Coordinator{store: store, backend: backend, provider: provider, authed: authed}
}

type sourceResult struct {
	origin Origin
	events []Event
	err    error
}

// Sync fetches the backend unconditionally and the provider only when a
// valid credential is present. A failing source keeps its last-known
// contribution and is only logged; when every attempted source fails the
// store is left untouched and a single Aggregated error is returned.
// Passes are tagged with a monotonically increasing sequence number so a
// slow pass can never overwrite a newer one.
func (c *Coordinator) Sync(ctx context.Context) error {
	seq := c.seq.Add(1)

	fetches := []struct {
		origin Origin
		gw     Gateway
	}{
		{OriginLocal, c.backend},
	}
	authed := c.authed()
	if authed {
		fetches = append(fetches, struct {
			origin Origin
			gw     Gateway
		}{OriginExternal, c.provider})
	}

	results := make(chan sourceResult, len(fetches))
	var wg sync.WaitGroup
	for _, f := range fetches {
		wg.Add(1)
		go func(origin Origin, gw Gateway) {
			defer wg.Done()
			raws, err := gw.List(ctx)
			if err != nil {
				results <- sourceResult{origin: origin, err: err}
				return
			}
			events := make([]Event, 0, len(raws))
			for _, raw := range raws {
				ev, err := types.Normalize(raw, origin)
				if err != nil {
					log.Warn().Err(err).Str("origin", string(origin)).Msg("skipping malformed source event")
					continue
				}
				events = append(events, ev)
			}
			results <- sourceResult{origin: origin, events: events}
		}(f.origin, f.gw)
	}
	wg.Wait()
	close(results)

	fresh := make(map[Origin][]Event, len(fetches)+1)
	var errs []error
	for r := range results {
		if r.err != nil {
			log.Warn().Err(r.err).Str("origin", string(r.origin)).Uint64("pass", seq).Msg("sync source failed")
			syncSourceFailuresTotal.WithLabelValues(string(r.origin)).Inc()
			errs = append(errs, r.err)
			continue
		}
		fresh[r.origin] = r.events
	}
	if !authed {
		// Logged out: the provider contributes an explicit empty set so
		// previously imported external events leave the view.
		fresh[OriginExternal] = nil
	}

	if len(errs) == len(fetches) {
		syncPassesTotal.WithLabelValues("failed").Inc()
		return fault.New(fault.Aggregated, "sync", errors.Join(errs...))
	}

	if !c.store.applySync(seq, fresh) {
		syncPassesTotal.WithLabelValues("stale").Inc()
		log.Debug().Uint64("pass", seq).Msg("stale sync pass discarded")
		return nil
	}
	syncPassesTotal.WithLabelValues("applied").Inc()
	return nil
}
