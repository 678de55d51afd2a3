package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	sharedcontext "pricescanner/frontend/shared/context"
	"pricescanner/infrastructure/cartstore"
)

// DefaultHeartbeat keeps idle event streams open through proxies.
const DefaultHeartbeat = 15 * time.Second

// EventsHandler streams the cart as Server-Sent Events. Each stream is one
// tab: its store follows durable storage and every broadcast becomes a
// "cart" event carrying the new count, total and badge text.
func EventsHandler(heartbeat time.Duration, log zerolog.Logger) http.HandlerFunc {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := sharedcontext.GetCartFromContext(r.Context())
		if !ok {
			http.Error(w, msgCartUnavailable, http.StatusInternalServerError)
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		latest := make(chan cartstore.Snapshot, 1)
		unsubscribe := store.Subscribe(func(snap cartstore.Snapshot) {
			offerLatest(latest, snap)
		})
		defer unsubscribe()

		streamLog := log.With().Str("cart_key", store.Key()).Str("origin", store.Origin()).Logger()
		follow, err := store.Follow(ctx)
		switch {
		case err == nil:
			go func() {
				if err := follow(); err != nil {
					streamLog.Warn().Err(err).Msg("cart.events.watch_failed")
				}
			}()
		case errors.Is(err, cartstore.ErrWatchUnsupported):
			streamLog.Debug().Msg("cart.events.watch_unsupported")
		default:
			streamLog.Warn().Err(err).Msg("cart.events.watch_failed")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		// The first event comes from this reload, after the feed is live.
		store.Reload(ctx)

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-latest:
				if err := writeEvent(w, snap); err != nil {
					streamLog.Debug().Err(err).Msg("cart.events.write_failed")
					return
				}
				flusher.Flush()
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

// offerLatest keeps only the newest snapshot; every snapshot carries the
// full cart so older ones can be dropped.
func offerLatest(ch chan cartstore.Snapshot, snap cartstore.Snapshot) {
	for {
		select {
		case ch <- snap:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func writeEvent(w http.ResponseWriter, snap cartstore.Snapshot) error {
	data, err := json.Marshal(NewPayload(snap, false))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: cart\ndata: %s\n\n", snap.Version, data)
	return err
}
