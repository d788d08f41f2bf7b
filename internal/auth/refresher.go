package auth

import (
	"context"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultRefreshTimeout bounds a single shared refresh attempt
const DefaultRefreshTimeout = 30 * time.Second

const refreshKey = "access-token"

// Refresher coalesces concurrent refresh requests so that at most one call
// to the store's RefreshHandler is in flight at any time. Every caller that
// joins an in-flight refresh observes the same result.
type Refresher struct {
	store   *TokenStore
	group   singleflight.Group
	timeout time.Duration
	log     *slog.Logger
}

// RefresherOption configures a Refresher
type RefresherOption func(*Refresher)

// WithRefreshTimeout overrides DefaultRefreshTimeout
func WithRefreshTimeout(d time.Duration) RefresherOption {
	return func(r *Refresher) { r.timeout = d }
}

// WithRefreshLogger sets the logger. Logs are discarded by default.
func WithRefreshLogger(l *slog.Logger) RefresherOption {
	return func(r *Refresher) { r.log = l }
}

// NewRefresher creates a refresher bound to store
func NewRefresher(store *TokenStore, opts ...RefresherOption) *Refresher {
	r := &Refresher{
		store:   store,
		timeout: DefaultRefreshTimeout,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Refresh obtains a new access token, joining an in-flight refresh if one
// exists. It reports false when no token could be obtained: no handler is
// registered, the handler failed or returned nothing, or ctx ended first.
// Handler errors are logged, never returned.
//
// On success the new token is written to the store before any caller
// returns.
func (r *Refresher) Refresh(ctx context.Context) (string, bool) {
	handler := r.store.RefreshHandler()
	if handler == nil {
		return "", false
	}

	// The shared attempt must outlive any single waiter giving up.
	shared := context.WithoutCancel(ctx)

	ch := r.group.DoChan(refreshKey, func() (interface{}, error) {
		start := time.Now()
		r.log.DebugContext(ctx, "auth.refresh.start")

		rctx, cancel := context.WithTimeout(shared, r.timeout)
		defer cancel()

		token, err := handler(rctx)
		if err != nil {
			r.log.WarnContext(ctx, "auth.refresh.fail", slog.String("err", err.Error()))
			return "", nil
		}
		if token == "" {
			r.log.InfoContext(ctx, "auth.refresh.empty")
			return "", nil
		}

		r.store.SetToken(token)
		r.log.DebugContext(ctx, "auth.refresh.ok", slog.Duration("dur", time.Since(start)))
		return token, nil
	})

	select {
	case res := <-ch:
		token, _ := res.Val.(string)
		if res.Shared {
			r.log.DebugContext(ctx, "auth.refresh.joined")
		}
		return token, token != ""
	case <-ctx.Done():
		return "", false
	}
}
