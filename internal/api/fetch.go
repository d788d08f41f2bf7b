package api

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/schedly/schedly-cli/internal/auth"
)

// RequestIDHeader carries a per-request correlation ID. A retried request
// keeps the ID of its first attempt.
const RequestIDHeader = "X-Request-ID"

// maxDrain bounds how much of a discarded 401 body is read to let the
// connection be reused
const maxDrain = 64 << 10

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher sends requests with the current bearer token attached. When the
// server answers 401 it refreshes the token once through the Refresher and
// replays the request exactly once.
type Fetcher struct {
	doer      Doer
	store     *auth.TokenStore
	refresher *auth.Refresher
	log       *slog.Logger
}

// NewFetcher creates a Fetcher. A nil doer uses a plain *http.Client with
// no overall timeout, as streamed bodies may stay open for a long time.
func NewFetcher(doer Doer, store *auth.TokenStore, refresher *auth.Refresher, logger *slog.Logger) *Fetcher {
	if doer == nil {
		doer = &http.Client{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Fetcher{
		doer:      doer,
		store:     store,
		refresher: refresher,
		log:       logger,
	}
}

// Store returns the token store the fetcher reads from
func (f *Fetcher) Store() *auth.TokenStore {
	return f.store
}

// Do sends req. The returned response is either the first attempt's, or
// the single retry's after a successful refresh; the caller owns its body.
// When ctx ends while waiting on the refresh, Do returns ctx.Err() rather
// than the 401.
// A request with a body is only retried when req.GetBody is set, which
// http.NewRequest does for in-memory bodies.
func (f *Fetcher) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	start := time.Now()

	requestID := req.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	first := f.prepare(req, requestID)
	resp, err := f.doer.Do(first)
	if err != nil {
		return nil, err
	}
	f.log.DebugContext(ctx, "http.attempt",
		slog.String("method", req.Method),
		slog.String("url", req.URL.Redacted()),
		slog.String("request_id", requestID),
		slog.Int("status", resp.StatusCode),
		slog.Duration("dur", time.Since(start)))

	if resp.StatusCode != http.StatusUnauthorized || f.refresher == nil || f.store.RefreshHandler() == nil {
		return resp, nil
	}
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		f.log.WarnContext(ctx, "http.retry.unreplayable", slog.String("request_id", requestID))
		return resp, nil
	}

	if _, ok := f.refresher.Refresh(ctx); !ok {
		if ctx.Err() != nil {
			discard(resp)
			return nil, ctx.Err()
		}
		f.log.InfoContext(ctx, "http.retry.skipped", slog.String("request_id", requestID))
		return resp, nil
	}

	retry, err := f.rebuild(req, requestID)
	if err != nil {
		f.log.WarnContext(ctx, "http.retry.rebuild.fail", slog.String("err", err.Error()))
		return resp, nil
	}
	discard(resp)
	f.log.DebugContext(ctx, "http.retry", slog.String("request_id", requestID))

	return f.doer.Do(retry)
}

// prepare clones req and applies the current token and the request ID.
// Headers the caller set win over everything except Authorization when a
// token is present.
func (f *Fetcher) prepare(req *http.Request, requestID string) *http.Request {
	out := req.Clone(req.Context())
	if token, ok := f.store.Token(); ok {
		out.Header.Set("Authorization", "Bearer "+token)
	}
	if out.Header.Get(RequestIDHeader) == "" {
		out.Header.Set(RequestIDHeader, requestID)
	}
	return out
}

// rebuild produces a fresh copy of req with a replayed body
func (f *Fetcher) rebuild(req *http.Request, requestID string) (*http.Request, error) {
	out := f.prepare(req, requestID)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		out.Body = body
	}
	return out, nil
}

func discard(resp *http.Response) {
	io.CopyN(io.Discard, resp.Body, maxDrain)
	resp.Body.Close()
}

// NewJSONRequest builds a request with a replayable JSON body
func NewJSONRequest(ctx context.Context, method, url string, body []byte) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}
