// Package stream consumes Server-Sent-Events style responses: it reassembles
// frames from a chunked body, decodes their data lines into typed events,
// and drives a cancellable session around a single streaming request.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/elnormous/contenttype"

	"github.com/schedly/schedly-cli/internal/api"
)

// DefaultChunkSize is the size of a single body read
const DefaultChunkSize = 4096

var eventStreamMediaType = contenttype.NewMediaType("text/event-stream")

var (
	// ErrSessionStarted is returned when Start is called more than once
	ErrSessionStarted = errors.New("stream session already started")

	// ErrUnexpectedContentType is returned when a successful response is
	// not an event stream
	ErrUnexpectedContentType = errors.New("response is not an event stream")
)

// State is the lifecycle state of a Session
type State int32

const (
	StateIdle State = iota
	StateOpening
	StateStreaming
	StateDone
	StateErrored
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpening:
		return "opening"
	case StateStreaming:
		return "streaming"
	case StateDone:
		return "done"
	case StateErrored:
		return "errored"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Terminal reports whether no further events can be dispatched
func (s State) Terminal() bool {
	return s == StateDone || s == StateErrored || s == StateCancelled
}

// Session is one streaming request: an authenticated POST whose response
// body is consumed as events until a terminal event, end of stream, an
// error, or cancellation. A Session runs once.
type Session struct {
	doer      api.Doer
	url       string
	log       *slog.Logger
	chunkSize int

	mu              sync.Mutex
	state           State
	cancel          context.CancelFunc
	cancelRequested bool
}

// Option configures a Session
type Option func(*Session)

// WithLogger sets the session logger. Logs are discarded by default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithChunkSize sets the maximum size of a single body read
func WithChunkSize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// NewSession creates a session posting to url through doer, normally an
// *api.Fetcher so that the request is authenticated and retried on 401.
func NewSession(doer api.Doer, url string, opts ...Option) *Session {
	s := &Session{
		doer:      doer,
		url:       url,
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Cancel abandons the session. No sink call starts once the session has
// observed the cancellation; a delivery already past its check may still
// run while Cancel returns.
// Cancelling an idle session makes Start return StateCancelled at once;
// cancelling a finished session does nothing.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Terminal() {
		return
	}
	s.cancelRequested = true
	if s.cancel != nil {
		s.cancel()
	}
}

// Start posts body as JSON and streams the response into sink until the
// session ends. It returns the terminal state:
//
//   - StateDone: a done event was delivered, or the stream ended.
//   - StateErrored with a nil error: an error event was delivered.
//   - StateErrored with an error: the request could not be opened, the
//     server answered non-2xx (*api.APIError), or a read failed.
//   - StateCancelled with a nil error: ctx ended or Cancel was called.
func (s *Session) Start(ctx context.Context, body interface{}, sink Sink) (State, error) {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return s.State(), ErrSessionStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.cancel = cancel
	s.state = StateOpening
	if s.cancelRequested {
		cancel()
	}
	s.mu.Unlock()

	start := time.Now()
	state, err := s.run(ctx, body, sink)
	s.finish(state)

	attrs := []any{slog.String("state", state.String()), slog.Duration("dur", time.Since(start))}
	if err != nil {
		attrs = append(attrs, slog.String("err", err.Error()))
	}
	s.log.InfoContext(ctx, "stream.session.end", attrs...)

	return state, err
}

func (s *Session) run(ctx context.Context, body interface{}, sink Sink) (State, error) {
	if ctx.Err() != nil {
		return StateCancelled, nil
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return StateErrored, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := api.NewJSONRequest(ctx, http.MethodPost, s.url, payload)
	if err != nil {
		return StateErrored, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	s.log.DebugContext(ctx, "stream.open", slog.String("url", req.URL.Redacted()))
	resp, err := s.doer.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return StateCancelled, nil
		}
		return StateErrored, fmt.Errorf("failed to open stream: %w", err)
	}
	defer resp.Body.Close()

	if ctx.Err() != nil {
		return StateCancelled, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return StateErrored, api.ErrorFromResponse(resp)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mt, err := contenttype.ParseMediaType(ct)
		if err != nil || !mt.Matches(eventStreamMediaType) {
			return StateErrored, fmt.Errorf("%w: %s", ErrUnexpectedContentType, ct)
		}
	}

	s.setState(StateStreaming)
	return s.consume(ctx, resp.Body, sink)
}

// consume reads body until a terminal condition. ctx is checked before each
// read and before each delivery, so buffered frames are never delivered
// after cancellation.
func (s *Session) consume(ctx context.Context, body io.Reader, sink Sink) (State, error) {
	var (
		frames     Reassembler
		dispatcher = NewDispatcher(s.log)
		buf        = make([]byte, s.chunkSize)
	)
	defer frames.Reset()

	deliver := func(ev Event) {
		if ctx.Err() == nil {
			sink(ev)
		}
	}
	dispatch := func(batch [][]byte) (State, bool) {
		for _, frame := range batch {
			if ctx.Err() != nil {
				return StateCancelled, true
			}
			if dispatcher.Dispatch(frame, deliver) {
				if ctx.Err() != nil {
					return StateCancelled, true
				}
				ev, _ := dispatcher.Terminal()
				if ev.Type == EventError {
					return StateErrored, true
				}
				return StateDone, true
			}
		}
		return StateStreaming, false
	}

	for {
		if ctx.Err() != nil {
			return StateCancelled, nil
		}

		n, err := body.Read(buf)
		if n > 0 {
			if state, end := dispatch(frames.Push(buf[:n])); end {
				return state, nil
			}
		}

		switch {
		case err == nil:
			continue
		case ctx.Err() != nil:
			return StateCancelled, nil
		case errors.Is(err, io.EOF):
			tail, dropped := frames.Flush()
			if dropped > 0 {
				s.log.WarnContext(ctx, "stream.tail.discarded", slog.Int("bytes", dropped))
			}
			if state, end := dispatch(tail); end {
				return state, nil
			}
			return StateDone, nil
		default:
			return StateErrored, fmt.Errorf("failed to read stream: %w", err)
		}
	}
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// finish records the terminal state; only the first terminal state sticks
func (s *Session) finish(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Terminal() {
		s.state = state
	}
	s.cancel = nil
}
