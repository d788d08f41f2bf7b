package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/schedly/schedly-cli/internal/auth"
)

// MockDoer replays scripted responses and records what it was sent
type MockDoer struct {
	mu        sync.Mutex
	Responses []*http.Response
	Requests  []*http.Request
	Bodies    []string
}

func (m *MockDoer) Do(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	body := ""
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		body = string(data)
	}
	m.Requests = append(m.Requests, req)
	m.Bodies = append(m.Bodies, body)

	if len(m.Responses) == 0 {
		return newResponse(http.StatusInternalServerError, "no scripted response"), nil
	}
	resp := m.Responses[0]
	m.Responses = m.Responses[1:]
	return resp, nil
}

func newResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newTestFetcher(doer Doer, token string, handler auth.RefreshHandler) (*Fetcher, *auth.TokenStore) {
	store := auth.NewTokenStore(token)
	store.SetRefreshHandler(handler)
	return NewFetcher(doer, store, auth.NewRefresher(store), nil), store
}

func TestFetcher_Do(t *testing.T) {
	tests := []struct {
		name          string
		responses     []int
		refreshToken  string
		noHandler     bool
		wantStatus    int
		wantAttempts  int
		wantRefreshes int32
		wantToken     string
	}{
		{
			name:          "successful refresh then retry",
			responses:     []int{http.StatusUnauthorized, http.StatusOK},
			refreshToken:  "new-token",
			wantStatus:    http.StatusOK,
			wantAttempts:  2,
			wantRefreshes: 1,
			wantToken:     "new-token",
		},
		{
			name:          "refresh yields nothing",
			responses:     []int{http.StatusUnauthorized},
			refreshToken:  "",
			wantStatus:    http.StatusUnauthorized,
			wantAttempts:  1,
			wantRefreshes: 1,
			wantToken:     "old-token",
		},
		{
			name:          "retry also unauthorized",
			responses:     []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusOK},
			refreshToken:  "new-token",
			wantStatus:    http.StatusUnauthorized,
			wantAttempts:  2,
			wantRefreshes: 1,
			wantToken:     "new-token",
		},
		{
			name:         "no refresh handler",
			responses:    []int{http.StatusUnauthorized},
			noHandler:    true,
			wantStatus:   http.StatusUnauthorized,
			wantAttempts: 1,
			wantToken:    "old-token",
		},
		{
			name:         "non-401 error is returned unchanged",
			responses:    []int{http.StatusInternalServerError},
			refreshToken: "new-token",
			wantStatus:   http.StatusInternalServerError,
			wantAttempts: 1,
			wantToken:    "old-token",
		},
		{
			name:         "success needs no refresh",
			responses:    []int{http.StatusOK},
			refreshToken: "new-token",
			wantStatus:   http.StatusOK,
			wantAttempts: 1,
			wantToken:    "old-token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doer := &MockDoer{}
			for _, status := range tt.responses {
				doer.Responses = append(doer.Responses, newResponse(status, `{"ok":true}`))
			}

			var refreshes int32
			var handler auth.RefreshHandler
			if !tt.noHandler {
				handler = func(ctx context.Context) (string, error) {
					atomic.AddInt32(&refreshes, 1)
					return tt.refreshToken, nil
				}
			}
			f, store := newTestFetcher(doer, "old-token", handler)

			req, err := NewJSONRequest(context.Background(), http.MethodPost, "https://api.example.com/api/things", []byte(`{"a":1}`))
			if err != nil {
				t.Fatalf("NewJSONRequest: %v", err)
			}

			resp, err := f.Do(req)
			if err != nil {
				t.Fatalf("Do() error = %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if len(doer.Requests) != tt.wantAttempts {
				t.Errorf("attempts = %d, want %d", len(doer.Requests), tt.wantAttempts)
			}
			if refreshes != tt.wantRefreshes {
				t.Errorf("refreshes = %d, want %d", refreshes, tt.wantRefreshes)
			}
			if tok, _ := store.Token(); tok != tt.wantToken {
				t.Errorf("token = %q, want %q", tok, tt.wantToken)
			}

			if got := doer.Requests[0].Header.Get("Authorization"); got != "Bearer old-token" {
				t.Errorf("first attempt Authorization = %q", got)
			}
			if tt.wantAttempts == 2 {
				second := doer.Requests[1]
				if got := second.Header.Get("Authorization"); got != "Bearer new-token" {
					t.Errorf("retry Authorization = %q", got)
				}
				if doer.Bodies[1] != `{"a":1}` {
					t.Errorf("retry body = %q, want replayed body", doer.Bodies[1])
				}
				if second.Header.Get(RequestIDHeader) != doer.Requests[0].Header.Get(RequestIDHeader) {
					t.Error("retry should keep the request ID")
				}
			}
		})
	}
}

func TestFetcher_Headers(t *testing.T) {
	doer := &MockDoer{Responses: []*http.Response{newResponse(http.StatusOK, "")}}
	f, _ := newTestFetcher(doer, "", nil)

	req, _ := http.NewRequest(http.MethodGet, "https://api.example.com/x", nil)
	req.Header.Set("Accept", "text/plain")
	req.Header.Set(RequestIDHeader, "fixed-id")

	resp, err := f.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	resp.Body.Close()

	sent := doer.Requests[0]
	if got := sent.Header.Get("Authorization"); got != "" {
		t.Errorf("no token should mean no Authorization header, got %q", got)
	}
	if got := sent.Header.Get("Accept"); got != "text/plain" {
		t.Errorf("caller Accept overwritten: %q", got)
	}
	if got := sent.Header.Get(RequestIDHeader); got != "fixed-id" {
		t.Errorf("request ID = %q, want fixed-id", got)
	}
	if req.Header.Get("Authorization") != "" {
		t.Error("caller's request must not be mutated")
	}
}

func TestFetcher_UnreplayableBodyIsNotRetried(t *testing.T) {
	doer := &MockDoer{Responses: []*http.Response{
		newResponse(http.StatusUnauthorized, ""),
		newResponse(http.StatusOK, ""),
	}}
	f, _ := newTestFetcher(doer, "old-token", func(ctx context.Context) (string, error) {
		return "new-token", nil
	})

	req, _ := http.NewRequest(http.MethodPost, "https://api.example.com/x", io.NopCloser(strings.NewReader("stream")))
	req.GetBody = nil

	resp, err := f.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized || len(doer.Requests) != 1 {
		t.Errorf("got status %d after %d attempts; want 401 after 1", resp.StatusCode, len(doer.Requests))
	}
}

func TestFetcher_ConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	var rejected int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			atomic.AddInt32(&rejected, 1)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	var refreshes int32
	release := make(chan struct{})
	f, _ := newTestFetcher(srv.Client(), "stale", func(ctx context.Context) (string, error) {
		atomic.AddInt32(&refreshes, 1)
		<-release
		return "fresh", nil
	})

	const callers = 8
	var wg sync.WaitGroup
	statuses := make([]int, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/calendars", nil)
			resp, err := f.Do(req)
			if err != nil {
				t.Errorf("Do() error = %v", err)
				return
			}
			resp.Body.Close()
			statuses[i] = resp.StatusCode
		}(i)
	}

	for atomic.LoadInt32(&rejected) < callers {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, s := range statuses {
		if s != http.StatusOK {
			t.Errorf("caller %d got status %d", i, s)
		}
	}
	if refreshes != 1 {
		t.Errorf("refresh handler called %d times, want 1", refreshes)
	}
}

func TestFetcher_CancelDuringRefreshReturnsContextError(t *testing.T) {
	doer := &MockDoer{Responses: []*http.Response{newResponse(http.StatusUnauthorized, "")}}
	entered := make(chan struct{})
	release := make(chan struct{})
	defer close(release)

	f, store := newTestFetcher(doer, "old-token", func(ctx context.Context) (string, error) {
		close(entered)
		<-release
		return "", errors.New("refresh abandoned")
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-entered
		cancel()
	}()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.example.com/api/calendars", nil)
	resp, err := f.Do(req)
	if resp != nil {
		resp.Body.Close()
		t.Errorf("Do() returned status %d, want no response", resp.StatusCode)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() error = %v, want context.Canceled", err)
	}
	if len(doer.Requests) != 1 {
		t.Errorf("attempts = %d, want 1", len(doer.Requests))
	}
	if tok, _ := store.Token(); tok != "old-token" {
		t.Errorf("token = %q, want old-token", tok)
	}
}
