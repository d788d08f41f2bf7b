package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	iface "github.com/schedly/schedly-cli/internal/service/interface"
	"github.com/schedly/schedly-cli/internal/stream"
)

func TestShopsSearchCommand_Run(t *testing.T) {
	shops := []iface.Shop{{Name: "Fuglen", Address: "1-16-11 Tomigaya", Reason: "quiet in the morning"}}

	tests := []struct {
		name         string
		args         []string
		events       []stream.Event
		result       *iface.SearchResult
		mockError    error
		wantQuery    string
		wantLocation string
		wantStdout   []string
		wantStderr   []string
		wantNoStdout []string
		wantErr      bool
	}{
		{
			name: "renders text live and lists shops",
			args: []string{"shops", "search", "quiet", "cafe", "--location", "Shibuya"},
			events: []stream.Event{
				{Type: stream.EventStatus, Message: "looking around Shibuya"},
				{Type: stream.EventText, Content: "Try "},
				{Type: stream.EventText, Content: "Fuglen."},
				{Type: stream.EventDone},
			},
			result:       &iface.SearchResult{Outcome: iface.SearchDone, Text: "Try Fuglen.", Shops: shops},
			wantQuery:    "quiet cafe",
			wantLocation: "Shibuya",
			wantStdout:   []string{"Try Fuglen.\n", "1. Fuglen", "1-16-11 Tomigaya", "quiet in the morning"},
			wantStderr:   []string{"looking around Shibuya"},
			wantNoStdout: []string{"looking around"},
		},
		{
			name:         "outputs JSON once complete",
			args:         []string{"shops", "search", "ramen", "-o", "json"},
			events:       []stream.Event{{Type: stream.EventText, Content: "live text"}},
			result:       &iface.SearchResult{Outcome: iface.SearchDone, Text: "Menya", Shops: shops},
			wantQuery:    "ramen",
			wantStdout:   []string{`"outcome": "done"`, `"text": "Menya"`, `"name": "Fuglen"`},
			wantNoStdout: []string{"live text"},
		},
		{
			name:      "in-band error fails the command",
			args:      []string{"shops", "search", "tea"},
			events:    []stream.Event{{Type: stream.EventError, Message: "rate limited"}},
			result:    &iface.SearchResult{Outcome: iface.SearchErrored, Error: "rate limited"},
			wantQuery: "tea",
			wantErr:   true,
		},
		{
			name:       "cancellation exits quietly",
			args:       []string{"shops", "search", "tea"},
			events:     []stream.Event{{Type: stream.EventText, Content: "Part"}},
			result:     &iface.SearchResult{Outcome: iface.SearchCancelled, Text: "Part"},
			wantQuery:  "tea",
			wantStdout: []string{"Part"},
			wantStderr: []string{"Cancelled."},
		},
		{
			name:      "returns error when service fails",
			args:      []string{"shops", "search", "tea"},
			mockError: errors.New("connection refused"),
			wantQuery: "tea",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockShops := &MockShopService{
				SearchFunc: func(ctx context.Context, input *iface.SearchInput, onEvent stream.Sink) (*iface.SearchResult, error) {
					if input.Query != tt.wantQuery || input.Location != tt.wantLocation {
						t.Errorf("input = %+v", input)
					}
					if tt.mockError != nil {
						return nil, tt.mockError
					}
					for _, ev := range tt.events {
						if onEvent != nil {
							onEvent(ev)
						}
					}
					return tt.result, nil
				},
			}
			root := newTestRoot(nil, nil, mockShops)
			root.shopsCmd.searchCmd.ask = func(string) (string, error) {
				t.Error("unexpected prompt")
				return "", nil
			}

			stdout, stderr, err := execute(t, root, tt.args...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Run() error = %v, wantErr %v", err, tt.wantErr)
			}

			for _, want := range tt.wantStdout {
				if !strings.Contains(stdout, want) {
					t.Errorf("stdout should contain %q, got: %s", want, stdout)
				}
			}
			for _, notWant := range tt.wantNoStdout {
				if strings.Contains(stdout, notWant) {
					t.Errorf("stdout should not contain %q, got: %s", notWant, stdout)
				}
			}
			for _, want := range tt.wantStderr {
				if !strings.Contains(stderr, want) {
					t.Errorf("stderr should contain %q, got: %s", want, stderr)
				}
			}
		})
	}
}

func TestShopsSearchCommand_PromptsForQuery(t *testing.T) {
	mockShops := &MockShopService{
		SearchFunc: func(ctx context.Context, input *iface.SearchInput, onEvent stream.Sink) (*iface.SearchResult, error) {
			if input.Query != "bakery" {
				t.Errorf("query = %q", input.Query)
			}
			return &iface.SearchResult{Outcome: iface.SearchDone}, nil
		},
	}
	root := newTestRoot(nil, nil, mockShops)

	var asked bool
	root.shopsCmd.searchCmd.ask = func(string) (string, error) {
		asked = true
		return "bakery", nil
	}

	if _, _, err := execute(t, root, "shops", "search"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !asked {
		t.Error("query was not prompted for")
	}
}

func TestShopsSearchCommand_ContextReachesService(t *testing.T) {
	mockShops := &MockShopService{
		SearchFunc: func(ctx context.Context, input *iface.SearchInput, onEvent stream.Sink) (*iface.SearchResult, error) {
			select {
			case <-ctx.Done():
				return &iface.SearchResult{Outcome: iface.SearchCancelled}, nil
			case <-time.After(5 * time.Second):
				t.Error("cancellation did not reach the service")
				return &iface.SearchResult{Outcome: iface.SearchDone}, nil
			}
		},
	}
	root := newTestRoot(nil, nil, mockShops)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	root.Command().SetContext(ctx)

	_, stderr, err := execute(t, root, "shops", "search", "tea")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(stderr, "Cancelled.") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestLiveRenderer(t *testing.T) {
	var out, status bytes.Buffer
	sink := liveRenderer(&out, &status)

	sink(stream.Event{Type: stream.EventStatus, Message: "searching"})
	sink(stream.Event{Type: stream.EventText, Content: "Café "})
	sink(stream.Event{Type: stream.EventText, Content: "Luna"})
	sink(stream.Event{Type: stream.EventDone})

	if out.String() != "Café Luna\n" {
		t.Errorf("out = %q", out.String())
	}
	if status.String() != "… searching\n" {
		t.Errorf("status = %q", status.String())
	}
}
