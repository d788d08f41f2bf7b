package iface

import (
	"context"

	"github.com/schedly/schedly-cli/internal/stream"
)

// SearchInput is a free-text shop search
type SearchInput struct {
	Query    string `json:"query"`
	Location string `json:"location,omitempty"`
}

// Shop is one recommendation from a search
type Shop struct {
	Name    string `json:"name" yaml:"name"`
	Address string `json:"address,omitempty" yaml:"address,omitempty"`
	URL     string `json:"url,omitempty" yaml:"url,omitempty"`
	Reason  string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// SearchOutcome is how a search stream ended
type SearchOutcome string

const (
	SearchDone      SearchOutcome = "done"
	SearchErrored   SearchOutcome = "errored"
	SearchCancelled SearchOutcome = "cancelled"
)

// SearchResult is the outcome of a streamed search. Text holds the
// concatenated text fragments; Shops is taken from the done event.
type SearchResult struct {
	Outcome SearchOutcome `json:"outcome" yaml:"outcome"`
	Text    string        `json:"text" yaml:"text"`
	Shops   []Shop        `json:"shops" yaml:"shops"`
	Error   string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// ShopService defines the interface for shop recommendations
type ShopService interface {
	// Search streams a recommendation for input. onEvent, if non-nil, sees
	// every event as it arrives. A cancelled ctx ends the search with
	// SearchCancelled and no error.
	Search(ctx context.Context, input *SearchInput, onEvent stream.Sink) (*SearchResult, error)
}
