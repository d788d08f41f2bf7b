package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/schedly/schedly-cli/internal/api"
	"github.com/schedly/schedly-cli/internal/auth"
	iface "github.com/schedly/schedly-cli/internal/service/interface"
	"github.com/schedly/schedly-cli/internal/stream"
)

// expiryLeeway treats a token that expires this soon as already expired
const expiryLeeway = 30 * time.Second

// shopService implements iface.ShopService
type shopService struct {
	client    *api.Client
	refresher *auth.Refresher
	log       *slog.Logger
	now       func() time.Time
}

// NewShopService creates a new shop service. logger may be nil.
func NewShopService(client *api.Client, refresher *auth.Refresher, logger *slog.Logger) iface.ShopService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &shopService{
		client:    client,
		refresher: refresher,
		log:       logger,
		now:       time.Now,
	}
}

type shopsPayload struct {
	Shops []iface.Shop `json:"shops"`
}

// Search streams a recommendation from POST /api/shops/search
func (s *shopService) Search(ctx context.Context, input *iface.SearchInput, onEvent stream.Sink) (*iface.SearchResult, error) {
	if input == nil || strings.TrimSpace(input.Query) == "" {
		return nil, fmt.Errorf("search query is required")
	}
	if err := requireLogin(s.client); err != nil {
		return nil, err
	}
	s.refreshIfExpired(ctx)

	tr := &stream.Transcript{OnEvent: onEvent}
	session := stream.NewSession(s.client.Fetcher(), s.client.BaseURL()+"/api/shops/search", stream.WithLogger(s.log))

	state, err := session.Start(ctx, input, tr.Sink())
	if err != nil {
		return nil, fmt.Errorf("shop search failed: %w", err)
	}

	result := &iface.SearchResult{
		Text:  tr.Text(),
		Error: tr.Err(),
	}
	switch state {
	case stream.StateCancelled:
		result.Outcome = iface.SearchCancelled
	case stream.StateErrored:
		result.Outcome = iface.SearchErrored
	default:
		result.Outcome = iface.SearchDone
	}

	var payload shopsPayload
	if err := tr.DecodeData(&payload); err != nil {
		s.log.WarnContext(ctx, "shops.payload.malformed", slog.String("err", err.Error()))
	}
	result.Shops = payload.Shops

	return result, nil
}

// refreshIfExpired renews a stored JWT that has already expired, saving the
// 401 round trip. The reactive retry in the fetcher still applies.
func (s *shopService) refreshIfExpired(ctx context.Context) {
	store := s.client.Fetcher().Store()
	token, ok := store.Token()
	if !ok || s.refresher == nil || store.RefreshHandler() == nil {
		return
	}
	if !auth.TokenExpired(token, s.now(), expiryLeeway) {
		return
	}

	s.log.DebugContext(ctx, "auth.token.expired")
	s.refresher.Refresh(ctx)
}
