package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/schedly/schedly-cli/internal/auth"
	"github.com/schedly/schedly-cli/internal/config"
)

// errNoRefreshToken is returned by the refresh handler when the config file
// holds no refresh token
var errNoRefreshToken = errors.New("no refresh token stored")

// NewTokenStore seeds a token store with the stored access token and
// registers a refresh handler backed by the stored refresh token
func NewTokenStore(configManager *config.Manager, logger *slog.Logger) (*auth.TokenStore, error) {
	cfg, err := configManager.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	store := auth.NewTokenStore(cfg.AccessToken)
	store.SetRefreshHandler(RefreshHandler(configManager, nil, logger))
	return store, nil
}

// RefreshHandler returns a handler that redeems the stored refresh token at
// the OAuth token endpoint and persists the new pair. httpClient may be nil.
func RefreshHandler(configManager *config.Manager, httpClient *http.Client, logger *slog.Logger) auth.RefreshHandler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return func(ctx context.Context) (string, error) {
		cfg, err := configManager.Load()
		if err != nil {
			return "", fmt.Errorf("failed to load config: %w", err)
		}
		if cfg.RefreshToken == "" {
			return "", errNoRefreshToken
		}

		apiURL, err := configManager.GetAPIURL()
		if err != nil {
			return "", fmt.Errorf("failed to get API URL: %w", err)
		}

		oauthFlow := auth.NewOAuthFlow(apiURL)
		oauthFlow.SetClientCredentials(cfg.ClientID, cfg.ClientSecret)
		if httpClient != nil {
			oauthFlow.SetHTTPClient(httpClient)
		}

		result, err := oauthFlow.RefreshTokens(ctx, cfg.RefreshToken)
		if err != nil {
			var rejected *auth.TokenEndpointError
			if errors.As(err, &rejected) {
				logger.WarnContext(ctx, "auth.refresh.rejected", slog.Int("status", rejected.StatusCode))
			}
			return "", fmt.Errorf("failed to refresh token: %w", err)
		}

		if err := configManager.SaveTokens(result.AccessToken, result.RefreshToken, result.ExpiresIn); err != nil {
			return "", fmt.Errorf("failed to save refreshed tokens: %w", err)
		}
		logger.DebugContext(ctx, "auth.refresh.persisted", slog.Int("expires_in", result.ExpiresIn))

		return result.AccessToken, nil
	}
}
