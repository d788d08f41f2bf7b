package service

import (
	"context"
	"fmt"
	"time"

	"github.com/schedly/schedly-cli/internal/auth"
	"github.com/schedly/schedly-cli/internal/config"
	iface "github.com/schedly/schedly-cli/internal/service/interface"
)

// authService implements iface.AuthService
type authService struct {
	configManager *config.Manager
	store         *auth.TokenStore
	now           func() time.Time
}

// NewAuthService creates a new authentication service. store is updated on
// login and logout so that later calls in the same process see the change.
func NewAuthService(configManager *config.Manager, store *auth.TokenStore) iface.AuthService {
	return &authService{
		configManager: configManager,
		store:         store,
		now:           time.Now,
	}
}

// Login performs OAuth authentication and saves credentials
func (s *authService) Login(ctx context.Context) error {
	if s.IsLoggedIn() {
		return fmt.Errorf("already logged in. Use 'schedly logout' first to log out")
	}

	apiURL, err := s.configManager.GetAPIURL()
	if err != nil {
		return fmt.Errorf("failed to get API URL: %w", err)
	}

	oauthFlow := auth.NewOAuthFlow(apiURL)

	clientID, clientSecret, err := s.configManager.GetClientCredentials()
	if err != nil {
		return fmt.Errorf("failed to get client credentials: %w", err)
	}
	if clientID != "" {
		oauthFlow.SetClientCredentials(clientID, clientSecret)
	}

	// registers the client first when no credentials are stored
	result, err := oauthFlow.Login(ctx)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	creds := oauthFlow.GetClientCredentials()
	if creds != nil && clientID == "" {
		if err := s.configManager.SaveClientCredentials(creds.ClientID, creds.ClientSecret); err != nil {
			return fmt.Errorf("failed to save client credentials: %w", err)
		}
	}

	if err := s.configManager.SaveTokens(result.AccessToken, result.RefreshToken, result.ExpiresIn); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	s.store.SetToken(result.AccessToken)

	return nil
}

// Logout clears stored credentials
func (s *authService) Logout(ctx context.Context) error {
	cfg, err := s.configManager.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.AccessToken == "" && cfg.RefreshToken == "" {
		return fmt.Errorf("not logged in")
	}

	if err := s.configManager.Clear(); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	s.store.ClearToken()

	return nil
}

// IsLoggedIn checks if a usable token is stored: one that has not expired
// or can be refreshed. It does not check that the server still accepts it.
func (s *authService) IsLoggedIn() bool {
	return s.configManager.IsLoggedIn()
}

// Status reports the stored credentials. The expiry is read from the access
// token when it is a JWT, and from the stored expires_at otherwise.
func (s *authService) Status(ctx context.Context) (*iface.AuthStatus, error) {
	cfg, err := s.configManager.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	apiURL, err := s.configManager.GetAPIURL()
	if err != nil {
		return nil, fmt.Errorf("failed to get API URL: %w", err)
	}

	status := &iface.AuthStatus{
		LoggedIn:   cfg.AccessToken != "" || cfg.RefreshToken != "",
		APIURL:     apiURL,
		ConfigPath: s.configManager.ConfigPath(),
		CanRefresh: cfg.RefreshToken != "",
	}

	status.ExpiresAt = cfg.ExpiresAt
	if exp, ok := auth.TokenExpiry(cfg.AccessToken); ok {
		status.ExpiresAt = exp
	}
	if !status.ExpiresAt.IsZero() {
		status.Expired = !s.now().Before(status.ExpiresAt)
	}

	return status, nil
}
