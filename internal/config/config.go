// Package config provides configuration management for the schedly CLI.
// It handles reading and writing credentials and settings to the config file,
// and the environment overrides that apply on top of it.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
)

const (
	// DefaultAPIURL is the default schedly API endpoint
	DefaultAPIURL = "https://api.schedly.app"

	// ConfigDirName is the name of the config directory
	ConfigDirName = ".schedly"

	// ConfigFileName is the name of the config file
	ConfigFileName = "config.json"
)

// Config represents the CLI configuration stored on disk
type Config struct {
	// AccessToken is the OAuth access token for API authentication
	AccessToken string `json:"access_token,omitempty"`

	// RefreshToken is the OAuth refresh token for obtaining new access tokens
	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresAt is the expiration time of the access token
	ExpiresAt time.Time `json:"expires_at,omitempty"`

	// APIURL is the base URL of the schedly API
	APIURL string `json:"api_url,omitempty"`

	// ClientID is the OAuth client ID from dynamic registration
	ClientID string `json:"client_id,omitempty"`

	// ClientSecret is the OAuth client secret from dynamic registration
	ClientSecret string `json:"client_secret,omitempty"`
}

// Env holds the settings read from the environment. ENV values win over the
// config file but are never written back to it.
type Env struct {
	// APIURL overrides the stored API URL. ENV: SCHEDLY_API_URL
	APIURL string `env:"SCHEDLY_API_URL"`
	// ConfigPath overrides the config file location. ENV: SCHEDLY_CONFIG
	ConfigPath string `env:"SCHEDLY_CONFIG"`
	// LogLevel is one of debug, info, warn, error. ENV: SCHEDLY_LOG_LEVEL
	LogLevel string `env:"SCHEDLY_LOG_LEVEL,default=warn"`
}

// LoadEnv decodes Env from the process environment
func LoadEnv() (Env, error) {
	var env Env
	if err := envdecode.Decode(&env); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Env{}, fmt.Errorf("failed to read environment: %w", err)
	}
	if env.LogLevel == "" {
		env.LogLevel = "warn"
	}
	return env, nil
}

// Level parses LogLevel; unknown values fall back to warn
func (e Env) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(e.LogLevel))); err != nil {
		return slog.LevelWarn
	}
	return level
}

// Manager handles configuration file operations
type Manager struct {
	configPath string
	apiURL     string
}

// NewManager creates a new configuration manager. The config file lives at
// path when it is non-empty, then at SCHEDLY_CONFIG, then under the home
// directory.
func NewManager(path string, env Env) (*Manager, error) {
	if path == "" {
		path = env.ConfigPath
	}
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(homeDir, ConfigDirName, ConfigFileName)
	}

	return &Manager{configPath: path, apiURL: env.APIURL}, nil
}

// NewManagerWithPath creates a new configuration manager with a custom path
// This is useful for testing
func NewManagerWithPath(configPath string) *Manager {
	return &Manager{configPath: configPath}
}

// Load reads the configuration from disk
// Returns an empty config if the file doesn't exist
func (m *Manager) Load() (*Config, error) {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{
				APIURL: DefaultAPIURL,
			}, nil
		}
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", m.configPath, err)
	}

	if config.APIURL == "" {
		config.APIURL = DefaultAPIURL
	}

	return &config, nil
}

// Save writes the configuration to disk
func (m *Manager) Save(config *Config) error {
	configDir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	// owner read/write only
	return os.WriteFile(m.configPath, data, 0600)
}

// Clear removes all authentication data from the config
func (m *Manager) Clear() error {
	config, err := m.Load()
	if err != nil {
		return err
	}

	// client credentials are kept for re-login
	config.AccessToken = ""
	config.RefreshToken = ""
	config.ExpiresAt = time.Time{}

	return m.Save(config)
}

// IsLoggedIn reports whether an access token is stored. An expired token
// still counts when a refresh token is available to renew it.
func (m *Manager) IsLoggedIn() bool {
	config, err := m.Load()
	if err != nil || config.AccessToken == "" {
		return false
	}

	if config.RefreshToken != "" {
		return true
	}
	return config.ExpiresAt.IsZero() || time.Now().Add(time.Minute).Before(config.ExpiresAt)
}

// GetAPIURL returns the API URL, preferring SCHEDLY_API_URL over the file
func (m *Manager) GetAPIURL() (string, error) {
	if m.apiURL != "" {
		return strings.TrimRight(m.apiURL, "/"), nil
	}

	config, err := m.Load()
	if err != nil {
		return "", err
	}

	if config.APIURL == "" {
		return DefaultAPIURL, nil
	}

	return strings.TrimRight(config.APIURL, "/"), nil
}

// GetClientCredentials returns the stored OAuth client credentials
// Returns empty strings if not registered
func (m *Manager) GetClientCredentials() (clientID, clientSecret string, err error) {
	config, err := m.Load()
	if err != nil {
		return "", "", err
	}

	return config.ClientID, config.ClientSecret, nil
}

// SaveClientCredentials saves OAuth client credentials to the config
func (m *Manager) SaveClientCredentials(clientID, clientSecret string) error {
	config, err := m.Load()
	if err != nil {
		return err
	}

	config.ClientID = clientID
	config.ClientSecret = clientSecret

	return m.Save(config)
}

// SaveTokens saves OAuth tokens to the config. An empty refreshToken keeps
// the stored one, since token endpoints may not rotate it.
func (m *Manager) SaveTokens(accessToken, refreshToken string, expiresIn int) error {
	config, err := m.Load()
	if err != nil {
		return err
	}

	config.AccessToken = accessToken
	if refreshToken != "" {
		config.RefreshToken = refreshToken
	}

	config.ExpiresAt = time.Time{}
	if expiresIn > 0 {
		config.ExpiresAt = time.Now().Add(time.Duration(expiresIn) * time.Second)
	}

	return m.Save(config)
}

// ConfigPath returns the path to the config file
func (m *Manager) ConfigPath() string {
	return m.configPath
}
