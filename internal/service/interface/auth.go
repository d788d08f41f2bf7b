// Package iface defines service interfaces for the schedly CLI.
// These interfaces enable dependency injection and mocking for tests.
package iface

import (
	"context"
	"time"
)

// AuthStatus describes the stored credentials
type AuthStatus struct {
	LoggedIn   bool      `json:"logged_in" yaml:"logged_in"`
	APIURL     string    `json:"api_url" yaml:"api_url"`
	ConfigPath string    `json:"config_path" yaml:"config_path"`
	ExpiresAt  time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	Expired    bool      `json:"expired" yaml:"expired"`
	CanRefresh bool      `json:"can_refresh" yaml:"can_refresh"`
}

// AuthService defines the interface for authentication operations
type AuthService interface {
	// Login performs OAuth authentication and saves credentials
	Login(ctx context.Context) error

	// Logout clears stored credentials
	Logout(ctx context.Context) error

	// IsLoggedIn checks if the user is currently authenticated
	IsLoggedIn() bool

	// Status reports the stored credentials and when the access token expires
	Status(ctx context.Context) (*AuthStatus, error)
}
