// Package di provides dependency injection for the schedly CLI.
// It contains the service container and factory functions.
package di

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/schedly/schedly-cli/internal/api"
	"github.com/schedly/schedly-cli/internal/auth"
	"github.com/schedly/schedly-cli/internal/config"
	"github.com/schedly/schedly-cli/internal/service"
	iface "github.com/schedly/schedly-cli/internal/service/interface"
)

// Options configures NewContainer
type Options struct {
	// ConfigPath overrides the config file location
	ConfigPath string

	// Verbose forces debug logging
	Verbose bool

	// LogOutput receives log records; defaults to os.Stderr
	LogOutput io.Writer
}

// Container holds all service dependencies for the CLI.
// Services are accessed via interfaces to enable mocking in tests.
type Container struct {
	configManager   *config.Manager
	logger          *slog.Logger
	authService     iface.AuthService
	calendarService iface.CalendarService
	shopService     iface.ShopService
}

// NewContainer creates a new dependency container with default implementations.
// All services share one token store, so a refresh done for one request is
// seen by every later request of the process.
func NewContainer(opts Options) (*Container, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}

	level := env.Level()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))

	configManager, err := config.NewManager(opts.ConfigPath, env)
	if err != nil {
		return nil, err
	}

	apiURL, err := configManager.GetAPIURL()
	if err != nil {
		return nil, fmt.Errorf("failed to get API URL: %w", err)
	}

	store, err := service.NewTokenStore(configManager, logger)
	if err != nil {
		return nil, err
	}
	refresher := auth.NewRefresher(store, auth.WithRefreshLogger(logger))
	client := api.NewClient(apiURL, api.NewFetcher(nil, store, refresher, logger))

	return &Container{
		configManager:   configManager,
		logger:          logger,
		authService:     service.NewAuthService(configManager, store),
		calendarService: service.NewCalendarService(client),
		shopService:     service.NewShopService(client, refresher, logger),
	}, nil
}

// NewContainerWithServices creates a container with custom service implementations.
// This is useful for testing with mock services.
func NewContainerWithServices(
	authService iface.AuthService,
	calendarService iface.CalendarService,
	shopService iface.ShopService,
) *Container {
	return &Container{
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		authService:     authService,
		calendarService: calendarService,
		shopService:     shopService,
	}
}

// AuthService returns the authentication service
func (c *Container) AuthService() iface.AuthService {
	return c.authService
}

// CalendarService returns the calendar service
func (c *Container) CalendarService() iface.CalendarService {
	return c.calendarService
}

// ShopService returns the shop recommendation service
func (c *Container) ShopService() iface.ShopService {
	return c.shopService
}

// ConfigManager returns the config manager
func (c *Container) ConfigManager() *config.Manager {
	return c.configManager
}

// Logger returns the process logger
func (c *Container) Logger() *slog.Logger {
	return c.logger
}
