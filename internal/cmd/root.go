// Package cmd provides the command-line interface for the schedly CLI.
// It contains all cobra commands and their implementations.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/schedly/schedly-cli/internal/di"
)

var (
	// Version is set at build time via ldflags
	Version = "dev"
)

// RootCommand represents the root CLI command
type RootCommand struct {
	container *di.Container
	cmd       *cobra.Command

	// Subcommands
	loginCmd     *LoginCommand
	logoutCmd    *LogoutCommand
	statusCmd    *StatusCommand
	calendarsCmd *CalendarsCommand
	schedulesCmd *SchedulesCommand
	shopsCmd     *ShopsCommand
}

// NewRootCommand creates a new root command
func NewRootCommand() *RootCommand {
	r := &RootCommand{}

	r.cmd = &cobra.Command{
		Use:   "schedly",
		Short: "schedly - your calendars and shop recommendations from the terminal",
		Long: `schedly is a command-line tool for your schedly calendars.

It lists calendars and schedules, and streams shop recommendations
as they are written.

To get started, run:
  schedly login           - Authenticate with your schedly account
  schedly calendars list  - View your calendars
  schedly shops search    - Ask for a shop recommendation`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutputFormat(cmd); err != nil {
				return err
			}
			return r.initialize(cmd)
		},
	}

	// Global flags
	r.cmd.PersistentFlags().StringP("output", "o", "text", "Output format (text, json, yaml)")
	r.cmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug information to stderr")
	r.cmd.PersistentFlags().String("config", "", "Config file (default $SCHEDLY_CONFIG or ~/.schedly/config.json)")

	r.loginCmd = NewLoginCommand(r)
	r.logoutCmd = NewLogoutCommand(r)
	r.statusCmd = NewStatusCommand(r)
	r.calendarsCmd = NewCalendarsCommand(r)
	r.schedulesCmd = NewSchedulesCommand(r)
	r.shopsCmd = NewShopsCommand(r)

	r.cmd.AddCommand(r.loginCmd.Command())
	r.cmd.AddCommand(r.logoutCmd.Command())
	r.cmd.AddCommand(r.statusCmd.Command())
	r.cmd.AddCommand(r.calendarsCmd.Command())
	r.cmd.AddCommand(r.schedulesCmd.Command())
	r.cmd.AddCommand(r.shopsCmd.Command())

	return r
}

// initialize sets up the DI container
func (r *RootCommand) initialize(cmd *cobra.Command) error {
	// already set in tests
	if r.container != nil {
		return nil
	}

	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	var err error
	r.container, err = di.NewContainer(di.Options{
		ConfigPath: configPath,
		Verbose:    verbose,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	return nil
}

// Execute runs the root command
func (r *RootCommand) Execute() error {
	return r.cmd.Execute()
}

// Command returns the underlying cobra command
func (r *RootCommand) Command() *cobra.Command {
	return r.cmd
}

// Container returns the DI container
func (r *RootCommand) Container() *di.Container {
	return r.container
}

// SetContainer sets a custom container (for testing)
func (r *RootCommand) SetContainer(c *di.Container) {
	r.container = c
}

// Execute is the main entry point for the CLI
func Execute() error {
	root := NewRootCommand()
	err := root.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}
