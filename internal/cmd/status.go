package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// StatusCommand represents the status command
type StatusCommand struct {
	root *RootCommand
	cmd  *cobra.Command
}

// NewStatusCommand creates a new status command
func NewStatusCommand(root *RootCommand) *StatusCommand {
	s := &StatusCommand{
		root: root,
	}

	s.cmd = &cobra.Command{
		Use:   "status",
		Short: "Show login status",
		Long: `Show whether you are logged in, which API the CLI talks to, and when
the stored access token expires.

Examples:
  schedly status
  schedly status -o yaml`,
		Args: cobra.NoArgs,
		RunE: s.Run,
	}

	return s
}

// Command returns the underlying cobra command
func (s *StatusCommand) Command() *cobra.Command {
	return s.cmd
}

// Run executes the status command
func (s *StatusCommand) Run(cmd *cobra.Command, args []string) error {
	status, err := s.root.Container().AuthService().Status(cmd.Context())
	if err != nil {
		return err
	}

	if ok, err := writeStructured(cmd, status); ok {
		return err
	}

	if !status.LoggedIn {
		fmt.Println("Not logged in.")
		fmt.Println("\nLog in with: schedly login")
		return nil
	}

	fmt.Println("✓ Logged in")
	fmt.Printf("API:     %s\n", status.APIURL)
	fmt.Printf("Config:  %s\n", status.ConfigPath)
	switch {
	case status.ExpiresAt.IsZero():
		fmt.Println("Expires: unknown")
	case status.Expired:
		fmt.Printf("Expires: expired at %s\n", status.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
	default:
		fmt.Printf("Expires: %s (in %s)\n",
			status.ExpiresAt.Local().Format("2006-01-02 15:04:05"),
			time.Until(status.ExpiresAt).Round(time.Minute))
	}
	if status.CanRefresh {
		fmt.Println("Refresh: available")
	} else {
		fmt.Println("Refresh: unavailable, run 'schedly login' when the token expires")
	}

	return nil
}
