package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// LogoutCommand represents the logout command
type LogoutCommand struct {
	root *RootCommand
	cmd  *cobra.Command
}

// NewLogoutCommand creates a new logout command
func NewLogoutCommand(root *RootCommand) *LogoutCommand {
	l := &LogoutCommand{
		root: root,
	}

	l.cmd = &cobra.Command{
		Use:   "logout",
		Short: "Log out from schedly",
		Long: `Log out from schedly and clear stored credentials.

This command removes your access and refresh tokens from the config file.
The registered client is kept so that the next login skips registration.

Example:
  schedly logout`,
		Args: cobra.NoArgs,
		RunE: l.Run,
	}

	return l
}

// Command returns the underlying cobra command
func (l *LogoutCommand) Command() *cobra.Command {
	return l.cmd
}

// Run executes the logout command
func (l *LogoutCommand) Run(cmd *cobra.Command, args []string) error {
	if err := l.root.Container().AuthService().Logout(cmd.Context()); err != nil {
		return err
	}

	fmt.Println("✓ Successfully logged out from schedly.")
	return nil
}
