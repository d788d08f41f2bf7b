package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// LoginCommand represents the login command
type LoginCommand struct {
	root *RootCommand
	cmd  *cobra.Command
}

// NewLoginCommand creates a new login command
func NewLoginCommand(root *RootCommand) *LoginCommand {
	l := &LoginCommand{
		root: root,
	}

	l.cmd = &cobra.Command{
		Use:   "login",
		Short: "Authenticate with schedly",
		Long: `Authenticate with schedly in your browser.

On first use the CLI registers itself with the schedly authorization server.
A browser window then opens for you to sign in; the tokens it returns are
stored in the config file and renewed automatically when they expire.

Example:
  schedly login`,
		Args: cobra.NoArgs,
		RunE: l.Run,
	}

	return l
}

// Command returns the underlying cobra command
func (l *LoginCommand) Command() *cobra.Command {
	return l.cmd
}

// Run executes the login command
func (l *LoginCommand) Run(cmd *cobra.Command, args []string) error {
	authService := l.root.Container().AuthService()

	if err := authService.Login(cmd.Context()); err != nil {
		return err
	}

	fmt.Println("✓ Successfully logged in to schedly!")
	return nil
}
