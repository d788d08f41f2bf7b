package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	iface "github.com/schedly/schedly-cli/internal/service/interface"
	"github.com/schedly/schedly-cli/internal/stream"
)

// ShopsCommand represents the shops command group
type ShopsCommand struct {
	root *RootCommand
	cmd  *cobra.Command

	// Subcommands
	searchCmd *ShopsSearchCommand
}

// NewShopsCommand creates a new shops command
func NewShopsCommand(root *RootCommand) *ShopsCommand {
	s := &ShopsCommand{
		root: root,
	}

	s.cmd = &cobra.Command{
		Use:     "shops",
		Aliases: []string{"shop"},
		Short:   "Get shop recommendations",
	}

	s.searchCmd = NewShopsSearchCommand(s)
	s.cmd.AddCommand(s.searchCmd.Command())

	return s
}

// Command returns the underlying cobra command
func (s *ShopsCommand) Command() *cobra.Command {
	return s.cmd
}

// Root returns the parent root command
func (s *ShopsCommand) Root() *RootCommand {
	return s.root
}

// ShopsSearchCommand represents the shops search command
type ShopsSearchCommand struct {
	parent *ShopsCommand
	cmd    *cobra.Command

	// ask prompts for the query when none is given; replaced in tests
	ask func(message string) (string, error)
}

// NewShopsSearchCommand creates a new shops search command
func NewShopsSearchCommand(parent *ShopsCommand) *ShopsSearchCommand {
	s := &ShopsSearchCommand{
		parent: parent,
		ask:    surveyInput,
	}

	s.cmd = &cobra.Command{
		Use:   "search [query...]",
		Short: "Ask for a shop recommendation",
		Long: `Ask for a shop recommendation and watch the answer as it is written.

Progress messages go to stderr and the recommendation to stdout. With
-o json or -o yaml nothing is shown until the answer is complete.
Press Ctrl+C to stop; the partial answer is kept on screen.

Examples:
  schedly shops search quiet cafe with wifi --location Shibuya
  schedly shops search -o json ramen open late`,
		RunE: s.Run,
	}

	s.cmd.Flags().StringP("location", "l", "", "Area to search around")

	return s
}

// Command returns the underlying cobra command
func (s *ShopsSearchCommand) Command() *cobra.Command {
	return s.cmd
}

// Run executes the shops search command
func (s *ShopsSearchCommand) Run(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		var err error
		if query, err = s.ask("What are you looking for?"); err != nil {
			return err
		}
	}
	location, _ := cmd.Flags().GetString("location")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	live := outputFormat(cmd) == outputText
	var onEvent stream.Sink
	if live {
		onEvent = liveRenderer(os.Stdout, os.Stderr)
	}

	result, err := s.parent.Root().Container().ShopService().Search(ctx, &iface.SearchInput{
		Query:    query,
		Location: location,
	}, onEvent)
	if err != nil {
		return err
	}

	if ok, err := writeStructured(cmd, result); ok {
		return err
	}

	switch result.Outcome {
	case iface.SearchCancelled:
		fmt.Fprintln(os.Stderr, "\nCancelled.")
		return nil
	case iface.SearchErrored:
		return fmt.Errorf("search failed: %s", result.Error)
	}

	outputShops(os.Stdout, result.Shops)
	return nil
}

// liveRenderer writes text fragments to out as they arrive and progress
// messages to status
func liveRenderer(out, status io.Writer) stream.Sink {
	wrote := false
	return func(ev stream.Event) {
		switch ev.Type {
		case stream.EventText:
			io.WriteString(out, ev.Content)
			wrote = wrote || ev.Content != ""
		case stream.EventStatus:
			fmt.Fprintf(status, "… %s\n", ev.Message)
		case stream.EventDone, stream.EventError:
			if wrote {
				io.WriteString(out, "\n")
			}
		}
	}
}

func outputShops(w io.Writer, shops []iface.Shop) {
	if len(shops) == 0 {
		return
	}

	fmt.Fprintln(w, "\nShops:")
	for i, shop := range shops {
		fmt.Fprintf(w, "  %d. %s\n", i+1, shop.Name)
		if shop.Address != "" {
			fmt.Fprintf(w, "     %s\n", shop.Address)
		}
		if shop.URL != "" {
			fmt.Fprintf(w, "     %s\n", shop.URL)
		}
		if shop.Reason != "" {
			fmt.Fprintf(w, "     %s\n", shop.Reason)
		}
	}
}

func surveyInput(message string) (string, error) {
	var answer string
	err := survey.AskOne(&survey.Input{
		Message: message,
	}, &answer, survey.WithValidator(survey.Required))
	return strings.TrimSpace(answer), err
}
