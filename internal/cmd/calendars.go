package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	iface "github.com/schedly/schedly-cli/internal/service/interface"
)

// CalendarsCommand represents the calendars command group
type CalendarsCommand struct {
	root *RootCommand
	cmd  *cobra.Command

	// Subcommands
	listCmd *CalendarsListCommand
	getCmd  *CalendarsGetCommand
}

// NewCalendarsCommand creates a new calendars command
func NewCalendarsCommand(root *RootCommand) *CalendarsCommand {
	c := &CalendarsCommand{
		root: root,
	}

	c.cmd = &cobra.Command{
		Use:     "calendars",
		Aliases: []string{"calendar", "cal"},
		Short:   "View your calendars",
		Long: `View the calendars you own or that are shared with you.

Use 'schedly schedules' to see what is on a calendar.`,
	}

	c.listCmd = NewCalendarsListCommand(c)
	c.getCmd = NewCalendarsGetCommand(c)

	c.cmd.AddCommand(c.listCmd.Command())
	c.cmd.AddCommand(c.getCmd.Command())

	return c
}

// Command returns the underlying cobra command
func (c *CalendarsCommand) Command() *cobra.Command {
	return c.cmd
}

// Root returns the parent root command
func (c *CalendarsCommand) Root() *RootCommand {
	return c.root
}

// CalendarsListCommand represents the calendars list command
type CalendarsListCommand struct {
	parent *CalendarsCommand
	cmd    *cobra.Command
}

// NewCalendarsListCommand creates a new calendars list command
func NewCalendarsListCommand(parent *CalendarsCommand) *CalendarsListCommand {
	l := &CalendarsListCommand{
		parent: parent,
	}

	l.cmd = &cobra.Command{
		Use:   "list",
		Short: "List all calendars",
		Long: `List all calendars visible to your schedly account.

Examples:
  schedly calendars list
  schedly calendars list -o json`,
		Args: cobra.NoArgs,
		RunE: l.Run,
	}

	return l
}

// Command returns the underlying cobra command
func (l *CalendarsListCommand) Command() *cobra.Command {
	return l.cmd
}

// Run executes the calendars list command
func (l *CalendarsListCommand) Run(cmd *cobra.Command, args []string) error {
	calendars, err := l.parent.Root().Container().CalendarService().ListCalendars(cmd.Context())
	if err != nil {
		return err
	}

	if ok, err := writeStructured(cmd, calendars); ok {
		return err
	}
	return l.outputTable(calendars)
}

// outputTable outputs calendars in table format
func (l *CalendarsListCommand) outputTable(calendars []iface.Calendar) error {
	if len(calendars) == 0 {
		fmt.Println("No calendars found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIMEZONE\tOWNER\tSHARED")
	fmt.Fprintln(w, "--\t----\t--------\t-----\t------")

	for _, c := range calendars {
		shared := "no"
		if c.Shared {
			shared = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			c.ID,
			c.Name,
			c.Timezone,
			c.Owner,
			shared,
		)
	}

	return w.Flush()
}

// CalendarsGetCommand represents the calendars get command
type CalendarsGetCommand struct {
	parent *CalendarsCommand
	cmd    *cobra.Command
}

// NewCalendarsGetCommand creates a new calendars get command
func NewCalendarsGetCommand(parent *CalendarsCommand) *CalendarsGetCommand {
	g := &CalendarsGetCommand{
		parent: parent,
	}

	g.cmd = &cobra.Command{
		Use:   "get <calendar-id>",
		Short: "Get a calendar by ID",
		Long: `Get detailed information about a specific calendar.

Examples:
  schedly calendars get cal_01HV3K
  schedly calendars get cal_01HV3K -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: g.Run,
	}

	return g
}

// Command returns the underlying cobra command
func (g *CalendarsGetCommand) Command() *cobra.Command {
	return g.cmd
}

// Run executes the calendars get command
func (g *CalendarsGetCommand) Run(cmd *cobra.Command, args []string) error {
	calendar, err := g.parent.Root().Container().CalendarService().GetCalendar(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if ok, err := writeStructured(cmd, calendar); ok {
		return err
	}

	fmt.Printf("Calendar: %s\n", calendar.Name)
	fmt.Printf("ID:       %s\n", calendar.ID)
	fmt.Printf("Timezone: %s\n", calendar.Timezone)
	fmt.Printf("Owner:    %s\n", calendar.Owner)
	if calendar.Description != "" {
		fmt.Printf("Description: %s\n", calendar.Description)
	}
	if !calendar.CreatedAt.IsZero() {
		fmt.Printf("Created:  %s\n", calendar.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("\nSchedules: schedly schedules list %s\n", calendar.ID)

	return nil
}
