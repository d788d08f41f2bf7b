package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	iface "github.com/schedly/schedly-cli/internal/service/interface"
)

const dateLayout = "2006-01-02"

// SchedulesCommand represents the schedules command group
type SchedulesCommand struct {
	root *RootCommand
	cmd  *cobra.Command

	// Subcommands
	listCmd   *SchedulesListCommand
	deleteCmd *SchedulesDeleteCommand
}

// NewSchedulesCommand creates a new schedules command
func NewSchedulesCommand(root *RootCommand) *SchedulesCommand {
	s := &SchedulesCommand{
		root: root,
	}

	s.cmd = &cobra.Command{
		Use:     "schedules",
		Aliases: []string{"schedule"},
		Short:   "Manage the schedules of a calendar",
	}

	s.listCmd = NewSchedulesListCommand(s)
	s.deleteCmd = NewSchedulesDeleteCommand(s)

	s.cmd.AddCommand(s.listCmd.Command())
	s.cmd.AddCommand(s.deleteCmd.Command())

	return s
}

// Command returns the underlying cobra command
func (s *SchedulesCommand) Command() *cobra.Command {
	return s.cmd
}

// Root returns the parent root command
func (s *SchedulesCommand) Root() *RootCommand {
	return s.root
}

// SchedulesListCommand represents the schedules list command
type SchedulesListCommand struct {
	parent *SchedulesCommand
	cmd    *cobra.Command
}

// NewSchedulesListCommand creates a new schedules list command
func NewSchedulesListCommand(parent *SchedulesCommand) *SchedulesListCommand {
	l := &SchedulesListCommand{
		parent: parent,
	}

	l.cmd = &cobra.Command{
		Use:   "list <calendar-id>",
		Short: "List the schedules of a calendar",
		Long: `List the schedules of a calendar, optionally between two dates.

Dates are YYYY-MM-DD in local time; --to is inclusive.

Examples:
  schedly schedules list cal_01HV3K
  schedly schedules list cal_01HV3K --from 2026-03-01 --to 2026-03-31 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: l.Run,
	}

	l.cmd.Flags().String("from", "", "First day to include (YYYY-MM-DD)")
	l.cmd.Flags().String("to", "", "Last day to include (YYYY-MM-DD)")

	return l
}

// Command returns the underlying cobra command
func (l *SchedulesListCommand) Command() *cobra.Command {
	return l.cmd
}

// Run executes the schedules list command
func (l *SchedulesListCommand) Run(cmd *cobra.Command, args []string) error {
	r, err := parseRange(cmd)
	if err != nil {
		return err
	}

	schedules, err := l.parent.Root().Container().CalendarService().ListSchedules(cmd.Context(), args[0], r)
	if err != nil {
		return err
	}

	if ok, err := writeStructured(cmd, schedules); ok {
		return err
	}
	return l.outputTable(schedules)
}

// parseRange reads --from and --to. --to covers its whole day.
func parseRange(cmd *cobra.Command) (iface.ScheduleRange, error) {
	var r iface.ScheduleRange

	from, _ := cmd.Flags().GetString("from")
	if from != "" {
		t, err := time.ParseInLocation(dateLayout, from, time.Local)
		if err != nil {
			return r, fmt.Errorf("invalid --from date %q: expected YYYY-MM-DD", from)
		}
		r.From = t
	}

	to, _ := cmd.Flags().GetString("to")
	if to != "" {
		t, err := time.ParseInLocation(dateLayout, to, time.Local)
		if err != nil {
			return r, fmt.Errorf("invalid --to date %q: expected YYYY-MM-DD", to)
		}
		r.To = t.AddDate(0, 0, 1)
	}

	return r, nil
}

// outputTable outputs schedules in table format
func (l *SchedulesListCommand) outputTable(schedules []iface.Schedule) error {
	if len(schedules) == 0 {
		fmt.Println("No schedules found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTART\tEND\tLOCATION")
	fmt.Fprintln(w, "--\t-----\t-----\t---\t--------")

	for _, s := range schedules {
		start, end := s.StartAt.Local().Format("2006-01-02 15:04"), s.EndAt.Local().Format("2006-01-02 15:04")
		if s.AllDay {
			start, end = s.StartAt.Format(dateLayout), "all day"
		}
		location := s.Location
		if location == "" {
			location = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.Title, start, end, location)
	}

	return w.Flush()
}

// SchedulesDeleteCommand represents the schedules delete command
type SchedulesDeleteCommand struct {
	parent *SchedulesCommand
	cmd    *cobra.Command

	// confirm asks before deleting; replaced in tests
	confirm func(message string) (bool, error)
}

// NewSchedulesDeleteCommand creates a new schedules delete command
func NewSchedulesDeleteCommand(parent *SchedulesCommand) *SchedulesDeleteCommand {
	d := &SchedulesDeleteCommand{
		parent:  parent,
		confirm: surveyConfirm,
	}

	d.cmd = &cobra.Command{
		Use:   "delete <schedule-id>",
		Short: "Delete a schedule",
		Long: `Delete a schedule. You will be asked to confirm unless --yes is given.

Examples:
  schedly schedules delete sch_01HV3M
  schedly schedules delete sch_01HV3M --yes`,
		Args: cobra.ExactArgs(1),
		RunE: d.Run,
	}

	d.cmd.Flags().BoolP("yes", "y", false, "Skip confirmation prompt")

	return d
}

// Command returns the underlying cobra command
func (d *SchedulesDeleteCommand) Command() *cobra.Command {
	return d.cmd
}

// Run executes the schedules delete command
func (d *SchedulesDeleteCommand) Run(cmd *cobra.Command, args []string) error {
	scheduleID := args[0]

	skipConfirm, _ := cmd.Flags().GetBool("yes")
	if !skipConfirm {
		ok, err := d.confirm(fmt.Sprintf("Delete schedule %q?", scheduleID))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := d.parent.Root().Container().CalendarService().DeleteSchedule(cmd.Context(), scheduleID); err != nil {
		return err
	}

	fmt.Printf("✓ Schedule %s deleted.\n", scheduleID)
	return nil
}

func surveyConfirm(message string) (bool, error) {
	var confirm bool
	err := survey.AskOne(&survey.Confirm{
		Message: message,
		Default: false,
	}, &confirm)
	return confirm, err
}
