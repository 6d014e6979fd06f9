package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"sweetbox/pkg/models"
)

// NewClockCommand creates the clock command group.
func NewClockCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clock",
		Short: "Record attendance: clock in/out, sick or absent",
	}

	var note string

	in := &cobra.Command{
		Use:   "in <employee-id>",
		Short: "Clock in (a note is required when late)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				l, err := s.eng.Attendance.ClockIn(args[0], note)
				if err != nil {
					return err
				}
				return printLog(s, l)
			})
		},
	}
	in.Flags().StringVar(&note, "note", "", "note, required for a late clock-in")

	out := &cobra.Command{
		Use:   "out <employee-id>",
		Short: "Clock out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				l, err := s.eng.Attendance.ClockOut(args[0], note)
				if err != nil {
					return err
				}
				return printLog(s, l)
			})
		},
	}
	out.Flags().StringVar(&note, "note", "", "optional note")

	cmd.AddCommand(in, out,
		unavailableCommand(opts, models.ActionSick),
		unavailableCommand(opts, models.ActionAbsent))

	return cmd
}

func unavailableCommand(opts *RootOptions, action models.AttendanceAction) *cobra.Command {
	return &cobra.Command{
		Use:   string(action) + " <employee-id> <reason...>",
		Short: "Mark an employee " + string(action) + " for today",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				l, err := s.eng.Attendance.MarkUnavailable(args[0], action, strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				return printLog(s, l)
			})
		},
	}
}

func printLog(s *session, l models.AttendanceLog) error {
	note := ""
	if l.Note != nil {
		note = ": " + *l.Note
	}
	at := l.Timestamp.In(s.eng.Location()).Format("15:04")
	return s.out.Message(l, "%s %s at %s%s", l.EmployeeID, l.Action, at, note)
}
