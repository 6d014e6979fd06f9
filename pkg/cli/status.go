package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sweetbox/pkg/engine"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(opts *RootOptions) *cobra.Command {
	var trendDays int

	cmd := &cobra.Command{
		Use:   "status [employee-id]",
		Short: "Show today's attendance status of the staff",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				if trendDays > 0 {
					return printTrend(s, trendDays)
				}
				statuses := s.eng.Attendance.Snapshot()
				if len(args) == 1 {
					st, err := s.eng.Attendance.Status(args[0])
					if err != nil {
						return err
					}
					statuses = []engine.EmployeeStatus{st}
				}
				return printStatuses(s, statuses)
			})
		},
	}

	cmd.Flags().IntVar(&trendDays, "trend", 0, "show present/late/on-leave counts for the last N days instead")

	return cmd
}

func printStatuses(s *session, statuses []engine.EmployeeStatus) error {
	loc := s.eng.Location()
	rows := make([][]string, 0, len(statuses))
	for _, st := range statuses {
		status := string(st.Status)
		if st.Detail != "" {
			status += " (" + string(st.Detail) + ")"
		}
		firstIn := "-"
		if st.FirstIn != nil {
			firstIn = st.FirstIn.In(loc).Format("15:04")
		}
		late := "-"
		if st.LateBy > 0 {
			late = st.LateBy.Round(time.Minute).String()
		}
		rows = append(rows, []string{st.EmployeeID, st.Name, orDash(st.ShiftStart), status, firstIn, late})
	}
	return s.out.Table(statuses, []string{"ID", "NAME", "SHIFT", "STATUS", "IN", "LATE"}, rows)
}

func printTrend(s *session, days int) error {
	points := s.eng.Attendance.Trend(days)
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{string(p.Date), fmt.Sprint(p.Present), fmt.Sprint(p.Late), fmt.Sprint(p.OnLeave)})
	}
	return s.out.Table(points, []string{"DATE", "PRESENT", "LATE", "ON LEAVE"}, rows)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
