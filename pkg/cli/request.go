package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"sweetbox/pkg/models"
)

// NewRequestCommand creates the request command group.
func NewRequestCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Submit and review leave requests",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "leave <employee-id> <start> <end> [reason...]",
		Short: "Ask for leave between two days (YYYY-MM-DD, inclusive)",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := models.ParseDate(args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid start date", err)
			}
			end, err := models.ParseDate(args[2])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid end date", err)
			}
			return opts.run(cmd, func(s *session) error {
				r, err := s.eng.Requests.SubmitLeave(args[0], start, end, strings.Join(args[3:], " "))
				if err != nil {
					return err
				}
				return s.out.Message(r, "request %s submitted", r.ID)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List pending requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				pending := s.eng.Requests.Pending()
				rows := make([][]string, 0, len(pending))
				for _, r := range pending {
					span := "-"
					if r.StartDate != nil && r.EndDate != nil {
						span = string(*r.StartDate) + ".." + string(*r.EndDate)
					}
					reason := "-"
					if r.Reason != nil {
						reason = *r.Reason
					}
					rows = append(rows, []string{r.ID, r.EmployeeID, string(r.RequestType), span, reason})
				}
				return s.out.Table(pending, []string{"ID", "EMPLOYEE", "TYPE", "DAYS", "REASON"}, rows)
			})
		},
	})

	for _, approve := range []bool{true, false} {
		approve := approve
		use := "approve"
		if !approve {
			use = "reject"
		}
		var reviewer string
		review := &cobra.Command{
			Use:   use + " <request-id>",
			Short: strings.ToUpper(use[:1]) + use[1:] + " a pending request",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.run(cmd, func(s *session) error {
					r, err := s.eng.Requests.Review(args[0], approve, s.actor(reviewer))
					if err != nil {
						return err
					}
					return s.out.Message(r, "request %s %s", r.ID, r.Status)
				})
			},
		}
		review.Flags().StringVar(&reviewer, "by", "", "reviewer (default: config actor)")
		cmd.AddCommand(review)
	}

	return cmd
}
