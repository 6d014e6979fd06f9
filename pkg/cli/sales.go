package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"sweetbox/pkg/models"
)

// NewSalesCommand creates the sales command.
func NewSalesCommand(opts *RootOptions) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "sales",
		Short: "Show daily sales totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				history := s.eng.Sales.History()
				if from != "" || to != "" {
					f, t, err := dateRange(from, to)
					if err != nil {
						return WrapExitError(ExitCommandError, "invalid range", err)
					}
					history = s.eng.Sales.Range(f, t)
				}
				if err := printSales(s, history); err != nil {
					return err
				}
				if s.out.Format == "json" {
					return nil
				}
				today, yesterday := s.eng.Sales.Today(), s.eng.Sales.Yesterday()
				_, err := fmt.Fprintf(s.out.Writer, "\ntoday %s (%d orders), yesterday %s (%d orders)\n",
					money(today.Total), today.OrdersCount, money(yesterday.Total), yesterday.OrdersCount)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day (YYYY-MM-DD)")

	cmd.AddCommand(&cobra.Command{
		Use:   "recalc",
		Short: "Rebuild sales history from served orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				return printSales(s, s.eng.Sales.RecalculateAll())
			})
		},
	})

	return cmd
}

func dateRange(from, to string) (models.Date, models.Date, error) {
	var f, t models.Date = "0000-01-01", "9999-12-31"
	var err error
	if from != "" {
		if f, err = models.ParseDate(from); err != nil {
			return "", "", err
		}
	}
	if to != "" {
		if t, err = models.ParseDate(to); err != nil {
			return "", "", err
		}
	}
	return f, t, nil
}

func printSales(s *session, history []models.SalesHistoryEntry) error {
	rows := make([][]string, 0, len(history))
	for _, e := range history {
		rows = append(rows, []string{string(e.Date), fmt.Sprint(e.OrdersCount), money(e.Total)})
	}
	return s.out.Table(history, []string{"DATE", "ORDERS", "TOTAL"}, rows)
}
