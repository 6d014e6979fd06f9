package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"sweetbox/pkg/engine"
	"sweetbox/pkg/models"
)

// OrderCreateOptions holds flags for order create.
type OrderCreateOptions struct {
	*RootOptions
	Customer string
	Type     string
	Status   string
	Items    []string
	Supplies []string
	Custom   []string
	Total    float64
}

// NewOrderCommand creates the order command group.
func NewOrderCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Create, advance, delete and list orders",
	}

	cmd.AddCommand(newOrderCreateCommand(opts))
	cmd.AddCommand(newOrderStatusCommand(opts))
	cmd.AddCommand(newOrderDeleteCommand(opts))
	cmd.AddCommand(newOrderListCommand(opts))

	return cmd
}

func newOrderCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OrderCreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an order, reserving stock for inventory lines",
		Long: `Create an order. Inventory and supplies lines reserve stock; custom
lines do not. A line is written id:qty[@price] (name:qty@price for custom).

Example:
  till order create --item inv-choc-cake:2@6.5 --custom "Candles:1@2" --type takeout`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := opts.input(cmd)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid order", err)
			}
			return opts.run(cmd, func(s *session) error {
				res, err := s.eng.Orders.Create(in)
				if err != nil {
					return err
				}
				s.reportShortages(res.Shortages)
				o := res.Order
				return s.out.Message(o, "%s created: %s, total %s (%s)", o.ID, o.Items, money(o.Total), o.Status)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Customer, "customer", "", "customer or table label (default Walk-in)")
	cmd.Flags().StringVar(&opts.Type, "type", "dine-in", "dine-in|takeout|delivery")
	cmd.Flags().StringVar(&opts.Status, "status", "", "initial status (default pending)")
	cmd.Flags().StringArrayVar(&opts.Items, "item", nil, "inventory line id:qty[@price]")
	cmd.Flags().StringArrayVar(&opts.Supplies, "supply", nil, "supplies line id:qty[@price]")
	cmd.Flags().StringArrayVar(&opts.Custom, "custom", nil, "custom line name:qty@price")
	cmd.Flags().Float64Var(&opts.Total, "total", 0, "override the computed total")

	return cmd
}

func (o *OrderCreateOptions) input(cmd *cobra.Command) (engine.OrderInput, error) {
	in := engine.OrderInput{
		Customer: o.Customer,
		Type:     o.Type,
		Status:   models.OrderStatus(o.Status),
	}
	groups := []struct {
		src   models.LineSource
		specs []string
	}{
		{models.LineSourceInventory, o.Items},
		{models.LineSourceSupplies, o.Supplies},
		{models.LineSourceCustom, o.Custom},
	}
	for _, g := range groups {
		for _, spec := range g.specs {
			line, err := parseLine(g.src, spec)
			if err != nil {
				return in, err
			}
			in.Lines = append(in.Lines, line)
		}
	}
	if cmd.Flags().Changed("total") {
		total := o.Total
		in.Total = &total
	}
	return in, nil
}

// parseLine reads "ref:qty[@price]". ref is an item id, or the name of a custom line.
func parseLine(src models.LineSource, spec string) (engine.LineInput, error) {
	i := strings.LastIndex(spec, ":")
	if i <= 0 {
		return engine.LineInput{}, fmt.Errorf("line %q: want ref:qty[@price]", spec)
	}
	ref, rest := spec[:i], spec[i+1:]

	price := 0.0
	if j := strings.Index(rest, "@"); j >= 0 {
		p, err := strconv.ParseFloat(rest[j+1:], 64)
		if err != nil {
			return engine.LineInput{}, fmt.Errorf("line %q: bad price: %w", spec, err)
		}
		price = p
		rest = rest[:j]
	}
	q, err := strconv.ParseFloat(rest, 64)
	if err != nil {
		return engine.LineInput{}, fmt.Errorf("line %q: bad quantity: %w", spec, err)
	}

	line := engine.LineInput{Source: src, Qty: q, UnitPrice: price}
	if src == models.LineSourceCustom {
		line.Name = ref
	} else {
		line.ItemID = ref
	}
	return line, nil
}

func newOrderStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <order-id> <pending|preparing|ready|served>",
		Short: "Move an order to a new status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				o, err := s.eng.Orders.SetStatus(args[0], models.OrderStatus(args[1]))
				if err != nil {
					return err
				}
				return s.out.Message(o, "%s is now %s", o.ID, o.Status)
			})
		},
	}
}

func newOrderDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <order-id>",
		Short: "Delete an order and release its reserved stock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				if err := s.eng.Orders.Delete(args[0]); err != nil {
					return err
				}
				return s.out.Message(map[string]string{"id": args[0]}, "%s deleted, stock released", args[0])
			})
		},
	}
}

func newOrderListCommand(opts *RootOptions) *cobra.Command {
	var (
		limit  int
		search string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent orders, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				orders := s.eng.Orders.Recent(limit)
				if search != "" {
					orders = s.eng.Orders.Search(search)
				}
				loc := s.eng.Location()
				rows := make([][]string, 0, len(orders))
				for _, o := range orders {
					rows = append(rows, []string{o.ID, o.Timestamp.In(loc).Format("01-02 15:04"), o.Customer,
						string(o.Type), string(o.Status), money(o.Total), o.Items})
				}
				if err := s.out.Table(orders, []string{"ID", "TIME", "CUSTOMER", "TYPE", "STATUS", "TOTAL", "ITEMS"}, rows); err != nil {
					return err
				}
				if s.out.Format == "json" {
					return nil
				}
				st := s.eng.Orders.Stats()
				_, err := fmt.Fprintf(s.out.Writer, "\n%d active: %d pending, %d preparing, %d ready, %d served\n",
					st.Total, st.Pending, st.Preparing, st.Ready, st.Served)
				return err
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of orders")
	cmd.Flags().StringVarP(&search, "search", "s", "", "match id, customer or items")

	return cmd
}
