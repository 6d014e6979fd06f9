package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"sweetbox/pkg/engine"
	"sweetbox/pkg/models"
)

// StockOptions holds flags for the stock command.
type StockOptions struct {
	*RootOptions
	Low      bool
	Expiring int
	Restock  string
	Quantity float64
}

type stockRow struct {
	models.InventoryItem
	Class     engine.StockClass    `json:"class"`
	Condition engine.ItemCondition `json:"condition"`
}

// NewStockCommand creates the stock command.
func NewStockCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StockOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stock",
		Short: "List inventory with stock classification",
		Long: `List inventory with its stock class (healthy, low, outOfStock) and
condition badge, followed by totals.

Example:
  till stock --low
  till stock --expiring 3
  till stock --restock inv-milk --qty 12`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				return runStock(s, opts)
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Low, "low", false, "only items below their low-stock threshold")
	cmd.Flags().IntVar(&opts.Expiring, "expiring", -1, "only items expiring within N days")
	cmd.Flags().StringVar(&opts.Restock, "restock", "", "item id to restock")
	cmd.Flags().Float64Var(&opts.Quantity, "qty", 0, "quantity to add with --restock")

	return cmd
}

func runStock(s *session, opts *StockOptions) error {
	if opts.Restock != "" {
		item, err := s.eng.Inventory.Restock(opts.Restock, opts.Quantity)
		if err != nil {
			return err
		}
		return s.out.Message(item, "%s restocked to %s %s", item.Name, qty(item.Quantity), item.Unit)
	}

	var items []models.InventoryItem
	switch {
	case opts.Low:
		items = s.eng.Inventory.LowStock()
	case opts.Expiring >= 0:
		items = s.eng.Inventory.ExpiringWithin(opts.Expiring)
	default:
		items = s.eng.Inventory.Items()
	}

	today := s.today()
	out := make([]stockRow, 0, len(items))
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		r := stockRow{InventoryItem: it, Class: engine.Classify(it), Condition: engine.Condition(it, today)}
		out = append(out, r)
		expires := "-"
		if d := it.ExpiresOn(); d != nil {
			expires = string(*d)
		}
		rows = append(rows, []string{it.ID, it.Name, string(it.Category), qty(it.Quantity) + " " + it.Unit,
			string(r.Class), string(r.Condition), expires})
	}

	if s.out.Format == "json" {
		return s.out.JSON(map[string]interface{}{"items": out, "stats": s.eng.Inventory.Stats()})
	}
	if err := s.out.Table(out, []string{"ID", "NAME", "CATEGORY", "QTY", "CLASS", "CONDITION", "EXPIRES"}, rows); err != nil {
		return err
	}
	st := s.eng.Inventory.Stats()
	_, err := fmt.Fprintf(s.out.Writer, "\n%d items, %d low, %d out, %d expiring soon, %d expired, stock value %s\n",
		st.TotalItems, st.LowStock, st.OutOfStock, st.ExpiringSoon, st.Expired, money(st.StockValue))
	return err
}
