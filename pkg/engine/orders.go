package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"sweetbox/pkg/models"
)

// DefaultCustomer labels orders taken without a name.
const DefaultCustomer = "Walk-in"

// LineInput is one requested order line.
type LineInput struct {
	Source    models.LineSource
	ItemID    string
	Name      string
	Qty       float64
	UnitPrice float64
}

// OrderInput is a new order as submitted by the till.
type OrderInput struct {
	Customer string
	Type     string
	Status   models.OrderStatus
	Lines    []LineInput
	// Total overrides the computed sum of line subtotals when set.
	Total *float64
}

// CreateResult carries the new order and any stock shortages its reservations hit.
type CreateResult struct {
	Order     models.Order
	Shortages []*QuantityShortage
}

// OrderStats counts active orders by status.
type OrderStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Preparing int `json:"preparing"`
	Ready     int `json:"ready"`
	Served    int `json:"served"`
}

// Orders owns the pending -> preparing -> ready -> served lifecycle.
type Orders struct {
	st     *State
	ledger *Ledger
	sales  *Sales
}

func (o *Orders) index(id string) int {
	return indexOf(o.st.data.Orders, id, func(x models.Order) string { return x.ID })
}

// Create validates the lines, reserves stock for inventory and supplies
// lines, and puts the order at the head of the collection.
func (o *Orders) Create(in OrderInput) (CreateResult, error) {
	if len(in.Lines) == 0 {
		return CreateResult{}, invalid("lines", "at least one item is required")
	}
	status := models.OrderStatusPending
	if in.Status != "" {
		if !in.Status.Valid() {
			return CreateResult{}, invalid("status", "unknown status %q", in.Status)
		}
		status = in.Status
	}

	lines := make(models.OrderLines, 0, len(in.Lines))
	var total float64
	for i, li := range in.Lines {
		src := li.Source
		if src == "" {
			src = models.LineSourceCustom
			if li.ItemID != "" {
				src = models.LineSourceInventory
			}
		}
		switch src {
		case models.LineSourceInventory, models.LineSourceSupplies, models.LineSourceCustom:
		default:
			return CreateResult{}, invalid(fmt.Sprintf("lines[%d].source", i), "unknown source %q", src)
		}
		if src.Reserves() && li.ItemID == "" {
			return CreateResult{}, invalid(fmt.Sprintf("lines[%d].id", i), "an inventory item is required")
		}
		qty := nonNegative(li.Qty)
		if qty == 0 {
			return CreateResult{}, invalid(fmt.Sprintf("lines[%d].qty", i), "must be greater than zero")
		}
		if src == models.LineSourceCustom && strings.TrimSpace(li.Name) == "" {
			return CreateResult{}, invalid(fmt.Sprintf("lines[%d].name", i), "is required")
		}
		price := nonNegative(li.UnitPrice)
		line := models.OrderLine{
			Source:    src,
			ItemID:    li.ItemID,
			Name:      strings.TrimSpace(li.Name),
			Qty:       qty,
			UnitPrice: price,
			Subtotal:  qty * price,
		}
		total += line.Subtotal
		lines = append(lines, line)
	}
	if in.Total != nil {
		total = nonNegative(*in.Total)
	}

	var res CreateResult
	err := o.st.update(func() error {
		for i := range lines {
			line := &lines[i]
			if !line.Source.Reserves() {
				continue
			}
			if j := o.ledger.index(line.ItemID); j >= 0 && line.Name == "" {
				line.Name = o.st.data.Inventory[j].Name
			}
			short, err := o.ledger.reserve(line.ItemID, line.Qty)
			if err != nil {
				o.st.log.Warn("order line references missing inventory item, not reserved",
					zap.String("item", line.ItemID))
				continue
			}
			if short != nil {
				res.Shortages = append(res.Shortages, short)
			}
		}

		now := o.st.now()
		order := models.Order{
			ID:        o.newOrderID(now),
			Customer:  strings.TrimSpace(in.Customer),
			Items:     summarize(lines),
			Lines:     lines,
			Total:     total,
			Status:    status,
			Type:      models.NormalizeOrderType(in.Type),
			Timestamp: now,
		}
		if order.Customer == "" {
			order.Customer = DefaultCustomer
		}
		if status == models.OrderStatusServed {
			order.ServedAt = &now
			o.sales.accrue(order.Total, o.st.dayOf(now))
		}
		o.st.data.Orders = append([]models.Order{order}, o.st.data.Orders...)
		o.st.touch(KindOrders, order.ID, OpUpsert)
		res.Order = order
		return nil
	})
	return res, err
}

// newOrderID derives "ord-<unix ms>", suffixed when two orders share a millisecond.
func (o *Orders) newOrderID(now time.Time) string {
	base := fmt.Sprintf("ord-%d", now.UnixMilli())
	id := base
	for n := 2; o.index(id) >= 0; n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	return id
}

func summarize(lines models.OrderLines) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, fmt.Sprintf("%gx %s", l.Qty, l.Name))
	}
	return strings.Join(parts, ", ")
}

// SetStatus moves an order to status. Entering served stamps servedAt and
// accrues the sale; leaving served clears servedAt and rebuilds sales history.
// Setting the current status again is a no-op.
func (o *Orders) SetStatus(id string, status models.OrderStatus) (models.Order, error) {
	if !status.Valid() {
		return models.Order{}, invalid("status", "unknown status %q", status)
	}
	var out models.Order
	err := o.st.update(func() error {
		i := o.index(id)
		if i < 0 {
			return notFound(KindOrders, id)
		}
		order := &o.st.data.Orders[i]
		if order.Archived {
			return invalid("status", "order %s is archived", id)
		}
		prev := order.Status
		if prev == status {
			out = *order
			return nil
		}
		order.Status = status
		switch {
		case status == models.OrderStatusServed:
			now := o.st.now()
			order.ServedAt = &now
			o.sales.accrue(order.Total, o.st.dayOf(now))
		case prev == models.OrderStatusServed:
			order.ServedAt = nil
			o.sales.recalculate()
		}
		o.st.touch(KindOrders, order.ID, OpUpsert)
		out = *order
		return nil
	})
	return out, err
}

// Delete releases every reserved line and removes the order.
func (o *Orders) Delete(id string) error {
	return o.st.update(func() error {
		i := o.index(id)
		if i < 0 {
			return notFound(KindOrders, id)
		}
		o.remove(i)
		return nil
	})
}

// remove must run under the state lock.
func (o *Orders) remove(i int) {
	order := o.st.data.Orders[i]
	for _, line := range order.Lines {
		if !line.Source.Reserves() || line.ItemID == "" {
			continue
		}
		if err := o.ledger.release(line.ItemID, line.Qty); err != nil {
			o.st.log.Warn("inventory item gone, release skipped",
				zap.String("order", order.ID),
				zap.String("item", line.ItemID),
				zap.Float64("qty", line.Qty))
		}
	}
	o.st.data.Orders = append(o.st.data.Orders[:i], o.st.data.Orders[i+1:]...)
	o.st.touch(KindOrders, order.ID, OpDelete)
	if order.Status == models.OrderStatusServed {
		o.sales.recalculate()
	}
}

// Get returns one order, archived or not.
func (o *Orders) Get(id string) (models.Order, bool) {
	var (
		out models.Order
		ok  bool
	)
	o.st.view(func() {
		if i := o.index(id); i >= 0 {
			out, ok = o.st.data.Orders[i], true
		}
	})
	return out, ok
}

// Active returns non-archived orders, newest first.
func (o *Orders) Active() []models.Order {
	var out []models.Order
	o.st.view(func() {
		for _, x := range o.st.data.Orders {
			if !x.Archived {
				out = append(out, x)
			}
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}

// Recent returns up to n active orders, newest first.
func (o *Orders) Recent(n int) []models.Order {
	all := o.Active()
	if n >= 0 && len(all) > n {
		return all[:n]
	}
	return all
}

// Search matches active orders by id, customer or item summary, case-insensitively.
func (o *Orders) Search(q string) []models.Order {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return o.Active()
	}
	var out []models.Order
	for _, x := range o.Active() {
		if strings.Contains(strings.ToLower(x.ID), q) ||
			strings.Contains(strings.ToLower(x.Customer), q) ||
			strings.Contains(strings.ToLower(x.Items), q) {
			out = append(out, x)
		}
	}
	return out
}

// Stats counts active orders by status.
func (o *Orders) Stats() OrderStats {
	var s OrderStats
	for _, x := range o.Active() {
		s.Total++
		switch x.Status {
		case models.OrderStatusPending:
			s.Pending++
		case models.OrderStatusPreparing:
			s.Preparing++
		case models.OrderStatusReady:
			s.Ready++
		case models.OrderStatusServed:
			s.Served++
		}
	}
	return s
}
