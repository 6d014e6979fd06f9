package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sweetbox/pkg/models"
)

func servedOrder(id string, total float64, servedAt time.Time) models.Order {
	return models.Order{ID: id, Total: total, Status: models.OrderStatusServed, Timestamp: servedAt.Add(-time.Hour), ServedAt: &servedAt}
}

func TestRecalculateGroupsByServedDay(t *testing.T) {
	orders := []models.Order{
		servedOrder("a", 10, at(12, 0)),
		servedOrder("b", 5, at(23, 0).Add(-24*time.Hour)),
		servedOrder("c", 2.5, at(18, 0)),
		{ID: "d", Total: 99, Status: models.OrderStatusReady, Timestamp: at(9, 0)},
		func() models.Order {
			o := servedOrder("e", 50, at(13, 0))
			o.Archived = true
			return o
		}(),
	}
	got := Recalculate(orders, time.UTC)
	assert.Equal(t, []models.SalesHistoryEntry{
		{ID: "sale-2026-03-09", Date: "2026-03-09", Total: 5, OrdersCount: 1},
		{ID: "sale-2026-03-10", Date: "2026-03-10", Total: 12.5, OrdersCount: 2},
	}, got)
}

func TestRecalculateUsesLocationForDay(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	orders := []models.Order{servedOrder("a", 10, time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC))}
	got := Recalculate(orders, loc)
	require.Len(t, got, 1)
	assert.Equal(t, models.Date("2026-03-09"), got[0].Date)
}

func TestAccrueMatchesRecalculate(t *testing.T) {
	e, _ := newTestEngine(t)
	for _, total := range []float64{12, 7.5, 3} {
		res, err := e.Orders.Create(OrderInput{Lines: []LineInput{{Source: models.LineSourceCustom, Name: "Tea", Qty: 1, UnitPrice: total}}})
		require.NoError(t, err)
		_, err = e.Orders.SetStatus(res.Order.ID, models.OrderStatusServed)
		require.NoError(t, err)
	}
	incremental := e.Sales.History()
	rebuilt := e.Sales.RecalculateAll()
	assert.Equal(t, incremental, rebuilt)
	assert.Equal(t, rebuilt, e.Sales.RecalculateAll(), "recalculation is idempotent")
}

func TestAccrueCreatesBucket(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Sales.Accrue(4, "2026-03-01")
	got := e.Sales.Accrue(6, "2026-03-01")
	assert.Equal(t, models.SalesHistoryEntry{ID: "sale-2026-03-01", Date: "2026-03-01", Total: 10, OrdersCount: 2}, got)
	assert.Len(t, e.Sales.Range("2026-03-01", "2026-03-31"), 1)
	assert.Zero(t, e.Sales.Yesterday().Total)
}

func TestRecalculateMarksRemovedBucketsDeleted(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Sales.Accrue(4, "2026-02-01")

	var changes []Change
	e.Subscribe(func(c Change) { changes = append(changes, c) })
	assert.Empty(t, e.Sales.RecalculateAll())
	assert.Equal(t, []Change{{Kind: KindSalesHistory, ID: "sale-2026-02-01", Op: OpDelete}}, changes)
}
