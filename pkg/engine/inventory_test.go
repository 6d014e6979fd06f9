package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sweetbox/pkg/models"
)

func TestClassifyThresholds(t *testing.T) {
	tests := []struct {
		category models.Category
		qty      float64
		want     StockClass
	}{
		{models.CategorySupplies, 9, StockLow},
		{models.CategorySupplies, 10, StockHealthy},
		{models.CategoryBeverages, 9.5, StockLow},
		{models.CategoryCakes, 4, StockLow},
		{models.CategoryCakes, 5, StockHealthy},
		{models.CategoryIngredients, 0, StockOutOfStock},
		{models.CategorySupplies, 0, StockOutOfStock},
		{"seasonal", 4, StockLow},
		{models.CategoryCakes, -3, StockOutOfStock},
	}
	for _, tt := range tests {
		got := Classify(models.InventoryItem{Category: tt.category, Quantity: tt.qty})
		assert.Equal(t, tt.want, got, "%s qty %g", tt.category, tt.qty)
	}
}

func TestConditionPrecedence(t *testing.T) {
	today := models.Date("2026-03-10")
	expired := models.Date("2026-03-09")
	soon := models.Date("2026-03-15")
	later := models.Date("2026-05-01")

	assert.Equal(t, ConditionOutOfStock, Condition(models.InventoryItem{Quantity: 0, UseByDate: &expired}, today))
	assert.Equal(t, ConditionExpired, Condition(models.InventoryItem{Quantity: 1, UseByDate: &expired}, today))
	assert.Equal(t, ConditionExpiringSoon, Condition(models.InventoryItem{Quantity: 1, ExpiryDate: &soon}, today))
	assert.Equal(t, ConditionLowStock, Condition(models.InventoryItem{Quantity: 1, UseByDate: &later}, today))
	assert.Equal(t, ConditionInStock, Condition(models.InventoryItem{Quantity: 100}, today))
}

func TestReserveAndRelease(t *testing.T) {
	e, _ := newTestEngine(t)

	short, err := e.Inventory.Reserve("inv-cake", 3)
	require.NoError(t, err)
	assert.Nil(t, short)
	item, _ := e.Inventory.Item("inv-cake")
	assert.Equal(t, 7.0, item.Quantity)

	require.NoError(t, e.Inventory.Release("inv-cake", 3))
	item, _ = e.Inventory.Item("inv-cake")
	assert.Equal(t, 10.0, item.Quantity)
}

func TestReserveClampsAndWarns(t *testing.T) {
	e, _ := newTestEngine(t)

	short, err := e.Inventory.Reserve("inv-milk", 9)
	require.NoError(t, err)
	require.NotNil(t, short)
	assert.Equal(t, 9.0, short.Requested)
	assert.Equal(t, 4.0, short.Deducted())
	assert.Contains(t, short.Error(), "Milk")

	item, _ := e.Inventory.Item("inv-milk")
	assert.Equal(t, 0.0, item.Quantity)
}

func TestReserveCoercesBadQuantities(t *testing.T) {
	e, _ := newTestEngine(t)

	for _, q := range []float64{math.NaN(), -5, math.Inf(1)} {
		short, err := e.Inventory.Reserve("inv-cake", q)
		require.NoError(t, err)
		assert.Nil(t, short)
	}
	require.NoError(t, e.Inventory.Release("inv-cake", -2))

	item, _ := e.Inventory.Item("inv-cake")
	assert.Equal(t, 10.0, item.Quantity)
}

func TestReserveUnknownItem(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.Inventory.Reserve("nope", 1)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLedgerMutationsMarkDirty(t *testing.T) {
	e, _ := newTestEngine(t)
	var changes []Change
	e.Subscribe(func(c Change) { changes = append(changes, c) })

	_, _ = e.Inventory.Reserve("inv-cake", 1)
	_ = e.Inventory.Release("inv-cups", 1)

	assert.Equal(t, []Change{
		{Kind: KindInventory, ID: "inv-cake", Op: OpUpsert},
		{Kind: KindInventory, ID: "inv-cups", Op: OpUpsert},
	}, changes)
}

func TestExpiringWithin(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.Inventory.UpsertItem(models.InventoryItem{ID: "inv-cream", Name: "Cream", Category: models.CategoryIngredients, Quantity: 3, ExpiryDate: ptr(models.Date("2026-03-10"))})
	require.NoError(t, err)
	_, err = e.Inventory.UpsertItem(models.InventoryItem{ID: "inv-old", Name: "Old Jam", Category: models.CategoryIngredients, Quantity: 3, ExpiryDate: ptr(models.Date("2026-03-01"))})
	require.NoError(t, err)

	got := e.Inventory.ExpiringWithin(3)
	require.Len(t, got, 2)
	assert.Equal(t, "inv-cream", got[0].ID)
	assert.Equal(t, "inv-milk", got[1].ID)

	assert.Len(t, e.Inventory.ExpiringWithin(0), 1)
}

func TestUpsertItemDefaultsAndPreservesCounters(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.Inventory.UpsertItem(models.InventoryItem{Category: models.CategoryCakes})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)

	created, err := e.Inventory.UpsertItem(models.InventoryItem{Name: "Lemon Tart", Category: models.CategoryCakes, Quantity: -1})
	require.NoError(t, err)
	assert.Equal(t, "pieces", created.Unit)
	assert.Equal(t, 10.0, created.ReorderPoint)
	assert.Equal(t, 0.0, created.Quantity)
	assert.Equal(t, "inv-1", created.ID)

	_, err = e.Inventory.RecordUsage(UsageInput{Lines: []UsageLine{{ItemID: "inv-cake", Quantity: 2}}, Reason: models.UsageReasonWaste})
	require.NoError(t, err)
	edited, err := e.Inventory.UpsertItem(models.InventoryItem{ID: "inv-cake", Name: "Dark Chocolate Cake", Category: models.CategoryCakes, Quantity: 12})
	require.NoError(t, err)
	assert.Equal(t, 2.0, edited.TotalUsed)
}

func TestRecordUsageBatchesAndClamps(t *testing.T) {
	e, _ := newTestEngine(t)

	res, err := e.Inventory.RecordUsage(UsageInput{
		Lines:  []UsageLine{{ItemID: "inv-cake", Quantity: 2}, {ItemID: "inv-milk", Quantity: 6}},
		Reason: models.UsageReasonSpoilage,
		Notes:  "fridge failure",
		Actor:  "u-ana",
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.BatchID)
	require.Len(t, res.Logs, 2)
	for _, l := range res.Logs {
		require.NotNil(t, l.BatchID)
		assert.Equal(t, res.BatchID, *l.BatchID)
	}
	require.Len(t, res.Shortages, 1)
	assert.Equal(t, 4.0, res.Logs[1].Quantity)

	milk, _ := e.Inventory.Item("inv-milk")
	assert.Equal(t, 0.0, milk.Quantity)
	assert.Equal(t, 4.0, milk.TotalUsed)
	assert.Len(t, e.Inventory.UsageBatch(res.BatchID), 2)
}

func TestRecordUsageSingleLineHasNoBatch(t *testing.T) {
	e, _ := newTestEngine(t)
	res, err := e.Inventory.RecordUsage(UsageInput{Lines: []UsageLine{{ItemID: "inv-cups", Quantity: 5}}, Reason: models.UsageReasonStaffConsumption})
	require.NoError(t, err)
	assert.Empty(t, res.BatchID)
	assert.Nil(t, res.Logs[0].BatchID)
}

func TestRecordUsageValidation(t *testing.T) {
	e, _ := newTestEngine(t)
	var verr *ValidationError

	_, err := e.Inventory.RecordUsage(UsageInput{Reason: models.UsageReasonWaste})
	assert.ErrorAs(t, err, &verr)

	_, err = e.Inventory.RecordUsage(UsageInput{Lines: []UsageLine{{ItemID: "inv-cake", Quantity: 1}}, Reason: "lost"})
	assert.ErrorAs(t, err, &verr)

	_, err = e.Inventory.RecordUsage(UsageInput{Lines: []UsageLine{{ItemID: "inv-cake", Quantity: 1}, {ItemID: "ghost", Quantity: 1}}, Reason: models.UsageReasonWaste})
	assert.ErrorAs(t, err, &verr)
	cake, _ := e.Inventory.Item("inv-cake")
	assert.Equal(t, 10.0, cake.Quantity, "rejected usage must not touch stock")
}

func TestRestock(t *testing.T) {
	e, _ := newTestEngine(t)
	item, err := e.Inventory.Restock("inv-milk", 6)
	require.NoError(t, err)
	assert.Equal(t, 10.0, item.Quantity)
	require.NotNil(t, item.LastRestocked)
	assert.Equal(t, models.Date("2026-03-10"), *item.LastRestocked)

	_, err = e.Inventory.Restock("inv-milk", 0)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestStatsAndLowStock(t *testing.T) {
	e, _ := newTestEngine(t)
	stats := e.Inventory.Stats()
	assert.Equal(t, 3, stats.TotalItems)
	assert.Equal(t, 1, stats.LowStock)
	assert.Equal(t, 0, stats.OutOfStock)
	assert.Equal(t, 1, stats.ExpiringSoon)
	assert.InDelta(t, 10*2+50*0.1+4*1.5, stats.StockValue, 1e-9)

	low := e.Inventory.LowStock()
	require.Len(t, low, 1)
	assert.Equal(t, "inv-milk", low[0].ID)

	assert.Equal(t, []models.Category{models.CategoryCakes, models.CategoryIngredients, models.CategorySupplies}, e.Inventory.Categories())
}
