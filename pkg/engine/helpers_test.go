package engine

import (
	"fmt"
	"testing"
	"time"

	"sweetbox/pkg/clock"
	"sweetbox/pkg/models"
)

// testNow is a Tuesday mid-morning.
var testNow = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

func sequentialIDs() func(string) string {
	n := 0
	return func(prefix string) string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func newTestEngine(t *testing.T) (*Engine, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(testNow)
	e := New(WithClock(clk), WithLocation(time.UTC), WithIDGenerator(sequentialIDs()))
	e.Load(fixture())
	return e, clk
}

func ptr[T any](v T) *T {
	return &v
}

func fixture() models.Snapshot {
	return models.Snapshot{
		Users: []models.User{
			{ID: "u-ana", Name: "Ana", Permission: models.PermissionKitchenStaff, ShiftStart: ptr("09:00"), Status: models.UserStatusActive},
			{ID: "u-ben", Name: "Ben", Permission: models.PermissionFrontStaff, ShiftStart: ptr("11:00"), Status: models.UserStatusActive},
			{ID: "u-cy", Name: "Cy", Permission: models.PermissionDeliveryStaff, Status: models.UserStatusActive},
			{ID: "u-boss", Name: "Boss", Permission: models.PermissionAdmin, Status: models.UserStatusActive},
		},
		Inventory: []models.InventoryItem{
			{ID: "inv-cake", Name: "Chocolate Cake", Category: models.CategoryCakes, Quantity: 10, Cost: 2},
			{ID: "inv-cups", Name: "Paper Cups", Category: models.CategorySupplies, Quantity: 50, Cost: 0.1},
			{ID: "inv-milk", Name: "Milk", Category: models.CategoryIngredients, Quantity: 4, Cost: 1.5, UseByDate: ptr(models.Date("2026-03-13"))},
		},
	}
}

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 10, hour, minute, 0, 0, time.UTC)
}
