package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, Date("2026-05-04"), d)

	require.NoError(t, d.Scan("2026-05-05T00:00:00Z"))
	assert.Equal(t, Date("2026-05-05"), d)

	require.NoError(t, d.Scan(nil))
	assert.Equal(t, Date(""), d)

	assert.Error(t, d.Scan(42))
}

func TestDateUnmarshalJSONKeepsDay(t *testing.T) {
	var item InventoryItem
	require.NoError(t, json.Unmarshal([]byte(`{"id":"inv-1","expiryDate":"2026-03-10T00:00:00Z"}`), &item))
	require.NotNil(t, item.ExpiryDate)
	assert.Equal(t, Date("2026-03-10"), *item.ExpiryDate)

	var d Date
	require.NoError(t, json.Unmarshal([]byte(`""`), &d))
	assert.Equal(t, Date(""), d)

	assert.Error(t, json.Unmarshal([]byte(`"10/03/2026"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`20260310`), &d))
}

func TestDateAddDaysCrossesMonth(t *testing.T) {
	assert.Equal(t, Date("2026-03-01"), Date("2026-02-28").AddDays(1))
	assert.Equal(t, Date("2025-12-31"), Date("2026-01-01").AddDays(-1))
}

func TestOrderLinesRoundTripThroughDriver(t *testing.T) {
	lines := OrderLines{{Source: LineSourceInventory, ItemID: "inv-1", Name: "Cake", Qty: 2, UnitPrice: 3.5, Subtotal: 7}}
	v, err := lines.Value()
	require.NoError(t, err)

	var back OrderLines
	require.NoError(t, back.Scan([]byte(v.(string))))
	assert.Equal(t, lines, back)
}

func TestLeaveRequestCovers(t *testing.T) {
	start, end := Date("2026-04-01"), Date("2026-04-03")
	r := LeaveRequest{Status: RequestStatusApproved, StartDate: &start, EndDate: &end}

	assert.True(t, r.Covers("2026-04-01"))
	assert.True(t, r.Covers("2026-04-03"))
	assert.False(t, r.Covers("2026-04-04"))

	r.Status = RequestStatusPending
	assert.False(t, r.Covers("2026-04-02"))
}

func TestUserPinHashNeverSerialized(t *testing.T) {
	hash := "secret"
	b, err := json.Marshal(User{ID: "u1", Name: "Ana", PinHash: &hash})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "secret")
}

func TestNormalizeOrderType(t *testing.T) {
	assert.Equal(t, OrderTypeTakeout, NormalizeOrderType("takeout"))
	assert.Equal(t, OrderTypeDelivery, NormalizeOrderType("delivery"))
	assert.Equal(t, OrderTypeDineIn, NormalizeOrderType(""))
	assert.Equal(t, OrderTypeDineIn, NormalizeOrderType("drive-thru"))
}
