package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sweetbox/pkg/clock"
	"sweetbox/pkg/engine"
	"sweetbox/pkg/models"
)

var tillNow = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

type write struct {
	method string
	kind   engine.EntityKind
	id     string
	record interface{}
}

type stubRemote struct {
	mu     sync.Mutex
	state  models.Snapshot
	writes []write
	pushes int
}

func (r *stubRemote) FetchState(ctx context.Context) (models.Snapshot, error) {
	return r.state.Clone(), nil
}

func (r *stubRemote) PushState(ctx context.Context, snap models.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushes++
	return nil
}

func (r *stubRemote) Put(ctx context.Context, kind engine.EntityKind, id string, record interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, write{"PUT", kind, id, record})
	return nil
}

func (r *stubRemote) Delete(ctx context.Context, kind engine.EntityKind, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, write{"DELETE", kind, id, nil})
	return nil
}

func (r *stubRemote) find(method string, kind engine.EntityKind) []write {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []write
	for _, w := range r.writes {
		if w.method == method && w.kind == kind {
			out = append(out, w)
		}
	}
	return out
}

func seedState() models.Snapshot {
	shift := "09:00"
	served := tillNow.Add(-time.Hour)
	return models.Snapshot{
		Users: []models.User{
			{ID: "u-ana", Name: "Ana", Permission: models.PermissionFrontStaff, ShiftStart: &shift, Status: models.UserStatusActive},
			{ID: "u-boss", Name: "Boss", Permission: models.PermissionAdmin, Status: models.UserStatusActive},
		},
		Inventory: []models.InventoryItem{
			{ID: "inv-cake", Name: "Cake", Category: models.CategoryCakes, Quantity: 10, Unit: "pieces"},
			{ID: "inv-milk", Name: "Milk", Category: models.CategoryIngredients, Quantity: 4, Unit: "liters"},
		},
		Orders: []models.Order{
			{ID: "ord-1", Customer: "Table 2", Items: "2x Cake", Total: 12, Status: models.OrderStatusServed,
				Type: models.OrderTypeDineIn, Timestamp: served, ServedAt: &served},
		},
	}
}

type harness struct {
	t      *testing.T
	remote *stubRemote
	config string
}

func newHarness(t *testing.T) *harness {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "till.yaml")
	body := "api_url: http://till.invalid\n" +
		"cache_path: " + filepath.Join(dir, "roster.yaml") + "\n" +
		"timezone: UTC\n" +
		"actor: u-boss\n" +
		"log:\n  level: error\n"
	require.NoError(t, os.WriteFile(cfg, []byte(body), 0o600))
	return &harness{t: t, remote: &stubRemote{state: seedState()}, config: cfg}
}

func (h *harness) run(args ...string) (string, string, error) {
	opts := &RootOptions{Remote: h.remote, Clock: clock.NewFake(tillNow)}
	cmd := newRootCommand(opts)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", h.config}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "till", cmd.Use)

	for _, name := range []string{"login", "pull", "status", "stock", "order", "clock", "archive", "restore", "purge", "usage", "sales", "request"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	for _, path := range [][]string{
		{"order", "create"}, {"order", "status"}, {"order", "delete"}, {"order", "list"},
		{"clock", "in"}, {"clock", "out"}, {"clock", "sick"}, {"clock", "absent"},
		{"usage", "record"}, {"usage", "batch-archive"}, {"usage", "batch-restore"}, {"usage", "batch-delete"},
		{"sales", "recalc"},
	} {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[1], sub.Name())
	}
}

func TestInvalidFormat(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run("--format", "xml", "pull")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestPullListsCollections(t *testing.T) {
	h := newHarness(t)
	out, _, err := h.run("pull")
	require.NoError(t, err)
	assert.Contains(t, out, "users")
	assert.Contains(t, out, "inventory")
	assert.Empty(t, h.remote.writes, "a pull writes nothing back")
}

func TestOrderCreateReservesAndSyncs(t *testing.T) {
	h := newHarness(t)
	out, _, err := h.run("order", "create", "--item", "inv-cake:2@6.5", "--custom", "Candles:1@2", "--customer", "Table 4")
	require.NoError(t, err)
	assert.Contains(t, out, "created")
	assert.Contains(t, out, "15.00")

	orders := h.remote.find("PUT", engine.KindOrders)
	require.Len(t, orders, 1)
	order := orders[0].record.(models.Order)
	assert.Equal(t, "Table 4", order.Customer)
	assert.Equal(t, models.OrderStatusPending, order.Status)

	items := h.remote.find("PUT", engine.KindInventory)
	require.Len(t, items, 1)
	assert.Equal(t, "inv-cake", items[0].id)
	assert.Equal(t, 8.0, items[0].record.(models.InventoryItem).Quantity)
}

func TestOrderCreateShortageWarns(t *testing.T) {
	h := newHarness(t)
	_, stderr, err := h.run("order", "create", "--item", "inv-milk:6")
	require.NoError(t, err)
	assert.Contains(t, stderr, "insufficient stock")

	items := h.remote.find("PUT", engine.KindInventory)
	require.Len(t, items, 1)
	assert.Zero(t, items[0].record.(models.InventoryItem).Quantity)
}

func TestOrderCreateRejectsBadLine(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run("order", "create", "--item", "inv-cake")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestServingAnOrderPushesSales(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run("order", "create", "--item", "inv-cake:1@5", "--status", "served")
	require.NoError(t, err)
	assert.Equal(t, 1, h.remote.pushes, "sales history has no entity endpoint")
}

func TestPurgeNeedsConfirmation(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run("purge", "orders", "ord-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Empty(t, h.remote.find("DELETE", engine.KindOrders))

	_, _, err = h.run("purge", "orders", "ord-1", "--yes")
	require.NoError(t, err)
	assert.Len(t, h.remote.find("DELETE", engine.KindOrders), 1)
}

func TestArchiveStampsActor(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run("archive", "orders", "ord-1")
	require.NoError(t, err)

	puts := h.remote.find("PUT", engine.KindOrders)
	require.Len(t, puts, 1)
	order := puts[0].record.(models.Order)
	assert.True(t, order.Archived)
	require.NotNil(t, order.ArchivedBy)
	assert.Equal(t, "u-boss", *order.ArchivedBy)
}

func TestUnknownKind(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run("restore", "widgets", "w-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestStatusShowsStaffOnly(t *testing.T) {
	h := newHarness(t)
	out, _, err := h.run("status")
	require.NoError(t, err)
	assert.Contains(t, out, "u-ana")
	assert.Contains(t, out, "absent")
	assert.NotContains(t, out, "u-boss")
}

func TestClockInWritesLog(t *testing.T) {
	h := newHarness(t)
	// 10:00 against a 09:00 shift is late and needs a note
	_, _, err := h.run("clock", "in", "u-ana")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	out, _, err := h.run("clock", "in", "u-ana", "--note", "bus")
	require.NoError(t, err)
	assert.Contains(t, out, "u-ana in at 10:00")
	assert.Len(t, h.remote.find("PUT", engine.KindAttendanceLogs), 1)
}

func TestUsageRecordBatches(t *testing.T) {
	h := newHarness(t)
	out, _, err := h.run("usage", "record", "inv-cake:1", "inv-milk:2", "--reason", "waste")
	require.NoError(t, err)
	assert.Contains(t, out, "recorded 2 usage logs in batch")

	logs := h.remote.find("PUT", engine.KindUsageLogs)
	require.Len(t, logs, 2)
	first := logs[0].record.(models.InventoryUsageLog)
	require.NotNil(t, first.BatchID)
	require.NotNil(t, first.CreatedBy)
	assert.Equal(t, "u-boss", *first.CreatedBy)
}

func TestBatchDeleteNeedsConfirmation(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run("usage", "batch-delete", "batch-x")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSalesRecalc(t *testing.T) {
	h := newHarness(t)
	out, _, err := h.run("sales", "recalc")
	require.NoError(t, err)
	assert.Contains(t, out, "2026-03-10")
	assert.Contains(t, out, "12.00")
}

func TestStockJSON(t *testing.T) {
	h := newHarness(t)
	out, _, err := h.run("--format", "json", "stock")
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Items []struct {
				ID    string `json:"id"`
				Class string `json:"class"`
			} `json:"items"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	classes := map[string]string{}
	for _, it := range resp.Data.Items {
		classes[it.ID] = it.Class
	}
	assert.Equal(t, "healthy", classes["inv-cake"])
	assert.Equal(t, "low", classes["inv-milk"])
}

func TestParseLine(t *testing.T) {
	line, err := parseLine(models.LineSourceInventory, "inv-cake:2@6.5")
	require.NoError(t, err)
	assert.Equal(t, engine.LineInput{Source: models.LineSourceInventory, ItemID: "inv-cake", Qty: 2, UnitPrice: 6.5}, line)

	line, err = parseLine(models.LineSourceCustom, "Birthday: candles:3@1")
	require.NoError(t, err)
	assert.Equal(t, "Birthday: candles", line.Name)
	assert.Equal(t, 3.0, line.Qty)

	line, err = parseLine(models.LineSourceSupplies, "inv-boxes:1")
	require.NoError(t, err)
	assert.Zero(t, line.UnitPrice)

	for _, bad := range []string{"", "inv-cake", ":2", "inv-cake:x", "inv-cake:1@y"} {
		_, err := parseLine(models.LineSourceInventory, bad)
		assert.Error(t, err, bad)
	}
}
