package syncer

import (
	"context"
	"errors"
	"fmt"
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

var syncNow = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

type call struct {
	method string
	kind   engine.EntityKind
	id     string
}

type fakeRemote struct {
	mu       sync.Mutex
	calls    []call
	pushes   []models.Snapshot
	state    models.Snapshot
	fetchErr error
	pushErr  error
	missing  map[engine.EntityKind]bool
	fail     map[string]error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{missing: map[engine.EntityKind]bool{}, fail: map[string]error{}}
}

func (f *fakeRemote) FetchState(ctx context.Context) (models.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, f.fetchErr
}

func (f *fakeRemote) PushState(ctx context.Context, snap models.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{method: "POST"})
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushes = append(f.pushes, snap)
	return nil
}

func (f *fakeRemote) write(method string, kind engine.EntityKind, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{method: method, kind: kind, id: id})
	if f.missing[kind] {
		return ErrEndpointMissing
	}
	return f.fail[id]
}

func (f *fakeRemote) Put(ctx context.Context, kind engine.EntityKind, id string, record interface{}) error {
	return f.write("PUT", kind, id)
}

func (f *fakeRemote) Delete(ctx context.Context, kind engine.EntityKind, id string) error {
	return f.write("DELETE", kind, id)
}

func (f *fakeRemote) recorded() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func (f *fakeRemote) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
	f.pushes = nil
}

func sequentialIDs() func(string) string {
	n := 0
	return func(prefix string) string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func ptr[T any](v T) *T {
	return &v
}

func seed() models.Snapshot {
	return models.Snapshot{
		Users: []models.User{
			{ID: "u-ana", Name: "Ana", Permission: models.PermissionKitchenStaff, ShiftStart: ptr("09:00"), Status: models.UserStatusActive, PinHash: ptr("$2a$10$hash")},
			{ID: "u-boss", Name: "Boss", Permission: models.PermissionAdmin, Status: models.UserStatusActive},
		},
		Inventory: []models.InventoryItem{
			{ID: "inv-cake", Name: "Chocolate Cake", Category: models.CategoryCakes, Quantity: 10, Cost: 2},
			{ID: "inv-milk", Name: "Milk", Category: models.CategoryIngredients, Quantity: 4, Cost: 1.5},
		},
	}
}

type harness struct {
	eng      *engine.Engine
	clk      *clock.Fake
	remote   *fakeRemote
	coord    *Coordinator
	warnings []error
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{clk: clock.NewFake(syncNow), remote: newFakeRemote()}
	h.eng = engine.New(engine.WithClock(h.clk), engine.WithLocation(time.UTC), engine.WithIDGenerator(sequentialIDs()))
	h.remote.state = seed()
	opts = append([]Option{WithClock(h.clk), OnWarning(func(err error) { h.warnings = append(h.warnings, err) })}, opts...)
	h.coord = New(h.eng, h.remote, opts...)
	require.NoError(t, h.coord.Load(context.Background()))
	return h
}

func (h *harness) order(t *testing.T, status models.OrderStatus) models.Order {
	t.Helper()
	res, err := h.eng.Orders.Create(engine.OrderInput{
		Customer: "Table 4",
		Status:   status,
		Lines: []engine.LineInput{
			{Source: models.LineSourceInventory, ItemID: "inv-cake", Name: "Chocolate Cake", Qty: 2, UnitPrice: 6},
		},
	})
	require.NoError(t, err)
	return res.Order
}

func TestLoadReplacesStateAndClearsPending(t *testing.T) {
	h := newHarness(t)
	assert.Len(t, h.eng.Users(), 2)
	assert.Equal(t, syncNow, h.coord.LastSync())

	_, err := h.eng.Inventory.Restock("inv-cake", 5)
	require.NoError(t, err)
	assert.Equal(t, 1, h.coord.Pending())

	require.NoError(t, h.coord.Load(context.Background()))
	assert.Equal(t, 0, h.coord.Pending())
	item, _ := h.eng.Inventory.Item("inv-cake")
	assert.Equal(t, 10.0, item.Quantity, "server state wins on load")
}

func TestDebounceCoalescesBurst(t *testing.T) {
	h := newHarness(t)
	o := h.order(t, models.OrderStatusPending)
	h.clk.Advance(300 * time.Millisecond)
	_, err := h.eng.Orders.SetStatus(o.ID, models.OrderStatusPreparing)
	require.NoError(t, err)

	h.clk.Advance(300 * time.Millisecond)
	assert.Empty(t, h.remote.recorded(), "window restarts on every mutation")

	h.clk.Advance(200 * time.Millisecond)
	assert.ElementsMatch(t, []call{
		{method: "PUT", kind: engine.KindOrders, id: o.ID},
		{method: "PUT", kind: engine.KindInventory, id: "inv-cake"},
	}, h.remote.recorded())
	assert.Equal(t, 0, h.coord.Pending())
	assert.Empty(t, h.warnings)
}

func TestMissingEndpointFallsBackToBulkPush(t *testing.T) {
	h := newHarness(t)
	h.remote.missing[engine.KindOrders] = true
	h.order(t, models.OrderStatusPending)

	require.NoError(t, h.coord.Flush(context.Background()))
	calls := h.remote.recorded()
	require.Len(t, calls, 3)
	assert.Equal(t, "POST", calls[2].method)
	require.Len(t, h.remote.pushes, 1)
	assert.Len(t, h.remote.pushes[0].Orders, 1)
	assert.Empty(t, h.warnings, "a missing endpoint is not user visible")
}

func TestMissingEndpointDeleteIsRequeuedAndWarned(t *testing.T) {
	h := newHarness(t)
	h.remote.missing[engine.KindOrders] = true
	o := h.order(t, models.OrderStatusPending)
	require.NoError(t, h.coord.Flush(context.Background()))
	h.remote.reset()

	require.NoError(t, h.eng.Orders.Delete(o.ID))
	err := h.coord.Flush(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEndpointMissing)
	var failure *SyncFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "delete", failure.Op)
	assert.Equal(t, engine.KindOrders, failure.Kind)
	assert.Equal(t, o.ID, failure.ID)

	assert.ElementsMatch(t, []call{
		{method: "DELETE", kind: engine.KindOrders, id: o.ID},
		{method: "PUT", kind: engine.KindInventory, id: "inv-cake"},
	}, h.remote.recorded(), "a bulk push cannot carry a removal")
	assert.Empty(t, h.remote.pushes)
	assert.Equal(t, 1, h.coord.Pending())
	require.Len(t, h.warnings, 1)

	h.remote.missing[engine.KindOrders] = false
	h.remote.reset()
	require.NoError(t, h.coord.Flush(context.Background()))
	assert.Equal(t, []call{{method: "DELETE", kind: engine.KindOrders, id: o.ID}}, h.remote.recorded())
	assert.Equal(t, 0, h.coord.Pending())
}

func TestMissingEndpointArchiveRidesBulkPush(t *testing.T) {
	h := newHarness(t)
	h.remote.missing[engine.KindOrders] = true
	o := h.order(t, models.OrderStatusPending)
	require.NoError(t, h.coord.Flush(context.Background()))
	h.remote.reset()

	require.NoError(t, h.eng.Archive.Archive(engine.KindOrders, o.ID, "u-boss"))
	require.NoError(t, h.coord.Flush(context.Background()))
	require.Len(t, h.remote.pushes, 1)
	require.Len(t, h.remote.pushes[0].Orders, 1)
	assert.True(t, h.remote.pushes[0].Orders[0].Archived)
	assert.Equal(t, 0, h.coord.Pending())
	assert.Empty(t, h.warnings)
}

func TestFailedFlushArmsBackoffRetry(t *testing.T) {
	h := newHarness(t)
	h.remote.fail["inv-cake"] = errors.New("connection reset")
	_, err := h.eng.Inventory.Restock("inv-cake", 5)
	require.NoError(t, err)

	h.clk.Advance(DefaultDebounce)
	require.Len(t, h.warnings, 1)
	assert.Equal(t, 1, h.clk.Pending(), "a retry is armed")

	h.clk.Advance(DefaultRetry)
	require.Len(t, h.warnings, 2, "first retry fails too")

	h.remote.reset()
	delete(h.remote.fail, "inv-cake")
	h.clk.Advance(2*DefaultRetry - time.Second)
	assert.Empty(t, h.remote.recorded(), "the delay doubles")

	h.clk.Advance(time.Second)
	assert.Equal(t, []call{{method: "PUT", kind: engine.KindInventory, id: "inv-cake"}}, h.remote.recorded())
	assert.Equal(t, 0, h.coord.Pending())
	assert.Equal(t, 0, h.clk.Pending())
}

func TestSalesChangesRideOneBulkPush(t *testing.T) {
	h := newHarness(t)
	h.order(t, models.OrderStatusServed)

	require.NoError(t, h.coord.Flush(context.Background()))
	posts := 0
	for _, c := range h.remote.recorded() {
		if c.method == "POST" {
			posts++
		}
		assert.NotEqual(t, engine.KindSalesHistory, c.kind)
	}
	assert.Equal(t, 1, posts)
	require.Len(t, h.remote.pushes, 1)
	require.Len(t, h.remote.pushes[0].SalesHistory, 1)
	assert.Equal(t, 12.0, h.remote.pushes[0].SalesHistory[0].Total)
}

func TestFailedWritesAreRequeuedAndWarned(t *testing.T) {
	h := newHarness(t)
	h.remote.fail["inv-cake"] = errors.New("connection reset")
	_, err := h.eng.Inventory.Restock("inv-cake", 5)
	require.NoError(t, err)

	err = h.coord.Flush(context.Background())
	require.Error(t, err)
	var failure *SyncFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "put", failure.Op)
	assert.Equal(t, engine.KindInventory, failure.Kind)
	require.Len(t, h.warnings, 1)
	assert.Equal(t, 1, h.coord.Pending())

	delete(h.remote.fail, "inv-cake")
	h.remote.reset()
	require.NoError(t, h.coord.Flush(context.Background()))
	assert.Equal(t, []call{{method: "PUT", kind: engine.KindInventory, id: "inv-cake"}}, h.remote.recorded())
	assert.Equal(t, 0, h.coord.Pending())
}

func TestFailedBulkPushRequeuesItsChanges(t *testing.T) {
	h := newHarness(t)
	h.remote.pushErr = errors.New("bad gateway")
	h.order(t, models.OrderStatusServed)

	require.Error(t, h.coord.Flush(context.Background()))
	assert.Equal(t, 1, h.coord.Pending(), "only the sales bucket is left")
}

func TestDeleteIsSentForRemovedRecords(t *testing.T) {
	h := newHarness(t)
	o := h.order(t, models.OrderStatusPending)
	require.NoError(t, h.eng.Orders.Delete(o.ID))

	require.NoError(t, h.coord.Flush(context.Background()))
	assert.ElementsMatch(t, []call{
		{method: "DELETE", kind: engine.KindOrders, id: o.ID},
		{method: "PUT", kind: engine.KindInventory, id: "inv-cake"},
	}, h.remote.recorded())
}

func TestCloseCancelsDebounceAndFlushes(t *testing.T) {
	h := newHarness(t)
	_, err := h.eng.Inventory.Restock("inv-milk", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, h.clk.Pending())

	require.NoError(t, h.coord.Close(context.Background()))
	assert.Equal(t, 0, h.clk.Pending())
	assert.Len(t, h.remote.recorded(), 1)

	_, err = h.eng.Inventory.Restock("inv-milk", 1)
	require.NoError(t, err)
	assert.Equal(t, 0, h.clk.Pending(), "no timer is armed after close")
	assert.Equal(t, 1, h.coord.Pending())
}

func TestLoadFallsBackToCachedRoster(t *testing.T) {
	cache := NewCache(filepath.Join(t.TempDir(), "roster.yaml"))
	h := newHarness(t, WithCache(cache))

	entry, err := cache.Load()
	require.NoError(t, err)
	assert.Len(t, entry.Users, 2)

	h.remote.fetchErr = errors.New("offline")
	h.warnings = nil
	require.NoError(t, h.coord.Load(context.Background()))
	require.Len(t, h.warnings, 1)
	assert.Len(t, h.eng.Users(), 2)
	assert.Empty(t, h.eng.Inventory.Items(), "only the roster survives between runs")
}

func TestLoadFailsWithoutCache(t *testing.T) {
	h := newHarness(t)
	h.remote.fetchErr = errors.New("offline")
	err := h.coord.Load(context.Background())
	var failure *SyncFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "fetch", failure.Op)
}

func usageBatch(t *testing.T, h *harness) engine.UsageResult {
	t.Helper()
	res, err := h.eng.Inventory.RecordUsage(engine.UsageInput{
		Lines: []engine.UsageLine{
			{ItemID: "inv-cake", Quantity: 1},
			{ItemID: "inv-milk", Quantity: 2},
		},
		Reason: models.UsageReasonWaste,
		Actor:  "u-ana",
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.BatchID)
	require.NoError(t, h.coord.Flush(context.Background()))
	h.remote.reset()
	return res
}

func TestDeleteBatchAppliesOnlyAcceptedMembers(t *testing.T) {
	h := newHarness(t)
	res := usageBatch(t, h)
	h.remote.fail[res.Logs[1].ID] = errors.New("timeout")

	out, err := h.coord.DeleteBatch(context.Background(), res.BatchID, true)
	require.Error(t, err)
	assert.Equal(t, 2, out.Attempted)
	assert.Equal(t, 1, out.Succeeded)
	assert.Equal(t, []string{res.Logs[1].ID}, out.Failed)

	left := h.eng.Inventory.UsageBatch(res.BatchID)
	require.Len(t, left, 1)
	assert.Equal(t, res.Logs[1].ID, left[0].ID)
}

func TestDeleteBatchRequiresConfirmation(t *testing.T) {
	h := newHarness(t)
	res := usageBatch(t, h)
	_, err := h.coord.DeleteBatch(context.Background(), res.BatchID, false)
	assert.ErrorIs(t, err, engine.ErrConfirmationRequired)
	assert.Empty(t, h.remote.recorded())
}

func TestArchiveAndRestoreBatch(t *testing.T) {
	h := newHarness(t)
	res := usageBatch(t, h)

	out, err := h.coord.ArchiveBatch(context.Background(), res.BatchID, "u-boss")
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Attempted: 2, Succeeded: 2}, out)
	for _, l := range h.eng.Inventory.UsageBatch(res.BatchID) {
		assert.True(t, l.Archived)
		assert.Equal(t, "u-boss", *l.ArchivedBy)
	}

	h.remote.fail[res.Logs[0].ID] = errors.New("boom")
	out, err = h.coord.RestoreBatch(context.Background(), res.BatchID)
	require.Error(t, err)
	assert.Equal(t, 1, out.Succeeded)
	for _, l := range h.eng.Inventory.UsageBatch(res.BatchID) {
		assert.Equal(t, l.ID == res.Logs[0].ID, l.Archived)
	}
}
