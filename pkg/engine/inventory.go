package engine

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"sweetbox/pkg/models"
)

// StockClass is the coarse stock level shown on the dashboard.
type StockClass string

const (
	StockHealthy    StockClass = "healthy"
	StockLow        StockClass = "low"
	StockOutOfStock StockClass = "outOfStock"
)

// ItemCondition is the finer per-item badge, expiry included.
type ItemCondition string

const (
	ConditionOutOfStock   ItemCondition = "out-of-stock"
	ConditionExpired      ItemCondition = "expired"
	ConditionExpiringSoon ItemCondition = "expiring-soon"
	ConditionLowStock     ItemCondition = "low-stock"
	ConditionInStock      ItemCondition = "in-stock"
)

// ExpiringSoonDays is the look-ahead window for the expiring-soon badge.
const ExpiringSoonDays = 7

const (
	bulkLowStockThreshold    = 10
	defaultLowStockThreshold = 5
	defaultUnit              = "pieces"
	defaultReorderPoint      = 10
)

// LowStockThreshold is the quantity below which an item of category c counts as low.
func LowStockThreshold(c models.Category) float64 {
	switch c {
	case models.CategorySupplies, models.CategoryBeverages:
		return bulkLowStockThreshold
	}
	return defaultLowStockThreshold
}

// Classify buckets an item by quantity alone.
func Classify(item models.InventoryItem) StockClass {
	q := nonNegative(item.Quantity)
	switch {
	case q == 0:
		return StockOutOfStock
	case q < LowStockThreshold(item.Category):
		return StockLow
	}
	return StockHealthy
}

// Condition ranks stock-out over expiry over low stock.
func Condition(item models.InventoryItem, today models.Date) ItemCondition {
	if Classify(item) == StockOutOfStock {
		return ConditionOutOfStock
	}
	if exp := item.ExpiresOn(); exp != nil {
		if *exp < today {
			return ConditionExpired
		}
		if *exp <= today.AddDays(ExpiringSoonDays) {
			return ConditionExpiringSoon
		}
	}
	if Classify(item) == StockLow {
		return ConditionLowStock
	}
	return ConditionInStock
}

// nonNegative coerces NaN, infinities and negatives to zero.
func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Ledger holds inventory quantities.
type Ledger struct {
	st *State
}

// InventoryStats summarises the active inventory.
type InventoryStats struct {
	TotalItems   int     `json:"totalItems"`
	LowStock     int     `json:"lowStock"`
	OutOfStock   int     `json:"outOfStock"`
	ExpiringSoon int     `json:"expiringSoon"`
	Expired      int     `json:"expired"`
	StockValue   float64 `json:"stockValue"`
}

// UsageLine is one item consumed in a usage action.
type UsageLine struct {
	ItemID   string
	Quantity float64
}

// UsageInput describes stock consumed outside of orders.
type UsageInput struct {
	Lines  []UsageLine
	Reason models.UsageReason
	Notes  string
	Actor  string
}

// UsageResult reports what RecordUsage wrote.
type UsageResult struct {
	BatchID   string
	Logs      []models.InventoryUsageLog
	Shortages []*QuantityShortage
}

func (l *Ledger) index(id string) int {
	return indexOf(l.st.data.Inventory, id, func(it models.InventoryItem) string { return it.ID })
}

// Reserve takes qty of an item. Insufficient stock clamps to zero and is
// reported as a *QuantityShortage alongside a nil error.
func (l *Ledger) Reserve(itemID string, qty float64) (*QuantityShortage, error) {
	var short *QuantityShortage
	err := l.st.update(func() error {
		var err error
		short, err = l.reserve(itemID, qty)
		return err
	})
	return short, err
}

func (l *Ledger) reserve(itemID string, qty float64) (*QuantityShortage, error) {
	i := l.index(itemID)
	if i < 0 {
		return nil, notFound(KindInventory, itemID)
	}
	item := &l.st.data.Inventory[i]
	_, short := l.deduct(item, nonNegative(qty))
	return short, nil
}

// deduct removes up to q from item and returns the amount actually taken.
func (l *Ledger) deduct(item *models.InventoryItem, q float64) (float64, *QuantityShortage) {
	have := nonNegative(item.Quantity)
	var short *QuantityShortage
	taken := q
	if q > have {
		short = &QuantityShortage{ItemID: item.ID, ItemName: item.Name, Requested: q, Available: have}
		taken = have
		item.Quantity = 0
		l.st.log.Warn("stock shortage, clamped to zero",
			zap.String("item", item.ID),
			zap.Float64("requested", q),
			zap.Float64("available", have))
	} else {
		item.Quantity = have - q
	}
	l.st.touch(KindInventory, item.ID, OpUpsert)
	return taken, short
}

// Release returns qty of an item to stock.
func (l *Ledger) Release(itemID string, qty float64) error {
	return l.st.update(func() error {
		return l.release(itemID, qty)
	})
}

func (l *Ledger) release(itemID string, qty float64) error {
	i := l.index(itemID)
	if i < 0 {
		return notFound(KindInventory, itemID)
	}
	item := &l.st.data.Inventory[i]
	item.Quantity = nonNegative(item.Quantity) + nonNegative(qty)
	l.st.touch(KindInventory, item.ID, OpUpsert)
	return nil
}

// Item returns one inventory item, archived or not.
func (l *Ledger) Item(id string) (models.InventoryItem, bool) {
	var (
		out models.InventoryItem
		ok  bool
	)
	l.st.view(func() {
		if i := l.index(id); i >= 0 {
			out, ok = l.st.data.Inventory[i], true
		}
	})
	return out, ok
}

// Items returns active items sorted by name.
func (l *Ledger) Items() []models.InventoryItem {
	var out []models.InventoryItem
	l.st.view(func() {
		for _, it := range l.st.data.Inventory {
			if !it.Archived {
				out = append(out, it)
			}
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ExpiringWithin returns active items whose expiry lies in [today, today+days],
// soonest first.
func (l *Ledger) ExpiringWithin(days int) []models.InventoryItem {
	if days < 0 {
		days = 0
	}
	var out []models.InventoryItem
	l.st.view(func() {
		today := l.st.today()
		until := today.AddDays(days)
		for _, it := range l.st.data.Inventory {
			exp := it.ExpiresOn()
			if it.Archived || exp == nil {
				continue
			}
			if *exp >= today && *exp <= until {
				out = append(out, it)
			}
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return *out[i].ExpiresOn() < *out[j].ExpiresOn() })
	return out
}

// LowStock returns active items below their threshold, emptiest first.
func (l *Ledger) LowStock() []models.InventoryItem {
	var out []models.InventoryItem
	for _, it := range l.Items() {
		if Classify(it) != StockHealthy {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Quantity < out[j].Quantity })
	return out
}

// Stats summarises the active inventory.
func (l *Ledger) Stats() InventoryStats {
	var stats InventoryStats
	l.st.view(func() {
		today := l.st.today()
		for _, it := range l.st.data.Inventory {
			if it.Archived {
				continue
			}
			stats.TotalItems++
			stats.StockValue += nonNegative(it.Quantity) * it.Cost
			switch Classify(it) {
			case StockOutOfStock:
				stats.OutOfStock++
			case StockLow:
				stats.LowStock++
			}
			switch Condition(it, today) {
			case ConditionExpired:
				stats.Expired++
			case ConditionExpiringSoon:
				stats.ExpiringSoon++
			}
		}
	})
	return stats
}

// Categories lists the distinct categories of active items.
func (l *Ledger) Categories() []models.Category {
	seen := map[models.Category]bool{}
	var out []models.Category
	for _, it := range l.Items() {
		if !seen[it.Category] {
			seen[it.Category] = true
			out = append(out, it.Category)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// UpsertItem adds a new item or edits an existing one. Usage counters,
// restock date and archive state survive an edit.
func (l *Ledger) UpsertItem(item models.InventoryItem) (models.InventoryItem, error) {
	if item.Name == "" {
		return models.InventoryItem{}, invalid("name", "is required")
	}
	if item.Category == "" {
		return models.InventoryItem{}, invalid("category", "is required")
	}
	for field, d := range map[string]*models.Date{
		"datePurchased": item.DatePurchased,
		"useByDate":     item.UseByDate,
		"expiryDate":    item.ExpiryDate,
	} {
		if d != nil && *d != "" {
			if _, err := models.ParseDate(string(*d)); err != nil {
				return models.InventoryItem{}, invalid(field, "must be YYYY-MM-DD")
			}
		}
	}
	item.Quantity = nonNegative(item.Quantity)
	item.Cost = nonNegative(item.Cost)
	if item.Unit == "" {
		item.Unit = defaultUnit
	}
	if item.ReorderPoint <= 0 {
		item.ReorderPoint = defaultReorderPoint
	}

	err := l.st.update(func() error {
		if item.ID == "" {
			item.ID = l.st.newID("inv")
		}
		if i := l.index(item.ID); i >= 0 {
			prev := l.st.data.Inventory[i]
			item.TotalUsed = prev.TotalUsed
			item.CreatedAt = prev.CreatedAt
			item.ArchiveInfo = prev.ArchiveInfo
			if item.LastRestocked == nil {
				item.LastRestocked = prev.LastRestocked
			}
			l.st.data.Inventory[i] = item
		} else {
			if item.CreatedAt.IsZero() {
				item.CreatedAt = l.st.now()
			}
			l.st.data.Inventory = append(l.st.data.Inventory, item)
		}
		l.st.touch(KindInventory, item.ID, OpUpsert)
		return nil
	})
	return item, err
}

// Restock adds delivered stock and stamps the restock date.
func (l *Ledger) Restock(itemID string, qty float64) (models.InventoryItem, error) {
	q := nonNegative(qty)
	if q == 0 {
		return models.InventoryItem{}, invalid("quantity", "must be greater than zero")
	}
	var out models.InventoryItem
	err := l.st.update(func() error {
		i := l.index(itemID)
		if i < 0 {
			return notFound(KindInventory, itemID)
		}
		item := &l.st.data.Inventory[i]
		item.Quantity = nonNegative(item.Quantity) + q
		today := l.st.today()
		item.LastRestocked = &today
		l.st.touch(KindInventory, item.ID, OpUpsert)
		out = *item
		return nil
	})
	return out, err
}

// RecordUsage deducts consumed stock and writes one usage log per line.
// Lines from a single action share a batch id when there is more than one.
func (l *Ledger) RecordUsage(in UsageInput) (UsageResult, error) {
	if len(in.Lines) == 0 {
		return UsageResult{}, invalid("lines", "at least one item is required")
	}
	if !in.Reason.Valid() {
		return UsageResult{}, invalid("reason", "unknown usage reason %q", in.Reason)
	}
	for _, line := range in.Lines {
		if nonNegative(line.Quantity) == 0 {
			return UsageResult{}, invalid("quantity", "must be greater than zero")
		}
	}

	var res UsageResult
	err := l.st.update(func() error {
		for _, line := range in.Lines {
			if l.index(line.ItemID) < 0 {
				return invalid("item", "unknown inventory item %q", line.ItemID)
			}
		}
		var batch *string
		if len(in.Lines) > 1 {
			res.BatchID = l.st.newID("batch")
			batch = &res.BatchID
		}
		now := l.st.now()
		for _, line := range in.Lines {
			item := &l.st.data.Inventory[l.index(line.ItemID)]
			taken, short := l.deduct(item, nonNegative(line.Quantity))
			if short != nil {
				res.Shortages = append(res.Shortages, short)
			}
			item.TotalUsed += taken
			entry := models.InventoryUsageLog{
				ID:              l.st.newID("usage"),
				InventoryItemID: item.ID,
				Quantity:        taken,
				Reason:          in.Reason,
				BatchID:         batch,
				Notes:           strPtr(in.Notes),
				CreatedBy:       strPtr(in.Actor),
				Timestamp:       now,
			}
			l.st.data.InventoryUsageLogs = append(l.st.data.InventoryUsageLogs, entry)
			l.st.touch(KindUsageLogs, entry.ID, OpUpsert)
			res.Logs = append(res.Logs, entry)
		}
		return nil
	})
	return res, err
}

// UsageLogs returns active usage logs, newest first.
func (l *Ledger) UsageLogs() []models.InventoryUsageLog {
	var out []models.InventoryUsageLog
	l.st.view(func() {
		for _, u := range l.st.data.InventoryUsageLogs {
			if !u.Archived {
				out = append(out, u)
			}
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}

// UsageBatch returns every member of a batch, archived or not.
func (l *Ledger) UsageBatch(batchID string) []models.InventoryUsageLog {
	var out []models.InventoryUsageLog
	l.st.view(func() {
		for _, u := range l.st.data.InventoryUsageLogs {
			if u.BatchID != nil && *u.BatchID == batchID {
				out = append(out, u)
			}
		}
	})
	return out
}
