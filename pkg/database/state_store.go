package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sweetbox/pkg/config"
	"sweetbox/pkg/engine"
	"sweetbox/pkg/models"
)

const upsertBatchSize = 200

// Upsert inserts value or overwrites the row with the same primary key.
// Omitted columns keep their stored value on update.
func Upsert(tx *gorm.DB, value interface{}, omit ...string) error {
	q := tx.Clauses(clause.OnConflict{UpdateAll: true})
	if len(omit) > 0 {
		q = q.Omit(omit...)
	}
	return q.CreateInBatches(value, upsertBatchSize).Error
}

// SaveSnapshot upserts every collection of a pushed state tree. Rows absent
// from the payload are left alone; sales history is derived, never stored as pushed.
func SaveSnapshot(tx *gorm.DB, snap models.Snapshot) error {
	steps := []struct {
		name  string
		n     int
		value interface{}
		omit  []string
	}{
		{"users", len(snap.Users), &snap.Users, []string{"pin_hash"}},
		{"inventory", len(snap.Inventory), &snap.Inventory, nil},
		{"orders", len(snap.Orders), &snap.Orders, nil},
		{"attendance logs", len(snap.AttendanceLogs), &snap.AttendanceLogs, nil},
		{"usage logs", len(snap.InventoryUsageLogs), &snap.InventoryUsageLogs, nil},
		{"requests", len(snap.Requests), &snap.Requests, nil},
	}
	for _, s := range steps {
		if s.n == 0 {
			continue
		}
		if err := Upsert(tx, s.value, s.omit...); err != nil {
			return fmt.Errorf("save %s: %w", s.name, err)
		}
	}
	return nil
}

// RederiveSales rebuilds the sales_history table from the stored orders.
func RederiveSales(tx *gorm.DB, loc *time.Location) ([]models.SalesHistoryEntry, error) {
	var orders []models.Order
	if err := tx.Where("status = ? AND archived = ?", models.OrderStatusServed, false).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("load served orders: %w", err)
	}
	entries := engine.Recalculate(orders, loc)

	if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.SalesHistoryEntry{}).Error; err != nil {
		return nil, fmt.Errorf("clear sales history: %w", err)
	}
	if len(entries) > 0 {
		if err := tx.CreateInBatches(&entries, upsertBatchSize).Error; err != nil {
			return nil, fmt.Errorf("write sales history: %w", err)
		}
	}
	return entries, nil
}

func limited(q *gorm.DB, n int) *gorm.DB {
	if n > 0 {
		return q.Limit(n)
	}
	return q
}

// LoadSnapshot reads the state tree served by GET /api/state, capped by
// limits, and derives the attendance trend ending at now.
func LoadSnapshot(db *gorm.DB, limits config.LimitsConfig, now time.Time) (models.Snapshot, error) {
	snap := models.Snapshot{}

	if err := db.Order("name").Find(&snap.Users).Error; err != nil {
		return snap, fmt.Errorf("load users: %w", err)
	}
	if err := db.Order("name").Find(&snap.Inventory).Error; err != nil {
		return snap, fmt.Errorf("load inventory: %w", err)
	}
	if err := limited(db.Order("timestamp DESC"), limits.Orders).Find(&snap.Orders).Error; err != nil {
		return snap, fmt.Errorf("load orders: %w", err)
	}
	if err := limited(db.Order("date DESC"), limits.SalesDays).Find(&snap.SalesHistory).Error; err != nil {
		return snap, fmt.Errorf("load sales history: %w", err)
	}
	for i, j := 0, len(snap.SalesHistory)-1; i < j; i, j = i+1, j-1 {
		snap.SalesHistory[i], snap.SalesHistory[j] = snap.SalesHistory[j], snap.SalesHistory[i]
	}
	if err := limited(db.Order("timestamp DESC"), limits.AttendanceLogs).Find(&snap.AttendanceLogs).Error; err != nil {
		return snap, fmt.Errorf("load attendance logs: %w", err)
	}
	if err := db.Order("timestamp DESC").Find(&snap.InventoryUsageLogs).Error; err != nil {
		return snap, fmt.Errorf("load usage logs: %w", err)
	}
	if err := db.Order("requested_at DESC").Find(&snap.Requests).Error; err != nil {
		return snap, fmt.Errorf("load requests: %w", err)
	}

	if limits.TrendDays > 0 {
		var logs []models.AttendanceLog
		since := now.AddDate(0, 0, -limits.TrendDays)
		if err := db.Where("timestamp >= ? AND archived = ?", since, false).Find(&logs).Error; err != nil {
			return snap, fmt.Errorf("load attendance trend: %w", err)
		}
		snap.AttendanceTrend = engine.Trend(snap.Users, logs, snap.Requests, now, limits.TrendDays)
	}
	return snap, nil
}
