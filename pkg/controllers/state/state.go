package state

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"sweetbox/pkg/config"
	"sweetbox/pkg/database"
	"sweetbox/pkg/logger"
	"sweetbox/pkg/middleware"
	"sweetbox/pkg/models"
	"sweetbox/pkg/services"
	"sweetbox/pkg/utils"
)

// now is swapped in tests.
var now = time.Now

// GetState serves the full snapshot, from the redis cache when warm.
func GetState(c *gin.Context) {
	ctx := c.Request.Context()
	if payload, ok := services.CachedState(ctx); ok {
		c.Header("X-Cache", "hit")
		c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
		return
	}

	snap, err := database.LoadSnapshot(database.DB, config.StateLimits(), now().In(config.BusinessLocation()))
	if err != nil {
		utils.InternalServerErrorResponse(c, err)
		return
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		utils.InternalServerErrorResponse(c, err)
		return
	}
	services.CacheState(ctx, payload)

	c.Header("X-Cache", "miss")
	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}

// missingID names the first record of a pushed snapshot without an id.
func missingID(snap models.Snapshot) string {
	for _, u := range snap.Users {
		if u.ID == "" {
			return "users"
		}
	}
	for _, it := range snap.Inventory {
		if it.ID == "" {
			return "inventory"
		}
	}
	for _, o := range snap.Orders {
		if o.ID == "" {
			return "orders"
		}
	}
	for _, l := range snap.AttendanceLogs {
		if l.ID == "" {
			return "attendanceLogs"
		}
	}
	for _, l := range snap.InventoryUsageLogs {
		if l.ID == "" {
			return "inventoryUsageLogs"
		}
	}
	for _, r := range snap.Requests {
		if r.ID == "" {
			return "requests"
		}
	}
	return ""
}

// SaveState upserts a pushed snapshot in one transaction and re-derives
// sales history from the stored orders. It never deletes rows. Only admins
// may write the roster this way.
func SaveState(c *gin.Context) {
	var snap models.Snapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid state payload"})
		return
	}
	if kind := missingID(snap); kind != "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Every " + kind + " record needs an id"})
		return
	}

	if me, ok := middleware.CurrentUser(c); (!ok || !me.IsAdmin()) && len(snap.Users) > 0 {
		logger.Log.Warn("roster in pushed state ignored for non-admin",
			zap.String("user_id", me.ID), zap.Int("users", len(snap.Users)))
		snap.Users = nil
	}

	loc := config.BusinessLocation()
	var sales []models.SalesHistoryEntry
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := database.SaveSnapshot(tx, snap); err != nil {
			return err
		}
		var err error
		sales, err = database.RederiveSales(tx, loc)
		return err
	})
	if err != nil {
		utils.InternalServerErrorResponse(c, err)
		return
	}

	AfterWrite(c.Request.Context(), snap.Inventory)
	snap.SalesHistory = sales
	services.BackupSnapshotAsync(snap, now())

	logger.Log.Info("state saved",
		zap.Int("orders", len(snap.Orders)),
		zap.Int("inventory", len(snap.Inventory)),
		zap.Int("sales_days", len(sales)))
	c.JSON(http.StatusOK, gin.H{"message": "State saved", "salesHistory": sales})
}

// AfterWrite invalidates the snapshot cache and, when stock changed, fires
// stock alerts in the background.
func AfterWrite(ctx context.Context, inventory []models.InventoryItem) {
	services.InvalidateState(ctx)
	if len(inventory) == 0 {
		return
	}
	today := models.DateOf(now().In(config.BusinessLocation()))
	items := append([]models.InventoryItem(nil), inventory...)
	go services.SendStockAlerts(context.Background(), items, today)
}
