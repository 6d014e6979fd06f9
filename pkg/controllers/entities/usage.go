package entities

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sweetbox/pkg/controllers/state"
	"sweetbox/pkg/database"
	"sweetbox/pkg/models"
	"sweetbox/pkg/utils"
)

// ListUsageLogs returns usage logs newest first, filtered by batchId or itemId.
func ListUsageLogs(c *gin.Context) {
	q := database.DB.Order("timestamp DESC").Limit(listLimit(c, 500))
	if batch := c.Query("batchId"); batch != "" {
		q = q.Where("batch_id = ?", batch)
	}
	if item := c.Query("itemId"); item != "" {
		q = q.Where("inventory_item_id = ?", item)
	}

	var logs []models.InventoryUsageLog
	if err := q.Find(&logs).Error; err != nil {
		utils.InternalServerErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

func validUsageLog(c *gin.Context, log *models.InventoryUsageLog) bool {
	switch {
	case log.InventoryItemID == "":
		c.JSON(http.StatusBadRequest, gin.H{"message": "Inventory item is required"})
		return false
	case log.Quantity <= 0:
		c.JSON(http.StatusBadRequest, gin.H{"message": "Quantity must be greater than zero"})
		return false
	case !log.Reason.Valid():
		c.JSON(http.StatusBadRequest, gin.H{"message": "Unknown usage reason " + string(log.Reason)})
		return false
	}
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now()
	}
	return true
}

func saveUsageLog(c *gin.Context, log models.InventoryUsageLog, status int, message string) {
	if !validUsageLog(c, &log) {
		return
	}
	if !saveRecord(c, &log, nil) {
		return
	}
	state.AfterWrite(c.Request.Context(), nil)
	c.JSON(status, gin.H{"message": message, "log": log})
}

// CreateUsageLog records stock consumed outside of orders.
func CreateUsageLog(c *gin.Context) {
	var log models.InventoryUsageLog
	if !bindBody(c, &log) {
		return
	}
	if log.ID == "" {
		log.ID = newID("use")
	}
	saveUsageLog(c, log, http.StatusCreated, "Usage recorded")
}

// PutUsageLog upserts a usage log.
func PutUsageLog(c *gin.Context) {
	var log models.InventoryUsageLog
	if !bindBody(c, &log) {
		return
	}
	log.ID = c.Param("id")
	saveUsageLog(c, log, http.StatusOK, "Usage saved")
}

// DeleteUsageLog removes a usage log.
func DeleteUsageLog(c *gin.Context) {
	deleteRecord(c, &models.InventoryUsageLog{}, "Usage log", nil)
}
