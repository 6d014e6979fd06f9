package entities

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"sweetbox/pkg/controllers/state"
	"sweetbox/pkg/models"
)

// PutInventoryItem upserts one stocked item.
func PutInventoryItem(c *gin.Context) {
	var item models.InventoryItem
	if !bindBody(c, &item) {
		return
	}
	item.ID = c.Param("id")
	item.Name = strings.TrimSpace(item.Name)

	if item.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Item name is required"})
		return
	}
	if item.Category == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Item category is required"})
		return
	}
	// stock never goes negative
	if item.Quantity < 0 {
		item.Quantity = 0
	}
	if item.TotalUsed < 0 {
		item.TotalUsed = 0
	}
	if item.Unit == "" {
		item.Unit = "pieces"
	}

	if !saveRecord(c, &item, nil) {
		return
	}
	state.AfterWrite(c.Request.Context(), []models.InventoryItem{item})
	c.JSON(http.StatusOK, gin.H{"message": "Item saved", "item": item})
}

// DeleteInventoryItem removes one stocked item.
func DeleteInventoryItem(c *gin.Context) {
	deleteRecord(c, &models.InventoryItem{}, "Item", nil)
}
