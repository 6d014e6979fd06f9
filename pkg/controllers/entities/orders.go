package entities

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"sweetbox/pkg/controllers/state"
	"sweetbox/pkg/engine"
	"sweetbox/pkg/models"
)

// PutOrder upserts one order and re-derives sales history.
func PutOrder(c *gin.Context) {
	var order models.Order
	if !bindBody(c, &order) {
		return
	}
	order.ID = c.Param("id")

	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	if !order.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Unknown order status " + string(order.Status)})
		return
	}
	order.Type = models.NormalizeOrderType(string(order.Type))
	if strings.TrimSpace(order.Customer) == "" {
		order.Customer = engine.DefaultCustomer
	}
	if order.Timestamp.IsZero() {
		order.Timestamp = time.Now()
	}
	if order.Status != models.OrderStatusServed {
		order.ServedAt = nil
	}

	if !saveRecord(c, &order, rederiveSales) {
		return
	}
	state.AfterWrite(c.Request.Context(), nil)
	c.JSON(http.StatusOK, gin.H{"message": "Order saved", "order": order})
}

// DeleteOrder removes one order and re-derives sales history.
func DeleteOrder(c *gin.Context) {
	deleteRecord(c, &models.Order{}, "Order", rederiveSales)
}
