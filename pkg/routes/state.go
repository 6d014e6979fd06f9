package routes

import (
	"github.com/gin-gonic/gin"

	"sweetbox/pkg/controllers/entities"
	"sweetbox/pkg/controllers/state"
	"sweetbox/pkg/middleware"
)

// RegisterStateRoutes registers the bulk snapshot routes and the per-entity
// endpoints sync clients prefer over them. Every write needs a signed-in
// caller; roster writes need an admin.
func RegisterStateRoutes(router *gin.RouterGroup) {
	authed := middleware.AuthenticateToken()
	admin := middleware.RestrictToAdmin()

	router.GET("/state", state.GetState)
	router.POST("/state", authed, state.SaveState)

	orders := router.Group("/orders")
	{
		orders.PUT("/:id", authed, entities.PutOrder)
		orders.DELETE("/:id", authed, entities.DeleteOrder)
	}

	inventory := router.Group("/inventory")
	{
		inventory.PUT("/:id", authed, entities.PutInventoryItem)
		inventory.DELETE("/:id", authed, entities.DeleteInventoryItem)
	}

	users := router.Group("/users")
	{
		users.PUT("/:id", admin, entities.PutUser)
		users.DELETE("/:id", admin, entities.DeleteUser)
	}

	attendance := router.Group("/attendance-logs")
	{
		attendance.GET("", entities.ListAttendanceLogs)
		attendance.POST("", authed, entities.CreateAttendanceLog)
		attendance.PUT("/:id", authed, entities.PutAttendanceLog)
		attendance.DELETE("/:id", authed, entities.DeleteAttendanceLog)
	}

	usage := router.Group("/inventory-usage-logs")
	{
		usage.GET("", entities.ListUsageLogs)
		usage.POST("", authed, entities.CreateUsageLog)
		usage.PUT("/:id", authed, entities.PutUsageLog)
		usage.DELETE("/:id", authed, entities.DeleteUsageLog)
	}

	requests := router.Group("/requests")
	{
		requests.POST("", authed, entities.CreateRequest)
		requests.PUT("/:id", authed, entities.PutRequest)
		requests.DELETE("/:id", authed, entities.DeleteRequest)
	}
}
