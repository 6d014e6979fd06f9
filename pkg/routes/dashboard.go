package routes

import (
	"github.com/gin-gonic/gin"

	"sweetbox/pkg/controllers/dashboard"
	"sweetbox/pkg/middleware"
)

// RegisterDashboardRoutes registers the read-only reporting routes.
func RegisterDashboardRoutes(router *gin.RouterGroup) {
	dash := router.Group("/dashboard")
	dash.Use(middleware.AuthenticateToken())
	{
		dash.GET("/overview", dashboard.GetDashboardOverview)
		dash.GET("/revenue-trend", dashboard.GetRevenueTrend)
		dash.GET("/order-status", dashboard.GetOrderStatusDistribution)
		dash.GET("/order-types", dashboard.GetOrderTypeDistribution)
		dash.GET("/top-items", dashboard.GetTopSellingItems)
	}
}
