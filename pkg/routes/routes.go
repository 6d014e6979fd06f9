package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sweetbox/pkg/config"
	"sweetbox/pkg/database"
	"sweetbox/pkg/middleware"
	"sweetbox/pkg/services"
)

// Setup registers every application route on router.
func Setup(router *gin.Engine) {
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Sweetbox backend is running...")
	})

	api := router.Group("/api")
	{
		api.GET("/health", health)

		RegisterAuthRoutes(api)
		RegisterStateRoutes(api)
		RegisterDashboardRoutes(api)
	}

	router.NoRoute(middleware.NotFoundHandler())
}

func health(c *gin.Context) {
	environment := ""
	if config.AppConfig != nil {
		environment = config.AppConfig.Environment
	}

	dbStatus := "connected"
	if database.DB == nil {
		dbStatus = "not initialized"
	} else if sqlDB, err := database.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		dbStatus = "unreachable"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"environment": environment,
		"database":    dbStatus,
		"fcm":         services.GetServiceStatus()["status"],
	})
}
