package routes

import (
	"time"

	"github.com/gin-gonic/gin"

	"sweetbox/pkg/controllers/auth"
	"sweetbox/pkg/middleware"
)

// RegisterAuthRoutes registers all authentication routes
func RegisterAuthRoutes(router *gin.RouterGroup) {
	// five attempts at once, then one every twelve seconds per IP
	signInLimiter := middleware.NewRateLimiter(12*time.Second, 5)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/sign-in", signInLimiter.Middleware(), auth.SignIn)
		authGroup.POST("/sign-out", auth.SignOut)

		// Protected routes
		authGroup.GET("/me", middleware.AuthenticateToken(), auth.CheckAuth)
	}
}
