package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sweetbox/pkg/logger"
)

// ErrorMiddleware answers errors attached with c.Error when no response was written.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last()
		logger.Log.Error("request error",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err.Err))

		statusCode := http.StatusInternalServerError
		if code, ok := err.Meta.(int); ok {
			statusCode = code
		}

		message := err.Error()
		if message == "" || statusCode == http.StatusInternalServerError {
			message = "Internal server error"
		}

		c.JSON(statusCode, gin.H{"message": message})
	}
}

// RecoveryMiddleware handles panics and prevents server crashes
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Log.Error("panic recovered",
					zap.Any("panic", err),
					zap.String("path", c.Request.URL.Path),
					zap.String("request_id", c.GetString(requestIDKey)))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"message": "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

// NotFoundHandler answers unknown routes. Sync clients read this 404 as
// "no such endpoint" and fall back to the bulk state push.
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"message": "Route not found",
		})
	}
}
