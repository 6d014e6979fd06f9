package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sweetbox/pkg/engine"
	"sweetbox/pkg/logger"
)

// ErrorResponse sends an error response
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"message": message})
}

// BadRequestResponse sends a 400 bad request response
func BadRequestResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, message)
}

// InternalServerErrorResponse logs err and sends a generic 500.
func InternalServerErrorResponse(c *gin.Context, err error) {
	logger.Log.Error("request failed",
		zap.String("path", c.FullPath()),
		zap.String("request_id", c.GetString("request_id")),
		zap.Error(err))
	ErrorResponse(c, http.StatusInternalServerError, "Internal server error")
}

// StatusFor maps engine errors onto HTTP status codes.
func StatusFor(err error) int {
	var (
		ve *engine.ValidationError
		rc *engine.RestoreConflict
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &rc):
		return http.StatusConflict
	case errors.Is(err, engine.ErrConfirmationRequired):
		return http.StatusPreconditionRequired
	case errors.Is(err, engine.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// EngineErrorResponse answers an engine error with its mapped status.
func EngineErrorResponse(c *gin.Context, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		InternalServerErrorResponse(c, err)
		return
	}
	ErrorResponse(c, status, err.Error())
}
