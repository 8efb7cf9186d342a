package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Miguelburitica/serverless-localMarket/internal/auth"
	"github.com/Miguelburitica/serverless-localMarket/internal/repository"
	"github.com/Miguelburitica/serverless-localMarket/internal/service"
)

// respondError maps domain failures to the response envelope. Unexpected
// failures are logged in full and surface only a generic message.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var denied *auth.DeniedError
	var invalid *service.ValidationError

	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation failed",
			"details": gin.H{invalid.Field: invalid.Message},
		})
	case errors.As(err, &denied):
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"details": denied.Reason,
		})
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrMarketNotFound),
		errors.Is(err, service.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": "insufficient stock"})
	case errors.Is(err, repository.ErrStorageUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
	default:
		logger.Error("Unexpected failure",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal error",
			"message": "request could not be processed",
		})
	}
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "invalid request format",
		"details": err.Error(),
	})
}
