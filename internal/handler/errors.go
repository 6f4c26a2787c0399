package handler

import (
	"errors"
	"net/http"

	"phonecbr/internal/model"
	"phonecbr/internal/service"

	"github.com/gin-gonic/gin"
)

// writeError maps service errors to HTTP status codes.
func writeError(c *gin.Context, err error) {
	var cfgErr *service.ConfigurationError
	var notFound *service.NotFoundError
	switch {
	case errors.As(err, &cfgErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "configuration_error", "reason": cfgErr.Reason})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "reason": notFound.Error()})
	case errors.Is(err, service.ErrInvalidPhone):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_phone", "reason": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}

// badRequest rejects a body that failed to bind. Bad weight keys are a
// configuration error like any other invalid weight vector.
func badRequest(c *gin.Context, err error) {
	var keyErr *model.WeightKeyError
	if errors.As(err, &keyErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "configuration_error", "reason": keyErr.Error()})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
}
