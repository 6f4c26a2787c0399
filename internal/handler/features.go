package handler

import (
	"net/http"

	"phonecbr/internal/service"

	"github.com/gin-gonic/gin"
)

// FeatureHandler handles feature vector HTTP requests
type FeatureHandler struct {
	catalogService *service.CatalogService
}

// NewFeatureHandler creates a new feature handler
func NewFeatureHandler(catalogService *service.CatalogService) *FeatureHandler {
	return &FeatureHandler{
		catalogService: catalogService,
	}
}

// Sync handles POST /api/v1/admin/features/sync
func (h *FeatureHandler) Sync(c *gin.Context) {
	response, err := h.catalogService.SyncFeatures(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	if len(response.Errors) > 0 {
		c.JSON(http.StatusPartialContent, response)
	} else {
		c.JSON(http.StatusOK, response)
	}
}

// Nearest handles GET /api/v1/admin/features/:id/nearest
func (h *FeatureHandler) Nearest(c *gin.Context) {
	id, ok := phoneID(c)
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit", defaultSimilarLimit)
	if !ok {
		return
	}
	limit = min(limit, maxSimilarLimit)

	phones, err := h.catalogService.NearestStored(c.Request.Context(), id, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"phone_id": id, "nearest": phones})
}
