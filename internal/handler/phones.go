package handler

import (
	"net/http"
	"strconv"

	"phonecbr/internal/model"
	"phonecbr/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	defaultSimilarLimit = 5
	maxSimilarLimit     = 50
)

// PhoneHandler serves the public catalog endpoints
type PhoneHandler struct {
	catalogService *service.CatalogService
}

// NewPhoneHandler creates a new phone handler
func NewPhoneHandler(catalogService *service.CatalogService) *PhoneHandler {
	return &PhoneHandler{catalogService: catalogService}
}

// List handles GET /api/v1/phones
func (h *PhoneHandler) List(c *gin.Context) {
	var req model.PhoneListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	response, err := h.catalogService.List(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// Get handles GET /api/v1/phones/:id and includes similar phones
func (h *PhoneHandler) Get(c *gin.Context) {
	id, ok := phoneID(c)
	if !ok {
		return
	}

	response, err := h.catalogService.Similar(c.Request.Context(), id, defaultSimilarLimit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// Similar handles GET /api/v1/phones/:id/similar
func (h *PhoneHandler) Similar(c *gin.Context) {
	id, ok := phoneID(c)
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit", defaultSimilarLimit)
	if !ok {
		return
	}
	limit = min(limit, maxSimilarLimit)

	response, err := h.catalogService.Similar(c.Request.Context(), id, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// Statistics handles GET /api/v1/phones/statistics
func (h *PhoneHandler) Statistics(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalogService.Statistics(c.Request.Context()))
}

// Brands handles GET /api/v1/phones/brands
func (h *PhoneHandler) Brands(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"brands": h.catalogService.Brands(c.Request.Context())})
}

// PriceRanges handles GET /api/v1/phones/price-ranges
func (h *PhoneHandler) PriceRanges(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"price_ranges": h.catalogService.PriceRanges(c.Request.Context())})
}

func phoneID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid phone ID"})
		return 0, false
	}
	return id, true
}

func intQuery(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + key})
		return 0, false
	}
	return v, true
}
