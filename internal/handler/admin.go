package handler

import (
	"errors"
	"net/http"

	"phonecbr/internal/model"
	"phonecbr/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves weight management and catalog maintenance
type AdminHandler struct {
	weightService  *service.WeightService
	catalogService *service.CatalogService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(weightService *service.WeightService, catalogService *service.CatalogService) *AdminHandler {
	return &AdminHandler{weightService: weightService, catalogService: catalogService}
}

// GetWeights handles GET /api/v1/admin/weights
func (h *AdminHandler) GetWeights(c *gin.Context) {
	c.JSON(http.StatusOK, h.weightService.Describe())
}

// UpdateWeights handles PUT /api/v1/admin/weights. The body maps every
// attribute key to its weight.
func (h *AdminHandler) UpdateWeights(c *gin.Context) {
	var raw map[string]float64
	if err := c.ShouldBindJSON(&raw); err != nil {
		badRequest(c, err)
		return
	}
	w, err := service.WeightsFromMap(raw)
	if err != nil {
		writeError(c, err)
		return
	}

	validation, err := h.weightService.Update(c.Request.Context(), w)
	if err != nil {
		var cfgErr *service.ConfigurationError
		if errors.As(err, &cfgErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "configuration_error", "validation": validation})
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.weightService.Describe())
}

// ValidateWeights handles POST /api/v1/admin/weights/validate. It never
// changes the active vector.
func (h *AdminHandler) ValidateWeights(c *gin.Context) {
	var raw map[string]float64
	if err := c.ShouldBindJSON(&raw); err != nil {
		badRequest(c, err)
		return
	}
	w, err := service.WeightsFromMap(raw)
	if err != nil {
		var cfgErr *service.ConfigurationError
		if errors.As(err, &cfgErr) {
			c.JSON(http.StatusOK, model.WeightValidation{Reason: cfgErr.Reason})
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.ValidateWeights(w))
}

// ResetWeights handles POST /api/v1/admin/weights/reset
func (h *AdminHandler) ResetWeights(c *gin.Context) {
	if _, err := h.weightService.Reset(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.weightService.Describe())
}

// ListPresets handles GET /api/v1/admin/weights/presets
func (h *AdminHandler) ListPresets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"presets": service.Presets()})
}

// ApplyPreset handles POST /api/v1/admin/weights/presets/:name
func (h *AdminHandler) ApplyPreset(c *gin.Context) {
	if _, err := h.weightService.ApplyPreset(c.Request.Context(), c.Param("name")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.weightService.Describe())
}

// CreatePhone handles POST /api/v1/admin/phones
func (h *AdminHandler) CreatePhone(c *gin.Context) {
	var p model.Phone
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err)
		return
	}
	created, err := h.catalogService.Add(c.Request.Context(), &p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdatePhone handles PUT /api/v1/admin/phones/:id
func (h *AdminHandler) UpdatePhone(c *gin.Context) {
	id, ok := phoneID(c)
	if !ok {
		return
	}
	var p model.Phone
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err)
		return
	}
	updated, err := h.catalogService.Replace(c.Request.Context(), id, &p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeletePhone handles DELETE /api/v1/admin/phones/:id
func (h *AdminHandler) DeletePhone(c *gin.Context) {
	id, ok := phoneID(c)
	if !ok {
		return
	}
	if err := h.catalogService.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Dashboard handles GET /api/v1/admin/dashboard
func (h *AdminHandler) Dashboard(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalogService.Dashboard(c.Request.Context()))
}
