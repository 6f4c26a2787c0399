package handler

import (
	"net/http"

	"phonecbr/internal/model"
	"phonecbr/internal/service"

	"github.com/gin-gonic/gin"
)

// RecommendationHandler handles recommendation HTTP requests
type RecommendationHandler struct {
	recommendService *service.RecommendationService
}

// NewRecommendationHandler creates a new recommendation handler
func NewRecommendationHandler(recommendService *service.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{recommendService: recommendService}
}

// Recommend handles POST /api/v1/recommendations
func (h *RecommendationHandler) Recommend(c *gin.Context) {
	var req model.RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	response, err := h.recommendService.Recommend(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// Quick handles POST /api/v1/recommendations/quick
func (h *RecommendationHandler) Quick(c *gin.Context) {
	var req model.QuickRecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	response, err := h.recommendService.QuickRecommend(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// Explain handles POST /api/v1/recommendations/explain
func (h *RecommendationHandler) Explain(c *gin.Context) {
	var req model.ExplainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	response, err := h.recommendService.Explain(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}
