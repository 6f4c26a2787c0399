package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"phonecbr/internal/model"
	"phonecbr/internal/service"

	"github.com/gin-gonic/gin"
)

// EvaluationHandler handles evaluation HTTP requests
type EvaluationHandler struct {
	evaluationService *service.EvaluationService
}

// NewEvaluationHandler creates a new evaluation handler
func NewEvaluationHandler(evaluationService *service.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{evaluationService: evaluationService}
}

// Run handles POST /api/v1/evaluation/run
func (h *EvaluationHandler) Run(c *gin.Context) {
	var req model.EvaluationRunRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}

	response, err := h.evaluationService.Run(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// RunStream handles POST /api/v1/evaluation/run/stream - SSE progress stream
func (h *EvaluationHandler) RunStream(c *gin.Context) {
	var req model.EvaluationRunRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
		return
	}

	_, err := h.evaluationService.RunStream(c.Request.Context(), &req, func(event string, data any) error {
		sendSSE(c, event, data)
		flusher.Flush()
		return c.Request.Context().Err()
	})
	if err != nil {
		sendSSE(c, "error", map[string]any{"error": err.Error()})
		flusher.Flush()
		return
	}

	sendSSE(c, "done", nil)
	flusher.Flush()
}

// Compare handles GET /api/v1/evaluation/compare/:s1/:s2
func (h *EvaluationHandler) Compare(c *gin.Context) {
	k, ok := kQuery(c)
	if !ok {
		return
	}
	response, err := h.evaluationService.Compare(c.Request.Context(), c.Param("s1"), c.Param("s2"), k)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// Visualization handles GET /api/v1/evaluation/visualization/:scenario
func (h *EvaluationHandler) Visualization(c *gin.Context) {
	k, ok := kQuery(c)
	if !ok {
		return
	}
	response, err := h.evaluationService.Visualization(c.Request.Context(), c.Param("scenario"), k)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// kQuery reads the optional k parameter; zero selects the service default.
func kQuery(c *gin.Context) (int, bool) {
	if c.Query("k") == "" {
		return 0, true
	}
	return intQuery(c, "k", 0)
}

// bindOptionalJSON binds a JSON body when one is sent.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBindJSON(dst)
}

// sendSSE sends a Server-Sent Event
func sendSSE(c *gin.Context, event string, data any) {
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			fmt.Fprintf(c.Writer, "event: error\ndata: {\"error\": \"JSON marshal failed\"}\n\n")
			return
		}
		fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, string(jsonData))
	} else {
		fmt.Fprintf(c.Writer, "event: %s\ndata: {}\n\n", event)
	}
}
