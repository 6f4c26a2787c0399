package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups every HTTP handler of the service.
type Handlers struct {
	Health     *HealthHandler
	Recommend  *RecommendationHandler
	Phones     *PhoneHandler
	Admin      *AdminHandler
	Features   *FeatureHandler
	Evaluation *EvaluationHandler
}

// Register mounts all routes on router.
func (h *Handlers) Register(router *gin.Engine) {
	router.GET("/health", h.Health.Health)
	router.GET("/health/ready", h.Health.Ready)
	router.GET("/version", h.Health.Version)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiV1 := router.Group("/api/v1")
	{
		recs := apiV1.Group("/recommendations")
		recs.POST("", h.Recommend.Recommend)
		recs.POST("/quick", h.Recommend.Quick)
		recs.POST("/explain", h.Recommend.Explain)

		phones := apiV1.Group("/phones")
		phones.GET("", h.Phones.List)
		phones.GET("/statistics", h.Phones.Statistics)
		phones.GET("/brands", h.Phones.Brands)
		phones.GET("/price-ranges", h.Phones.PriceRanges)
		phones.GET("/:id", h.Phones.Get)
		phones.GET("/:id/similar", h.Phones.Similar)

		admin := apiV1.Group("/admin")
		admin.GET("/weights", h.Admin.GetWeights)
		admin.PUT("/weights", h.Admin.UpdateWeights)
		admin.POST("/weights/validate", h.Admin.ValidateWeights)
		admin.POST("/weights/reset", h.Admin.ResetWeights)
		admin.GET("/weights/presets", h.Admin.ListPresets)
		admin.POST("/weights/presets/:name", h.Admin.ApplyPreset)
		admin.POST("/phones", h.Admin.CreatePhone)
		admin.PUT("/phones/:id", h.Admin.UpdatePhone)
		admin.DELETE("/phones/:id", h.Admin.DeletePhone)
		admin.GET("/dashboard", h.Admin.Dashboard)
		admin.POST("/features/sync", h.Features.Sync)
		admin.GET("/features/:id/nearest", h.Features.Nearest)

		eval := apiV1.Group("/evaluation")
		eval.POST("/run", h.Evaluation.Run)
		eval.POST("/run/stream", h.Evaluation.RunStream)
		eval.GET("/compare/:s1/:s2", h.Evaluation.Compare)
		eval.GET("/visualization/:scenario", h.Evaluation.Visualization)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": "API endpoint not found"})
	})
}
