package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"phonecbr/internal/model"
	"phonecbr/internal/repository"
	"phonecbr/internal/service"
	"phonecbr/internal/weights"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPhones() []model.Phone {
	return []model.Phone{
		{ID: 1, Name: "Galaxy A15", Brand: "Samsung", Price: 2_500_000, RAM: 6, Storage: 128, Battery: 5000, CameraMP: 50, ScreenSize: 6.5, Rating: 4.3, OS: "Android", InStock: true},
		{ID: 2, Name: "Redmi Note 13", Brand: "Xiaomi", Price: 3_200_000, RAM: 8, Storage: 256, Battery: 5000, CameraMP: 108, ScreenSize: 6.67, Rating: 4.5, OS: "Android", InStock: true},
		{ID: 3, Name: "iPhone 15", Brand: "Apple", Price: 15_000_000, RAM: 6, Storage: 128, Battery: 3349, CameraMP: 48, ScreenSize: 6.1, Rating: 4.8, OS: "iOS", InStock: true},
		{ID: 4, Name: "ROG Phone 8", Brand: "Asus", Price: 14_000_000, RAM: 16, Storage: 512, Battery: 5500, CameraMP: 50, ScreenSize: 6.78, Rating: 4.7, OS: "Android", InStock: false},
		{ID: 5, Name: "Poco X6 Pro", Brand: "Poco", Price: 4_700_000, RAM: 12, Storage: 512, Battery: 5000, CameraMP: 64, ScreenSize: 6.67, Rating: 4.6, OS: "Android", InStock: true},
		{ID: 6, Name: "Itel A70", Brand: "Itel", Price: 1_200_000, RAM: 4, Storage: 64, Battery: 5000, CameraMP: 13, ScreenSize: 6.6, Rating: 4.0, OS: "Android", InStock: true},
	}
}

func newTestRouter(t *testing.T, checks ...Check) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	logger := zerolog.Nop()

	repo, err := repository.NewSQLiteRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	_, errs := repo.InsertPhones(ctx, testPhones())
	require.Empty(t, errs)

	weightService, err := service.NewWeightService(ctx, weights.NewMemoryStore(), logger)
	require.NoError(t, err)
	catalog := service.NewCatalog(nil)
	ranker := service.NewRanker(2, logger)
	catalogService := service.NewCatalogService(repo, catalog, ranker, weightService, logger)
	_, err = catalogService.Reload(ctx)
	require.NoError(t, err)

	recommendService := service.NewRecommendationService(catalog, weightService, ranker, service.NewIntentParser(), repo,
		service.RecommendSettings{DefaultTopK: 3, MaxTopK: 5}, logger)
	evaluationService := service.NewEvaluationService(catalog, weightService, service.NewEvaluator(2, service.DefaultSplitSeed, logger), 3, logger)

	handlers := &Handlers{
		Health:     NewHealthHandler(BuildInfo{Version: "test"}, checks...),
		Recommend:  NewRecommendationHandler(recommendService),
		Phones:     NewPhoneHandler(catalogService),
		Admin:      NewAdminHandler(weightService, catalogService),
		Features:   NewFeatureHandler(catalogService),
		Evaluation: NewEvaluationHandler(evaluationService),
	}
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger))
	handlers.Register(router)
	return router
}

func do(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t,
		Check{Name: "database", Probe: func(context.Context) error { return nil }},
	)

	w := do(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode[map[string]any](t, w)["status"])

	w = do(t, router, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodGet, "/version", nil)
	assert.Equal(t, "test", decode[BuildInfo](t, w).Version)

	w = do(t, router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	failing := newTestRouter(t, Check{Name: "redis", Probe: func(context.Context) error { return errors.New("down") }})
	w = do(t, failing, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	ready := decode[map[string]any](t, w)
	assert.Equal(t, false, ready["ready"])
	assert.Equal(t, "down", ready["checks"].(map[string]any)["redis"])
}

func TestRecommendEndpoints(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodPost, "/api/v1/recommendations", map[string]any{
		"query": map[string]any{"price": 3_000_000, "ram": 8, "max_price": 5_000_000},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[model.RecommendResponse](t, w)
	require.Len(t, resp.Results, 3)
	for _, r := range resp.Results {
		assert.LessOrEqual(t, r.Phone.Price, 5_000_000.0)
		assert.NotEmpty(t, r.Explanations)
	}

	w = do(t, router, http.MethodPost, "/api/v1/recommendations", map[string]any{
		"query":   map[string]any{"price": 3_000_000},
		"weights": map[string]any{"price": 90, "ram": 10},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "configuration_error", decode[map[string]any](t, w)["error"])

	extra := map[string]any{
		"price": 25, "ram": 15, "storage": 10, "battery": 15, "camera": 10,
		"screen": 5, "rating": 10, "brand": 5, "os": 5, "speed": 5,
	}
	w = do(t, router, http.MethodPost, "/api/v1/recommendations", map[string]any{
		"query":   map[string]any{"price": 3_000_000},
		"weights": extra,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "configuration_error", body["error"])
	assert.Contains(t, body["reason"], "speed")

	w = do(t, router, http.MethodPost, "/api/v1/evaluation/run", map[string]any{"weights": extra})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "configuration_error", decode[map[string]any](t, w)["error"])

	w = do(t, router, http.MethodPost, "/api/v1/recommendations/quick", map[string]any{"usage": "kamera bagus 5 juta"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	quick := decode[model.RecommendResponse](t, w)
	require.NotNil(t, quick.Usage)
	assert.Equal(t, service.ProfilePhotography, quick.Usage.Profile)

	w = do(t, router, http.MethodPost, "/api/v1/recommendations/explain", map[string]any{
		"phone_id": 2,
		"query":    map[string]any{"max_price": 4_000_000},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode[model.ExplainResponse](t, w).Explanations)

	w = do(t, router, http.MethodPost, "/api/v1/recommendations/explain", map[string]any{"phone_id": 99})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, http.MethodPost, "/api/v1/recommendations/explain", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPhoneEndpoints(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodGet, "/api/v1/phones?brand=samsung", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[model.PhoneListResponse](t, w)
	assert.Equal(t, 1, list.Total)

	w = do(t, router, http.MethodGet, "/api/v1/phones?limit=2&page=2&sort_by=price", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list = decode[model.PhoneListResponse](t, w)
	require.Len(t, list.Phones, 2)
	assert.Equal(t, "Redmi Note 13", list.Phones[0].Name)

	w = do(t, router, http.MethodGet, "/api/v1/phones/2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[model.SimilarResponse](t, w)
	assert.Equal(t, int64(2), detail.Phone.ID)
	assert.Len(t, detail.Similar, 5)

	w = do(t, router, http.MethodGet, "/api/v1/phones/2/similar?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[model.SimilarResponse](t, w).Similar, 2)

	w = do(t, router, http.MethodGet, "/api/v1/phones/2/similar?limit=9223372036854775807", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[model.SimilarResponse](t, w).Similar, 5)

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/v1/phones/abc", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/v1/phones/2/similar?limit=-1", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/v1/phones/99", nil).Code)

	w = do(t, router, http.MethodGet, "/api/v1/phones/statistics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 6, decode[model.CatalogStatistics](t, w).TotalPhones)

	w = do(t, router, http.MethodGet, "/api/v1/phones/brands", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[map[string][]model.BrandCount](t, w)["brands"], 6)

	w = do(t, router, http.MethodGet, "/api/v1/phones/price-ranges", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[map[string][]model.PriceRange](t, w)["price_ranges"], 5)
}

func TestAdminWeightEndpoints(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodGet, "/api/v1/admin/weights", nil)
	require.Equal(t, http.StatusOK, w.Code)
	current := decode[model.WeightsResponse](t, w)
	assert.Equal(t, model.DefaultWeights(), current.Weights)
	assert.Equal(t, "default", current.Source)

	valid := map[string]float64{"price": 20, "ram": 20, "storage": 10, "battery": 10, "camera": 10, "screen": 10, "rating": 10, "brand": 5, "os": 5}
	w = do(t, router, http.MethodPost, "/api/v1/admin/weights/validate", valid)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[model.WeightValidation](t, w).Valid)

	invalid := map[string]float64{"price": 50, "ram": 20, "storage": 10, "battery": 10, "camera": 10, "screen": 10, "rating": 10, "brand": 5, "os": 5}
	w = do(t, router, http.MethodPost, "/api/v1/admin/weights/validate", invalid)
	require.Equal(t, http.StatusOK, w.Code)
	validation := decode[model.WeightValidation](t, w)
	assert.False(t, validation.Valid)
	assert.Equal(t, 130.0, validation.Total)

	w = do(t, router, http.MethodPut, "/api/v1/admin/weights", invalid)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, router, http.MethodGet, "/api/v1/admin/weights", nil)
	assert.Equal(t, model.DefaultWeights(), decode[model.WeightsResponse](t, w).Weights, "rejected update leaves weights unchanged")

	w = do(t, router, http.MethodPut, "/api/v1/admin/weights", valid)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[model.WeightsResponse](t, w)
	assert.Equal(t, 20.0, updated.Weights.Price)
	assert.Equal(t, "custom", updated.Source)

	w = do(t, router, http.MethodGet, "/api/v1/admin/weights/presets", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[map[string][]model.WeightPreset](t, w)["presets"], 5)

	w = do(t, router, http.MethodPost, "/api/v1/admin/weights/presets/photography", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "preset:photography", decode[model.WeightsResponse](t, w).Source)

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodPost, "/api/v1/admin/weights/presets/unknown", nil).Code)

	w = do(t, router, http.MethodPost, "/api/v1/admin/weights/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.DefaultWeights(), decode[model.WeightsResponse](t, w).Weights)
}

func TestAdminPhoneEndpoints(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodPost, "/api/v1/admin/phones", map[string]any{
		"name": "Nokia G42", "brand": "nokia", "price": 2_000_000, "ram": 6, "storage": 128,
		"battery": 5000, "camera_spec": "50 MP", "screen_size": 6.56, "rating": 4.1, "os": "Android 13",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[model.Phone](t, w)
	assert.Equal(t, int64(7), created.ID)
	assert.Equal(t, "Nokia", created.Brand)
	assert.Equal(t, 50.0, created.CameraMP)

	w = do(t, router, http.MethodPost, "/api/v1/admin/phones", map[string]any{"name": "No Brand", "rating": 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_phone", decode[map[string]any](t, w)["error"])

	created.Price = 1_900_000
	w = do(t, router, http.MethodPut, "/api/v1/admin/phones/7", created)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1_900_000.0, decode[model.Phone](t, w).Price)

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodPut, "/api/v1/admin/phones/99", created).Code)

	assert.Equal(t, http.StatusNoContent, do(t, router, http.MethodDelete, "/api/v1/admin/phones/7", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodDelete, "/api/v1/admin/phones/7", nil).Code)

	w = do(t, router, http.MethodGet, "/api/v1/admin/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)
	dash := decode[model.Dashboard](t, w)
	assert.Equal(t, 6, dash.TotalPhones)
	assert.Len(t, dash.TopRated, 5)
}

func TestFeatureEndpointsWithoutPgvector(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodPost, "/api/v1/admin/features/sync", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "configuration_error", decode[map[string]any](t, w)["error"])

	w = do(t, router, http.MethodGet, "/api/v1/admin/features/1/nearest", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEvaluationEndpoints(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodPost, "/api/v1/evaluation/run", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	run := decode[model.EvaluationRunResponse](t, w)
	require.Len(t, run.Results, 2)
	assert.NotEmpty(t, run.BestScenario)

	w = do(t, router, http.MethodPost, "/api/v1/evaluation/run", map[string]any{"k": -2})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/evaluation/compare/70-30/80-20?k=1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decode[model.EvaluationComparison](t, w).Deltas, 4)

	w = do(t, router, http.MethodGet, "/api/v1/evaluation/compare/abc/80-20", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/evaluation/compare/9223372036854775805-9223372036854775807/70-30", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "configuration_error", decode[map[string]any](t, w)["error"])

	w = do(t, router, http.MethodPost, "/api/v1/evaluation/run", map[string]any{
		"scenarios": []map[string]int{{"train": 150, "test": -50}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/evaluation/visualization/70-30", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[model.VisualizationData](t, w).Heatmap, 9)

	w = do(t, router, http.MethodPost, "/api/v1/evaluation/run/stream", map[string]any{"scenarios": []map[string]int{{"train": 70, "test": 30}}})
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "event: started\n"), body)
	assert.Contains(t, body, "event: scenario\n")
	assert.Contains(t, body, "event: completed\n")
	assert.True(t, strings.HasSuffix(body, "event: done\ndata: {}\n\n"))
}
