package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"phonecbr/internal/config"
	"phonecbr/internal/handler"
	"phonecbr/internal/importer"
	"phonecbr/internal/logging"
	"phonecbr/internal/repository"
	"phonecbr/internal/service"
	"phonecbr/internal/weights"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Service: "phonecbr",
	})
	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("Phone recommendation service")

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx := context.Background()

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	repo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()
	logger.Info().Str("driver", repo.Driver()).Bool("vectors", repo.VectorsEnabled()).Msg("Connected to catalog database")

	checks := []handler.Check{{Name: "database", Probe: repo.Ping}}

	var weightStore service.WeightStore = weights.NewMemoryStore()
	if cfg.Redis.Enabled {
		redisStore, err := weights.NewRedisStore(weights.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return err
		}
		defer redisStore.Close()
		weightStore = redisStore
		checks = append(checks, handler.Check{Name: "redis", Probe: redisStore.Ping})
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("Weights persisted in Redis")
	}

	// Initialize services
	weightService, err := service.NewWeightService(ctx, weightStore, logger)
	if err != nil {
		return err
	}
	catalog := service.NewCatalog(nil)
	ranker := service.NewRanker(cfg.Recommend.Workers, logger)
	catalogService := service.NewCatalogService(repo, catalog, ranker, weightService, logger)
	if repo.VectorsEnabled() {
		catalogService.WithFeatureStore(repo)
	}
	if _, err := catalogService.Reload(ctx); err != nil {
		return err
	}
	if catalog.Len() == 0 && cfg.Catalog.SeedFile != "" {
		if err := seedCatalog(ctx, catalogService, cfg.Catalog.SeedFile, logger); err != nil {
			return err
		}
	}
	checks = append(checks, handler.Check{Name: "catalog", Probe: func(context.Context) error {
		if catalog.Len() == 0 {
			return errors.New("catalog is empty")
		}
		return nil
	}})

	recommendService := service.NewRecommendationService(
		catalog,
		weightService,
		ranker,
		service.NewIntentParser(),
		repo,
		service.RecommendSettings{
			DefaultTopK:   cfg.Recommend.DefaultTopK,
			MaxTopK:       cfg.Recommend.MaxTopK,
			MinSimilarity: cfg.Recommend.MinSimilarity,
		},
		logger,
	)
	evaluator := service.NewEvaluator(cfg.Recommend.Workers, cfg.Evaluation.Seed, logger)
	evaluationService := service.NewEvaluationService(catalog, weightService, evaluator, cfg.Evaluation.DefaultK, logger)

	handlers := &handler.Handlers{
		Health: handler.NewHealthHandler(handler.BuildInfo{
			Version:   Version,
			BuildTime: BuildTime,
			GitCommit: GitCommit,
		}, checks...),
		Recommend:  handler.NewRecommendationHandler(recommendService),
		Phones:     handler.NewPhoneHandler(catalogService),
		Admin:      handler.NewAdminHandler(weightService, catalogService),
		Features:   handler.NewFeatureHandler(catalogService),
		Evaluation: handler.NewEvaluationHandler(evaluationService),
	}

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery(), handler.RequestLogger(logger))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = config.CORSList(cfg.Server.AllowedOrigins)
	corsConfig.AllowMethods = config.CORSList(cfg.Server.AllowedMethods)
	corsConfig.AllowHeaders = config.CORSList(cfg.Server.AllowedHeaders)
	router.Use(cors.New(corsConfig))

	handlers.Register(router)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("failed to start server: %w", err)
	case <-quit:
	}

	logger.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info().Msg("Server stopped")
	return nil
}

func openRepository(cfg *config.Config) (*repository.Repository, error) {
	if cfg.Database.Driver == "postgres" {
		return repository.NewPostgresRepository(cfg.GetPostgreSQLDSN(), repository.PostgresOptions{
			MaxConnections:     cfg.Database.MaxConnections,
			MaxIdleConnections: cfg.Database.MaxIdleConnections,
			EnableVectors:      cfg.Database.EnableVectors,
		})
	}
	return repository.NewSQLiteRepository(cfg.Database.SQLitePath)
}

func seedCatalog(ctx context.Context, catalogService *service.CatalogService, path string, logger zerolog.Logger) error {
	res, err := importer.LoadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed catalog: %w", err)
	}
	for _, rej := range res.Rejected {
		logger.Warn().Int("row", rej.Row).Err(rej.Err).Msg("Seed row rejected")
	}
	inserted, errs, err := catalogService.Import(ctx, res.Phones, nil)
	if err != nil {
		return err
	}
	for _, e := range errs {
		logger.Warn().Str("error", e).Msg("Seed phone not stored")
	}
	logger.Info().Str("file", path).Int("inserted", inserted).Msg("Catalog seeded")
	return nil
}
