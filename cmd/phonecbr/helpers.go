package main

import (
	"fmt"
	"io"

	"phonecbr/internal/config"
	"phonecbr/internal/logging"
	"phonecbr/internal/repository"
	"phonecbr/internal/service"
	"phonecbr/internal/weights"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// env bundles what the commands need from configuration.
type env struct {
	cfg     *config.Config
	logger  zerolog.Logger
	repo    *repository.Repository
	catalog *service.CatalogService
	weights *service.WeightService
}

func newLogger(cmd *cobra.Command) zerolog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	return logging.New(logging.Config{Level: level, Format: format, Output: cmd.ErrOrStderr()})
}

// openEnv connects to the configured store and loads the catalog. The active
// weights come from the defaults; the CLI never persists them.
func openEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cmd)

	var repo *repository.Repository
	if cfg.Database.Driver == "postgres" {
		repo, err = repository.NewPostgresRepository(cfg.GetPostgreSQLDSN(), repository.PostgresOptions{
			MaxConnections:     cfg.Database.MaxConnections,
			MaxIdleConnections: cfg.Database.MaxIdleConnections,
			EnableVectors:      cfg.Database.EnableVectors,
		})
	} else {
		repo, err = repository.NewSQLiteRepository(cfg.Database.SQLitePath)
	}
	if err != nil {
		return nil, err
	}

	ws, err := service.NewWeightService(cmd.Context(), weights.NewMemoryStore(), logger)
	if err != nil {
		repo.Close()
		return nil, err
	}
	cs := service.NewCatalogService(repo, service.NewCatalog(nil), service.NewRanker(cfg.Recommend.Workers, logger), ws, logger)
	if _, err := cs.Reload(cmd.Context()); err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return &env{cfg: cfg, logger: logger, repo: repo, catalog: cs, weights: ws}, nil
}

func (e *env) Close() {
	_ = e.repo.Close()
}

func newProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}
