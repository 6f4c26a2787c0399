package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"phonecbr/internal/model"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// ErrVectorsDisabled is returned by feature vector operations when the
// repository was opened without pgvector support.
var ErrVectorsDisabled = errors.New("feature vectors require postgres with pgvector enabled")

// PostgresOptions configures a Postgres catalog.
type PostgresOptions struct {
	MaxConnections     int
	MaxIdleConnections int
	EnableVectors      bool
}

// NewPostgresRepository connects to Postgres and applies migrations
func NewPostgresRepository(dsn string, opts PostgresOptions) (*Repository, error) {
	db, err := sqlx.Connect(driverPostgres, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(opts.MaxConnections)
	db.SetMaxIdleConns(opts.MaxIdleConnections)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	list := migrations
	if opts.EnableVectors {
		list = append(append([]Migration{}, migrations...), vectorMigration)
	}
	if err := migrate(context.Background(), db, driverPostgres, list); err != nil {
		db.Close()
		return nil, err
	}

	return &Repository{db: db, driver: driverPostgres, vectors: opts.EnableVectors}, nil
}

// VectorsEnabled reports whether feature vectors are persisted.
func (r *Repository) VectorsEnabled() bool {
	return r.vectors
}

// SyncFeatures upserts the normalized feature vector of each phone, tagged with
// the catalog version it was computed for. Vectors left over from older
// versions are removed.
func (r *Repository) SyncFeatures(ctx context.Context, version uint64, items []model.FeatureItem) (int, []string) {
	success := 0
	var errs []string
	if !r.vectors {
		return 0, []string{ErrVectorsDisabled.Error()}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		errs = append(errs, fmt.Sprintf("failed to start transaction: %v", err))
		return success, errs
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO phone_features (phone_id, catalog_version, features, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (phone_id) DO UPDATE
		SET catalog_version = EXCLUDED.catalog_version, features = EXCLUDED.features, updated_at = NOW()
	`)
	if err != nil {
		errs = append(errs, fmt.Sprintf("failed to prepare statement: %v", err))
		return success, errs
	}
	defer stmt.Close()

	for _, item := range items {
		vec := pgvector.NewVector(item.Features)
		if _, err := stmt.ExecContext(ctx, item.PhoneID, int64(version), vec); err != nil {
			errs = append(errs, fmt.Sprintf("phone_id %d: %v", item.PhoneID, err))
			continue
		}
		success++
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM phone_features WHERE catalog_version <> $1`, int64(version)); err != nil {
		errs = append(errs, fmt.Sprintf("failed to prune stale vectors: %v", err))
		return 0, errs
	}
	if err := tx.Commit(); err != nil {
		errs = append(errs, fmt.Sprintf("failed to commit transaction: %v", err))
		return 0, errs
	}
	return success, errs
}

// NearestByFeatures returns the IDs of the phones whose stored vectors are
// closest (unweighted L2) to the given one.
func (r *Repository) NearestByFeatures(ctx context.Context, features []float32, limit int) ([]int64, error) {
	if !r.vectors {
		return nil, ErrVectorsDisabled
	}
	var ids []int64
	err := r.db.SelectContext(ctx, &ids,
		`SELECT phone_id FROM phone_features ORDER BY features <-> $1, phone_id LIMIT $2`,
		pgvector.NewVector(features), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query feature vectors: %w", err)
	}
	return ids, nil
}
