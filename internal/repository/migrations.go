package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Migration represents a database schema migration. Statements are keyed by
// driver name.
type Migration struct {
	Version     int
	Description string
	Statements  map[string][]string
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Phone catalog",
		Statements: map[string][]string{
			driverPostgres: {
				`CREATE TABLE IF NOT EXISTS phones (
					id BIGSERIAL PRIMARY KEY,
					name TEXT NOT NULL,
					brand TEXT NOT NULL,
					price DOUBLE PRECISION NOT NULL CHECK (price >= 0),
					ram_gb DOUBLE PRECISION NOT NULL CHECK (ram_gb >= 0),
					storage_gb DOUBLE PRECISION NOT NULL CHECK (storage_gb >= 0),
					battery_mah DOUBLE PRECISION NOT NULL CHECK (battery_mah >= 0),
					camera_spec TEXT NOT NULL DEFAULT '',
					camera_mp DOUBLE PRECISION NOT NULL CHECK (camera_mp >= 0),
					screen_in DOUBLE PRECISION NOT NULL CHECK (screen_in >= 0),
					rating DOUBLE PRECISION NOT NULL CHECK (rating >= 0 AND rating <= 5),
					os TEXT NOT NULL DEFAULT '',
					in_stock BOOLEAN NOT NULL DEFAULT TRUE,
					release_year INTEGER,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				)`,
				`CREATE INDEX IF NOT EXISTS idx_phones_brand ON phones(brand)`,
				`CREATE INDEX IF NOT EXISTS idx_phones_price ON phones(price)`,
			},
			driverSQLite: {
				`CREATE TABLE IF NOT EXISTS phones (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					brand TEXT NOT NULL,
					price REAL NOT NULL CHECK (price >= 0),
					ram_gb REAL NOT NULL CHECK (ram_gb >= 0),
					storage_gb REAL NOT NULL CHECK (storage_gb >= 0),
					battery_mah REAL NOT NULL CHECK (battery_mah >= 0),
					camera_spec TEXT NOT NULL DEFAULT '',
					camera_mp REAL NOT NULL CHECK (camera_mp >= 0),
					screen_in REAL NOT NULL CHECK (screen_in >= 0),
					rating REAL NOT NULL CHECK (rating >= 0 AND rating <= 5),
					os TEXT NOT NULL DEFAULT '',
					in_stock BOOLEAN NOT NULL DEFAULT 1,
					release_year INTEGER,
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX IF NOT EXISTS idx_phones_brand ON phones(brand)`,
				`CREATE INDEX IF NOT EXISTS idx_phones_price ON phones(price)`,
			},
		},
	},
	{
		Version:     2,
		Description: "Recommendation audit log",
		Statements: map[string][]string{
			driverPostgres: {
				`CREATE TABLE IF NOT EXISTS recommendation_logs (
					id BIGSERIAL PRIMARY KEY,
					query JSONB,
					result_count INTEGER NOT NULL,
					phone_ids TEXT NOT NULL DEFAULT '',
					catalog_version BIGINT NOT NULL,
					response_time_ms INTEGER NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				)`,
			},
			driverSQLite: {
				`CREATE TABLE IF NOT EXISTS recommendation_logs (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					query TEXT,
					result_count INTEGER NOT NULL,
					phone_ids TEXT NOT NULL DEFAULT '',
					catalog_version INTEGER NOT NULL,
					response_time_ms INTEGER NOT NULL,
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`,
			},
		},
	},
}

// vectorMigration creates the pgvector feature table. It only runs on
// Postgres when feature sync is enabled.
var vectorMigration = Migration{
	Version:     100,
	Description: "Normalized feature vectors",
	Statements: map[string][]string{
		driverPostgres: {
			`CREATE EXTENSION IF NOT EXISTS vector`,
			`CREATE TABLE IF NOT EXISTS phone_features (
				phone_id BIGINT PRIMARY KEY REFERENCES phones(id) ON DELETE CASCADE,
				catalog_version BIGINT NOT NULL,
				features vector(7) NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
		},
	},
}

// migrate applies every pending migration inside its own transaction.
func migrate(ctx context.Context, db *sqlx.DB, driver string, list []Migration) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		description TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var applied []int
	if err := db.SelectContext(ctx, &applied, `SELECT version FROM schema_migrations`); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	done := make(map[int]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	for _, m := range list {
		if done[m.Version] {
			continue
		}
		stmts, ok := m.Statements[driver]
		if !ok {
			continue
		}
		if err := applyMigration(ctx, db, m, stmts); err != nil {
			return err
		}
	}
	return nil
}

func applyMigration(ctx context.Context, db *sqlx.DB, m Migration, stmts []string) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start migration %d: %w", m.Version, err)
	}
	defer tx.Rollback()

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO schema_migrations (version, description) VALUES (?, ?)`), m.Version, m.Description); err != nil {
		return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
	}
	return nil
}
