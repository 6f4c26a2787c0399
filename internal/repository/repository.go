package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"phonecbr/internal/model"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const (
	driverPostgres = "postgres"
	driverSQLite   = "sqlite3"
)

const phoneColumns = `id, name, brand, price, ram_gb, storage_gb, battery_mah, camera_spec,
	camera_mp, screen_in, rating, os, in_stock, release_year, created_at, updated_at`

// sortColumns maps public sort keys to columns.
var sortColumns = map[string]string{
	"id":      "id",
	"name":    "name",
	"brand":   "brand",
	"price":   "price",
	"ram":     "ram_gb",
	"storage": "storage_gb",
	"battery": "battery_mah",
	"camera":  "camera_mp",
	"screen":  "screen_in",
	"rating":  "rating",
}

// Repository handles catalog persistence over Postgres or SQLite.
type Repository struct {
	db      *sqlx.DB
	driver  string
	vectors bool
}

// NewSQLiteRepository opens (or creates) a SQLite catalog. Use ":memory:"
// for a throwaway database.
func NewSQLiteRepository(path string) (*Repository, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on&_busy_timeout=5000"
	}
	db, err := sqlx.Connect(driverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite serializes writers, and an in-memory database lives on one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	r := &Repository{db: db, driver: driverSQLite}
	if err := migrate(context.Background(), db, driverSQLite, migrations); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// Driver returns the database driver name.
func (r *Repository) Driver() string {
	return r.driver
}

// Ping checks the database connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListPhones returns every phone ordered by ID.
func (r *Repository) ListPhones(ctx context.Context) ([]model.Phone, error) {
	var phones []model.Phone
	query := fmt.Sprintf(`SELECT %s FROM phones ORDER BY id`, phoneColumns)
	if err := r.db.SelectContext(ctx, &phones, query); err != nil {
		return nil, fmt.Errorf("failed to list phones: %w", err)
	}
	return phones, nil
}

// QueryPhones returns one page of phones matching filter plus the total count.
func (r *Repository) QueryPhones(
	ctx context.Context,
	filter *model.PhoneFilter,
	sortBy, sortOrder string,
	limit, offset int,
) ([]model.Phone, int, error) {
	whereClauses := []string{"1=1"}
	args := []interface{}{}

	if filter != nil {
		if filter.Brand != nil {
			whereClauses = append(whereClauses, "LOWER(brand) = ?")
			args = append(args, strings.ToLower(*filter.Brand))
		}
		if filter.OS != nil {
			whereClauses = append(whereClauses, "LOWER(os) = ?")
			args = append(args, strings.ToLower(*filter.OS))
		}
		if filter.MinPrice != nil {
			whereClauses = append(whereClauses, "price >= ?")
			args = append(args, *filter.MinPrice)
		}
		if filter.MaxPrice != nil {
			whereClauses = append(whereClauses, "price <= ?")
			args = append(args, *filter.MaxPrice)
		}
		if filter.MinRAM != nil {
			whereClauses = append(whereClauses, "ram_gb >= ?")
			args = append(args, *filter.MinRAM)
		}
		if filter.InStock != nil {
			whereClauses = append(whereClauses, "in_stock = ?")
			args = append(args, *filter.InStock)
		}
		if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
			whereClauses = append(whereClauses, "(LOWER(name) LIKE ? OR LOWER(brand) LIKE ?)")
			pattern := "%" + strings.ToLower(strings.TrimSpace(*filter.Search)) + "%"
			args = append(args, pattern, pattern)
		}
	}
	whereClause := strings.Join(whereClauses, " AND ")

	var total int
	countQuery := r.db.Rebind(fmt.Sprintf("SELECT COUNT(*) FROM phones WHERE %s", whereClause))
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count phones: %w", err)
	}

	column, ok := sortColumns[strings.ToLower(sortBy)]
	if !ok {
		column = "price"
	}
	direction := "ASC"
	if strings.EqualFold(sortOrder, "desc") {
		direction = "DESC"
	}

	selectQuery := r.db.Rebind(fmt.Sprintf(`
		SELECT %s
		FROM phones
		WHERE %s
		ORDER BY %s %s, id ASC
		LIMIT ? OFFSET ?
	`, phoneColumns, whereClause, column, direction))
	args = append(args, limit, offset)

	phones := []model.Phone{}
	if err := r.db.SelectContext(ctx, &phones, selectQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to fetch phones: %w", err)
	}
	return phones, total, nil
}

// GetPhone retrieves a single phone by its ID. It returns nil, nil when the
// phone does not exist.
func (r *Repository) GetPhone(ctx context.Context, id int64) (*model.Phone, error) {
	var phone model.Phone
	query := r.db.Rebind(fmt.Sprintf(`SELECT %s FROM phones WHERE id = ?`, phoneColumns))
	err := r.db.GetContext(ctx, &phone, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get phone: %w", err)
	}
	return &phone, nil
}

const (
	insertWithID = `INSERT INTO phones (id, name, brand, price, ram_gb, storage_gb, battery_mah, camera_spec,
		camera_mp, screen_in, rating, os, in_stock, release_year, created_at, updated_at)
		VALUES (:id, :name, :brand, :price, :ram_gb, :storage_gb, :battery_mah, :camera_spec,
		:camera_mp, :screen_in, :rating, :os, :in_stock, :release_year, :created_at, :updated_at)
		RETURNING id`
	insertAutoID = `INSERT INTO phones (name, brand, price, ram_gb, storage_gb, battery_mah, camera_spec,
		camera_mp, screen_in, rating, os, in_stock, release_year, created_at, updated_at)
		VALUES (:name, :brand, :price, :ram_gb, :storage_gb, :battery_mah, :camera_spec,
		:camera_mp, :screen_in, :rating, :os, :in_stock, :release_year, :created_at, :updated_at)
		RETURNING id`
)

type queryRower interface {
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	Rebind(query string) string
}

func (r *Repository) insert(ctx context.Context, q queryRower, p *model.Phone) error {
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	stmt := insertAutoID
	if p.ID != 0 {
		stmt = insertWithID
	}
	query, args, err := sqlx.Named(stmt, p)
	if err != nil {
		return fmt.Errorf("failed to bind phone: %w", err)
	}
	if err := q.QueryRowxContext(ctx, q.Rebind(query), args...).Scan(&p.ID); err != nil {
		return fmt.Errorf("failed to insert phone: %w", err)
	}
	return nil
}

// InsertPhone appends a phone. A zero ID is assigned by the database.
func (r *Repository) InsertPhone(ctx context.Context, p *model.Phone) error {
	explicit := p.ID != 0
	if err := r.insert(ctx, r.db, p); err != nil {
		return err
	}
	if explicit {
		return r.syncSequence(ctx, r.db)
	}
	return nil
}

// InsertPhones appends phones in one transaction. Rows that fail are reported
// and skipped.
func (r *Repository) InsertPhones(ctx context.Context, phones []model.Phone) (int, []string) {
	success := 0
	var errs []string

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		errs = append(errs, fmt.Sprintf("failed to start transaction: %v", err))
		return success, errs
	}
	defer tx.Rollback()

	for i := range phones {
		if r.driver == driverPostgres {
			if _, err := tx.ExecContext(ctx, "SAVEPOINT phone_insert"); err != nil {
				errs = append(errs, fmt.Sprintf("failed to create savepoint: %v", err))
				return 0, errs
			}
		}
		if err := r.insert(ctx, tx, &phones[i]); err != nil {
			errs = append(errs, fmt.Sprintf("phone %q: %v", phones[i].Name, err))
			if r.driver == driverPostgres {
				_, _ = tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT phone_insert")
			}
			continue
		}
		success++
	}
	if err := r.syncSequence(ctx, tx); err != nil {
		errs = append(errs, err.Error())
		return 0, errs
	}
	if err := tx.Commit(); err != nil {
		errs = append(errs, fmt.Sprintf("failed to commit transaction: %v", err))
		return 0, errs
	}
	return success, errs
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// syncSequence moves the Postgres id sequence past explicitly inserted IDs.
func (r *Repository) syncSequence(ctx context.Context, e execer) error {
	if r.driver != driverPostgres {
		return nil
	}
	_, err := e.ExecContext(ctx,
		`SELECT setval(pg_get_serial_sequence('phones', 'id'), GREATEST((SELECT MAX(id) FROM phones), 1))`)
	if err != nil {
		return fmt.Errorf("failed to sync id sequence: %w", err)
	}
	return nil
}

// ReplacePhone overwrites every field of an existing phone. It reports false
// when the phone does not exist.
func (r *Repository) ReplacePhone(ctx context.Context, p *model.Phone) (bool, error) {
	p.UpdatedAt = time.Now().UTC()
	query, args, err := sqlx.Named(`UPDATE phones SET
		name = :name, brand = :brand, price = :price, ram_gb = :ram_gb, storage_gb = :storage_gb,
		battery_mah = :battery_mah, camera_spec = :camera_spec, camera_mp = :camera_mp,
		screen_in = :screen_in, rating = :rating, os = :os, in_stock = :in_stock,
		release_year = :release_year, updated_at = :updated_at
		WHERE id = :id`, p)
	if err != nil {
		return false, fmt.Errorf("failed to bind phone: %w", err)
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return false, fmt.Errorf("failed to replace phone: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to replace phone: %w", err)
	}
	return n > 0, nil
}

// DeletePhone removes a phone, reporting whether it existed.
func (r *Repository) DeletePhone(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM phones WHERE id = ?`), id)
	if err != nil {
		return false, fmt.Errorf("failed to delete phone: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete phone: %w", err)
	}
	return n > 0, nil
}

// LogRecommendation records a served recommendation.
func (r *Repository) LogRecommendation(ctx context.Context, entry model.RecommendationLog) error {
	query := r.db.Rebind(`
		INSERT INTO recommendation_logs (query, result_count, phone_ids, catalog_version, response_time_ms)
		VALUES (?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query, entry.Query, entry.ResultCount, entry.PhoneIDs, entry.CatalogVersion, entry.ResponseTimeMs)
	if err != nil {
		return fmt.Errorf("failed to log recommendation: %w", err)
	}
	return nil
}

// CountRecommendations returns the number of logged recommendations.
func (r *Repository) CountRecommendations(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM recommendation_logs`); err != nil {
		return 0, fmt.Errorf("failed to count recommendations: %w", err)
	}
	return n, nil
}
