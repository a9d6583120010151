package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Run represents a row in the parse_runs table.
type Run struct {
	ID             string          `json:"id"`
	Filename       string          `json:"filename"`
	Format         string          `json:"format"`
	Mode           string          `json:"mode"`
	Method         string          `json:"method"`
	ContentHash    string          `json:"content_hash"`
	ProductCount   int             `json:"product_count"`
	VariationCount int             `json:"variation_count"`
	WarningCount   int             `json:"warning_count"`
	Products       json.RawMessage `json:"products,omitempty"`
	CreatedAt      string          `json:"created_at"`
}

// Stats holds counts of stored rows.
type Stats struct {
	Runs          int `json:"runs"`
	OrderedCodes  int `json:"ordered_codes"`
	SchemaVersion int `json:"schema_version"`
}

// Store wraps the SQLite database holding parse history and the preferred
// product order.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at the given path, creates the
// schema and runs pending migrations.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db}

	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// --- Parse runs ---

// InsertRun records a parse run. The ID is chosen by the caller.
func (s *Store) InsertRun(ctx context.Context, r Run) error {
	products := r.Products
	if len(products) == 0 {
		products = json.RawMessage("[]")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO parse_runs (id, filename, format, mode, method, content_hash,
			product_count, variation_count, warning_count, products)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Filename, r.Format, r.Mode, r.Method, r.ContentHash,
		r.ProductCount, r.VariationCount, r.WarningCount, string(products))
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", r.ID, err)
	}
	return nil
}

// GetRun retrieves a run with its products. It returns sql.ErrNoRows when
// the ID is unknown.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	r := &Run{}
	var products string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, filename, format, mode, method, content_hash,
			product_count, variation_count, warning_count, products, created_at
		FROM parse_runs WHERE id = ?
	`, id).Scan(&r.ID, &r.Filename, &r.Format, &r.Mode, &r.Method, &r.ContentHash,
		&r.ProductCount, &r.VariationCount, &r.WarningCount, &products, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.Products = json.RawMessage(products)
	return r, nil
}

// ListRuns returns run summaries, newest first, without their products.
// A limit <= 0 returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, format, mode, method, content_hash,
			product_count, variation_count, warning_count, created_at
		FROM parse_runs ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Filename, &r.Format, &r.Mode, &r.Method, &r.ContentHash,
			&r.ProductCount, &r.VariationCount, &r.WarningCount, &r.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run. It returns sql.ErrNoRows when the ID is unknown.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM parse_runs WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// --- Product order ---

// ProductOrder returns the stored product codes in priority order.
func (s *Store) ProductOrder(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT code FROM product_order ORDER BY position")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// SetProductOrder replaces the stored order. Duplicate and empty codes are
// dropped, keeping the first occurrence.
func (s *Store) SetProductOrder(ctx context.Context, codes []string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM product_order"); err != nil {
			return fmt.Errorf("clearing product order: %w", err)
		}
		seen := make(map[string]bool, len(codes))
		pos := 0
		for _, code := range codes {
			if code == "" || seen[code] {
				continue
			}
			seen[code] = true
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO product_order (position, code) VALUES (?, ?)", pos, code); err != nil {
				return fmt.Errorf("inserting product %s: %w", code, err)
			}
			pos++
		}
		return nil
	})
}

// Stats returns row counts and the schema version.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	queries := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM parse_runs", &stats.Runs},
		{"SELECT COUNT(*) FROM product_order", &stats.OrderedCodes},
		{"SELECT COALESCE(MAX(version), 0) FROM schema_version", &stats.SchemaVersion},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("counting %s: %w", q.query, err)
		}
	}
	return stats, nil
}

// --- helpers ---

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
