// Package store persists the unified dataset into a SQLite database so a run
// can be inspected with plain SQL afterwards. The database is a diagnostic
// artifact: every run truncates and rewrites it.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	apperrors "retailcli/internal/errors"
	"retailcli/pkg/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS unified_records (
	sale_id        INTEGER NOT NULL,
	date           TEXT    NOT NULL,
	customer_id    INTEGER NOT NULL,
	payment_method TEXT,
	product_id     INTEGER NOT NULL,
	product_name   TEXT,
	category       TEXT,
	quantity       INTEGER NOT NULL,
	unit_price     REAL    NOT NULL,
	amount         REAL    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_unified_product ON unified_records(product_id);
CREATE INDEX IF NOT EXISTS idx_unified_date ON unified_records(date);
`

// Store wraps the SQLite connection.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// Open opens (creating if necessary) the SQLite database at path and ensures
// the schema exists.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, apperrors.NewStorageError("failed to create database directory", err)
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open sqlite database "+path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, apperrors.NewStorageError("failed to create schema", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

type unifiedRow struct {
	SaleID        int     `db:"sale_id"`
	Date          string  `db:"date"`
	CustomerID    int     `db:"customer_id"`
	PaymentMethod string  `db:"payment_method"`
	ProductID     int     `db:"product_id"`
	ProductName   string  `db:"product_name"`
	Category      string  `db:"category"`
	Quantity      int     `db:"quantity"`
	UnitPrice     float64 `db:"unit_price"`
	Amount        float64 `db:"amount"`
}

// SaveUnifiedRecords replaces the stored dataset with records, all in one
// transaction.
func (s *Store) SaveUnifiedRecords(ctx context.Context, records []domain.UnifiedRecord) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM unified_records"); err != nil {
		return apperrors.NewStorageError("failed to truncate unified_records", err)
	}

	const insert = `INSERT INTO unified_records
		(sale_id, date, customer_id, payment_method, product_id, product_name, category, quantity, unit_price, amount)
		VALUES (:sale_id, :date, :customer_id, :payment_method, :product_id, :product_name, :category, :quantity, :unit_price, :amount)`

	for _, r := range records {
		row := unifiedRow{
			SaleID:        r.SaleID,
			Date:          r.Date.Format("2006-01-02"),
			CustomerID:    r.CustomerID,
			PaymentMethod: r.PaymentMethod,
			ProductID:     r.ProductID,
			ProductName:   r.ProductName,
			Category:      r.Category,
			Quantity:      r.Quantity,
			UnitPrice:     r.UnitPrice,
			Amount:        r.Amount,
		}
		if _, err := tx.NamedExecContext(ctx, insert, row); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to insert record for sale %d", r.SaleID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStorageError("failed to commit unified records", err)
	}

	s.logger.InfoContext(ctx, "unified records persisted",
		slog.Int("records", len(records)))
	return nil
}

// CountRecords returns the number of stored unified records.
func (s *Store) CountRecords(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM unified_records"); err != nil {
		return 0, apperrors.NewStorageError("failed to count unified records", err)
	}
	return count, nil
}

// MonthlyProductTotals reads back the per-product monthly quantity sums, the
// SQL view of what the in-memory aggregation computes.
func (s *Store) MonthlyProductTotals(ctx context.Context) (map[int]int64, error) {
	rows := []struct {
		ProductID int   `db:"product_id"`
		Total     int64 `db:"total"`
	}{}
	const query = `SELECT product_id, SUM(quantity) AS total
		FROM unified_records GROUP BY product_id ORDER BY product_id`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, apperrors.NewStorageError("failed to query monthly totals", err)
	}

	totals := make(map[int]int64, len(rows))
	for _, row := range rows {
		totals[row.ProductID] = row.Total
	}
	return totals, nil
}
