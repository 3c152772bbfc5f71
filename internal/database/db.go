// Package database persists users, products, orders, payments and
// notifications in Postgres. Nested documents live in JSONB columns.
package database

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

var (
	// ErrNotFound is returned when a row does not exist or is not visible to the caller
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned on a unique constraint violation
	ErrDuplicate = errors.New("duplicate")
	// ErrInsufficientStock is returned when an order asks for more than is in stock
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidTransition is returned when an order cannot move to the requested status
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrAlreadyPaid is returned when an order already has a live payment
	ErrAlreadyPaid = errors.New("order already paid")
	// ErrOrderClosed is returned when paying for a cancelled or delivered order
	ErrOrderClosed = errors.New("order is closed")
)

const uniqueViolation = "23505"

// DB wraps the connection pool
type DB struct {
	*sql.DB
}

// New opens a Postgres pool for databaseURL and verifies it with a ping.
func New(databaseURL string) (*DB, error) {
	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DB{DB: sqlDB}, nil
}

// EnsureSchema creates any missing tables and indexes. It is idempotent.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// WithTx runs fn in a transaction, committing when fn returns nil.
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

// MaxPage caps the page number so the OFFSET computed from it cannot overflow
const MaxPage = 100_000

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
