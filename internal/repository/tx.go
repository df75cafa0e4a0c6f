package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is satisfied by both *sql.DB and *sql.Tx so repositories can run inside or outside a transaction
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// Repositories groups every repository bound to the same Querier
type Repositories struct {
	Products  ProductRepository
	Sales     SaleRepository
	SaleItems SaleItemRepository
}

// NewRepositories binds all repositories to q
func NewRepositories(q Querier) Repositories {
	return Repositories{
		Products:  NewProductRepository(q),
		Sales:     NewSaleRepository(q),
		SaleItems: NewSaleItemRepository(q),
	}
}

// Transactor runs a unit of work inside a single database transaction
type Transactor interface {
	WithinTx(ctx context.Context, fn func(repos Repositories) error) error
}

type sqlTransactor struct {
	db *sql.DB
}

// NewTransactor creates a Transactor backed by db
func NewTransactor(db *sql.DB) Transactor {
	return &sqlTransactor{db: db}
}

// WithinTx begins a transaction, hands fn repositories bound to it and commits when fn returns nil.
// Any error from fn rolls the whole transaction back.
func (t *sqlTransactor) WithinTx(ctx context.Context, fn func(repos Repositories) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(NewRepositories(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// foreignKeyViolation returns the violated constraint name for a 23503 foreign_key_violation
func foreignKeyViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return pgErr.ConstraintName, true
	}
	return "", false
}
