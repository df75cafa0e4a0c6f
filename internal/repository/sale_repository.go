package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pos-inventory/internal/domain"

	"github.com/google/uuid"
)

// ErrSaleNotFound is returned when no sale matches the given id
var ErrSaleNotFound = domain.ErrSaleNotFound

// SaleRepository defines the interface for sale data access
type SaleRepository interface {
	Create(ctx context.Context, sale *domain.Sale) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error)
	List(ctx context.Context) ([]*domain.Sale, error)
	Lock(ctx context.Context, id uuid.UUID) error
}

type saleRepository struct {
	db    Querier
	items SaleItemRepository
}

// NewSaleRepository creates a new instance of SaleRepository
func NewSaleRepository(db Querier) SaleRepository {
	return &saleRepository{db: db, items: NewSaleItemRepository(db)}
}

// Create inserts the sale header only; items are written through SaleItemRepository
func (r *saleRepository) Create(ctx context.Context, sale *domain.Sale) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO sales (id, date) VALUES ($1, $2)`, sale.ID, sale.Date)
	if err != nil {
		return fmt.Errorf("failed to create sale: %w", err)
	}
	return nil
}

// Delete removes a sale; its items go with it through ON DELETE CASCADE
func (r *saleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete sale: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrSaleNotFound
	}

	return nil
}

// Lock takes the row lock on a sale until the surrounding transaction ends.
// Deleting a sale locks it before its items, so item writers lock in the same order.
func (r *saleRepository) Lock(ctx context.Context, id uuid.UUID) error {
	var locked uuid.UUID
	err := r.db.QueryRowContext(ctx, `SELECT id FROM sales WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSaleNotFound
		}
		return fmt.Errorf("failed to lock sale: %w", err)
	}
	return nil
}

// FindByID retrieves a sale with its items in line order
func (r *saleRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	sale := &domain.Sale{}
	err := r.db.QueryRowContext(ctx, `SELECT id, date FROM sales WHERE id = $1`, id).Scan(&sale.ID, &sale.Date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSaleNotFound
		}
		return nil, fmt.Errorf("failed to find sale by ID: %w", err)
	}

	items, err := r.items.ListBySale(ctx, id)
	if err != nil {
		return nil, err
	}
	sale.Items = items

	return sale, nil
}

// List retrieves all sales, oldest first, each with its items
func (r *saleRepository) List(ctx context.Context) ([]*domain.Sale, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, date FROM sales ORDER BY date ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	defer rows.Close()

	sales := []*domain.Sale{}
	byID := make(map[uuid.UUID]*domain.Sale)
	for rows.Next() {
		sale := &domain.Sale{Items: []domain.SaleItem{}}
		if err := rows.Scan(&sale.ID, &sale.Date); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, sale)
		byID[sale.ID] = sale
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sales: %w", err)
	}

	if len(sales) == 0 {
		return sales, nil
	}

	items, err := r.items.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		// items of sales created after the first query are skipped
		if sale, ok := byID[item.SaleID]; ok {
			sale.Items = append(sale.Items, *item)
		}
	}

	return sales, nil
}
