package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pos-inventory/internal/domain"

	"github.com/google/uuid"
)

// ErrSaleItemNotFound is returned when no sale item matches the given id
var ErrSaleItemNotFound = domain.ErrSaleItemNotFound

// SaleItemRepository defines the interface for sale item data access
type SaleItemRepository interface {
	Create(ctx context.Context, item *domain.SaleItem) error
	Update(ctx context.Context, item *domain.SaleItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.SaleItem, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.SaleItem, error)
	List(ctx context.Context) ([]*domain.SaleItem, error)
	ListBySale(ctx context.Context, saleID uuid.UUID) ([]domain.SaleItem, error)
}

type saleItemRepository struct {
	db Querier
}

// NewSaleItemRepository creates a new instance of SaleItemRepository
func NewSaleItemRepository(db Querier) SaleItemRepository {
	return &saleItemRepository{db: db}
}

// Items are always read together with their product so subtotals use the current price
const saleItemSelect = `
	SELECT si.id, si.sale_id, si.line_no, si.quantity,
	       p.id, p.name, p.price, p.stock, p.created_at, p.updated_at
	FROM sale_items si
	JOIN products p ON p.id = si.product_id
`

func scanSaleItem(row rowScanner) (*domain.SaleItem, error) {
	item := &domain.SaleItem{}
	err := row.Scan(
		&item.ID,
		&item.SaleID,
		&item.LineNo,
		&item.Quantity,
		&item.Product.ID,
		&item.Product.Name,
		&item.Product.Price,
		&item.Product.Stock,
		&item.Product.CreatedAt,
		&item.Product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func mapSaleItemWriteError(op string, err error) error {
	if constraint, ok := foreignKeyViolation(err); ok {
		switch constraint {
		case "fk_sale_items_product":
			return ErrProductNotFound
		case "fk_sale_items_sale":
			return ErrSaleNotFound
		}
	}
	return fmt.Errorf("failed to %s sale item: %w", op, err)
}

// Create inserts a sale item referencing item.Product
func (r *saleItemRepository) Create(ctx context.Context, item *domain.SaleItem) error {
	query := `
		INSERT INTO sale_items (id, sale_id, product_id, line_no, quantity)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		item.ID,
		item.SaleID,
		item.Product.ID,
		item.LineNo,
		item.Quantity,
	)
	if err != nil {
		return mapSaleItemWriteError("create", err)
	}

	return nil
}

// Update changes the product and quantity of an existing sale item
func (r *saleItemRepository) Update(ctx context.Context, item *domain.SaleItem) error {
	query := `
		UPDATE sale_items
		SET product_id = $2, quantity = $3
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, item.ID, item.Product.ID, item.Quantity)
	if err != nil {
		return mapSaleItemWriteError("update", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrSaleItemNotFound
	}

	return nil
}

// Delete removes a single sale item
func (r *saleItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sale_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete sale item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrSaleItemNotFound
	}

	return nil
}

// FindByID retrieves a sale item with its product
func (r *saleItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.SaleItem, error) {
	item, err := scanSaleItem(r.db.QueryRowContext(ctx, saleItemSelect+` WHERE si.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSaleItemNotFound
		}
		return nil, fmt.Errorf("failed to find sale item by ID: %w", err)
	}

	return item, nil
}

// FindByIDForUpdate retrieves a sale item and locks its row
func (r *saleItemRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.SaleItem, error) {
	query := saleItemSelect + ` WHERE si.id = $1 FOR UPDATE OF si`

	item, err := scanSaleItem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSaleItemNotFound
		}
		return nil, fmt.Errorf("failed to lock sale item: %w", err)
	}

	return item, nil
}

// List retrieves every sale item grouped by sale in line order
func (r *saleItemRepository) List(ctx context.Context) ([]*domain.SaleItem, error) {
	rows, err := r.db.QueryContext(ctx, saleItemSelect+` ORDER BY si.sale_id, si.line_no`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sale items: %w", err)
	}
	defer rows.Close()

	items := []*domain.SaleItem{}
	for rows.Next() {
		item, err := scanSaleItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sale items: %w", err)
	}

	return items, nil
}

// ListBySale retrieves the items of one sale in line order
func (r *saleItemRepository) ListBySale(ctx context.Context, saleID uuid.UUID) ([]domain.SaleItem, error) {
	rows, err := r.db.QueryContext(ctx, saleItemSelect+` WHERE si.sale_id = $1 ORDER BY si.line_no`, saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sale items: %w", err)
	}
	defer rows.Close()

	items := []domain.SaleItem{}
	for rows.Next() {
		item, err := scanSaleItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale item: %w", err)
		}
		items = append(items, *item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sale items: %w", err)
	}

	return items, nil
}
