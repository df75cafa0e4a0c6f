package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"pos-inventory/internal/domain"
	"pos-inventory/internal/repository"

	"github.com/google/uuid"
)

// SaleService records sales and serves their read projections
type SaleService interface {
	CreateSale(ctx context.Context, lines []domain.SaleLine) (*domain.Sale, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Sale, error)
	List(ctx context.Context) ([]*domain.Sale, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type saleService struct {
	saleRepo   repository.SaleRepository
	transactor repository.Transactor
}

// NewSaleService creates a new instance of SaleService
func NewSaleService(saleRepo repository.SaleRepository, transactor repository.Transactor) SaleService {
	return &saleService{
		saleRepo:   saleRepo,
		transactor: transactor,
	}
}

// CreateSale validates every line, then writes the sale, its items and the stock
// decrements in one transaction. Nothing is persisted unless every line succeeds.
func (s *saleService) CreateSale(ctx context.Context, lines []domain.SaleLine) (*domain.Sale, error) {
	if len(lines) == 0 {
		return nil, domain.ErrEmptySale
	}

	var created *domain.Sale
	err := s.transactor.WithinTx(ctx, func(repos repository.Repositories) error {
		ids := make([]uuid.UUID, 0, len(lines))
		for _, line := range lines {
			ids = append(ids, line.ProductID)
		}

		products, err := lockProducts(ctx, repos.Products, ids)
		if err != nil {
			return err
		}

		if err := validateLines(lines, products); err != nil {
			return err
		}

		sale := &domain.Sale{ID: uuid.New(), Date: time.Now().UTC()}
		if err := repos.Sales.Create(ctx, sale); err != nil {
			return err
		}

		for i, line := range lines {
			if err := repos.Products.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
				return asLineError(i, err)
			}

			item := &domain.SaleItem{
				ID:       uuid.New(),
				SaleID:   sale.ID,
				LineNo:   i + 1,
				Product:  *products[line.ProductID],
				Quantity: line.Quantity,
			}
			if err := repos.SaleItems.Create(ctx, item); err != nil {
				return asLineError(i, err)
			}
		}

		created, err = repos.Sales.FindByID(ctx, sale.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// Get retrieves a sale with its items
func (s *saleService) Get(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	return s.saleRepo.FindByID(ctx, id)
}

// List retrieves every sale with its items
func (s *saleService) List(ctx context.Context) ([]*domain.Sale, error) {
	return s.saleRepo.List(ctx)
}

// Delete removes a sale and its items. Sold stock is not returned.
func (s *saleService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.saleRepo.Delete(ctx, id)
}

// lockProducts locks each distinct product in ascending id order so concurrent
// sales touching the same products cannot deadlock. Unknown ids are left out of
// the result.
func lockProducts(ctx context.Context, products repository.ProductRepository, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	distinct := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			distinct = append(distinct, id)
		}
	}
	sort.Slice(distinct, func(i, j int) bool {
		return bytes.Compare(distinct[i][:], distinct[j][:]) < 0
	})

	locked := make(map[uuid.UUID]*domain.Product, len(distinct))
	for _, id := range distinct {
		product, err := products.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to lock products: %w", err)
		}
		locked[id] = product
	}

	return locked, nil
}

// validateLines checks every line against the locked products and returns all
// failures at once. Repeated products are checked against their running total.
func validateLines(lines []domain.SaleLine, products map[uuid.UUID]*domain.Product) error {
	var lineErrs domain.LineErrors
	requested := make(map[uuid.UUID]int, len(products))

	for i, line := range lines {
		product, ok := products[line.ProductID]
		if !ok {
			lineErrs = append(lineErrs, &domain.LineError{Index: i, Err: domain.ErrProductNotFound})
			continue
		}

		if line.Quantity <= 0 {
			lineErrs = append(lineErrs, &domain.LineError{Index: i, Err: product.CheckStock(line.Quantity)})
			continue
		}

		requested[line.ProductID] += line.Quantity
		if err := product.CheckStock(requested[line.ProductID]); err != nil {
			lineErrs = append(lineErrs, &domain.LineError{Index: i, Err: err})
		}
	}

	if len(lineErrs) > 0 {
		return lineErrs
	}
	return nil
}

// asLineError ties a commit-time client error to the line that caused it
func asLineError(index int, err error) error {
	var stockErr *domain.StockError
	if errors.As(err, &stockErr) || errors.Is(err, domain.ErrProductNotFound) {
		return domain.LineErrors{{Index: index, Err: err}}
	}
	return err
}
