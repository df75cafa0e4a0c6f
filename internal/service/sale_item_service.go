package service

import (
	"context"
	"errors"

	"pos-inventory/internal/domain"
	"pos-inventory/internal/repository"

	"github.com/google/uuid"
)

// SaleItemPatch carries the sale item fields present in a partial update
type SaleItemPatch struct {
	ProductID *uuid.UUID
	Quantity  *int
}

// SaleItemService manages individual sale lines
type SaleItemService interface {
	Create(ctx context.Context, line domain.SaleLine) (*domain.SaleItem, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.SaleItem, error)
	List(ctx context.Context) ([]*domain.SaleItem, error)
	Update(ctx context.Context, id uuid.UUID, line domain.SaleLine) (*domain.SaleItem, error)
	Patch(ctx context.Context, id uuid.UUID, patch SaleItemPatch) (*domain.SaleItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type saleItemService struct {
	itemRepo    repository.SaleItemRepository
	transactor  repository.Transactor
	saleService SaleService
}

// NewSaleItemService creates a new instance of SaleItemService
func NewSaleItemService(
	itemRepo repository.SaleItemRepository,
	transactor repository.Transactor,
	saleService SaleService,
) SaleItemService {
	return &saleItemService{
		itemRepo:    itemRepo,
		transactor:  transactor,
		saleService: saleService,
	}
}

// Create records a new single line sale, so stock is checked and taken exactly
// as it is for a multi line sale
func (s *saleItemService) Create(ctx context.Context, line domain.SaleLine) (*domain.SaleItem, error) {
	sale, err := s.saleService.CreateSale(ctx, []domain.SaleLine{line})
	if err != nil {
		return nil, err
	}
	if len(sale.Items) == 0 {
		// the product was deleted right after the sale committed
		return nil, domain.ErrSaleItemNotFound
	}

	item := sale.Items[0]
	return &item, nil
}

// Get retrieves a sale item by ID
func (s *saleItemService) Get(ctx context.Context, id uuid.UUID) (*domain.SaleItem, error) {
	return s.itemRepo.FindByID(ctx, id)
}

// List retrieves every sale item
func (s *saleItemService) List(ctx context.Context) ([]*domain.SaleItem, error) {
	return s.itemRepo.List(ctx)
}

// Update replaces the product and quantity of a sale item
func (s *saleItemService) Update(ctx context.Context, id uuid.UUID, line domain.SaleLine) (*domain.SaleItem, error) {
	return s.Patch(ctx, id, SaleItemPatch{ProductID: &line.ProductID, Quantity: &line.Quantity})
}

// Patch changes a sale item and reconciles stock in one transaction: the old
// quantity goes back to the old product, then the new quantity is checked
// against and taken from the new product.
func (s *saleItemService) Patch(ctx context.Context, id uuid.UUID, patch SaleItemPatch) (*domain.SaleItem, error) {
	var updated *domain.SaleItem
	err := s.transactor.WithinTx(ctx, func(repos repository.Repositories) error {
		item, err := repos.SaleItems.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		oldProductID, oldQuantity := item.Product.ID, item.Quantity
		newProductID, newQuantity := oldProductID, oldQuantity
		if patch.ProductID != nil {
			newProductID = *patch.ProductID
		}
		if patch.Quantity != nil {
			newQuantity = *patch.Quantity
		}

		locked, err := lockProducts(ctx, repos.Products, []uuid.UUID{oldProductID, newProductID})
		if err != nil {
			return err
		}
		product, ok := locked[newProductID]
		if !ok {
			return domain.LineErrors{{Index: 0, Err: domain.ErrProductNotFound}}
		}

		if newQuantity <= 0 {
			return domain.LineErrors{{Index: 0, Err: product.CheckStock(newQuantity)}}
		}

		if err := repos.Products.IncrementStock(ctx, oldProductID, oldQuantity); err != nil {
			if !errors.Is(err, repository.ErrProductNotFound) {
				return err
			}
		}
		if newProductID == oldProductID {
			product.Stock += oldQuantity
		}

		if err := product.CheckStock(newQuantity); err != nil {
			return domain.LineErrors{{Index: 0, Err: err}}
		}
		if err := repos.Products.DecrementStock(ctx, newProductID, newQuantity); err != nil {
			return asLineError(0, err)
		}

		item.Product = *product
		item.Quantity = newQuantity
		if err := repos.SaleItems.Update(ctx, item); err != nil {
			return asLineError(0, err)
		}

		updated, err = repos.SaleItems.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes a sale item. Sold stock is not returned. A sale left without
// items is removed with its last item.
func (s *saleItemService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.transactor.WithinTx(ctx, func(repos repository.Repositories) error {
		item, err := repos.SaleItems.FindByID(ctx, id)
		if err != nil {
			return err
		}

		if err := repos.Sales.Lock(ctx, item.SaleID); err != nil {
			if errors.Is(err, repository.ErrSaleNotFound) {
				return domain.ErrSaleItemNotFound
			}
			return err
		}
		if err := repos.SaleItems.Delete(ctx, id); err != nil {
			return err
		}

		remaining, err := repos.SaleItems.ListBySale(ctx, item.SaleID)
		if err != nil {
			return err
		}
		if len(remaining) > 0 {
			return nil
		}
		return repos.Sales.Delete(ctx, item.SaleID)
	})
}
