package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"pos-inventory/internal/domain"
	"pos-inventory/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductInput carries every writable product field
type ProductInput struct {
	Name  string
	Price decimal.Decimal
	Stock int
}

// ProductPatch carries the product fields present in a partial update
type ProductPatch struct {
	Name  *string
	Price *decimal.Decimal
	Stock *int
}

// ProductService defines the interface for catalog business logic
type ProductService interface {
	Create(ctx context.Context, in ProductInput) (*domain.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, in ProductInput) (*domain.Product, error)
	Patch(ctx context.Context, id uuid.UUID, patch ProductPatch) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type productService struct {
	productRepo repository.ProductRepository
	transactor  repository.Transactor
}

// NewProductService creates a new instance of ProductService
func NewProductService(productRepo repository.ProductRepository, transactor repository.Transactor) ProductService {
	return &productService{
		productRepo: productRepo,
		transactor:  transactor,
	}
}

func validateProduct(name string, price decimal.Decimal, stock int) error {
	verr := newValidationError()

	if strings.TrimSpace(name) == "" {
		verr.Add("name", "This field may not be blank")
	} else if utf8.RuneCountInString(name) > domain.NameMaxLength {
		verr.Add("name", fmt.Sprintf("Ensure this field has no more than %d characters", domain.NameMaxLength))
	}

	if err := domain.ValidatePrice(price); err != nil {
		verr.Add("price", strings.TrimPrefix(err.Error(), domain.ErrInvalidPrice.Error()+": "))
	}

	if stock < 0 {
		verr.Add("stock", "Ensure this value is greater than or equal to 0")
	} else if stock > domain.StockMax {
		verr.Add("stock", fmt.Sprintf("Ensure this value is less than or equal to %d", domain.StockMax))
	}

	return verr.OrNil()
}

// Create validates and stores a new product
func (s *productService) Create(ctx context.Context, in ProductInput) (*domain.Product, error) {
	name := strings.TrimSpace(in.Name)
	if err := validateProduct(name, in.Price, in.Stock); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:        uuid.New(),
		Name:      name,
		Price:     in.Price,
		Stock:     in.Stock,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

// Get retrieves a product by ID
func (s *productService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

// List retrieves products matching filter
func (s *productService) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, error) {
	return s.productRepo.List(ctx, filter)
}

// Update replaces every writable field of a product
func (s *productService) Update(ctx context.Context, id uuid.UUID, in ProductInput) (*domain.Product, error) {
	return s.Patch(ctx, id, ProductPatch{Name: &in.Name, Price: &in.Price, Stock: &in.Stock})
}

// Patch changes only the fields present in patch. The row stays locked from read
// to write so a sale committing in between cannot have its decrement overwritten.
func (s *productService) Patch(ctx context.Context, id uuid.UUID, patch ProductPatch) (*domain.Product, error) {
	var updated *domain.Product
	err := s.transactor.WithinTx(ctx, func(repos repository.Repositories) error {
		product, err := repos.Products.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if patch.Name != nil {
			product.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Price != nil {
			product.Price = *patch.Price
		}
		if patch.Stock != nil {
			product.Stock = *patch.Stock
		}

		if err := validateProduct(product.Name, product.Price, product.Stock); err != nil {
			return err
		}

		product.UpdatedAt = time.Now().UTC()
		if err := repos.Products.Update(ctx, product); err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				return err
			}
			return fmt.Errorf("failed to update product: %w", err)
		}

		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes a product together with every sale item that references it
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.productRepo.Delete(ctx, id)
}
