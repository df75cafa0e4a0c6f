package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// NameMaxLength mirrors the products.name column width
	NameMaxLength = 100

	// StockMax is the largest value the INTEGER stock column holds
	StockMax = math.MaxInt32

	// PriceScale and PriceMaxDigits mirror DECIMAL(10, 2)
	PriceScale     = 2
	PriceMaxDigits = 10
)

var maxPrice = decimal.New(1, PriceMaxDigits-PriceScale)

// Product represents a sellable catalog entry
type Product struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Stock     int             `json:"stock" db:"stock"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

func (p *Product) String() string {
	return p.Name
}

// CheckStock reports whether quantity units can be sold. It never mutates the product.
func (p *Product) CheckStock(quantity int) error {
	if quantity <= 0 {
		return &StockError{
			Kind:      ErrInvalidQuantity,
			ProductID: p.ID,
			Product:   p.Name,
			Requested: quantity,
			Available: p.Stock,
		}
	}
	if quantity > p.Stock {
		return &StockError{
			Kind:      ErrInsufficientStock,
			ProductID: p.ID,
			Product:   p.Name,
			Requested: quantity,
			Available: p.Stock,
		}
	}
	return nil
}

// ReduceStock decrements the in-memory stock after a successful CheckStock.
// Persisting the change is up to the caller.
func (p *Product) ReduceStock(quantity int) error {
	if err := p.CheckStock(quantity); err != nil {
		return err
	}
	p.Stock -= quantity
	return nil
}

// ValidatePrice checks a price against the DECIMAL(10, 2) column it is stored in
func ValidatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return fmt.Errorf("%w: must be greater than or equal to 0", ErrInvalidPrice)
	}
	if !price.Equal(price.Round(PriceScale)) {
		return fmt.Errorf("%w: at most %d decimal places allowed", ErrInvalidPrice, PriceScale)
	}
	if price.GreaterThanOrEqual(maxPrice) {
		return fmt.Errorf("%w: at most %d digits allowed", ErrInvalidPrice, PriceMaxDigits)
	}
	return nil
}
