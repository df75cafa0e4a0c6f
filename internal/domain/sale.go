package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale is a completed transaction made of one or more sale items
type Sale struct {
	ID    uuid.UUID  `json:"id" db:"id"`
	Date  time.Time  `json:"date" db:"date"`
	Items []SaleItem `json:"items"`
}

// TotalPrice sums the item subtotals using the products' current prices
func (s *Sale) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for i := range s.Items {
		total = total.Add(s.Items[i].Subtotal())
	}
	return total
}

// SaleItem is one line of a sale
type SaleItem struct {
	ID       uuid.UUID `json:"id" db:"id"`
	SaleID   uuid.UUID `json:"sale_id" db:"sale_id"`
	LineNo   int       `json:"line_no" db:"line_no"`
	Product  Product   `json:"product"`
	Quantity int       `json:"quantity" db:"quantity"`
}

// Subtotal is the current product price times the quantity sold
func (i *SaleItem) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// SaleLine is a requested (product, quantity) pair used to record a sale
type SaleLine struct {
	ProductID uuid.UUID
	Quantity  int
}
