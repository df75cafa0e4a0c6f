package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrSaleNotFound      = errors.New("sale not found")
	ErrSaleItemNotFound  = errors.New("sale item not found")
	ErrInvalidQuantity   = errors.New("quantity must be greater than 0")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmptySale         = errors.New("a sale needs at least one item")
	ErrInvalidPrice      = errors.New("invalid price")
)

// StockError describes a failed stock check for a single product.
type StockError struct {
	Kind      error
	ProductID uuid.UUID
	Product   string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	if errors.Is(e.Kind, ErrInvalidQuantity) {
		return fmt.Sprintf("quantity must be greater than 0 for %s", e.Product)
	}
	return fmt.Sprintf("insufficient stock for %s. Available: %d", e.Product, e.Available)
}

func (e *StockError) Unwrap() error {
	return e.Kind
}

// LineError ties an error to the 0-based position of a sale line.
type LineError struct {
	Index int
	Err   error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Index, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// LineErrors aggregates every line that failed validation while recording a sale.
type LineErrors []*LineError

func (e LineErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, le := range e {
		msgs = append(msgs, le.Error())
	}
	return strings.Join(msgs, "; ")
}

func (e LineErrors) Unwrap() []error {
	errs := make([]error, 0, len(e))
	for _, le := range e {
		errs = append(errs, le)
	}
	return errs
}
