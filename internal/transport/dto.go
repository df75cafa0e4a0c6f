package transport

import (
	"time"

	"pos-inventory/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductRequest is the full product payload for POST and PUT
type ProductRequest struct {
	Name  string           `json:"name" validate:"required,max=100"`
	Price *decimal.Decimal `json:"price" validate:"required,gte=0"`
	Stock *int             `json:"stock" validate:"required,gte=0,lte=2147483647"`
}

// PatchProductRequest carries only the product fields being changed
type PatchProductRequest struct {
	Name  *string          `json:"name" validate:"omitempty,max=100"`
	Price *decimal.Decimal `json:"price" validate:"omitempty,gte=0"`
	Stock *int             `json:"stock" validate:"omitempty,gte=0,lte=2147483647"`
}

// SaleLineRequest references a product by id and the quantity sold
type SaleLineRequest struct {
	Product  string `json:"product" validate:"required"`
	Quantity *int   `json:"quantity" validate:"required"`
}

// CreateSaleRequest is the write shape of a sale
type CreateSaleRequest struct {
	ItemsData []SaleLineRequest `json:"items_data" validate:"required,min=1,dive"`
}

// PatchSaleItemRequest carries only the sale item fields being changed
type PatchSaleItemRequest struct {
	Product  *string `json:"product"`
	Quantity *int    `json:"quantity"`
}

// ProductResponse is the read shape of a product
type ProductResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SaleItemResponse is the read shape of a sale item. Sale is left out when nested in a sale.
type SaleItemResponse struct {
	ID       string          `json:"id"`
	Sale     string          `json:"sale,omitempty"`
	Product  ProductResponse `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal string          `json:"subtotal"`
}

// SaleResponse is the read shape of a sale
type SaleResponse struct {
	ID         string             `json:"id"`
	Date       time.Time          `json:"date"`
	Items      []SaleItemResponse `json:"items"`
	TotalPrice string             `json:"total_price"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(domain.PriceScale)
}

func toProductResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:        p.ID.String(),
		Name:      p.Name,
		Price:     money(p.Price),
		Stock:     p.Stock,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toProductResponses(products []*domain.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	return out
}

func toSaleItemResponse(item *domain.SaleItem, withSale bool) SaleItemResponse {
	resp := SaleItemResponse{
		ID:       item.ID.String(),
		Product:  toProductResponse(&item.Product),
		Quantity: item.Quantity,
		Subtotal: money(item.Subtotal()),
	}
	if withSale {
		resp.Sale = item.SaleID.String()
	}
	return resp
}

func toSaleItemResponses(items []*domain.SaleItem) []SaleItemResponse {
	out := make([]SaleItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toSaleItemResponse(item, true))
	}
	return out
}

func toSaleResponse(sale *domain.Sale) SaleResponse {
	items := make([]SaleItemResponse, 0, len(sale.Items))
	for i := range sale.Items {
		items = append(items, toSaleItemResponse(&sale.Items[i], false))
	}
	return SaleResponse{
		ID:         sale.ID.String(),
		Date:       sale.Date,
		Items:      items,
		TotalPrice: money(sale.TotalPrice()),
	}
}

func toSaleResponses(sales []*domain.Sale) []SaleResponse {
	out := make([]SaleResponse, 0, len(sales))
	for _, sale := range sales {
		out = append(out, toSaleResponse(sale))
	}
	return out
}

// parseProductRef maps an unparseable reference to uuid.Nil, which never resolves
func parseProductRef(ref string) uuid.UUID {
	id, err := uuid.Parse(ref)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func toSaleLines(lines []SaleLineRequest) []domain.SaleLine {
	out := make([]domain.SaleLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, domain.SaleLine{
			ProductID: parseProductRef(line.Product),
			Quantity:  *line.Quantity,
		})
	}
	return out
}
