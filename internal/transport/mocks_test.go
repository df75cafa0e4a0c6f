package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pos-inventory/internal/domain"
	"pos-inventory/internal/middleware"
	"pos-inventory/internal/repository"
	"pos-inventory/internal/service"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type stubProductService struct {
	products map[uuid.UUID]*domain.Product
	err      error
	filter   repository.ProductFilter
}

func newStubProductService() *stubProductService {
	return &stubProductService{products: make(map[uuid.UUID]*domain.Product)}
}

func (s *stubProductService) add(name, price string, stock int) *domain.Product {
	p := &domain.Product{ID: uuid.New(), Name: name, Price: decimal.RequireFromString(price), Stock: stock}
	s.products[p.ID] = p
	return p
}

func (s *stubProductService) Create(ctx context.Context, in service.ProductInput) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	p := &domain.Product{ID: uuid.New(), Name: in.Name, Price: in.Price, Stock: in.Stock}
	s.products[p.ID] = p
	return p, nil
}

func (s *stubProductService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}

func (s *stubProductService) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.filter = filter
	out := []*domain.Product{}
	for _, p := range s.products {
		out = append(out, p)
	}
	return out, nil
}

func (s *stubProductService) Update(ctx context.Context, id uuid.UUID, in service.ProductInput) (*domain.Product, error) {
	return s.Patch(ctx, id, service.ProductPatch{Name: &in.Name, Price: &in.Price, Stock: &in.Stock})
}

func (s *stubProductService) Patch(ctx context.Context, id uuid.UUID, patch service.ProductPatch) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	return p, nil
}

func (s *stubProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(s.products, id)
	return nil
}

// stubSaleService records sales in memory and checks stock the way the recorder does
type stubSaleService struct {
	products *stubProductService
	sales    map[uuid.UUID]*domain.Sale
	err      error
}

func (s *stubSaleService) CreateSale(ctx context.Context, lines []domain.SaleLine) (*domain.Sale, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(lines) == 0 {
		return nil, domain.ErrEmptySale
	}

	var lineErrs domain.LineErrors
	for i, line := range lines {
		p, ok := s.products.products[line.ProductID]
		if !ok {
			lineErrs = append(lineErrs, &domain.LineError{Index: i, Err: domain.ErrProductNotFound})
			continue
		}
		if err := p.CheckStock(line.Quantity); err != nil {
			lineErrs = append(lineErrs, &domain.LineError{Index: i, Err: err})
		}
	}
	if len(lineErrs) > 0 {
		return nil, lineErrs
	}

	sale := &domain.Sale{ID: uuid.New()}
	for i, line := range lines {
		p := s.products.products[line.ProductID]
		_ = p.ReduceStock(line.Quantity)
		sale.Items = append(sale.Items, domain.SaleItem{
			ID: uuid.New(), SaleID: sale.ID, LineNo: i + 1, Product: *p, Quantity: line.Quantity,
		})
	}
	s.sales[sale.ID] = sale
	return sale, nil
}

func (s *stubSaleService) Get(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	sale, ok := s.sales[id]
	if !ok {
		return nil, domain.ErrSaleNotFound
	}
	return sale, nil
}

func (s *stubSaleService) List(ctx context.Context) ([]*domain.Sale, error) {
	out := []*domain.Sale{}
	for _, sale := range s.sales {
		out = append(out, sale)
	}
	return out, nil
}

func (s *stubSaleService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.sales[id]; !ok {
		return domain.ErrSaleNotFound
	}
	delete(s.sales, id)
	return nil
}

type stubSaleItemService struct {
	sales *stubSaleService
	items map[uuid.UUID]*domain.SaleItem
}

func (s *stubSaleItemService) Create(ctx context.Context, line domain.SaleLine) (*domain.SaleItem, error) {
	sale, err := s.sales.CreateSale(ctx, []domain.SaleLine{line})
	if err != nil {
		return nil, err
	}
	item := sale.Items[0]
	s.items[item.ID] = &item
	return &item, nil
}

func (s *stubSaleItemService) Get(ctx context.Context, id uuid.UUID) (*domain.SaleItem, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, domain.ErrSaleItemNotFound
	}
	return item, nil
}

func (s *stubSaleItemService) List(ctx context.Context) ([]*domain.SaleItem, error) {
	out := []*domain.SaleItem{}
	for _, item := range s.items {
		out = append(out, item)
	}
	return out, nil
}

func (s *stubSaleItemService) Update(ctx context.Context, id uuid.UUID, line domain.SaleLine) (*domain.SaleItem, error) {
	return s.Patch(ctx, id, service.SaleItemPatch{ProductID: &line.ProductID, Quantity: &line.Quantity})
}

func (s *stubSaleItemService) Patch(ctx context.Context, id uuid.UUID, patch service.SaleItemPatch) (*domain.SaleItem, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, domain.ErrSaleItemNotFound
	}
	if patch.ProductID != nil {
		p, ok := s.sales.products.products[*patch.ProductID]
		if !ok {
			return nil, domain.LineErrors{{Index: 0, Err: domain.ErrProductNotFound}}
		}
		item.Product = *p
	}
	if patch.Quantity != nil {
		if err := item.Product.CheckStock(*patch.Quantity); err != nil {
			return nil, domain.LineErrors{{Index: 0, Err: err}}
		}
		item.Quantity = *patch.Quantity
	}
	return item, nil
}

func (s *stubSaleItemService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.items[id]; !ok {
		return domain.ErrSaleItemNotFound
	}
	delete(s.items, id)
	return nil
}

type testAPI struct {
	router    http.Handler
	products  *stubProductService
	sales     *stubSaleService
	saleItems *stubSaleItemService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	products := newStubProductService()
	sales := &stubSaleService{products: products, sales: make(map[uuid.UUID]*domain.Sale)}
	saleItems := &stubSaleItemService{sales: sales, items: make(map[uuid.UUID]*domain.SaleItem)}

	logger := zap.NewNop()
	r := chi.NewRouter()
	r.Use(chimiddleware.StripSlashes)
	r.NotFound(middleware.NotFoundHandler)
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler)

	NewProductHandler(products, logger).RegisterRoutes(r, nil)
	NewSaleHandler(sales, logger).RegisterRoutes(r, nil)
	NewSaleItemHandler(saleItems, logger).RegisterRoutes(r, nil)

	return &testAPI{router: r, products: products, sales: sales, saleItems: saleItems}
}

func (a *testAPI) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}
