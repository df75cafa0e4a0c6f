package service

import (
	"context"
	"sort"

	"pos-inventory/internal/domain"
	"pos-inventory/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory stand-in for the database shared by the mock repositories
type memStore struct {
	products map[uuid.UUID]domain.Product
	sales    map[uuid.UUID]domain.Sale
	items    map[uuid.UUID]domain.SaleItem

	// beforeDecrement runs ahead of every DecrementStock and can simulate a concurrent writer
	beforeDecrement func(s *memStore, id uuid.UUID)
}

func newMemStore() *memStore {
	return &memStore{
		products: make(map[uuid.UUID]domain.Product),
		sales:    make(map[uuid.UUID]domain.Sale),
		items:    make(map[uuid.UUID]domain.SaleItem),
	}
}

func (s *memStore) addProduct(name, price string, stock int) *domain.Product {
	p := domain.Product{
		ID:    uuid.New(),
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}
	s.products[p.ID] = p
	return &p
}

func (s *memStore) stock(id uuid.UUID) int {
	return s.products[id].Stock
}

func (s *memStore) snapshot() *memStore {
	c := newMemStore()
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.sales {
		c.sales[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	return c
}

func (s *memStore) restore(from *memStore) {
	s.products = from.products
	s.sales = from.sales
	s.items = from.items
}

func (s *memStore) hydrate(item domain.SaleItem) domain.SaleItem {
	item.Product = s.products[item.Product.ID]
	return item
}

func (s *memStore) repositories() repository.Repositories {
	return repository.Repositories{
		Products:  &mockProductRepository{s: s},
		Sales:     &mockSaleRepository{s: s},
		SaleItems: &mockSaleItemRepository{s: s},
	}
}

// mockTransactor restores the store snapshot when fn fails
type mockTransactor struct {
	s *memStore
}

func (t *mockTransactor) WithinTx(ctx context.Context, fn func(repos repository.Repositories) error) error {
	snap := t.s.snapshot()
	if err := fn(t.s.repositories()); err != nil {
		t.s.restore(snap)
		return err
	}
	return nil
}

type mockProductRepository struct {
	s *memStore
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.s.products[product.ID] = *product
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if _, ok := m.s.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	m.s.products[product.ID] = *product
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.s.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.s.products, id)
	for itemID, item := range m.s.items {
		if item.Product.ID == id {
			delete(m.s.items, itemID)
		}
	}
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, ok := m.s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &p, nil
}

func (m *mockProductRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return m.FindByID(ctx, id)
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, error) {
	products := []*domain.Product{}
	for _, p := range m.s.products {
		p := p
		products = append(products, &p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

func (m *mockProductRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	if m.s.beforeDecrement != nil {
		m.s.beforeDecrement(m.s, id)
	}
	p, ok := m.s.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	if err := p.ReduceStock(quantity); err != nil {
		return err
	}
	m.s.products[id] = p
	return nil
}

func (m *mockProductRepository) IncrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	p, ok := m.s.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.Stock += quantity
	m.s.products[id] = p
	return nil
}

type mockSaleRepository struct {
	s *memStore
}

func (m *mockSaleRepository) Create(ctx context.Context, sale *domain.Sale) error {
	m.s.sales[sale.ID] = domain.Sale{ID: sale.ID, Date: sale.Date}
	return nil
}

func (m *mockSaleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.s.sales[id]; !ok {
		return repository.ErrSaleNotFound
	}
	delete(m.s.sales, id)
	for itemID, item := range m.s.items {
		if item.SaleID == id {
			delete(m.s.items, itemID)
		}
	}
	return nil
}

func (m *mockSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	sale, ok := m.s.sales[id]
	if !ok {
		return nil, repository.ErrSaleNotFound
	}
	items, _ := (&mockSaleItemRepository{s: m.s}).ListBySale(ctx, id)
	sale.Items = items
	return &sale, nil
}

func (m *mockSaleRepository) Lock(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.s.sales[id]; !ok {
		return repository.ErrSaleNotFound
	}
	return nil
}

func (m *mockSaleRepository) List(ctx context.Context) ([]*domain.Sale, error) {
	sales := []*domain.Sale{}
	for id := range m.s.sales {
		sale, _ := m.FindByID(ctx, id)
		sales = append(sales, sale)
	}
	sort.Slice(sales, func(i, j int) bool { return sales[i].Date.Before(sales[j].Date) })
	return sales, nil
}

type mockSaleItemRepository struct {
	s *memStore
}

func (m *mockSaleItemRepository) Create(ctx context.Context, item *domain.SaleItem) error {
	if _, ok := m.s.products[item.Product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	if _, ok := m.s.sales[item.SaleID]; !ok {
		return repository.ErrSaleNotFound
	}
	m.s.items[item.ID] = *item
	return nil
}

func (m *mockSaleItemRepository) Update(ctx context.Context, item *domain.SaleItem) error {
	if _, ok := m.s.items[item.ID]; !ok {
		return repository.ErrSaleItemNotFound
	}
	if _, ok := m.s.products[item.Product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	m.s.items[item.ID] = *item
	return nil
}

func (m *mockSaleItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.s.items[id]; !ok {
		return repository.ErrSaleItemNotFound
	}
	delete(m.s.items, id)
	return nil
}

func (m *mockSaleItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.SaleItem, error) {
	item, ok := m.s.items[id]
	if !ok {
		return nil, repository.ErrSaleItemNotFound
	}
	item = m.s.hydrate(item)
	return &item, nil
}

func (m *mockSaleItemRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.SaleItem, error) {
	return m.FindByID(ctx, id)
}

func (m *mockSaleItemRepository) List(ctx context.Context) ([]*domain.SaleItem, error) {
	items := []*domain.SaleItem{}
	for _, item := range m.s.items {
		item = m.s.hydrate(item)
		items = append(items, &item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].LineNo < items[j].LineNo })
	return items, nil
}

func (m *mockSaleItemRepository) ListBySale(ctx context.Context, saleID uuid.UUID) ([]domain.SaleItem, error) {
	items := []domain.SaleItem{}
	for _, item := range m.s.items {
		if item.SaleID == saleID {
			items = append(items, m.s.hydrate(item))
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].LineNo < items[j].LineNo })
	return items, nil
}

// services wires every service over one memStore
type services struct {
	store     *memStore
	products  ProductService
	sales     SaleService
	saleItems SaleItemService
}

func newServices() *services {
	store := newMemStore()
	repos := store.repositories()
	tx := &mockTransactor{s: store}
	sales := NewSaleService(repos.Sales, tx)
	return &services{
		store:     store,
		products:  NewProductService(repos.Products, tx),
		sales:     sales,
		saleItems: NewSaleItemService(repos.SaleItems, tx, sales),
	}
}
