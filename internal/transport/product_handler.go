package transport

import (
	"net/http"
	"strings"

	"pos-inventory/internal/domain"
	"pos-inventory/internal/middleware"
	"pos-inventory/internal/repository"
	"pos-inventory/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProductHandler handles HTTP requests for the product catalog
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes. writeGuard, when set, wraps the mutating routes.
func (h *ProductHandler) RegisterRoutes(r chi.Router, writeGuard func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/{id}", h.GetProduct)

		r.Group(func(r chi.Router) {
			if writeGuard != nil {
				r.Use(writeGuard)
			}
			r.Post("/", h.CreateProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Patch("/{id}", h.PatchProduct)
			r.Delete("/{id}", h.DeleteProduct)
		})
	})
}

// ListProducts handles GET /api/products with optional search, sort_by and order
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := repository.ProductFilter{
		Search:    query.Get("search"),
		SortBy:    query.Get("sort_by"),
		SortOrder: repository.SortOrder(strings.ToUpper(query.Get("order"))),
	}

	products, err := h.productService.List(r.Context(), filter)
	if err != nil {
		respondServiceError(w, h.logger, err, singleLinePath)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toProductResponses(products))
}

// GetProduct handles GET /api/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, domain.ErrProductNotFound)
	if !ok {
		return
	}

	product, err := h.productService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, singleLinePath)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toProductResponse(product))
}

// CreateProduct handles POST /api/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondDecodeError(w, h.logger, err)
		return
	}

	product, err := h.productService.Create(r.Context(), service.ProductInput{
		Name:  req.Name,
		Price: *req.Price,
		Stock: *req.Stock,
	})
	if err != nil {
		respondServiceError(w, h.logger, err, singleLinePath)
		return
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, toProductResponse(product))
}

// UpdateProduct handles PUT /api/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, domain.ErrProductNotFound)
	if !ok {
		return
	}

	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondDecodeError(w, h.logger, err)
		return
	}

	product, err := h.productService.Update(r.Context(), id, service.ProductInput{
		Name:  req.Name,
		Price: *req.Price,
		Stock: *req.Stock,
	})
	if err != nil {
		respondServiceError(w, h.logger, err, singleLinePath)
		return
	}

	h.logger.Info("Product updated", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, toProductResponse(product))
}

// PatchProduct handles PATCH /api/products/{id}
func (h *ProductHandler) PatchProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, domain.ErrProductNotFound)
	if !ok {
		return
	}

	var req PatchProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondDecodeError(w, h.logger, err)
		return
	}

	product, err := h.productService.Patch(r.Context(), id, service.ProductPatch{
		Name:  req.Name,
		Price: req.Price,
		Stock: req.Stock,
	})
	if err != nil {
		respondServiceError(w, h.logger, err, singleLinePath)
		return
	}

	h.logger.Info("Product updated", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, toProductResponse(product))
}

// DeleteProduct handles DELETE /api/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, domain.ErrProductNotFound)
	if !ok {
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, singleLinePath)
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}
