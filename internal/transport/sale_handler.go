package transport

import (
	"net/http"

	"pos-inventory/internal/domain"
	"pos-inventory/internal/middleware"
	"pos-inventory/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SaleHandler handles HTTP requests for sales
type SaleHandler struct {
	saleService service.SaleService
	logger      *zap.Logger
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(saleService service.SaleService, logger *zap.Logger) *SaleHandler {
	return &SaleHandler{
		saleService: saleService,
		logger:      logger,
	}
}

// RegisterRoutes registers all sale routes. Recorded sales cannot be edited.
func (h *SaleHandler) RegisterRoutes(r chi.Router, writeGuard func(http.Handler) http.Handler) {
	r.Route("/api/sales", func(r chi.Router) {
		r.Get("/", h.ListSales)
		r.Get("/{id}", h.GetSale)
		r.Put("/{id}", middleware.MethodNotAllowedHandler)
		r.Patch("/{id}", middleware.MethodNotAllowedHandler)

		r.Group(func(r chi.Router) {
			if writeGuard != nil {
				r.Use(writeGuard)
			}
			r.Post("/", h.CreateSale)
			r.Delete("/{id}", h.DeleteSale)
		})
	})
}

// ListSales handles GET /api/sales
func (h *SaleHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.saleService.List(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, itemsDataPath)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toSaleResponses(sales))
}

// GetSale handles GET /api/sales/{id}
func (h *SaleHandler) GetSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, domain.ErrSaleNotFound)
	if !ok {
		return
	}

	sale, err := h.saleService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, itemsDataPath)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toSaleResponse(sale))
}

// CreateSale handles POST /api/sales
func (h *SaleHandler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondDecodeError(w, h.logger, err)
		return
	}

	sale, err := h.saleService.CreateSale(r.Context(), toSaleLines(req.ItemsData))
	if err != nil {
		respondServiceError(w, h.logger, err, itemsDataPath)
		return
	}

	h.logger.Info("Sale recorded",
		zap.String("sale_id", sale.ID.String()),
		zap.Int("items", len(sale.Items)),
		zap.String("total_price", money(sale.TotalPrice())),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, toSaleResponse(sale))
}

// DeleteSale handles DELETE /api/sales/{id}
func (h *SaleHandler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, domain.ErrSaleNotFound)
	if !ok {
		return
	}

	if err := h.saleService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, itemsDataPath)
		return
	}

	h.logger.Info("Sale deleted", zap.String("sale_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}
