package transport

import (
	"net/http"

	"pos-inventory/internal/domain"
	"pos-inventory/internal/middleware"
	"pos-inventory/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SaleItemHandler handles HTTP requests for individual sale items
type SaleItemHandler struct {
	saleItemService service.SaleItemService
	logger          *zap.Logger
}

// NewSaleItemHandler creates a new SaleItemHandler
func NewSaleItemHandler(saleItemService service.SaleItemService, logger *zap.Logger) *SaleItemHandler {
	return &SaleItemHandler{
		saleItemService: saleItemService,
		logger:          logger,
	}
}

// RegisterRoutes registers all sale item routes
func (h *SaleItemHandler) RegisterRoutes(r chi.Router, writeGuard func(http.Handler) http.Handler) {
	r.Route("/api/sale-items", func(r chi.Router) {
		r.Get("/", h.ListSaleItems)
		r.Get("/{id}", h.GetSaleItem)

		r.Group(func(r chi.Router) {
			if writeGuard != nil {
				r.Use(writeGuard)
			}
			r.Post("/", h.CreateSaleItem)
			r.Put("/{id}", h.UpdateSaleItem)
			r.Patch("/{id}", h.PatchSaleItem)
			r.Delete("/{id}", h.DeleteSaleItem)
		})
	})
}

// ListSaleItems handles GET /api/sale-items
func (h *SaleItemHandler) ListSaleItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.saleItemService.List(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, singleLinePath)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toSaleItemResponses(items))
}

// GetSaleItem handles GET /api/sale-items/{id}
func (h *SaleItemHandler) GetSaleItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, domain.ErrSaleItemNotFound)
	if !ok {
		return
	}

	item, err := h.saleItemService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, singleLinePath)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toSaleItemResponse(item, true))
}

// CreateSaleItem handles POST /api/sale-items; the item is recorded as a one line sale
func (h *SaleItemHandler) CreateSaleItem(w http.ResponseWriter, r *http.Request) {
	var req SaleLineRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondDecodeError(w, h.logger, err)
		return
	}

	item, err := h.saleItemService.Create(r.Context(), domain.SaleLine{
		ProductID: parseProductRef(req.Product),
		Quantity:  *req.Quantity,
	})
	if err != nil {
		respondServiceError(w, h.logger, err, singleLinePath)
		return
	}

	h.logger.Info("Sale item created",
		zap.String("sale_item_id", item.ID.String()),
		zap.String("sale_id", item.SaleID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, toSaleItemResponse(item, true))
}

// UpdateSaleItem handles PUT /api/sale-items/{id}
func (h *SaleItemHandler) UpdateSaleItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, domain.ErrSaleItemNotFound)
	if !ok {
		return
	}

	var req SaleLineRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondDecodeError(w, h.logger, err)
		return
	}

	item, err := h.saleItemService.Update(r.Context(), id, domain.SaleLine{
		ProductID: parseProductRef(req.Product),
		Quantity:  *req.Quantity,
	})
	if err != nil {
		respondServiceError(w, h.logger, err, singleLinePath)
		return
	}

	h.logger.Info("Sale item updated", zap.String("sale_item_id", item.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, toSaleItemResponse(item, true))
}

// PatchSaleItem handles PATCH /api/sale-items/{id}
func (h *SaleItemHandler) PatchSaleItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, domain.ErrSaleItemNotFound)
	if !ok {
		return
	}

	var req PatchSaleItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondDecodeError(w, h.logger, err)
		return
	}

	patch := service.SaleItemPatch{Quantity: req.Quantity}
	if req.Product != nil {
		productID := parseProductRef(*req.Product)
		patch.ProductID = &productID
	}

	item, err := h.saleItemService.Patch(r.Context(), id, patch)
	if err != nil {
		respondServiceError(w, h.logger, err, singleLinePath)
		return
	}

	h.logger.Info("Sale item updated", zap.String("sale_item_id", item.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, toSaleItemResponse(item, true))
}

// DeleteSaleItem handles DELETE /api/sale-items/{id}
func (h *SaleItemHandler) DeleteSaleItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, domain.ErrSaleItemNotFound)
	if !ok {
		return
	}

	if err := h.saleItemService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, singleLinePath)
		return
	}

	h.logger.Info("Sale item deleted", zap.String("sale_item_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}
