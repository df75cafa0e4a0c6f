package transport

import (
	"errors"
	"fmt"
	"net/http"
	"sort"

	"pos-inventory/internal/domain"
	"pos-inventory/internal/middleware"
	"pos-inventory/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// linePath names the field of sale line i in error details
type linePath func(index int, field string) string

func itemsDataPath(index int, field string) string {
	return fmt.Sprintf("items_data[%d].%s", index, field)
}

func singleLinePath(_ int, field string) string {
	return field
}

// pathID reads the {id} URL parameter. Ids that are not UUIDs cannot resolve, so they are reported as not found.
func pathID(w http.ResponseWriter, r *http.Request, notFound error) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusNotFound, notFound.Error())
		return uuid.Nil, false
	}
	return id, true
}

// respondDecodeError answers a request body that failed decoding or tag validation
func respondDecodeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	logger.Debug("Request validation failed", zap.Error(err))

	if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
		middleware.RespondWithValidationErrors(w, validationErrors)
		return
	}

	middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
}

// respondServiceError maps a service error onto the HTTP error envelope
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error, path linePath) {
	var (
		verr     *service.ValidationError
		lineErrs domain.LineErrors
	)

	switch {
	case errors.As(err, &verr):
		logger.Debug("Validation failed", zap.Error(err))
		middleware.RespondWithValidationErrors(w, fieldErrors(verr))

	case errors.As(err, &lineErrs):
		logger.Debug("Sale lines rejected", zap.Error(err))
		middleware.RespondWithValidationErrors(w, lineFieldErrors(lineErrs, path))

	case errors.Is(err, domain.ErrEmptySale):
		logger.Debug("Empty sale rejected")
		middleware.RespondWithValidationErrors(w, []middleware.ValidationError{
			{Field: "items_data", Message: "Ensure this list has at least 1 item(s)"},
		})

	case errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrSaleNotFound),
		errors.Is(err, domain.ErrSaleItemNotFound):
		logger.Debug("Resource not found", zap.Error(err))
		middleware.RespondWithError(w, http.StatusNotFound, err.Error())

	default:
		logger.Error("Request failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

func fieldErrors(verr *service.ValidationError) []middleware.ValidationError {
	fields := make([]string, 0, len(verr.Fields))
	for field := range verr.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	out := make([]middleware.ValidationError, 0, len(fields))
	for _, field := range fields {
		out = append(out, middleware.ValidationError{Field: field, Message: verr.Fields[field]})
	}
	return out
}

func lineFieldErrors(lineErrs domain.LineErrors, path linePath) []middleware.ValidationError {
	out := make([]middleware.ValidationError, 0, len(lineErrs))
	for _, le := range lineErrs {
		if errors.Is(le, domain.ErrProductNotFound) {
			out = append(out, middleware.ValidationError{
				Field:   path(le.Index, "product"),
				Message: "Invalid pk - object does not exist.",
			})
			continue
		}
		out = append(out, middleware.ValidationError{
			Field:   path(le.Index, "quantity"),
			Message: le.Err.Error(),
		})
	}
	return out
}
