package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaleHandler_CreateSale(t *testing.T) {
	api := newTestAPI(t)
	p1 := api.products.add("Coffee", "2.50", 10)
	p2 := api.products.add("Bagel", "1.25", 5)

	body := fmt.Sprintf(`{"items_data":[{"product":"%s","quantity":3},{"product":"%s","quantity":2}]}`, p1.ID, p2.ID)
	w := api.do(http.MethodPost, "/api/sales/", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var sale SaleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sale))
	assert.Equal(t, "10.00", sale.TotalPrice)
	require.Len(t, sale.Items, 2)
	assert.Equal(t, p1.ID.String(), sale.Items[0].Product.ID)
	assert.Equal(t, "7.50", sale.Items[0].Subtotal)
	assert.Equal(t, "2.50", sale.Items[1].Subtotal)
	assert.Empty(t, sale.Items[0].Sale, "nested items omit the sale reference")

	assert.Equal(t, 7, p1.Stock)
	assert.Equal(t, 3, p2.Stock)

	w = api.do(http.MethodGet, "/api/sales/"+sale.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	var fetched SaleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, sale.ID, fetched.ID)
	assert.Equal(t, "10.00", fetched.TotalPrice)

	w = api.do(http.MethodGet, "/api/sales", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []SaleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestSaleHandler_RejectedLinesAreReportedByPosition(t *testing.T) {
	api := newTestAPI(t)
	p1 := api.products.add("Coffee", "2.50", 10)
	p2 := api.products.add("Bagel", "1.25", 5)

	body := fmt.Sprintf(`{"items_data":[{"product":"%s","quantity":3},{"product":"%s","quantity":999}]}`, p1.ID, p2.ID)
	w := api.do(http.MethodPost, "/api/sales", body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	errs := decodeError(t, w.Body.Bytes()).Error.Details.ValidationErrors
	require.Len(t, errs, 1)
	assert.Equal(t, "items_data[1].quantity", errs[0].Field)
	assert.Equal(t, "insufficient stock for Bagel. Available: 5", errs[0].Message)

	assert.Equal(t, 10, p1.Stock)
	assert.Equal(t, 5, p2.Stock)
	assert.Empty(t, api.sales.sales)
}

func TestSaleHandler_UnknownProducts(t *testing.T) {
	api := newTestAPI(t)
	p1 := api.products.add("Coffee", "2.50", 10)

	body := fmt.Sprintf(`{"items_data":[{"product":"%s","quantity":1},{"product":"not-a-uuid","quantity":1},{"product":"%s","quantity":0}]}`,
		uuid.New(), p1.ID)
	w := api.do(http.MethodPost, "/api/sales", body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	errs := decodeError(t, w.Body.Bytes()).Error.Details.ValidationErrors
	require.Len(t, errs, 3)
	assert.Equal(t, "items_data[0].product", errs[0].Field)
	assert.Equal(t, "Invalid pk - object does not exist.", errs[0].Message)
	assert.Equal(t, "items_data[1].product", errs[1].Field)
	assert.Equal(t, "items_data[2].quantity", errs[2].Field)
	assert.Equal(t, 10, p1.Stock)
}

func TestSaleHandler_MalformedSales(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing items_data", `{}`, "items_data"},
		{"empty items_data", `{"items_data":[]}`, "items_data"},
		{"line without product", `{"items_data":[{"quantity":1}]}`, "items_data[0].product"},
		{"line without quantity", `{"items_data":[{"product":"x"}]}`, "items_data[0].quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(http.MethodPost, "/api/sales", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

			errs := decodeError(t, w.Body.Bytes()).Error.Details.ValidationErrors
			require.NotEmpty(t, errs)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestSaleHandler_SalesAreImmutable(t *testing.T) {
	api := newTestAPI(t)
	id := uuid.New().String()

	for _, method := range []string{http.MethodPut, http.MethodPatch} {
		w := api.do(method, "/api/sales/"+id, `{"items_data":[]}`)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, method)
		assert.Equal(t, http.StatusText(http.StatusMethodNotAllowed), decodeError(t, w.Body.Bytes()).Error.Code)
	}
}

func TestSaleHandler_Delete(t *testing.T) {
	api := newTestAPI(t)
	p := api.products.add("Coffee", "2.50", 10)

	w := api.do(http.MethodPost, "/api/sales", fmt.Sprintf(`{"items_data":[{"product":"%s","quantity":4}]}`, p.ID))
	require.Equal(t, http.StatusCreated, w.Code)
	var sale SaleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sale))

	w = api.do(http.MethodDelete, "/api/sales/"+sale.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 6, p.Stock, "deleting a sale does not restock")

	w = api.do(http.MethodDelete, "/api/sales/"+sale.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodGet, "/api/sales/abc", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "sale not found", decodeError(t, w.Body.Bytes()).Error.Message)
}

func TestSaleHandler_InternalError(t *testing.T) {
	api := newTestAPI(t)
	p := api.products.add("Coffee", "2.50", 10)
	api.sales.err = errors.New("deadlock detected")

	w := api.do(http.MethodPost, "/api/sales", fmt.Sprintf(`{"items_data":[{"product":"%s","quantity":1}]}`, p.ID))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), decodeError(t, w.Body.Bytes()).Error.Code)
}

func TestRouter_Fallbacks(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/api/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodPost, "/api/products/"+uuid.New().String(), `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
