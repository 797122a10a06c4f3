package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/joao-fontenele/storefront/internal/cart"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestListProducts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products", r.URL.Path)
		assert.Equal(t, "Electronics", r.URL.Query().Get("category"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Empty(t, r.URL.Query().Get("search"))
		writeJSON(w, http.StatusOK, map[string]any{
			"success":    true,
			"products":   []domain.Product{{ID: "p1", Title: "Earbuds", Price: 2500}},
			"pagination": domain.Pagination{Total: 13, Page: 2, Pages: 2},
		})
	}))
	defer server.Close()

	c := New(server.URL+"/", server.Client())
	products, page, err := c.ListProducts(context.Background(), domain.ProductFilter{Category: domain.Category("Electronics"), Page: 2})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Earbuds", products[0].Title)
	assert.Equal(t, 13, page.Total)
}

func TestTrackNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ORD-20240115-0042", r.URL.Query().Get("orderId"))
		assert.Equal(t, "+1 555 0100", r.URL.Query().Get("phone"))
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"error":   "Order not found. Please check your Order ID and phone number.",
		})
	}))
	defer server.Close()

	_, err := New(server.URL, server.Client()).Track(context.Background(), "ORD-20240115-0042", "+1 555 0100")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "Order not found. Please check your Order ID and phone number.", err.Error())
}

func TestAdminCallsSendToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "unauthorized"})
			return
		}
		var req updateStatusRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"order":   domain.Order{OrderID: req.OrderID, Status: req.Status},
		})
	}))
	defer server.Close()

	_, err := New(server.URL, server.Client()).UpdateStatus(context.Background(), "ORD-20240115-0042", domain.OrderStatusShipped)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	order, err := New(server.URL, server.Client(), WithToken("tok")).UpdateStatus(context.Background(), "ORD-20240115-0042", domain.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, order.Status)
}

func TestGetOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/orders/ORD-20240115-0042", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"order":   domain.Order{OrderID: "ORD-20240115-0042", Status: domain.OrderStatusPending},
		})
	}))
	defer server.Close()

	order, err := New(server.URL, server.Client()).GetOrder(context.Background(), "ORD-20240115-0042")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
}

func TestCheckoutThroughClient(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	product := &domain.Product{ID: "p1", Title: "Earbuds", Price: 2500, Images: []string{"a.jpg"}}

	t.Run("success clears the cart", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req domain.Checkout
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, int64(5000), req.TotalPrice)
			writeJSON(w, http.StatusCreated, map[string]any{
				"success": true,
				"orderId": "ORD-20240115-0042",
				"order": domain.Order{
					OrderID:      "ORD-20240115-0042",
					CustomerName: req.CustomerName,
					Items:        req.CartItems,
					TotalPrice:   req.TotalPrice,
				},
			})
		}))
		defer server.Close()

		store := cart.Open(cart.NewMemoryStorage(), logger)
		store.AddProduct(product, 2)

		order, err := store.Checkout(context.Background(), New(server.URL, server.Client()),
			cart.Customer{Name: "Jane", Phone: "555", Address: "1 Main St", City: "Springfield"}, domain.PaymentMethodCOD)
		require.NoError(t, err)
		assert.Equal(t, "ORD-20240115-0042", order.OrderID)
		assert.Equal(t, 0, store.Len())

		confirmation, ok := store.TakeConfirmation()
		require.True(t, ok)
		assert.Equal(t, int64(5000), confirmation.TotalPrice)
	})

	t.Run("validation failure keeps the cart", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"error":   "validation failed: customerPhone is required",
				"fields":  map[string]string{"customerPhone": "customerPhone is required"},
			})
		}))
		defer server.Close()

		store := cart.Open(cart.NewMemoryStorage(), logger)
		store.AddProduct(product, 1)

		_, err := store.Checkout(context.Background(), New(server.URL, server.Client()),
			cart.Customer{Name: "Jane"}, domain.PaymentMethodCOD)
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "customerPhone is required", apiErr.Fields["customerPhone"])
		assert.Equal(t, 1, store.Len())
	})
}
