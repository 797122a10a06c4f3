package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/storefront/internal/adminauth"
	"github.com/joao-fontenele/storefront/internal/cart"
	"github.com/joao-fontenele/storefront/internal/client"
	"github.com/joao-fontenele/storefront/internal/domain"
)

var mat = domain.Product{
	ID:       "6f1c2a9e-8a0b-4a57-9f3e-0c2d8e4b1a11",
	Title:    "Yoga Mat",
	Price:    2499,
	Category: domain.CategorySports,
	Stock:    3,
}

func fakeStorefront(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /products/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != mat.ID {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"error":"product not found"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "product": mat})
	})
	mux.HandleFunc("POST /orders", func(w http.ResponseWriter, r *http.Request) {
		var c domain.Checkout
		require.NoError(t, json.NewDecoder(r.Body).Decode(&c))
		if c.CustomerPhone == "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"success":false,"error":"validation failed","fields":{"customerPhone":"customerPhone is required"}}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"orderId": "ORD-20240115-0042",
			"order": domain.Order{
				OrderID:         "ORD-20240115-0042",
				CustomerName:    c.CustomerName,
				CustomerPhone:   c.CustomerPhone,
				CustomerAddress: c.CustomerAddress,
				CustomerCity:    c.CustomerCity,
				Items:           c.CartItems,
				TotalPrice:      c.TotalPrice,
				Status:          domain.OrderStatusPending,
			},
		})
	})
	mux.HandleFunc("GET /admin/orders", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"error":"unauthorized"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"orders":  []domain.Order{{OrderID: "ORD-20240115-0042", TotalPrice: 4998, Status: domain.OrderStatusPending}},
			"stats":   map[string]any{"totalOrders": 1, "totalRevenue": 4998, "pendingOrders": 1},
		})
	})
	mux.HandleFunc("GET /admin/orders/{orderId}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("orderId") != "ORD-20240115-0042" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"error":"order not found"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"order": domain.Order{
				OrderID:         "ORD-20240115-0042",
				CustomerName:    "Ayesha Khan",
				CustomerPhone:   "03001234567",
				CustomerAddress: "12 Mall Road",
				CustomerCity:    "Lahore",
				Items:           []domain.LineItem{mat.LineItem(2)},
				TotalPrice:      4998,
				Status:          domain.OrderStatusPending,
			},
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestApp(t *testing.T, opts ...client.Option) (*app, *bytes.Buffer) {
	t.Helper()

	server := fakeStorefront(t)
	out := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &app{
		out:    out,
		cart:   cart.Open(cart.NewMemoryStorage(), logger),
		api:    client.New(server.URL, server.Client(), opts...),
		logger: logger,
	}, out
}

func TestCartCommands(t *testing.T) {
	a, out := newTestApp(t)
	ctx := context.Background()

	require.NoError(t, a.dispatch(ctx, []string{"add", mat.ID, "--quantity", "2"}))
	assert.Contains(t, out.String(), "added 2 x Yoga Mat")
	assert.Equal(t, int64(4998), a.cart.TotalPrice())

	require.NoError(t, a.dispatch(ctx, []string{"set", mat.ID, "5"}))
	assert.Equal(t, 5, a.cart.TotalItems())

	out.Reset()
	require.NoError(t, a.dispatch(ctx, []string{"cart"}))
	assert.Contains(t, out.String(), "PKR 12495")

	require.NoError(t, a.dispatch(ctx, []string{"set", mat.ID, "0"}))
	assert.Equal(t, 0, a.cart.Len())

	out.Reset()
	require.NoError(t, a.dispatch(ctx, []string{"cart"}))
	assert.Contains(t, out.String(), "your cart is empty")
}

func TestAddUnknownProduct(t *testing.T) {
	a, _ := newTestApp(t)

	err := a.dispatch(context.Background(), []string{"add", "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, a.cart.Len())
}

func TestCheckoutCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("rejected order keeps the cart", func(t *testing.T) {
		a, _ := newTestApp(t)
		require.NoError(t, a.dispatch(ctx, []string{"add", mat.ID}))

		err := a.dispatch(ctx, []string{"checkout", "--name", "Jane", "--address", "1 Main St", "--city", "Lahore"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "customerPhone: customerPhone is required")
		assert.Equal(t, 1, a.cart.Len())
	})

	t.Run("placed order clears cart and leaves a one-shot confirmation", func(t *testing.T) {
		a, out := newTestApp(t)
		require.NoError(t, a.dispatch(ctx, []string{"add", mat.ID, "-q", "2"}))

		require.NoError(t, a.dispatch(ctx, []string{
			"checkout", "--name", "Jane", "--phone", "0300", "--address", "1 Main St", "--city", "Lahore",
		}))
		assert.Contains(t, out.String(), "order placed: ORD-20240115-0042")
		assert.Equal(t, 0, a.cart.Len())

		out.Reset()
		require.NoError(t, a.dispatch(ctx, []string{"confirmation"}))
		assert.Contains(t, out.String(), "order ORD-20240115-0042")
		assert.Contains(t, out.String(), "PKR 4998")

		out.Reset()
		require.NoError(t, a.dispatch(ctx, []string{"confirmation"}))
		assert.Contains(t, out.String(), "no recent order")
	})

	t.Run("empty cart", func(t *testing.T) {
		a, _ := newTestApp(t)
		err := a.dispatch(ctx, []string{"checkout", "--name", "Jane"})
		assert.ErrorIs(t, err, cart.ErrEmptyCart)
	})
}

func TestAdminCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("orders need a token", func(t *testing.T) {
		a, _ := newTestApp(t)
		var apiErr *client.APIError
		require.True(t, errors.As(a.dispatch(ctx, []string{"admin", "orders"}), &apiErr))
		assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	})

	t.Run("orders with token", func(t *testing.T) {
		a, out := newTestApp(t, client.WithToken("tok"))
		require.NoError(t, a.dispatch(ctx, []string{"admin", "orders"}))
		assert.Contains(t, out.String(), "ORD-20240115-0042")
		assert.Contains(t, out.String(), "1 orders, revenue PKR 4998")
	})

	t.Run("single order", func(t *testing.T) {
		a, out := newTestApp(t, client.WithToken("tok"))
		require.NoError(t, a.dispatch(ctx, []string{"admin", "order", "ORD-20240115-0042"}))
		assert.Contains(t, out.String(), "Ayesha Khan")
		assert.Contains(t, out.String(), "12 Mall Road, Lahore")

		err := a.dispatch(ctx, []string{"admin", "order", "ORD-20240115-0099"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("token", func(t *testing.T) {
		a, out := newTestApp(t)
		require.NoError(t, a.dispatch(ctx, []string{"admin", "token", "--secret", "s3cret", "--email", "admin@store.com", "--ttl", "1h"}))

		claims, err := adminauth.New("s3cret").Verify(strings.TrimSpace(out.String()))
		require.NoError(t, err)
		assert.Equal(t, "admin@store.com", claims.Subject)
		assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
	})
}

func TestUsageErrors(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	for _, args := range [][]string{
		nil,
		{"bogus"},
		{"product"},
		{"set", mat.ID, "many"},
		{"add", mat.ID, "--quantity", "0"},
		{"admin", "bogus"},
	} {
		assert.ErrorIs(t, a.dispatch(ctx, args), errUsage, "args %v", args)
	}
}
