package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestServiceProxy_ForwardRequest(t *testing.T) {
	t.Run("forwards GET request with query", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				t.Errorf("expected GET, got %s", r.Method)
			}
			if r.URL.Path != "/orders/track" {
				t.Errorf("expected /orders/track, got %s", r.URL.Path)
			}
			if r.URL.RawQuery != "orderId=ORD-20240115-0042&phone=555" {
				t.Errorf("unexpected query: %s", r.URL.RawQuery)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		proxy := NewServiceProxy(server.URL, server.Client())
		req := httptest.NewRequest(http.MethodGet, "/orders/track?orderId=ORD-20240115-0042&phone=555", nil)
		resp, err := proxy.ForwardRequest(context.Background(), req, "/orders/track")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected status 200, got %d", resp.StatusCode)
		}
	})

	t.Run("forwards body, content-type and authorization", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut {
				t.Errorf("expected PUT, got %s", r.Method)
			}
			if r.Header.Get("Content-Type") != "application/json" {
				t.Errorf("expected Content-Type application/json, got %s", r.Header.Get("Content-Type"))
			}
			if r.Header.Get("Authorization") != "Bearer abc" {
				t.Errorf("expected Authorization to be forwarded, got %s", r.Header.Get("Authorization"))
			}
			body, _ := io.ReadAll(r.Body)
			if string(body) != `{"orderStatus":"shipped"}` {
				t.Errorf("unexpected body: %s", body)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		proxy := NewServiceProxy(server.URL, server.Client())
		req := httptest.NewRequest(http.MethodPut, "/admin/orders", strings.NewReader(`{"orderStatus":"shipped"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer abc")
		resp, err := proxy.ForwardRequest(context.Background(), req, "/admin/orders")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected status 200, got %d", resp.StatusCode)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		proxy := NewServiceProxy(server.URL, server.Client())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		req := httptest.NewRequest(http.MethodGet, "/original", nil)
		_, err := proxy.ForwardRequest(ctx, req, "/test")
		if err == nil {
			t.Error("expected error for cancelled context")
		}
	})
}
