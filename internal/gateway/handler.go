// Package gateway is the public entry point in front of the storefront API.
package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
)

type Middleware func(http.HandlerFunc) http.HandlerFunc

func passThrough(h http.HandlerFunc) http.HandlerFunc { return h }

type Handler struct {
	storefront *ServiceProxy
	logger     *slog.Logger
}

func NewHandler(storefront *ServiceProxy, logger *slog.Logger) *Handler {
	return &Handler{
		storefront: storefront,
		logger:     logger,
	}
}

// Routes groups the middleware applied per route family. Nil fields are
// skipped.
type Routes struct {
	Wrap  Middleware
	Admin Middleware
	Track Middleware
}

func (h *Handler) Register(mux *http.ServeMux, routes Routes) {
	wrap := orPassThrough(routes.Wrap)
	admin := orPassThrough(routes.Admin)
	track := orPassThrough(routes.Track)

	mux.HandleFunc("GET /products", wrap(h.HandleStorefront))
	mux.HandleFunc("GET /products/{id}", wrap(h.HandleStorefront))
	mux.HandleFunc("POST /orders", wrap(h.HandleStorefront))
	mux.HandleFunc("GET /orders/track", wrap(track(h.HandleStorefront)))

	mux.HandleFunc("GET /admin/products", wrap(admin(h.HandleStorefront)))
	mux.HandleFunc("POST /admin/products", wrap(admin(h.HandleStorefront)))
	mux.HandleFunc("PUT /admin/products", wrap(admin(h.HandleStorefront)))
	mux.HandleFunc("DELETE /admin/products", wrap(admin(h.HandleStorefront)))
	mux.HandleFunc("GET /admin/orders", wrap(admin(h.HandleStorefront)))
	mux.HandleFunc("GET /admin/orders/{orderId}", wrap(admin(h.HandleStorefront)))
	mux.HandleFunc("PUT /admin/orders", wrap(admin(h.HandleStorefront)))
	mux.HandleFunc("GET /admin/analytics", wrap(admin(h.HandleStorefront)))
}

func orPassThrough(m Middleware) Middleware {
	if m == nil {
		return passThrough
	}
	return m
}

func (h *Handler) HandleStorefront(w http.ResponseWriter, r *http.Request) {
	h.proxyRequest(w, r, h.storefront, r.URL.Path)
}

func (h *Handler) proxyRequest(w http.ResponseWriter, r *http.Request, proxy *ServiceProxy, path string) {
	resp, err := proxy.ForwardRequest(r.Context(), r, path)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to forward request", "error", err, "path", path)
		writeError(w, h.logger, http.StatusBadGateway, "service unavailable")
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if contentType := resp.Header.Get("Content-Type"); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	w.WriteHeader(resp.StatusCode)

	h.logger.InfoContext(r.Context(), "request proxied", "method", r.Method, "path", path, "status", resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to copy response body", "error", err)
	}
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: message}); err != nil {
		logger.Error("failed to encode error response", "error", err)
	}
}
