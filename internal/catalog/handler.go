package catalog

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/validation"
)

const (
	PublicPageLimit = 12
	AdminPageLimit  = 10
)

type Handler struct {
	store  Store
	logger *slog.Logger
}

func NewHandler(store Store, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger,
	}
}

// Register mounts the public and admin catalog routes on mux. wrap is
// applied to every handler.
func (h *Handler) Register(mux *http.ServeMux, wrap func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("GET /products", wrap(h.HandleList))
	mux.HandleFunc("GET /products/{id}", wrap(h.HandleGet))
	mux.HandleFunc("GET /admin/products", wrap(h.HandleAdminList))
	mux.HandleFunc("POST /admin/products", wrap(h.HandleCreate))
	mux.HandleFunc("PUT /admin/products", wrap(h.HandleUpdate))
	mux.HandleFunc("DELETE /admin/products", wrap(h.HandleDelete))
}

type listResponse struct {
	Success    bool              `json:"success"`
	Products   []domain.Product  `json:"products"`
	Pagination domain.Pagination `json:"pagination"`
}

type productResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Product *domain.Product `json:"product,omitempty"`
}

func filterFromQuery(r *http.Request, defaultLimit int) domain.ProductFilter {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	return domain.ProductFilter{
		Category: domain.Category(q.Get("category")),
		Search:   q.Get("search"),
		Page:     page,
		Limit:    limit,
	}.Normalize(defaultLimit)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, PublicPageLimit, false)
}

func (h *Handler) HandleAdminList(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, AdminPageLimit, true)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, defaultLimit int, withLimit bool) {
	f := filterFromQuery(r, defaultLimit)

	products, total, err := h.store.List(r.Context(), f)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list products", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to fetch products")
		return
	}

	pagination := domain.NewPagination(total, f)
	if withLimit {
		pagination.Limit = f.Limit
	}

	h.logger.InfoContext(r.Context(), "products listed", "count", len(products), "total", total, "page", f.Page)
	h.writeJSON(w, http.StatusOK, listResponse{Success: true, Products: products, Pagination: pagination})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	product, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to get product", "error", err, "product_id", id)
		h.writeError(w, http.StatusInternalServerError, "failed to fetch product")
		return
	}

	if product == nil {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.writeJSON(w, http.StatusOK, productResponse{Success: true, Product: product})
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in domain.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in.Title = strings.TrimSpace(in.Title)

	if err := validation.Struct(&in); err != nil {
		h.writeValidationError(w, r, err)
		return
	}

	product, err := h.store.Create(r.Context(), in)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to create product", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	h.logger.InfoContext(r.Context(), "product created", "product_id", product.ID)
	h.writeJSON(w, http.StatusCreated, productResponse{
		Success: true,
		Message: "Product created successfully",
		Product: product,
	})
}

type updateRequest struct {
	ProductID string `json:"productId"`
	domain.ProductUpdate
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ProductID == "" {
		h.writeValidationError(w, r, domain.NewValidationError("productId", "productId is required"))
		return
	}

	if err := validation.Struct(&req.ProductUpdate); err != nil {
		h.writeValidationError(w, r, err)
		return
	}

	product, err := h.store.Update(r.Context(), req.ProductID, req.ProductUpdate)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to update product", "error", err, "product_id", req.ProductID)
		h.writeError(w, http.StatusInternalServerError, "failed to update product")
		return
	}

	if product == nil {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.logger.InfoContext(r.Context(), "product updated", "product_id", product.ID)
	h.writeJSON(w, http.StatusOK, productResponse{
		Success: true,
		Message: "Product updated successfully",
		Product: product,
	})
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		h.writeValidationError(w, r, domain.NewValidationError("id", "id is required"))
		return
	}

	deleted, err := h.store.Delete(r.Context(), id)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to delete product", "error", err, "product_id", id)
		h.writeError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	if !deleted {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.logger.InfoContext(r.Context(), "product deleted", "product_id", id)
	h.writeJSON(w, http.StatusOK, productResponse{Success: true, Message: "Product deleted successfully"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{Error: message})
}

func (h *Handler) writeValidationError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		h.logger.ErrorContext(r.Context(), "validation misconfigured", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Fields: verr.Fields})
}
