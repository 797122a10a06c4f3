package orders

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/storefront/internal/analytics"
	"github.com/joao-fontenele/storefront/internal/domain"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the checkout, tracking and admin order routes on mux.
func (h *Handler) Register(mux *http.ServeMux, wrap func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("POST /orders", wrap(h.HandleCreate))
	mux.HandleFunc("GET /orders/track", wrap(h.HandleTrack))
	mux.HandleFunc("GET /admin/orders", wrap(h.HandleList))
	mux.HandleFunc("GET /admin/orders/{orderId}", wrap(h.HandleGet))
	mux.HandleFunc("PUT /admin/orders", wrap(h.HandleUpdateStatus))
	mux.HandleFunc("GET /admin/analytics", wrap(h.HandleAnalytics))
}

type orderResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	OrderID string        `json:"orderId,omitempty"`
	Order   *domain.Order `json:"order"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req domain.Checkout
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.service.PlaceOrder(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to place order")
		return
	}

	h.writeJSON(w, http.StatusCreated, orderResponse{
		Success: true,
		Message: "Order placed successfully",
		OrderID: order.OrderID,
		Order:   order,
	})
}

func (h *Handler) HandleTrack(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	order, err := h.service.Track(r.Context(), q.Get("orderId"), q.Get("phone"))
	if errors.Is(err, domain.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "Order not found. Please check your Order ID and phone number.")
		return
	}
	if err != nil {
		h.writeServiceError(w, r, err, "failed to track order")
		return
	}

	h.writeJSON(w, http.StatusOK, orderResponse{Success: true, Order: order})
}

type listResponse struct {
	Success bool                 `json:"success"`
	Orders  []domain.Order       `json:"orders"`
	Stats   analytics.Aggregates `json:"stats"`
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	orders, stats, err := h.service.ListOrders(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "failed to fetch orders")
		return
	}

	h.logger.InfoContext(r.Context(), "orders listed", "count", len(orders))
	h.writeJSON(w, http.StatusOK, listResponse{Success: true, Orders: orders, Stats: stats})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), r.PathValue("orderId"))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to fetch order")
		return
	}

	h.writeJSON(w, http.StatusOK, orderResponse{Success: true, Order: order})
}

type updateStatusRequest struct {
	OrderID string             `json:"orderId"`
	Status  domain.OrderStatus `json:"orderStatus"`
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fields := map[string]string{}
	if req.OrderID == "" {
		fields["orderId"] = "orderId is required"
	}
	if req.Status == "" {
		fields["orderStatus"] = "orderStatus is required"
	}
	if len(fields) > 0 {
		h.writeServiceError(w, r, &domain.ValidationError{Fields: fields}, "")
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), req.OrderID, req.Status)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to update order")
		return
	}

	h.writeJSON(w, http.StatusOK, orderResponse{
		Success: true,
		Message: "Order updated successfully",
		Order:   order,
	})
}

type analyticsResponse struct {
	Success   bool             `json:"success"`
	Analytics analytics.Report `json:"analytics"`
}

func (h *Handler) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Analytics(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "failed to fetch analytics")
		return
	}

	h.writeJSON(w, http.StatusOK, analyticsResponse{Success: true, Analytics: report})
}

type errorResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// writeServiceError maps domain errors to status codes. Anything
// unrecognised is logged and answered with fallback.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var verr *domain.ValidationError
	var terr *domain.TransitionError

	switch {
	case errors.As(err, &verr):
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Fields: verr.Fields})
	case errors.As(err, &terr) && !terr.To.Valid():
		h.writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  terr.Error(),
			Fields: map[string]string{"orderStatus": terr.Error()},
		})
	case errors.As(err, &terr):
		h.writeError(w, http.StatusConflict, terr.Error())
	case errors.Is(err, domain.ErrInsufficientStock):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "order not found")
	default:
		h.logger.ErrorContext(r.Context(), fallback, "error", err)
		h.writeError(w, http.StatusInternalServerError, fallback)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{Error: message})
}
