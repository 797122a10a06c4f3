// Package email is a stand-in for a transactional email provider. It
// validates and logs each message instead of delivering it.
package email

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/validation"
)

type Handler struct {
	logger *slog.Logger
	sent   metric.Int64Counter
}

func NewHandler(logger *slog.Logger) (*Handler, error) {
	sent, err := otel.Meter("storefront/email").Int64Counter("email.sent",
		metric.WithDescription("Emails accepted for delivery"),
		metric.WithUnit("{email}"),
	)
	if err != nil {
		return nil, err
	}

	return &Handler{
		logger: logger,
		sent:   sent,
	}, nil
}

type sendRequest struct {
	To      string `json:"to" validate:"required,email"`
	Subject string `json:"subject" validate:"required,max=200"`
	Body    string `json:"body" validate:"required"`
}

type sendResponse struct {
	Status string `json:"status"`
}

func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	if err := validation.Struct(&req); err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			h.writeError(w, http.StatusBadRequest, verr.Error(), verr.Fields)
			return
		}
		h.logger.ErrorContext(r.Context(), "validation misconfigured", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error", nil)
		return
	}

	h.sent.Add(r.Context(), 1)
	h.logger.InfoContext(r.Context(), "email sent", "to", req.To, "subject", req.Subject, "bytes", len(req.Body))

	h.writeJSON(w, http.StatusOK, sendResponse{Status: "sent"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string, fields map[string]string) {
	h.writeJSON(w, status, errorResponse{Error: message, Fields: fields})
}
