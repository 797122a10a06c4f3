// Package worker turns order events into customer emails.
//
// Notifications are best effort. A message that cannot be decoded, or
// whose email cannot be delivered, is logged and acknowledged so one bad
// order never stalls the partition.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type Sender interface {
	Send(ctx context.Context, email Email) error
}

type NotificationHandler struct {
	sender Sender
	logger *slog.Logger
}

func NewNotificationHandler(sender Sender, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		sender: sender,
		logger: logger,
	}
}

// Handle matches messaging.Handler. It only returns an error when ctx is
// done, leaving the message uncommitted for the next run.
func (h *NotificationHandler) Handle(ctx context.Context, eventType string, payload []byte) error {
	var email *Email
	var orderID string

	switch eventType {
	case domain.EventOrderPlaced:
		var event domain.OrderPlacedEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			h.logger.ErrorContext(ctx, "discarding malformed event", "error", err, "event_type", eventType)
			return nil
		}
		orderID = event.OrderID
		email = confirmationEmail(event)

	case domain.EventOrderStatusChanged:
		var event domain.OrderStatusChangedEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			h.logger.ErrorContext(ctx, "discarding malformed event", "error", err, "event_type", eventType)
			return nil
		}
		orderID = event.OrderID
		email = statusEmail(event)

	default:
		h.logger.DebugContext(ctx, "ignoring event", "event_type", eventType)
		return nil
	}

	if email.To == "" || email.To == domain.DefaultCustomerEmail {
		h.logger.InfoContext(ctx, "no customer email, skipping notification", "order_id", orderID, "event_type", eventType)
		return nil
	}

	if err := h.sender.Send(ctx, *email); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		h.logger.ErrorContext(ctx, "failed to send notification", "error", err, "order_id", orderID, "event_type", eventType)
		return nil
	}

	h.logger.InfoContext(ctx, "notification sent", "order_id", orderID, "event_type", eventType)
	return nil
}

func confirmationEmail(event domain.OrderPlacedEvent) *Email {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nThank you for your order %s.\n\n", event.CustomerName, event.OrderID)
	for _, item := range event.Items {
		fmt.Fprintf(&b, "  %d x %s  PKR %d\n", item.Quantity, item.Title, item.Subtotal())
	}
	fmt.Fprintf(&b, "\nTotal: PKR %d (%s)\n", event.TotalPrice, event.PaymentMethod)
	b.WriteString("\nYou can track your order with its ID and your phone number.\n")

	return &Email{
		To:      event.CustomerEmail,
		Subject: "Order Confirmation: " + event.OrderID,
		Body:    b.String(),
	}
}

func statusEmail(event domain.OrderStatusChangedEvent) *Email {
	var body string
	switch event.To {
	case domain.OrderStatusShipped:
		body = fmt.Sprintf("Hi %s,\n\nYour order %s has shipped and is on its way.\n", event.CustomerName, event.OrderID)
	case domain.OrderStatusDelivered:
		body = fmt.Sprintf("Hi %s,\n\nYour order %s has been delivered. Enjoy!\n", event.CustomerName, event.OrderID)
	case domain.OrderStatusCancelled:
		body = fmt.Sprintf("Hi %s,\n\nYour order %s has been cancelled.\n", event.CustomerName, event.OrderID)
	default:
		body = fmt.Sprintf("Hi %s,\n\nYour order %s is now %s.\n", event.CustomerName, event.OrderID, event.To)
	}

	return &Email{
		To:      event.CustomerEmail,
		Subject: fmt.Sprintf("Order %s: %s", event.OrderID, event.To),
		Body:    body,
	}
}
