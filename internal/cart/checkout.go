package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/joao-fontenele/storefront/internal/domain"
)

var ErrEmptyCart = errors.New("cart is empty")

// OrderPlacer submits a checkout to the storefront.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, c domain.Checkout) (*domain.Order, error)
}

// Customer is the delivery information collected at checkout.
type Customer struct {
	Name    string
	Email   string
	Phone   string
	Address string
	City    string
	Notes   string
}

// Confirmation is the one-shot summary shown after a successful checkout.
type Confirmation struct {
	OrderID         string            `json:"orderId"`
	CustomerName    string            `json:"customerName"`
	CustomerPhone   string            `json:"customerPhone"`
	CustomerEmail   string            `json:"customerEmail"`
	CustomerAddress string            `json:"customerAddress"`
	CustomerCity    string            `json:"customerCity"`
	TotalPrice      int64             `json:"totalPrice"`
	CartItems       []domain.LineItem `json:"cartItems"`
}

// Checkout places an order for the cart's contents. On success the
// confirmation is saved and the cart emptied; on failure the cart is left
// untouched.
func (s *Store) Checkout(ctx context.Context, placer OrderPlacer, customer Customer, method domain.PaymentMethod) (*domain.Order, error) {
	if len(s.items) == 0 {
		return nil, ErrEmptyCart
	}

	req := domain.Checkout{
		CustomerName:    customer.Name,
		CustomerEmail:   customer.Email,
		CustomerPhone:   customer.Phone,
		CustomerAddress: customer.Address,
		CustomerCity:    customer.City,
		CartItems:       s.Items(),
		TotalPrice:      s.TotalPrice(),
		PaymentMethod:   method,
		Notes:           customer.Notes,
	}

	order, err := placer.PlaceOrder(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}

	s.SaveConfirmation(Confirmation{
		OrderID:         order.OrderID,
		CustomerName:    order.CustomerName,
		CustomerPhone:   order.CustomerPhone,
		CustomerEmail:   order.CustomerEmail,
		CustomerAddress: order.CustomerAddress,
		CustomerCity:    order.CustomerCity,
		TotalPrice:      order.TotalPrice,
		CartItems:       order.Items,
	})
	s.Clear()

	return order, nil
}

func (s *Store) SaveConfirmation(c Confirmation) {
	data, err := json.Marshal(c)
	if err != nil {
		s.logger.Error("failed to encode confirmation", "error", err)
		return
	}
	if err := s.storage.Set(confirmationKey, data); err != nil {
		s.logger.Error("failed to save confirmation", "error", err, "order_id", c.OrderID)
	}
}

// TakeConfirmation returns the last saved confirmation and deletes it, so
// it is shown at most once. ok is false when there is none.
func (s *Store) TakeConfirmation() (Confirmation, bool) {
	var c Confirmation

	data, ok, err := s.storage.Get(confirmationKey)
	if err != nil {
		s.logger.Error("failed to load confirmation", "error", err)
		return c, false
	}
	if !ok {
		return c, false
	}

	if err := s.storage.Remove(confirmationKey); err != nil {
		s.logger.Error("failed to remove confirmation", "error", err)
	}

	if err := json.Unmarshal(data, &c); err != nil {
		s.logger.Warn("discarding unreadable confirmation", "error", err)
		return Confirmation{}, false
	}
	return c, true
}
