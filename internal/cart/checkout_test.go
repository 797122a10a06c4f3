package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type placerFunc func(ctx context.Context, c domain.Checkout) (*domain.Order, error)

func (f placerFunc) PlaceOrder(ctx context.Context, c domain.Checkout) (*domain.Order, error) {
	return f(ctx, c)
}

var customer = Customer{
	Name:    "Ayesha Khan",
	Phone:   "03001234567",
	Address: "12 Mall Road",
	City:    "Lahore",
}

func TestCheckoutSavesConfirmationAndClearsCart(t *testing.T) {
	s := Open(NewMemoryStorage(), discardLogger())
	s.AddItem(item("a", 2000, 2))
	s.AddItem(item("b", 500, 1))

	var got domain.Checkout
	placer := placerFunc(func(_ context.Context, c domain.Checkout) (*domain.Order, error) {
		got = c
		return &domain.Order{
			OrderID:       "ORD-20250101-0042",
			CustomerName:  c.CustomerName,
			CustomerPhone: c.CustomerPhone,
			CustomerEmail: domain.DefaultCustomerEmail,
			CustomerCity:  c.CustomerCity,
			Items:         c.CartItems,
			TotalPrice:    c.TotalPrice,
		}, nil
	})

	order, err := s.Checkout(context.Background(), placer, customer, domain.PaymentMethodCOD)
	require.NoError(t, err)

	assert.Equal(t, "ORD-20250101-0042", order.OrderID)
	assert.Equal(t, int64(4500), got.TotalPrice)
	assert.Len(t, got.CartItems, 2)
	assert.Equal(t, domain.PaymentMethodCOD, got.PaymentMethod)
	assert.Zero(t, s.Len())

	c, ok := s.TakeConfirmation()
	require.True(t, ok)
	assert.Equal(t, "ORD-20250101-0042", c.OrderID)
	assert.Equal(t, int64(4500), c.TotalPrice)
	assert.Equal(t, domain.DefaultCustomerEmail, c.CustomerEmail)

	_, ok = s.TakeConfirmation()
	assert.False(t, ok, "confirmation is shown only once")
}

func TestCheckoutFailureKeepsCart(t *testing.T) {
	s := Open(NewMemoryStorage(), discardLogger())
	s.AddItem(item("a", 2000, 2))

	placer := placerFunc(func(context.Context, domain.Checkout) (*domain.Order, error) {
		return nil, domain.ErrInsufficientStock
	})

	_, err := s.Checkout(context.Background(), placer, customer, domain.PaymentMethodCOD)

	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 2, s.TotalItems())
	_, ok := s.TakeConfirmation()
	assert.False(t, ok)
}

func TestCheckoutEmptyCart(t *testing.T) {
	s := Open(NewMemoryStorage(), discardLogger())

	placer := placerFunc(func(context.Context, domain.Checkout) (*domain.Order, error) {
		return nil, errors.New("must not be called")
	})

	_, err := s.Checkout(context.Background(), placer, customer, domain.PaymentMethodCOD)
	assert.ErrorIs(t, err, ErrEmptyCart)
}
