package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "COD"
	PaymentMethodStripe PaymentMethod = "Stripe"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCOD || m == PaymentMethodStripe
}

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "Pending"
	PaymentStatusProcessing PaymentStatus = "Processing"
	PaymentStatusCompleted  PaymentStatus = "Completed"
	PaymentStatusFailed     PaymentStatus = "Failed"
)

// InitialPaymentStatus is the payment status a new order starts with.
// Cash on delivery waits for the courier; every other method is treated as
// already in flight with the (stubbed) payment provider.
func InitialPaymentStatus(m PaymentMethod) PaymentStatus {
	if m == PaymentMethodCOD {
		return PaymentStatusPending
	}
	return PaymentStatusProcessing
}

// DefaultCustomerEmail is stored when the shopper leaves the email blank.
const DefaultCustomerEmail = "not-provided@store.com"

// LineItem is one product-and-quantity pairing. The same shape is used by
// the cart and by the order snapshot taken at checkout.
type LineItem struct {
	ProductID string `json:"productId" validate:"required"`
	Title     string `json:"title"`
	Price     int64  `json:"price" validate:"gte=0"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
	Image     string `json:"image"`
}

func (i LineItem) Subtotal() int64 {
	return int64(i.Quantity) * i.Price
}

// ItemsTotal returns the sum of price times quantity over items.
func ItemsTotal(items []LineItem) int64 {
	var total int64
	for _, item := range items {
		total += item.Subtotal()
	}
	return total
}

type Order struct {
	ID              string        `json:"id"`
	OrderID         string        `json:"orderId"`
	CustomerName    string        `json:"customerName"`
	CustomerEmail   string        `json:"customerEmail"`
	CustomerPhone   string        `json:"customerPhone"`
	CustomerAddress string        `json:"customerAddress"`
	CustomerCity    string        `json:"customerCity"`
	Items           []LineItem    `json:"cartItems"`
	TotalPrice      int64         `json:"totalPrice"`
	PaymentMethod   PaymentMethod `json:"paymentMethod"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
	Status          OrderStatus   `json:"orderStatus"`
	Notes           string        `json:"notes,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// Checkout is the payload a shopper submits to place an order.
type Checkout struct {
	CustomerName    string        `json:"customerName" validate:"required"`
	CustomerEmail   string        `json:"customerEmail,omitempty" validate:"omitempty,email"`
	CustomerPhone   string        `json:"customerPhone" validate:"required"`
	CustomerAddress string        `json:"customerAddress" validate:"required"`
	CustomerCity    string        `json:"customerCity" validate:"required"`
	CartItems       []LineItem    `json:"cartItems" validate:"required,min=1,dive"`
	TotalPrice      int64         `json:"totalPrice" validate:"required,gt=0"`
	PaymentMethod   PaymentMethod `json:"paymentMethod,omitempty" validate:"omitempty,oneof=COD Stripe"`
	Notes           string        `json:"notes,omitempty"`
}
