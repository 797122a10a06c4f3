package domain

import "time"

const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
)

type OrderPlacedEvent struct {
	OrderID       string        `json:"order_id"`
	CustomerName  string        `json:"customer_name"`
	CustomerEmail string        `json:"customer_email"`
	Items         []LineItem    `json:"items"`
	TotalPrice    int64         `json:"total_price"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Timestamp     time.Time     `json:"timestamp"`
}

type OrderStatusChangedEvent struct {
	OrderID       string      `json:"order_id"`
	CustomerName  string      `json:"customer_name"`
	CustomerEmail string      `json:"customer_email"`
	From          OrderStatus `json:"from"`
	To            OrderStatus `json:"to"`
	Timestamp     time.Time   `json:"timestamp"`
}
