package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/joao-fontenele/storefront/internal/analytics"
	"github.com/joao-fontenele/storefront/internal/catalog"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/orderid"
	"github.com/joao-fontenele/storefront/internal/validation"
)

// MaxPlaceAttempts bounds how many fresh order identifiers are tried when
// the generated one is already taken.
const MaxPlaceAttempts = 5

type IDGenerator interface {
	New() string
}

// Publisher emits order events. Publishing happens after the database
// commit and its failures never fail the request.
type Publisher interface {
	Publish(ctx context.Context, key, eventType string, event any) error
}

type ProductLister interface {
	All(ctx context.Context) ([]domain.Product, error)
}

type Service struct {
	repo        Repository
	products    ProductLister
	ids         IDGenerator
	publisher   Publisher
	invalidator catalog.Invalidator
	now         func() time.Time
	logger      *slog.Logger
	tracer      trace.Tracer

	placed        metric.Int64Counter
	revenue       metric.Int64Counter
	statusChanges metric.Int64Counter
}

type Option func(*Service)

func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithInvalidator registers a cache to flush when orders change stock.
func WithInvalidator(inv catalog.Invalidator) Option {
	return func(s *Service) {
		s.invalidator = inv
	}
}

func WithIDGenerator(g IDGenerator) Option {
	return func(s *Service) {
		s.ids = g
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo Repository, products ProductLister, logger *slog.Logger, opts ...Option) (*Service, error) {
	meter := otel.Meter("storefront/orders")

	placed, err := meter.Int64Counter("storefront.orders.placed",
		metric.WithDescription("Orders placed"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, err
	}

	revenue, err := meter.Int64Counter("storefront.orders.revenue",
		metric.WithDescription("Revenue of placed orders in whole PKR"),
		metric.WithUnit("PKR"),
	)
	if err != nil {
		return nil, err
	}

	statusChanges, err := meter.Int64Counter("storefront.orders.status_changes",
		metric.WithDescription("Order status transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	s := &Service{
		repo:          repo,
		products:      products,
		ids:           orderid.NewGenerator(),
		now:           time.Now,
		logger:        logger,
		tracer:        otel.Tracer("storefront/orders"),
		placed:        placed,
		revenue:       revenue,
		statusChanges: statusChanges,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func normalizeCheckout(c *domain.Checkout) {
	c.CustomerName = strings.TrimSpace(c.CustomerName)
	c.CustomerEmail = strings.ToLower(strings.TrimSpace(c.CustomerEmail))
	c.CustomerPhone = strings.TrimSpace(c.CustomerPhone)
	c.CustomerAddress = strings.TrimSpace(c.CustomerAddress)
	c.CustomerCity = strings.TrimSpace(c.CustomerCity)
	c.Notes = strings.TrimSpace(c.Notes)
	if c.PaymentMethod == "" {
		c.PaymentMethod = domain.PaymentMethodCOD
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// PlaceOrder validates c, stores a new Pending order and takes its items out
// of stock. The order is not stored when any item is short.
func (s *Service) PlaceOrder(ctx context.Context, c domain.Checkout) (_ *domain.Order, err error) {
	ctx, span := s.tracer.Start(ctx, "orders.PlaceOrder")
	defer func() { endSpan(span, err) }()

	normalizeCheckout(&c)
	if err := validation.Struct(&c); err != nil {
		return nil, err
	}
	if sum := domain.ItemsTotal(c.CartItems); sum != c.TotalPrice {
		return nil, domain.NewValidationError("totalPrice",
			fmt.Sprintf("totalPrice %d does not match the items total %d", c.TotalPrice, sum))
	}

	email := c.CustomerEmail
	if email == "" {
		email = domain.DefaultCustomerEmail
	}

	order := &domain.Order{
		CustomerName:    c.CustomerName,
		CustomerEmail:   email,
		CustomerPhone:   c.CustomerPhone,
		CustomerAddress: c.CustomerAddress,
		CustomerCity:    c.CustomerCity,
		Items:           c.CartItems,
		TotalPrice:      c.TotalPrice,
		PaymentMethod:   c.PaymentMethod,
		PaymentStatus:   domain.InitialPaymentStatus(c.PaymentMethod),
		Status:          domain.OrderStatusPending,
		Notes:           c.Notes,
	}

	for attempt := 1; ; attempt++ {
		order.OrderID = s.ids.New()
		err = s.repo.Create(ctx, order)
		if !errors.Is(err, ErrDuplicateOrderID) || attempt == MaxPlaceAttempts {
			break
		}
		s.logger.WarnContext(ctx, "order id collision, retrying", "order_id", order.OrderID, "attempt", attempt)
	}

	switch {
	case errors.Is(err, ErrUnknownProduct):
		return nil, domain.NewValidationError("cartItems", "cartItems references a product that does not exist")
	case err != nil:
		return nil, fmt.Errorf("create order: %w", err)
	}

	span.SetAttributes(attribute.String("order.id", order.OrderID))
	attrs := metric.WithAttributes(attribute.String("payment_method", string(order.PaymentMethod)))
	s.placed.Add(ctx, 1, attrs)
	s.revenue.Add(ctx, order.TotalPrice, attrs)

	s.invalidate(ctx, order.Items)
	s.publish(ctx, order.OrderID, domain.EventOrderPlaced, domain.OrderPlacedEvent{
		OrderID:       order.OrderID,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		Items:         order.Items,
		TotalPrice:    order.TotalPrice,
		PaymentMethod: order.PaymentMethod,
		Timestamp:     order.CreatedAt,
	})

	s.logger.InfoContext(ctx, "order placed", "order_id", order.OrderID, "total_price", order.TotalPrice, "items", len(order.Items))
	return order, nil
}

// UpdateStatus moves the order identified by orderID to status to. Setting
// the current status again returns the order unchanged.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, to domain.OrderStatus) (_ *domain.Order, err error) {
	ctx, span := s.tracer.Start(ctx, "orders.UpdateStatus",
		trace.WithAttributes(attribute.String("order.id", orderID), attribute.String("order.status", string(to))))
	defer func() { endSpan(span, err) }()

	orderID = orderid.Normalize(orderID)
	if !to.Valid() {
		return nil, &domain.TransitionError{To: to}
	}

	order, from, err := s.repo.Transition(ctx, orderID, to)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	if from == to {
		return order, nil
	}

	s.statusChanges.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", string(from)),
		attribute.String("to", string(to)),
	))

	if to == domain.OrderStatusCancelled {
		s.invalidate(ctx, order.Items)
	}
	s.publish(ctx, order.OrderID, domain.EventOrderStatusChanged, domain.OrderStatusChangedEvent{
		OrderID:       order.OrderID,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		From:          from,
		To:            to,
		Timestamp:     order.UpdatedAt,
	})

	s.logger.InfoContext(ctx, "order status updated", "order_id", order.OrderID, "from", from, "to", to)
	return order, nil
}

// Track finds an order by its identifier and the phone number it was placed
// with. The identifier is matched case-insensitively.
func (s *Service) Track(ctx context.Context, orderID, phone string) (_ *domain.Order, err error) {
	ctx, span := s.tracer.Start(ctx, "orders.Track")
	defer func() { endSpan(span, err) }()

	orderID = orderid.Normalize(orderID)
	phone = strings.TrimSpace(phone)

	fields := map[string]string{}
	if orderID == "" {
		fields["orderId"] = "orderId is required"
	}
	if phone == "" {
		fields["phone"] = "phone is required"
	}
	if len(fields) > 0 {
		return nil, &domain.ValidationError{Fields: fields}
	}

	order, err := s.repo.FindForTracking(ctx, orderID, phone)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.repo.GetByOrderID(ctx, orderid.Normalize(orderID))
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

// ListOrders returns every order, newest first, with summary statistics.
func (s *Service) ListOrders(ctx context.Context) ([]domain.Order, analytics.Aggregates, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, analytics.Aggregates{}, fmt.Errorf("list orders: %w", err)
	}
	return orders, analytics.ComputeAggregates(orders), nil
}

func (s *Service) Analytics(ctx context.Context) (analytics.Report, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return analytics.Report{}, fmt.Errorf("list orders: %w", err)
	}

	products, err := s.products.All(ctx)
	if err != nil {
		return analytics.Report{}, fmt.Errorf("list products: %w", err)
	}

	return analytics.BuildReport(s.now(), orders, products), nil
}

func (s *Service) invalidate(ctx context.Context, items []domain.LineItem) {
	if s.invalidator == nil {
		return
	}
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}
	s.invalidator.Invalidate(ctx, ids...)
}

func (s *Service) publish(ctx context.Context, key, eventType string, event any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, key, eventType, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order event", "error", err, "order_id", key, "event_type", eventType)
	}
}
