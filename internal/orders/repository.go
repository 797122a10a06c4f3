package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/joao-fontenele/storefront/internal/domain"
)

var (
	// ErrDuplicateOrderID reports that the generated business identifier is
	// already taken. Callers regenerate and retry.
	ErrDuplicateOrderID = errors.New("duplicate order id")

	ErrUnknownProduct = errors.New("unknown product")
)

const (
	uniqueViolation   = "23505"
	orderIDConstraint = "orders_order_id_key"
	orderColumns      = `id, order_id, customer_name, customer_email, customer_phone, customer_address, customer_city, total_price, payment_method, payment_status, order_status, notes, created_at, updated_at`
)

// Repository is the order persistence used by Service. Lookups of a
// missing order return nil, nil.
type Repository interface {
	// Create stores o and takes its items out of stock in one transaction.
	Create(ctx context.Context, o *domain.Order) error
	GetByOrderID(ctx context.Context, orderID string) (*domain.Order, error)
	FindForTracking(ctx context.Context, orderID, phone string) (*domain.Order, error)
	// Transition moves an order to status to and returns the updated order
	// together with the status it had before.
	Transition(ctx context.Context, orderID string, to domain.OrderStatus) (*domain.Order, domain.OrderStatus, error)
	List(ctx context.Context) ([]domain.Order, error)
}

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

var _ Repository = (*OrderRepository)(nil)

type stockLine struct {
	productID string
	quantity  int
	lines     int
}

// stockLines merges items per product and sorts them by product id so that
// concurrent orders lock product rows in the same order.
func stockLines(items []domain.LineItem) []stockLine {
	byID := make(map[string]*stockLine)
	for _, item := range items {
		l, ok := byID[item.ProductID]
		if !ok {
			l = &stockLine{productID: item.ProductID}
			byID[item.ProductID] = l
		}
		l.quantity += item.Quantity
		l.lines++
	}

	out := make([]stockLine, 0, len(byID))
	for _, l := range byID {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].productID < out[j].productID })
	return out
}

func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, l := range stockLines(o.Items) {
		if err := takeStock(ctx, tx, l); err != nil {
			return err
		}
	}

	o.ID = uuid.New().String()
	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
	`, o.ID, o.OrderID, o.CustomerName, o.CustomerEmail, o.CustomerPhone, o.CustomerAddress, o.CustomerCity,
		o.TotalPrice, o.PaymentMethod, o.PaymentStatus, o.Status, o.Notes, now)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation && pqErr.Constraint == orderIDConstraint {
			return ErrDuplicateOrderID
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for i, item := range o.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, position, product_id, title, price, quantity, image)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, uuid.New().String(), o.ID, i, item.ProductID, item.Title, item.Price, item.Quantity, item.Image)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return tx.Commit()
}

// takeStock decrements stock only when enough is available. Each ordered
// line also counts as one review.
func takeStock(ctx context.Context, tx *sql.Tx, l stockLine) error {
	if uuid.Validate(l.productID) != nil {
		return fmt.Errorf("%w: %s", ErrUnknownProduct, l.productID)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - $2, reviews = reviews + $3, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
	`, l.productID, l.quantity, l.lines)
	if err != nil {
		return fmt.Errorf("take stock for %s: %w", l.productID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected > 0 {
		return nil
	}

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, l.productID).Scan(&exists); err != nil {
		return fmt.Errorf("check product %s: %w", l.productID, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownProduct, l.productID)
	}
	return fmt.Errorf("%w: %s", domain.ErrInsufficientStock, l.productID)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	if err := row.Scan(&o.ID, &o.OrderID, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&o.CustomerAddress, &o.CustomerCity, &o.TotalPrice, &o.PaymentMethod, &o.PaymentStatus,
		&o.Status, &o.Notes, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.Items = []domain.LineItem{}
	return &o, nil
}

func getOne(ctx context.Context, q queryer, query string, args ...any) (*domain.Order, error) {
	o, err := scanOrder(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	items, err := loadItems(ctx, q, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func loadItems(ctx context.Context, q queryer, id string) ([]domain.LineItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT product_id, title, price, quantity, image
		FROM order_items
		WHERE order_id = $1
		ORDER BY position
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []domain.LineItem{}
	for rows.Next() {
		var item domain.LineItem
		if err := rows.Scan(&item.ProductID, &item.Title, &item.Price, &item.Quantity, &item.Image); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *OrderRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Order, error) {
	o, err := getOne(ctx, r.db, `SELECT `+orderColumns+` FROM orders WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}
	return o, nil
}

func (r *OrderRepository) FindForTracking(ctx context.Context, orderID, phone string) (*domain.Order, error) {
	o, err := getOne(ctx, r.db, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE order_id = $1 AND customer_phone = $2
	`, orderID, phone)
	if err != nil {
		return nil, fmt.Errorf("track order %s: %w", orderID, err)
	}
	return o, nil
}

func (r *OrderRepository) Transition(ctx context.Context, orderID string, to domain.OrderStatus) (*domain.Order, domain.OrderStatus, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = tx.Rollback() }()

	o, err := getOne(ctx, tx, `SELECT `+orderColumns+` FROM orders WHERE order_id = $1 FOR UPDATE`, orderID)
	if err != nil {
		return nil, "", fmt.Errorf("lock order %s: %w", orderID, err)
	}
	if o == nil {
		return nil, "", nil
	}

	from := o.Status
	if err := domain.CheckTransition(from, to); err != nil {
		return nil, from, err
	}
	if from == to {
		return o, from, tx.Commit()
	}

	payment := domain.PaymentStatusAfter(o, to)
	now := time.Now().UTC()

	_, err = tx.ExecContext(ctx, `
		UPDATE orders SET order_status = $1, payment_status = $2, updated_at = $3
		WHERE id = $4
	`, to, payment, now, o.ID)
	if err != nil {
		return nil, from, fmt.Errorf("update order %s: %w", orderID, err)
	}

	if to == domain.OrderStatusCancelled {
		for _, l := range stockLines(o.Items) {
			if uuid.Validate(l.productID) != nil {
				continue
			}
			_, err := tx.ExecContext(ctx, `
				UPDATE products SET stock = stock + $2, updated_at = NOW()
				WHERE id = $1
			`, l.productID, l.quantity)
			if err != nil {
				return nil, from, fmt.Errorf("restock %s: %w", l.productID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, from, err
	}

	o.Status = to
	o.PaymentStatus = payment
	o.UpdatedAt = now
	return o, from, nil
}

// List returns every order newest first. Items are loaded with one extra
// query rather than one per order.
func (r *OrderRepository) List(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var ids []string

	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orderMap[o.ID] = o
		ids = append(ids, o.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return []domain.Order{}, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT order_id, product_id, title, price, quantity, image
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, position
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer func() { _ = itemRows.Close() }()

	for itemRows.Next() {
		var id string
		var item domain.LineItem
		if err := itemRows.Scan(&id, &item.ProductID, &item.Title, &item.Price, &item.Quantity, &item.Image); err != nil {
			return nil, err
		}
		o := orderMap[id]
		o.Items = append(o.Items, item)
	}

	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(ids))
	for _, id := range ids {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}
