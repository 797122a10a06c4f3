package orders

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/joao-fontenele/storefront/internal/domain"
)

// memoryRepository mimics OrderRepository's semantics in memory,
// including atomic stock checks and restocking on cancellation.
type memoryRepository struct {
	mu         sync.Mutex
	orders     map[string]*domain.Order
	stock      map[string]int
	reviews    map[string]int
	seq        int
	collisions int
}

func newMemoryRepository(stock map[string]int) *memoryRepository {
	return &memoryRepository{
		orders:  make(map[string]*domain.Order),
		stock:   stock,
		reviews: make(map[string]int),
	}
}

func cloneOrder(o *domain.Order) *domain.Order {
	cp := *o
	cp.Items = append([]domain.LineItem(nil), o.Items...)
	return &cp
}

func (r *memoryRepository) Create(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.collisions > 0 {
		r.collisions--
		return ErrDuplicateOrderID
	}
	if _, taken := r.orders[o.OrderID]; taken {
		return ErrDuplicateOrderID
	}

	for _, l := range stockLines(o.Items) {
		available, ok := r.stock[l.productID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownProduct, l.productID)
		}
		if available < l.quantity {
			return fmt.Errorf("%w: %s", domain.ErrInsufficientStock, l.productID)
		}
	}
	for _, l := range stockLines(o.Items) {
		r.stock[l.productID] -= l.quantity
		r.reviews[l.productID] += l.lines
	}

	r.seq++
	o.ID = fmt.Sprintf("id-%d", r.seq)
	o.CreatedAt = time.Date(2025, time.January, 1, 10, 0, r.seq, 0, time.UTC)
	o.UpdatedAt = o.CreatedAt
	r.orders[o.OrderID] = cloneOrder(o)
	return nil
}

func (r *memoryRepository) GetByOrderID(_ context.Context, orderID string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[orderID]
	if !ok {
		return nil, nil
	}
	return cloneOrder(o), nil
}

func (r *memoryRepository) FindForTracking(_ context.Context, orderID, phone string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[orderID]
	if !ok || o.CustomerPhone != phone {
		return nil, nil
	}
	return cloneOrder(o), nil
}

func (r *memoryRepository) Transition(_ context.Context, orderID string, to domain.OrderStatus) (*domain.Order, domain.OrderStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[orderID]
	if !ok {
		return nil, "", nil
	}

	from := o.Status
	if err := domain.CheckTransition(from, to); err != nil {
		return nil, from, err
	}
	if from == to {
		return cloneOrder(o), from, nil
	}

	o.PaymentStatus = domain.PaymentStatusAfter(o, to)
	o.Status = to
	if to == domain.OrderStatusCancelled {
		for _, l := range stockLines(o.Items) {
			r.stock[l.productID] += l.quantity
		}
	}
	return cloneOrder(o), from, nil
}

func (r *memoryRepository) List(context.Context) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, *cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type productList []domain.Product

func (p productList) All(context.Context) ([]domain.Product, error) {
	return p, nil
}

type sequenceIDs struct {
	ids []string
	i   int
}

func (s *sequenceIDs) New() string {
	id := s.ids[s.i%len(s.ids)]
	s.i++
	return id
}

type publishedEvent struct {
	key       string
	eventType string
	event     any
}

type recordingPublisher struct {
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, key, eventType string, event any) error {
	p.events = append(p.events, publishedEvent{key: key, eventType: eventType, event: event})
	return p.err
}

type recordingInvalidator struct {
	ids []string
}

func (i *recordingInvalidator) Invalidate(_ context.Context, ids ...string) {
	i.ids = append(i.ids, ids...)
}
