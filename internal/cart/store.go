// Package cart holds the shopper's pending selection on the client side.
//
// The cart is persisted wholesale to a Storage after every mutation.
// Persistence is best effort: failures are logged and never returned.
// A Store has a single owner and is not safe for concurrent use. Two
// processes sharing one state directory overwrite each other's writes.
package cart

import (
	"encoding/json"
	"log/slog"

	"github.com/joao-fontenele/storefront/internal/domain"
)

const (
	itemsKey        = "cart"
	confirmationKey = "lastOrder"
)

type Store struct {
	storage Storage
	logger  *slog.Logger
	items   []domain.LineItem
	index   map[string]int
}

// Open restores the cart from storage. Missing or unreadable data yields
// an empty cart.
func Open(storage Storage, logger *slog.Logger) *Store {
	s := &Store{
		storage: storage,
		logger:  logger,
		index:   make(map[string]int),
	}
	s.load()
	return s
}

func (s *Store) load() {
	data, ok, err := s.storage.Get(itemsKey)
	if err != nil {
		s.logger.Error("failed to load cart", "error", err)
		return
	}
	if !ok {
		return
	}

	var items []domain.LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		s.logger.Warn("discarding unreadable cart", "error", err)
		return
	}

	for _, item := range items {
		if item.ProductID == "" {
			continue
		}
		if i, dup := s.index[item.ProductID]; dup {
			s.items[i].Quantity += item.Quantity
			continue
		}
		s.index[item.ProductID] = len(s.items)
		s.items = append(s.items, item)
	}
}

func (s *Store) persist() {
	items := s.items
	if items == nil {
		items = []domain.LineItem{}
	}

	data, err := json.Marshal(items)
	if err != nil {
		s.logger.Error("failed to encode cart", "error", err)
		return
	}
	if err := s.storage.Set(itemsKey, data); err != nil {
		s.logger.Error("failed to save cart", "error", err)
	}
}

// AddItem adds item to the cart. If the product is already present its
// quantity grows by item.Quantity and the stored snapshot is kept.
// Callers pass a positive quantity.
func (s *Store) AddItem(item domain.LineItem) {
	if i, ok := s.index[item.ProductID]; ok {
		s.items[i].Quantity += item.Quantity
	} else {
		s.index[item.ProductID] = len(s.items)
		s.items = append(s.items, item)
	}
	s.persist()
}

// AddProduct snapshots p and adds quantity units of it.
func (s *Store) AddProduct(p *domain.Product, quantity int) {
	s.AddItem(p.LineItem(quantity))
}

func (s *Store) RemoveItem(productID string) {
	i, ok := s.index[productID]
	if !ok {
		return
	}

	s.items = append(s.items[:i], s.items[i+1:]...)
	delete(s.index, productID)
	for j := i; j < len(s.items); j++ {
		s.index[s.items[j].ProductID] = j
	}
	s.persist()
}

// SetQuantity overwrites the quantity of a product already in the cart.
// A quantity of zero or less removes it.
func (s *Store) SetQuantity(productID string, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(productID)
		return
	}

	i, ok := s.index[productID]
	if !ok {
		return
	}
	s.items[i].Quantity = quantity
	s.persist()
}

func (s *Store) Clear() {
	s.items = nil
	s.index = make(map[string]int)
	s.persist()
}

// Items returns a copy of the cart's line items in insertion order.
func (s *Store) Items() []domain.LineItem {
	out := make([]domain.LineItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Len() int {
	return len(s.items)
}

func (s *Store) TotalItems() int {
	total := 0
	for _, item := range s.items {
		total += item.Quantity
	}
	return total
}

func (s *Store) TotalPrice() int64 {
	return domain.ItemsTotal(s.items)
}
