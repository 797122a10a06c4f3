// Package catalog serves the product catalog: public browsing, admin
// maintenance, and a Redis read-through cache for single products.
package catalog

import (
	"context"

	"github.com/joao-fontenele/storefront/internal/domain"
)

// Store is the product persistence used by the handler. Missing products
// are reported as nil, nil (or false for Delete).
type Store interface {
	List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int, error)
	All(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, in domain.ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id string, u domain.ProductUpdate) (*domain.Product, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Invalidator drops cached copies of products whose stock or details
// changed outside the catalog handler.
type Invalidator interface {
	Invalidate(ctx context.Context, ids ...string)
}

var _ Store = (*ProductRepository)(nil)
