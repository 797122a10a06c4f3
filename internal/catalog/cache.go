package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/joao-fontenele/storefront/internal/domain"
)

const (
	DefaultCacheTTL = 10 * time.Minute

	// DefaultRedeleteDelay is how long Invalidate waits before deleting the
	// keys a second time.
	DefaultRedeleteDelay = 500 * time.Millisecond
)

// CachedStore caches GetByID results in Redis under product:{id}. The
// cache is advisory: Redis errors are logged and the call falls through
// to the wrapped store.
//
// A miss that read the database before a concurrent write committed can
// store the old row after that write's invalidation. Invalidate therefore
// deletes the keys again after a short delay, which bounds such a stale
// entry to the delay instead of the TTL.
type CachedStore struct {
	next     Store
	client   redis.Cmdable
	ttl      time.Duration
	redelete time.Duration
	logger   *slog.Logger
	lookups  metric.Int64Counter
}

func NewCachedStore(next Store, client redis.Cmdable, ttl time.Duration, logger *slog.Logger) (*CachedStore, error) {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	lookups, err := otel.Meter("storefront/catalog").Int64Counter("storefront.catalog.cache",
		metric.WithDescription("Product cache lookups by result"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	return &CachedStore{
		next:     next,
		client:   client,
		ttl:      ttl,
		redelete: DefaultRedeleteDelay,
		logger:   logger,
		lookups:  lookups,
	}, nil
}

func cacheKey(id string) string {
	return "product:" + id
}

func (s *CachedStore) record(ctx context.Context, result string) {
	s.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (s *CachedStore) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	key := cacheKey(id)

	data, err := s.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p domain.Product
		if err := json.Unmarshal(data, &p); err == nil {
			s.record(ctx, "hit")
			return &p, nil
		}
		s.logger.WarnContext(ctx, "discarding unreadable cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		s.logger.WarnContext(ctx, "product cache read failed", "error", err, "key", key)
	}
	s.record(ctx, "miss")

	p, err := s.next.GetByID(ctx, id)
	if err != nil || p == nil {
		return p, err
	}

	if data, err := json.Marshal(p); err == nil {
		if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
			s.logger.WarnContext(ctx, "product cache write failed", "error", err, "key", key)
		}
	}

	return p, nil
}

func (s *CachedStore) Invalidate(ctx context.Context, ids ...string) {
	if len(ids) == 0 {
		return
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cacheKey(id)
	}
	s.del(ctx, keys)

	ctx = context.WithoutCancel(ctx)
	time.AfterFunc(s.redelete, func() { s.del(ctx, keys) })
}

func (s *CachedStore) del(ctx context.Context, keys []string) {
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		s.logger.WarnContext(ctx, "product cache invalidation failed", "error", err, "count", len(keys))
	}
}

func (s *CachedStore) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int, error) {
	return s.next.List(ctx, f)
}

func (s *CachedStore) All(ctx context.Context) ([]domain.Product, error) {
	return s.next.All(ctx)
}

func (s *CachedStore) Create(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	return s.next.Create(ctx, in)
}

func (s *CachedStore) Update(ctx context.Context, id string, u domain.ProductUpdate) (*domain.Product, error) {
	p, err := s.next.Update(ctx, id, u)
	if err != nil {
		return nil, err
	}
	s.Invalidate(ctx, id)
	return p, nil
}

func (s *CachedStore) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := s.next.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	s.Invalidate(ctx, id)
	return deleted, nil
}

var (
	_ Store       = (*CachedStore)(nil)
	_ Invalidator = (*CachedStore)(nil)
)
