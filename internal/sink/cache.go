package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alanyoungcy/algostream/internal/domain"
)

// CacheSink mirrors the latest algo stream per product into a StreamCache.
type CacheSink[T domain.Product] struct {
	cache domain.StreamCache
}

// NewCacheSink creates a CacheSink writing to cache.
func NewCacheSink[T domain.Product](cache domain.StreamCache) *CacheSink[T] {
	return &CacheSink[T]{cache: cache}
}

// ProcessAdd stores stream as the product's current value.
func (s *CacheSink[T]) ProcessAdd(ctx context.Context, stream domain.AlgoStream[T]) error {
	return s.store(ctx, stream)
}

// ProcessUpdate stores stream as the product's current value.
func (s *CacheSink[T]) ProcessUpdate(ctx context.Context, stream domain.AlgoStream[T]) error {
	return s.store(ctx, stream)
}

// ProcessRemove drops the product's cached value.
func (s *CacheSink[T]) ProcessRemove(ctx context.Context, stream domain.AlgoStream[T]) error {
	if err := s.cache.DeleteStream(ctx, stream.ProductID()); err != nil {
		return fmt.Errorf("cache_sink: delete %q: %w", stream.ProductID(), err)
	}
	return nil
}

func (s *CacheSink[T]) store(ctx context.Context, stream domain.AlgoStream[T]) error {
	data, err := json.Marshal(stream)
	if err != nil {
		return fmt.Errorf("cache_sink: marshal %q: %w", stream.ProductID(), err)
	}
	if err := s.cache.SetStream(ctx, stream.ProductID(), data); err != nil {
		return fmt.Errorf("cache_sink: set %q: %w", stream.ProductID(), err)
	}
	return nil
}

var _ domain.ServiceListener[domain.AlgoStream[domain.Bond]] = (*CacheSink[domain.Bond])(nil)
