package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alanyoungcy/algostream/internal/domain"
	"github.com/redis/go-redis/v9"
)

// StreamCache implements domain.StreamCache with one string key per product.
//
// Key schema:
//
//	algostream:stream:{productID} - JSON-encoded AlgoStream
type StreamCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStreamCache creates a StreamCache. A zero ttl keeps entries until they are
// overwritten or deleted.
func NewStreamCache(c *Client, ttl time.Duration) *StreamCache {
	return &StreamCache{rdb: c.rdb, ttl: ttl}
}

func streamKey(productID string) string { return "algostream:stream:" + productID }

// SetStream replaces the cached stream for productID.
func (sc *StreamCache) SetStream(ctx context.Context, productID string, payload []byte) error {
	if err := sc.rdb.Set(ctx, streamKey(productID), payload, sc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set stream %s: %w", productID, err)
	}
	return nil
}

// GetStream returns the cached payload, or domain.ErrNotFound.
func (sc *StreamCache) GetStream(ctx context.Context, productID string) ([]byte, error) {
	data, err := sc.rdb.Get(ctx, streamKey(productID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get stream %s: %w", productID, err)
	}
	return data, nil
}

// DeleteStream removes the cached stream. Deleting a missing key is not an
// error.
func (sc *StreamCache) DeleteStream(ctx context.Context, productID string) error {
	if err := sc.rdb.Del(ctx, streamKey(productID)).Err(); err != nil {
		return fmt.Errorf("redis: delete stream %s: %w", productID, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.StreamCache = (*StreamCache)(nil)
