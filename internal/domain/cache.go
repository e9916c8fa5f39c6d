package domain

import (
	"context"
	"time"
)

// StreamCache keeps the latest serialized AlgoStream per product outside the
// process, for consumers that cannot register an in-process listener.
type StreamCache interface {
	SetStream(ctx context.Context, productID string, payload []byte) error
	GetStream(ctx context.Context, productID string) ([]byte, error)
	DeleteStream(ctx context.Context, productID string) error
}

// SignalBus provides fire-and-forget pub/sub messaging.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// RateLimiter admits at most limit requests per key within a sliding window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
