package service

import (
	"context"

	"github.com/alanyoungcy/algostream/internal/domain"
)

// AlgoStreamingServiceListener subscribes an AlgoStreamingService to a pricing
// service. Every added price is published as a new algo stream; removed and
// updated prices are ignored.
type AlgoStreamingServiceListener[T domain.Product] struct {
	streaming *AlgoStreamingService[T]
}

// NewAlgoStreamingServiceListener creates a listener forwarding into
// streaming.
func NewAlgoStreamingServiceListener[T domain.Product](streaming *AlgoStreamingService[T]) *AlgoStreamingServiceListener[T] {
	return &AlgoStreamingServiceListener[T]{streaming: streaming}
}

// ProcessAdd publishes price as an algo stream.
func (l *AlgoStreamingServiceListener[T]) ProcessAdd(ctx context.Context, price domain.Price[T]) error {
	return l.streaming.PublishAlgoStream(ctx, price)
}

// ProcessRemove does nothing.
func (l *AlgoStreamingServiceListener[T]) ProcessRemove(context.Context, domain.Price[T]) error {
	return nil
}

// ProcessUpdate does nothing.
func (l *AlgoStreamingServiceListener[T]) ProcessUpdate(context.Context, domain.Price[T]) error {
	return nil
}

var _ domain.ServiceListener[domain.Price[domain.Bond]] = (*AlgoStreamingServiceListener[domain.Bond])(nil)
