package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alanyoungcy/algostream/internal/domain"
)

// BusSink publishes every stream event as an Envelope on the product's bus
// channel.
type BusSink[T domain.Product] struct {
	bus    domain.SignalBus
	prefix string
	now    func() time.Time
}

// NewBusSink creates a BusSink. An empty prefix selects DefaultChannelPrefix.
func NewBusSink[T domain.Product](bus domain.SignalBus, prefix string) *BusSink[T] {
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}
	return &BusSink[T]{
		bus:    bus,
		prefix: prefix,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Channel returns the bus channel for productID.
func (s *BusSink[T]) Channel(productID string) string {
	return s.prefix + productID
}

// ProcessAdd publishes stream as an "add" envelope.
func (s *BusSink[T]) ProcessAdd(ctx context.Context, stream domain.AlgoStream[T]) error {
	return s.publish(ctx, "add", stream)
}

// ProcessUpdate publishes stream as an "update" envelope.
func (s *BusSink[T]) ProcessUpdate(ctx context.Context, stream domain.AlgoStream[T]) error {
	return s.publish(ctx, "update", stream)
}

// ProcessRemove publishes stream as a "remove" envelope so subscribers can
// drop it.
func (s *BusSink[T]) ProcessRemove(ctx context.Context, stream domain.AlgoStream[T]) error {
	return s.publish(ctx, "remove", stream)
}

func (s *BusSink[T]) publish(ctx context.Context, event string, stream domain.AlgoStream[T]) error {
	body, err := json.Marshal(stream)
	if err != nil {
		return fmt.Errorf("bus_sink: marshal %q: %w", stream.ProductID(), err)
	}
	payload, err := json.Marshal(Envelope{
		Type:      EnvelopeType,
		Event:     event,
		ProductID: stream.ProductID(),
		Stream:    body,
		SentAt:    s.now(),
	})
	if err != nil {
		return fmt.Errorf("bus_sink: marshal envelope %q: %w", stream.ProductID(), err)
	}

	channel := s.Channel(stream.ProductID())
	if err := s.bus.Publish(ctx, channel, payload); err != nil {
		return fmt.Errorf("bus_sink: publish %s: %w", channel, err)
	}
	return nil
}

var _ domain.ServiceListener[domain.AlgoStream[domain.Bond]] = (*BusSink[domain.Bond])(nil)
