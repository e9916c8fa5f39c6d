package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/alanyoungcy/algostream/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Disclosed size alternates between these two values on every publish. The
// hidden size is always twice the disclosed size.
const (
	VisibleSizeEven      int64 = 1_000_000
	VisibleSizeOdd       int64 = 2_000_000
	HiddenSizeMultiplier int64 = 2
)

var two = decimal.NewFromInt(2)

// VisibleQuantity returns the disclosed size for the given publish counter
// value.
func VisibleQuantity(count int64) int64 {
	if count%2 == 0 {
		return VisibleSizeEven
	}
	return VisibleSizeOdd
}

// AlgoStreamingService turns prices into two-way streaming quotes, keeps the
// latest quote per product, and fans each new quote out to its listeners.
//
// The publish counter that drives the disclosed-size alternation is shared by
// all products of one service instance: two consecutive publishes for
// different products still alternate.
//
// Listeners are called while the service lock is held. A listener must not
// call back into the same service from inside a callback.
type AlgoStreamingService[T domain.Product] struct {
	mu        sync.Mutex
	streams   map[string]domain.AlgoStream[T]
	listeners *Registry[domain.AlgoStream[T]]
	count     int64
	now       func() time.Time
	logger    *slog.Logger
}

// NewAlgoStreamingService creates an empty AlgoStreamingService.
func NewAlgoStreamingService[T domain.Product](logger *slog.Logger) *AlgoStreamingService[T] {
	return &AlgoStreamingService[T]{
		streams:   make(map[string]domain.AlgoStream[T]),
		listeners: NewRegistry[domain.AlgoStream[T]](),
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger.With(slog.String("component", "algo_streaming")),
	}
}

// GetData returns the current AlgoStream for productID. It returns an error
// wrapping domain.ErrNotFound when nothing was published for the product.
func (s *AlgoStreamingService[T]) GetData(productID string) (domain.AlgoStream[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stream, ok := s.streams[productID]
	if !ok {
		return domain.AlgoStream[T]{}, fmt.Errorf("algo_streaming: get %q: %w", productID, domain.ErrNotFound)
	}
	return stream, nil
}

// OnMessage is not supported: algo streams are only derived from prices via
// PublishAlgoStream.
func (s *AlgoStreamingService[T]) OnMessage(_ context.Context, stream domain.AlgoStream[T]) error {
	return fmt.Errorf("algo_streaming: on message %q: %w", stream.ProductID(), errors.ErrUnsupported)
}

// AddListener registers a listener for add events.
func (s *AlgoStreamingService[T]) AddListener(listener domain.ServiceListener[domain.AlgoStream[T]]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners.Add(listener)
	s.logger.Debug("listener added",
		slog.String("listener", fmt.Sprintf("%T", listener)),
		slog.Int("listeners", s.listeners.Len()),
	)
}

// GetListeners returns the registered listeners in registration order.
func (s *AlgoStreamingService[T]) GetListeners() []domain.ServiceListener[domain.AlgoStream[T]] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listeners.Snapshot()
}

// PublishAlgoStream derives a two-way quote from price, replaces the stored
// quote for the product, and sends an add event to every listener in
// registration order.
//
// The first listener error aborts the fan-out and is returned wrapped in a
// *NotifyError. The stored quote and the publish counter are not rolled back.
func (s *AlgoStreamingService[T]) PublishAlgoStream(ctx context.Context, price domain.Price[T]) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	product := price.Product()
	key := product.ProductID()
	mid := price.Mid()
	halfSpread := price.BidOfferSpread().Div(two)
	bidPrice := mid.Sub(halfSpread)
	offerPrice := mid.Add(halfSpread)

	seq := s.count
	visible := VisibleQuantity(seq)
	hidden := visible * HiddenSizeMultiplier
	s.count++

	bidOrder := domain.NewPriceStreamOrder(bidPrice, visible, hidden, domain.Bid)
	offerOrder := domain.NewPriceStreamOrder(offerPrice, visible, hidden, domain.Offer)
	stream := domain.NewAlgoStream(
		domain.NewPriceStream(product, bidOrder, offerOrder),
		domain.StreamMeta{
			ID:          uuid.New(),
			Sequence:    seq,
			PublishedAt: s.now(),
		},
	)

	s.streams[key] = stream

	s.logger.DebugContext(ctx, "algo stream published",
		slog.String("product_id", key),
		slog.Int64("sequence", seq),
		slog.String("bid", bidPrice.String()),
		slog.String("offer", offerPrice.String()),
		slog.Int64("visible", visible),
	)

	if err := s.listeners.Notify(ctx, EventAdd, stream); err != nil {
		return fmt.Errorf("algo_streaming: publish %q: %w", key, err)
	}
	return nil
}

// ProductIDs returns the ids of all products with a current quote, sorted.
func (s *AlgoStreamingService[T]) ProductIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.streams))
	for id := range s.streams {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of products with a current quote.
func (s *AlgoStreamingService[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.streams)
}

// Published returns how many times PublishAlgoStream has been called.
func (s *AlgoStreamingService[T]) Published() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Compile-time interface check.
var _ domain.Service[string, domain.AlgoStream[domain.Bond]] = (*AlgoStreamingService[domain.Bond])(nil)
