package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/alanyoungcy/algostream/internal/domain"
)

// PricingService keeps the latest Price per product and notifies listeners
// whenever a price is added or removed. It is the upstream source of the
// streaming pipeline.
type PricingService[T domain.Product] struct {
	mu        sync.Mutex
	prices    map[string]domain.Price[T]
	listeners *Registry[domain.Price[T]]
	logger    *slog.Logger
}

// NewPricingService creates an empty PricingService.
func NewPricingService[T domain.Product](logger *slog.Logger) *PricingService[T] {
	return &PricingService[T]{
		prices:    make(map[string]domain.Price[T]),
		listeners: NewRegistry[domain.Price[T]](),
		logger:    logger.With(slog.String("component", "pricing")),
	}
}

// GetData returns the latest price for productID, or an error wrapping
// domain.ErrNotFound.
func (s *PricingService[T]) GetData(productID string) (domain.Price[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.prices[productID]
	if !ok {
		return domain.Price[T]{}, fmt.Errorf("pricing: get %q: %w", productID, domain.ErrNotFound)
	}
	return p, nil
}

// OnMessage validates and stores price, then sends an add event to every
// listener. Listener errors abort the fan-out and are returned.
func (s *PricingService[T]) OnMessage(ctx context.Context, price domain.Price[T]) error {
	if err := validatePrice(price); err != nil {
		return fmt.Errorf("pricing: on message: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := price.Product().ProductID()
	s.prices[id] = price

	if err := s.listeners.Notify(ctx, EventAdd, price); err != nil {
		s.logger.ErrorContext(ctx, "price listener failed",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("pricing: on message %q: %w", id, err)
	}
	return nil
}

// Remove deletes the price for productID and sends a remove event carrying the
// deleted price.
func (s *PricingService[T]) Remove(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.prices[productID]
	if !ok {
		return fmt.Errorf("pricing: remove %q: %w", productID, domain.ErrNotFound)
	}
	delete(s.prices, productID)

	if err := s.listeners.Notify(ctx, EventRemove, p); err != nil {
		return fmt.Errorf("pricing: remove %q: %w", productID, err)
	}
	return nil
}

// AddListener registers a listener.
func (s *PricingService[T]) AddListener(listener domain.ServiceListener[domain.Price[T]]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners.Add(listener)
	s.logger.Debug("listener added",
		slog.String("listener", fmt.Sprintf("%T", listener)),
		slog.Int("listeners", s.listeners.Len()),
	)
}

// GetListeners returns the registered listeners in registration order.
func (s *PricingService[T]) GetListeners() []domain.ServiceListener[domain.Price[T]] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listeners.Snapshot()
}

func validatePrice[T domain.Product](price domain.Price[T]) error {
	if strings.TrimSpace(price.Product().ProductID()) == "" {
		return fmt.Errorf("%w: empty product id", domain.ErrInvalidPrice)
	}
	if price.BidOfferSpread().IsNegative() {
		return fmt.Errorf("%w: negative spread %s", domain.ErrInvalidPrice, price.BidOfferSpread())
	}
	return nil
}

var _ domain.Service[string, domain.Price[domain.Bond]] = (*PricingService[domain.Bond])(nil)
