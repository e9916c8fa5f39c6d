package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/algostream/internal/domain"
)

// DefaultPriceChannel is the bus channel upstream pricing publishes to.
const DefaultPriceChannel = "prices"

// BusFeed subscribes to a SignalBus channel of JSON PriceMessages and pushes
// them into the pricing service. A message with action "remove" withdraws the
// product's price instead.
type BusFeed[T domain.Product] struct {
	bus      domain.SignalBus
	channel  string
	products ProductLookup[T]
	sink     PriceSink[T]
	logger   *slog.Logger
}

// NewBusFeed creates a BusFeed. An empty channel selects DefaultPriceChannel.
func NewBusFeed[T domain.Product](bus domain.SignalBus, channel string, products ProductLookup[T], sink PriceSink[T], logger *slog.Logger) *BusFeed[T] {
	if channel == "" {
		channel = DefaultPriceChannel
	}
	return &BusFeed[T]{
		bus:      bus,
		channel:  channel,
		products: products,
		sink:     sink,
		logger:   logger.With(slog.String("component", "bus_feed")),
	}
}

// Run consumes messages until ctx is cancelled or the subscription closes.
// Messages that cannot be decoded or priced are logged and skipped.
func (f *BusFeed[T]) Run(ctx context.Context) error {
	ch, err := f.bus.Subscribe(ctx, f.channel)
	if err != nil {
		return fmt.Errorf("bus_feed: subscribe %s: %w", f.channel, err)
	}
	f.logger.Info("bus feed started", slog.String("channel", f.channel))
	defer f.logger.Info("bus feed stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case data, ok := <-ch:
			if !ok {
				return nil
			}
			if err := f.handleMessage(ctx, data); err != nil {
				f.logger.WarnContext(ctx, "bus feed dropped message",
					slog.String("error", err.Error()),
					slog.Int("payload_len", len(data)),
				)
			}
		}
	}
}

func (f *BusFeed[T]) handleMessage(ctx context.Context, data []byte) error {
	var msg PriceMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	switch msg.Action {
	case "":
	case ActionRemove:
		return f.remove(ctx, msg.ProductID)
	default:
		return fmt.Errorf("%w: unknown action %q", domain.ErrInvalidPrice, msg.Action)
	}
	price, err := ToPrice(f.products, msg)
	if err != nil {
		return err
	}
	return f.sink.OnMessage(ctx, price)
}

func (f *BusFeed[T]) remove(ctx context.Context, productID string) error {
	id := strings.TrimSpace(productID)
	if _, err := f.products.Lookup(id); err != nil {
		return err
	}
	return f.sink.Remove(ctx, id)
}
