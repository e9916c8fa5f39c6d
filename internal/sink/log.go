package sink

import (
	"context"
	"log/slog"

	"github.com/alanyoungcy/algostream/internal/domain"
)

// LogSink writes one structured log line per stream event. It never fails.
type LogSink[T domain.Product] struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink[T domain.Product](logger *slog.Logger) *LogSink[T] {
	return &LogSink[T]{logger: logger.With(slog.String("component", "log_sink"))}
}

// ProcessAdd logs a newly published stream.
func (s *LogSink[T]) ProcessAdd(ctx context.Context, stream domain.AlgoStream[T]) error {
	s.log(ctx, "add", stream)
	return nil
}

// ProcessUpdate logs an updated stream.
func (s *LogSink[T]) ProcessUpdate(ctx context.Context, stream domain.AlgoStream[T]) error {
	s.log(ctx, "update", stream)
	return nil
}

// ProcessRemove logs a withdrawn stream.
func (s *LogSink[T]) ProcessRemove(ctx context.Context, stream domain.AlgoStream[T]) error {
	s.log(ctx, "remove", stream)
	return nil
}

func (s *LogSink[T]) log(ctx context.Context, event string, stream domain.AlgoStream[T]) {
	ps := stream.PriceStream()
	s.logger.InfoContext(ctx, "algo stream",
		slog.String("event", event),
		slog.String("product_id", stream.ProductID()),
		slog.Int64("sequence", stream.Sequence()),
		slog.String("bid", ps.BidOrder().Price().String()),
		slog.String("offer", ps.OfferOrder().Price().String()),
		slog.Int64("visible", ps.BidOrder().VisibleQuantity()),
		slog.Int64("hidden", ps.BidOrder().HiddenQuantity()),
	)
}

var _ domain.ServiceListener[domain.AlgoStream[domain.Bond]] = (*LogSink[domain.Bond])(nil)
