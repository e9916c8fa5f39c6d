package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/algostream/internal/cache/redis"
	"github.com/alanyoungcy/algostream/internal/config"
	"github.com/alanyoungcy/algostream/internal/domain"
	"github.com/alanyoungcy/algostream/internal/service"
	"github.com/alanyoungcy/algostream/internal/sink"
)

// Dependencies bundles the services and ports the application modes run. It
// is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Products  *service.ProductRegistry[domain.Bond]
	Pricing   *service.PricingService[domain.Bond]
	Streaming *service.AlgoStreamingService[domain.Bond]

	// Redis-backed ports; nil in standalone mode.
	Redis       *redis.Client
	StreamCache domain.StreamCache
	SignalBus   domain.SignalBus
	RateLimiter domain.RateLimiter
}

// needsRedis returns true for modes that publish streams out of process.
func needsRedis(mode string) bool {
	return strings.EqualFold(mode, "stream")
}

// Wire builds the product registry and the pricing to streaming pipeline,
// connects Redis when the mode needs it, and attaches the downstream sinks.
// The cleanup function releases every opened resource.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	bonds, err := bondsFromConfig(cfg.Products)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: products: %w", err)
	}
	products, err := service.NewProductRegistry(bonds...)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: products: %w", err)
	}

	deps := &Dependencies{
		Products:  products,
		Pricing:   service.NewPricingService[domain.Bond](logger),
		Streaming: service.NewAlgoStreamingService[domain.Bond](logger),
	}
	deps.Pricing.AddListener(service.NewAlgoStreamingServiceListener(deps.Streaming))
	logger.DebugContext(ctx, "wire: products registered", slog.Int("products", products.Len()))

	if !needsRedis(cfg.Mode) {
		deps.Streaming.AddListener(sink.NewLogSink[domain.Bond](logger))
		return deps, cleanup, nil
	}

	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("wire: redis close failed", slog.String("error", err.Error()))
		}
	})

	deps.Redis = redisClient
	deps.StreamCache = redis.NewStreamCache(redisClient, cfg.Redis.CacheTTL.Duration)
	deps.SignalBus = redis.NewSignalBus(redisClient)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)

	// Cache first so the latest quote is readable before subscribers hear of it.
	deps.Streaming.AddListener(sink.NewCacheSink[domain.Bond](deps.StreamCache))
	deps.Streaming.AddListener(sink.NewBusSink[domain.Bond](deps.SignalBus, cfg.Stream.ChannelPrefix))

	logger.InfoContext(ctx, "wire: redis connected", slog.String("addr", cfg.Redis.Addr))

	return deps, cleanup, nil
}

// bondsFromConfig converts the configured reference data into bonds.
func bondsFromConfig(pcs []config.ProductConfig) ([]domain.Bond, error) {
	bonds := make([]domain.Bond, 0, len(pcs))
	for _, pc := range pcs {
		maturity, err := pc.MaturityDate()
		if err != nil {
			return nil, err
		}
		bonds = append(bonds, domain.Bond{
			CUSIP:    pc.CUSIP,
			Ticker:   pc.Ticker,
			Coupon:   pc.Coupon,
			Maturity: maturity,
		})
	}
	return bonds, nil
}
