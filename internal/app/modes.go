package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/algostream/internal/domain"
	"github.com/alanyoungcy/algostream/internal/feed"
	"github.com/alanyoungcy/algostream/internal/server"
	"github.com/alanyoungcy/algostream/internal/server/handler"
	"github.com/alanyoungcy/algostream/internal/server/ws"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

// StandaloneMode runs the pipeline in process: the file feed replays prices
// through pricing and streaming into the log sink, and the HTTP API is served
// without the WebSocket hub when enabled. Without a server the mode returns
// once the file has been replayed.
func (a *App) StandaloneMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting standalone mode")

	g, ctx := errgroup.WithContext(ctx)

	a.startFileFeed(ctx, g, deps)

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, nil)
	} else if a.cfg.Feed.File == "" {
		a.logger.WarnContext(ctx, "standalone mode has neither a feed file nor a server; nothing to do")
	}

	return g.Wait()
}

// StreamMode publishes every stream to Redis. Prices arrive on the bus feed
// channel and from the feed file when configured; the WebSocket hub relays
// stream events to browser clients.
func (a *App) StreamMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting stream mode",
		slog.String("price_channel", a.cfg.Feed.Channel),
		slog.String("stream_prefix", a.cfg.Stream.ChannelPrefix),
	)

	g, ctx := errgroup.WithContext(ctx)

	busFeed := feed.NewBusFeed[domain.Bond](deps.SignalBus, a.cfg.Feed.Channel, deps.Products, deps.Pricing, a.logger)
	g.Go(func() error {
		return busFeed.Run(ctx)
	})

	a.startFileFeed(ctx, g, deps)

	var hub *ws.Hub
	if a.cfg.Server.Enabled {
		hub = ws.NewHub(deps.SignalBus, a.logger, ws.Config{
			ChannelPrefix: a.cfg.Stream.ChannelPrefix,
			Mode:          a.cfg.Mode,
			StartedAt:     time.Now().UTC(),
		})
		g.Go(func() error {
			return hub.Run(ctx)
		})
		a.startHTTPServer(ctx, g, deps, hub)
	}

	return g.Wait()
}

// startFileFeed replays the configured feed file once. A bad file stops the
// whole mode.
func (a *App) startFileFeed(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if a.cfg.Feed.File == "" {
		return
	}
	fileFeed := feed.NewFileFeed[domain.Bond](a.cfg.Feed.File, deps.Products, deps.Pricing, a.logger)
	g.Go(func() error {
		return fileFeed.Run(ctx)
	})
}

// startHTTPServer adds the HTTP server and its shutdown watcher to g. hub may
// be nil, in which case /ws is not registered.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, hub *ws.Hub) {
	var pingers map[string]handler.Pinger
	if deps.Redis != nil {
		pingers = map[string]handler.Pinger{"redis": deps.Redis}
	}

	handlers := server.Handlers{
		Health:  handler.NewHealthHandler(a.logger, pingers),
		Status:  handler.NewStatusHandler(a.cfg.Mode, deps.Products.IDs(), deps.Streaming),
		Streams: handler.NewStreamHandler[domain.Bond](deps.Streaming, a.logger),
		Prices:  handler.NewPriceHandler[domain.Bond](deps.Pricing, deps.Products, a.logger),
	}

	trusted, err := a.cfg.Server.TrustedPrefixes()
	if err != nil {
		g.Go(func() error { return fmt.Errorf("app: server: %w", err) })
		return
	}

	srv := server.NewServer(server.Config{
		Port:            a.cfg.Server.Port,
		CORSOrigins:     a.cfg.Server.CORSOrigins,
		APIKey:          a.cfg.Server.APIKey,
		PriceRateLimit:  a.cfg.Server.PriceRateLimit,
		PriceRateWindow: a.cfg.Server.PriceRateWindow.Duration,
		TrustedProxies:  trusted,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		a.logger.InfoContext(ctx, "HTTP server listening",
			slog.String("url", fmt.Sprintf("http://localhost:%d", a.cfg.Server.Port)),
			slog.Bool("websocket", hub != nil),
		)
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}
