package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/alanyoungcy/algostream/internal/domain"
	"github.com/alanyoungcy/algostream/internal/server/handler"
	"github.com/alanyoungcy/algostream/internal/server/middleware"
	"github.com/alanyoungcy/algostream/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled

	// PriceRateLimit caps POST /api/prices per client within
	// PriceRateWindow. Zero disables the limit.
	PriceRateLimit  int
	PriceRateWindow time.Duration

	// TrustedProxies lists the peers whose X-Forwarded-For and X-Real-IP
	// headers identify the client. Empty means the headers are ignored.
	TrustedProxies []netip.Prefix
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health  *handler.HealthHandler
	Status  *handler.StatusHandler
	Streams *handler.StreamHandler[domain.Bond]
	Prices  *handler.PriceHandler[domain.Bond]
}

// Server is the HTTP + WebSocket API over the streaming pipeline.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer registers every route and wraps the mux in the middleware chain.
// The /ws route exists only when wsHub is non-nil; the price rate limit only
// when limiter is non-nil.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)
	mux.HandleFunc("GET /api/status", handlers.Status.GetStatus)

	mux.HandleFunc("GET /api/streams", handlers.Streams.ListStreams)
	mux.HandleFunc("GET /api/streams/{id}", handlers.Streams.GetStream)

	mux.HandleFunc("GET /api/prices/{id}", handlers.Prices.GetPrice)
	var postPrice http.Handler = http.HandlerFunc(handlers.Prices.PostPrice)
	if limiter != nil && cfg.PriceRateLimit > 0 {
		postPrice = middleware.RateLimit(limiter, cfg.PriceRateLimit, cfg.PriceRateWindow, cfg.TrustedProxies)(postPrice)
	}
	mux.Handle("POST /api/prices", postPrice)
	mux.HandleFunc("DELETE /api/prices/{id}", handlers.Prices.DeletePrice)

	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey, "/api/health")(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger.With(slog.String("component", "server")),
	}
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
