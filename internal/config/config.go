// Package config defines the top-level configuration for the algo streaming
// service and provides validation helpers.
package config

import (
	"fmt"
	"net/netip"
	"strings"
	"time"
)

// MaturityLayout is the date format of ProductConfig.Maturity.
const MaturityLayout = "2006-01-02"

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by ALGOSTREAM_* environment variables.
type Config struct {
	Redis    RedisConfig     `toml:"redis"`
	Server   ServerConfig    `toml:"server"`
	Feed     FeedConfig      `toml:"feed"`
	Stream   StreamConfig    `toml:"stream"`
	Products []ProductConfig `toml:"products"`
	Mode     string          `toml:"mode"`
	LogLevel string          `toml:"log_level"`
}

// RedisConfig holds Redis connection parameters. Only stream mode connects.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`

	// CacheTTL expires cached streams; zero keeps them until replaced.
	CacheTTL duration `toml:"cache_ttl"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`

	// PriceRateLimit caps POST /api/prices per client per PriceRateWindow.
	// It needs Redis, so it applies in stream mode only. Zero disables it.
	PriceRateLimit  int      `toml:"price_rate_limit"`
	PriceRateWindow duration `toml:"price_rate_window"`

	// TrustedProxies lists IPs or CIDRs of reverse proxies allowed to set
	// X-Forwarded-For and X-Real-IP. Empty trusts no proxy.
	TrustedProxies []string `toml:"trusted_proxies"`
}

// TrustedPrefixes parses TrustedProxies. A bare IP becomes a single-host
// prefix.
func (s ServerConfig) TrustedPrefixes() ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(s.TrustedProxies))
	for _, raw := range s.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if strings.Contains(raw, "/") {
			p, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// FeedConfig selects the upstream price sources.
type FeedConfig struct {
	// File is a CSV of product_id,mid,spread replayed at startup.
	File string `toml:"file"`
	// Channel is the SignalBus channel carrying JSON prices in stream mode.
	Channel string `toml:"channel"`
}

// StreamConfig controls how algo streams leave the process.
type StreamConfig struct {
	ChannelPrefix string `toml:"channel_prefix"`
}

// ProductConfig describes one bond in the reference data.
type ProductConfig struct {
	CUSIP    string  `toml:"cusip"`
	Ticker   string  `toml:"ticker"`
	Coupon   float64 `toml:"coupon"`
	Maturity string  `toml:"maturity"`
}

// MaturityDate parses Maturity. An empty value yields the zero time.
func (p ProductConfig) MaturityDate() (time.Time, error) {
	if p.Maturity == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(MaturityLayout, p.Maturity)
	if err != nil {
		return time.Time{}, fmt.Errorf("config: product %q maturity: %w", p.CUSIP, err)
	}
	return t, nil
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
		},
		Server: ServerConfig{
			Enabled:         true,
			Port:            8000,
			CORSOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
			PriceRateWindow: duration{time.Second},
		},
		Feed: FeedConfig{
			Channel: "prices",
		},
		Stream: StreamConfig{
			ChannelPrefix: "ch:stream:",
		},
		Mode:     "standalone",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"standalone": true,
	"stream":     true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: standalone, stream)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Redis is only dialled in stream mode.
	if strings.EqualFold(c.Mode, "stream") {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
		if c.Feed.Channel == "" {
			errs = append(errs, "feed: channel must not be empty in stream mode")
		}
		if c.Stream.ChannelPrefix == "" {
			errs = append(errs, "stream: channel_prefix must not be empty")
		}
	}
	if c.Redis.CacheTTL.Duration < 0 {
		errs = append(errs, "redis: cache_ttl must be >= 0")
	}

	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.PriceRateLimit < 0 {
			errs = append(errs, "server: price_rate_limit must be >= 0")
		}
		if c.Server.PriceRateLimit > 0 && c.Server.PriceRateWindow.Duration <= 0 {
			errs = append(errs, "server: price_rate_window must be > 0 when price_rate_limit is set")
		}
		if _, err := c.Server.TrustedPrefixes(); err != nil {
			errs = append(errs, "server: "+err.Error())
		}
	}

	if len(c.Products) == 0 {
		errs = append(errs, "products: at least one product must be configured")
	}
	seen := make(map[string]bool, len(c.Products))
	for i, p := range c.Products {
		if strings.TrimSpace(p.CUSIP) == "" {
			errs = append(errs, fmt.Sprintf("products[%d]: cusip must not be empty", i))
			continue
		}
		if seen[p.CUSIP] {
			errs = append(errs, fmt.Sprintf("products[%d]: duplicate cusip %q", i, p.CUSIP))
		}
		seen[p.CUSIP] = true
		if _, err := p.MaturityDate(); err != nil {
			errs = append(errs, fmt.Sprintf("products[%d]: maturity must be YYYY-MM-DD, got %q", i, p.Maturity))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
