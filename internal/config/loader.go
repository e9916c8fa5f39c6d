package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ALGOSTREAM_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config: unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ALGOSTREAM_* environment variables and
// overwrites the corresponding Config fields when a variable is set.
func applyEnvOverrides(cfg *Config) {
	// ── Redis ──
	setStr(&cfg.Redis.Addr, "ALGOSTREAM_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ALGOSTREAM_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ALGOSTREAM_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ALGOSTREAM_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ALGOSTREAM_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ALGOSTREAM_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.CacheTTL, "ALGOSTREAM_REDIS_CACHE_TTL")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "ALGOSTREAM_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "ALGOSTREAM_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "ALGOSTREAM_SERVER_CORS_ORIGINS")
	setStringSlice(&cfg.Server.TrustedProxies, "ALGOSTREAM_SERVER_TRUSTED_PROXIES")
	setStr(&cfg.Server.APIKey, "ALGOSTREAM_SERVER_API_KEY")
	setInt(&cfg.Server.PriceRateLimit, "ALGOSTREAM_SERVER_PRICE_RATE_LIMIT")
	setDuration(&cfg.Server.PriceRateWindow, "ALGOSTREAM_SERVER_PRICE_RATE_WINDOW")

	// ── Feed / stream ──
	setStr(&cfg.Feed.File, "ALGOSTREAM_FEED_FILE")
	setStr(&cfg.Feed.Channel, "ALGOSTREAM_FEED_CHANNEL")
	setStr(&cfg.Stream.ChannelPrefix, "ALGOSTREAM_STREAM_CHANNEL_PREFIX")

	// ── Top-level ──
	setStr(&cfg.Mode, "ALGOSTREAM_MODE")
	setStr(&cfg.LogLevel, "ALGOSTREAM_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
