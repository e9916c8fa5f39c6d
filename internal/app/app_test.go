package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/alanyoungcy/algostream/internal/config"
	"github.com/alanyoungcy/algostream/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func standaloneConfig(t *testing.T, csv string) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.Server.Enabled = false
	cfg.Products = []config.ProductConfig{
		{CUSIP: "912828YK0", Ticker: "US10Y", Coupon: 1.625, Maturity: "2029-11-15"},
		{CUSIP: "912810SN9", Ticker: "US30Y"},
	}
	if csv != "" {
		path := filepath.Join(t.TempDir(), "prices.csv")
		require.NoError(t, os.WriteFile(path, []byte(csv), 0o600))
		cfg.Feed.File = path
	}
	require.NoError(t, cfg.Validate())
	return &cfg
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWire_Standalone(t *testing.T) {
	cfg := standaloneConfig(t, "")
	deps, cleanup, err := Wire(context.Background(), cfg, discard())
	require.NoError(t, err)
	defer cleanup()

	assert.Nil(t, deps.Redis)
	assert.Nil(t, deps.SignalBus)
	assert.Equal(t, 2, deps.Products.Len())

	bond, err := deps.Products.Lookup("912828YK0")
	require.NoError(t, err)
	assert.Equal(t, "US10Y", bond.Ticker)
	assert.Equal(t, 2029, bond.Maturity.Year())

	// Pricing feeds streaming, which feeds the log sink.
	assert.Len(t, deps.Pricing.GetListeners(), 1)
	assert.Len(t, deps.Streaming.GetListeners(), 1)
}

func TestStandaloneMode_ReplaysFile(t *testing.T) {
	cfg := standaloneConfig(t, "product_id,mid,spread\n912828YK0,101,0.02\n912810SN9,99.5,0.25\n912828YK0,101.5,0.02\n")
	deps, cleanup, err := Wire(context.Background(), cfg, discard())
	require.NoError(t, err)
	defer cleanup()

	a := New(cfg, discard())
	require.NoError(t, a.StandaloneMode(context.Background(), deps))

	assert.Equal(t, 2, deps.Streaming.Len())
	assert.Equal(t, int64(3), deps.Streaming.Published())

	s, err := deps.Streaming.GetData("912828YK0")
	require.NoError(t, err)
	assert.Equal(t, "101.49", s.PriceStream().BidOrder().Price().String())
	assert.Equal(t, int64(1_000_000), s.PriceStream().BidOrder().VisibleQuantity(), "third publish uses the even counter")
}

func TestStandaloneMode_BadFileFails(t *testing.T) {
	cfg := standaloneConfig(t, "UNKNOWN,101,0.02\n")
	deps, cleanup, err := Wire(context.Background(), cfg, discard())
	require.NoError(t, err)
	defer cleanup()

	err = New(cfg, discard()).StandaloneMode(context.Background(), deps)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownProduct)
}

func TestRun_UnsupportedMode(t *testing.T) {
	cfg := standaloneConfig(t, "")
	cfg.Mode = "trade"
	a := New(cfg, discard())
	defer a.Close()

	err := a.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported mode")
}
