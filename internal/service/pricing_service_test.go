package service

import (
	"context"
	"errors"
	"testing"

	"github.com/alanyoungcy/algostream/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricingService_OnMessageStoresAndNotifies(t *testing.T) {
	pricing := NewPricingService[stock](discardLogger())
	var added []string
	pricing.AddListener(domain.ListenerFuncs[domain.Price[stock]]{
		OnAdd: func(_ context.Context, p domain.Price[stock]) error {
			added = append(added, p.Product().ProductID())
			return nil
		},
	})

	ctx := context.Background()
	require.NoError(t, pricing.OnMessage(ctx, stockPrice("IBM", "101", "0.02")))
	require.NoError(t, pricing.OnMessage(ctx, stockPrice("IBM", "102", "0.02")))

	got, err := pricing.GetData("IBM")
	require.NoError(t, err)
	assert.True(t, got.Mid().Equal(dec("102")))
	assert.Equal(t, []string{"IBM", "IBM"}, added)
}

func TestPricingService_RejectsInvalidPrices(t *testing.T) {
	pricing := NewPricingService[stock](discardLogger())
	ctx := context.Background()

	err := pricing.OnMessage(ctx, stockPrice("IBM", "101", "-0.02"))
	assert.True(t, errors.Is(err, domain.ErrInvalidPrice))

	err = pricing.OnMessage(ctx, stockPrice(" ", "101", "0.02"))
	assert.True(t, errors.Is(err, domain.ErrInvalidPrice))

	_, err = pricing.GetData("IBM")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestPricingService_Remove(t *testing.T) {
	pricing := NewPricingService[stock](discardLogger())
	var removed []string
	pricing.AddListener(domain.ListenerFuncs[domain.Price[stock]]{
		OnRemove: func(_ context.Context, p domain.Price[stock]) error {
			removed = append(removed, p.Product().ProductID())
			return nil
		},
	})

	ctx := context.Background()
	require.NoError(t, pricing.OnMessage(ctx, stockPrice("IBM", "101", "0.02")))
	require.NoError(t, pricing.Remove(ctx, "IBM"))
	assert.Equal(t, []string{"IBM"}, removed)

	err := pricing.Remove(ctx, "IBM")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestPricingToStreamingPipeline(t *testing.T) {
	pricing := NewPricingService[stock](discardLogger())
	streaming := NewAlgoStreamingService[stock](discardLogger())
	pricing.AddListener(NewAlgoStreamingServiceListener(streaming))

	var streamed []int64
	streaming.AddListener(domain.ListenerFuncs[domain.AlgoStream[stock]]{
		OnAdd: func(_ context.Context, s domain.AlgoStream[stock]) error {
			streamed = append(streamed, s.PriceStream().BidOrder().VisibleQuantity())
			return nil
		},
	})

	ctx := context.Background()
	require.NoError(t, pricing.OnMessage(ctx, stockPrice("IBM", "101", "0.02")))
	require.NoError(t, pricing.OnMessage(ctx, stockPrice("MSFT", "300", "0.5")))

	// Removing an upstream price has no effect on the stream.
	require.NoError(t, pricing.Remove(ctx, "IBM"))

	got, err := streaming.GetData("IBM")
	require.NoError(t, err)
	assert.True(t, got.PriceStream().BidOrder().Price().Equal(dec("100.99")))
	assert.True(t, got.PriceStream().OfferOrder().Price().Equal(dec("101.01")))
	assert.Equal(t, []int64{1_000_000, 2_000_000}, streamed)
}

func TestPricingService_PropagatesDownstreamFailure(t *testing.T) {
	pricing := NewPricingService[stock](discardLogger())
	streaming := NewAlgoStreamingService[stock](discardLogger())
	pricing.AddListener(NewAlgoStreamingServiceListener(streaming))

	boom := errors.New("sink unavailable")
	streaming.AddListener(domain.ListenerFuncs[domain.AlgoStream[stock]]{
		OnAdd: func(context.Context, domain.AlgoStream[stock]) error { return boom },
	})

	err := pricing.OnMessage(context.Background(), stockPrice("IBM", "101", "0.02"))
	assert.ErrorIs(t, err, boom)
}
