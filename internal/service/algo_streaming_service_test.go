package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/alanyoungcy/algostream/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stock struct{ symbol string }

func (s stock) ProductID() string { return s.symbol }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func stockPrice(symbol, mid, spread string) domain.Price[stock] {
	return domain.NewPrice(stock{symbol: symbol}, dec(mid), dec(spread))
}

// recorder collects the product ids it is notified with, tagged by name.
type recorder struct {
	name string
	mu   *sync.Mutex
	log  *[]string
}

func (r recorder) ProcessAdd(_ context.Context, s domain.AlgoStream[stock]) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.log = append(*r.log, r.name+":"+s.ProductID())
	return nil
}

func (r recorder) ProcessRemove(context.Context, domain.AlgoStream[stock]) error {
	return errors.New("remove must not be called")
}

func (r recorder) ProcessUpdate(context.Context, domain.AlgoStream[stock]) error {
	return errors.New("update must not be called")
}

func TestPublishAlgoStream_DerivesTwoWayQuote(t *testing.T) {
	svc := NewAlgoStreamingService[stock](discardLogger())
	require.NoError(t, svc.PublishAlgoStream(context.Background(), stockPrice("IBM", "100", "2")))

	got, err := svc.GetData("IBM")
	require.NoError(t, err)

	ps := got.PriceStream()
	assert.Equal(t, "IBM", ps.Product().ProductID())
	assert.True(t, ps.BidOrder().Price().Equal(dec("99")), "bid %s", ps.BidOrder().Price())
	assert.True(t, ps.OfferOrder().Price().Equal(dec("101")), "offer %s", ps.OfferOrder().Price())
	assert.Equal(t, domain.Bid, ps.BidOrder().Side())
	assert.Equal(t, domain.Offer, ps.OfferOrder().Side())
	assert.Equal(t, int64(0), got.Sequence())
	assert.False(t, got.PublishedAt().IsZero())
	assert.NotEqual(t, [16]byte{}, [16]byte(got.ID()))
}

func TestPublishAlgoStream_ReplacesPreviousQuote(t *testing.T) {
	svc := NewAlgoStreamingService[stock](discardLogger())
	ctx := context.Background()

	require.NoError(t, svc.PublishAlgoStream(ctx, stockPrice("IBM", "100", "2")))
	first, err := svc.GetData("IBM")
	require.NoError(t, err)

	require.NoError(t, svc.PublishAlgoStream(ctx, stockPrice("IBM", "200", "4")))
	second, err := svc.GetData("IBM")
	require.NoError(t, err)

	assert.Equal(t, 1, svc.Len())
	assert.Equal(t, []string{"IBM"}, svc.ProductIDs())
	assert.True(t, second.PriceStream().BidOrder().Price().Equal(dec("198")))
	assert.True(t, second.PriceStream().OfferOrder().Price().Equal(dec("202")))
	assert.NotEqual(t, first.ID(), second.ID())

	// The first record is a separate value and was not mutated.
	assert.True(t, first.PriceStream().BidOrder().Price().Equal(dec("99")))
}

func TestPublishAlgoStream_AlternatesVisibleSizeAcrossProducts(t *testing.T) {
	svc := NewAlgoStreamingService[stock](discardLogger())
	ctx := context.Background()

	testCases := []struct {
		symbol  string
		visible int64
	}{
		{"IBM", 1_000_000},
		{"MSFT", 2_000_000},
		{"IBM", 1_000_000},
		{"AAPL", 2_000_000},
		{"MSFT", 1_000_000},
	}

	for i, tc := range testCases {
		require.NoError(t, svc.PublishAlgoStream(ctx, stockPrice(tc.symbol, "50", "0.5")))
		got, err := svc.GetData(tc.symbol)
		require.NoError(t, err)

		bid := got.PriceStream().BidOrder()
		offer := got.PriceStream().OfferOrder()
		assert.Equal(t, int64(i), got.Sequence(), "publish %d", i)
		assert.Equal(t, tc.visible, bid.VisibleQuantity(), "publish %d", i)
		assert.Equal(t, tc.visible, offer.VisibleQuantity(), "publish %d", i)
		assert.Equal(t, 2*bid.VisibleQuantity(), bid.HiddenQuantity(), "publish %d", i)
		assert.Equal(t, 2*offer.VisibleQuantity(), offer.HiddenQuantity(), "publish %d", i)
	}
	assert.Equal(t, int64(len(testCases)), svc.Published())
}

func TestPublishAlgoStream_CounterIsPerInstance(t *testing.T) {
	a := NewAlgoStreamingService[stock](discardLogger())
	b := NewAlgoStreamingService[stock](discardLogger())
	ctx := context.Background()

	require.NoError(t, a.PublishAlgoStream(ctx, stockPrice("IBM", "10", "1")))
	require.NoError(t, b.PublishAlgoStream(ctx, stockPrice("IBM", "10", "1")))

	ga, _ := a.GetData("IBM")
	gb, _ := b.GetData("IBM")
	assert.Equal(t, VisibleSizeEven, ga.PriceStream().BidOrder().VisibleQuantity())
	assert.Equal(t, VisibleSizeEven, gb.PriceStream().BidOrder().VisibleQuantity())
}

func TestGetData_LookupMiss(t *testing.T) {
	svc := NewAlgoStreamingService[stock](discardLogger())

	_, err := svc.GetData("NOPE")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestPublishAlgoStream_NotifiesInRegistrationOrder(t *testing.T) {
	svc := NewAlgoStreamingService[stock](discardLogger())
	var mu sync.Mutex
	var log []string

	first := recorder{name: "first", mu: &mu, log: &log}
	second := recorder{name: "second", mu: &mu, log: &log}
	svc.AddListener(first)
	svc.AddListener(second)
	svc.AddListener(first)

	require.Len(t, svc.GetListeners(), 3)

	ctx := context.Background()
	require.NoError(t, svc.PublishAlgoStream(ctx, stockPrice("IBM", "100", "2")))
	require.NoError(t, svc.PublishAlgoStream(ctx, stockPrice("MSFT", "100", "2")))

	assert.Equal(t, []string{
		"first:IBM", "second:IBM", "first:IBM",
		"first:MSFT", "second:MSFT", "first:MSFT",
	}, log)
}

func TestGetListeners_ReturnsCopy(t *testing.T) {
	svc := NewAlgoStreamingService[stock](discardLogger())
	svc.AddListener(domain.ListenerFuncs[domain.AlgoStream[stock]]{})

	got := svc.GetListeners()
	got[0] = nil

	assert.Len(t, svc.GetListeners(), 1)
	assert.NotNil(t, svc.GetListeners()[0])
}

func TestPublishAlgoStream_ListenerFailureAbortsFanOut(t *testing.T) {
	svc := NewAlgoStreamingService[stock](discardLogger())
	boom := errors.New("boom")

	var calls []string
	svc.AddListener(domain.ListenerFuncs[domain.AlgoStream[stock]]{
		OnAdd: func(context.Context, domain.AlgoStream[stock]) error {
			calls = append(calls, "a")
			return nil
		},
	})
	svc.AddListener(domain.ListenerFuncs[domain.AlgoStream[stock]]{
		OnAdd: func(context.Context, domain.AlgoStream[stock]) error {
			calls = append(calls, "b")
			return boom
		},
	})
	svc.AddListener(domain.ListenerFuncs[domain.AlgoStream[stock]]{
		OnAdd: func(context.Context, domain.AlgoStream[stock]) error {
			calls = append(calls, "c")
			return nil
		},
	})

	err := svc.PublishAlgoStream(context.Background(), stockPrice("IBM", "100", "2"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))

	var nerr *NotifyError
	require.True(t, errors.As(err, &nerr))
	assert.Equal(t, 1, nerr.Position)
	assert.Equal(t, EventAdd, nerr.Event)

	assert.Equal(t, []string{"a", "b"}, calls)

	// No rollback: the quote is stored and the counter advanced.
	_, err = svc.GetData("IBM")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), svc.Published())
}

func TestOnMessage_Unsupported(t *testing.T) {
	svc := NewAlgoStreamingService[stock](discardLogger())
	err := svc.OnMessage(context.Background(), domain.AlgoStream[stock]{})
	assert.True(t, errors.Is(err, errors.ErrUnsupported))
	assert.Equal(t, 0, svc.Len())
}

func TestPublishAlgoStream_ConcurrentPublishers(t *testing.T) {
	svc := NewAlgoStreamingService[stock](discardLogger())
	var mu sync.Mutex
	seen := map[int64]bool{}
	svc.AddListener(domain.ListenerFuncs[domain.AlgoStream[stock]]{
		OnAdd: func(_ context.Context, s domain.AlgoStream[stock]) error {
			mu.Lock()
			defer mu.Unlock()
			seen[s.Sequence()] = true
			return nil
		},
	})

	const workers, perWorker = 8, 50
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			sym := string(rune('A' + w))
			for i := 0; i < perWorker; i++ {
				_ = svc.PublishAlgoStream(context.Background(), stockPrice(sym, "10", "0.1"))
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, int64(workers*perWorker), svc.Published())
	assert.Equal(t, workers, svc.Len())
	assert.Len(t, seen, workers*perWorker)
}

func TestAlgoStreamingServiceListener_ForwardsAdds(t *testing.T) {
	svc := NewAlgoStreamingService[stock](discardLogger())
	adapter := NewAlgoStreamingServiceListener(svc)
	ctx := context.Background()

	require.NoError(t, adapter.ProcessAdd(ctx, stockPrice("IBM", "101", "0.02")))

	got, err := svc.GetData("IBM")
	require.NoError(t, err)
	assert.Equal(t, "IBM", got.PriceStream().Product().ProductID())
	assert.True(t, got.PriceStream().BidOrder().Price().Equal(dec("100.99")))
	assert.True(t, got.PriceStream().OfferOrder().Price().Equal(dec("101.01")))
}

func TestAlgoStreamingServiceListener_IgnoresRemoveAndUpdate(t *testing.T) {
	svc := NewAlgoStreamingService[stock](discardLogger())
	adapter := NewAlgoStreamingServiceListener(svc)
	ctx := context.Background()

	assert.NoError(t, adapter.ProcessRemove(ctx, stockPrice("IBM", "101", "0.02")))
	assert.NoError(t, adapter.ProcessUpdate(ctx, stockPrice("IBM", "101", "0.02")))
	assert.Equal(t, 0, svc.Len())
	assert.Equal(t, int64(0), svc.Published())
}

func TestVisibleQuantity(t *testing.T) {
	assert.Equal(t, int64(1_000_000), VisibleQuantity(0))
	assert.Equal(t, int64(2_000_000), VisibleQuantity(1))
	assert.Equal(t, int64(1_000_000), VisibleQuantity(2))
	assert.Equal(t, int64(2_000_000), VisibleQuantity(7))
}
