package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alanyoungcy/algostream/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) SetStream(_ context.Context, id string, payload []byte) error {
	if c.err != nil {
		return c.err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[id] = payload
	return nil
}

func (c *memCache) GetStream(_ context.Context, id string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return d, nil
}

func (c *memCache) DeleteStream(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, id)
	return nil
}

type published struct {
	channel string
	payload []byte
}

type memBus struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (b *memBus) Publish(_ context.Context, channel string, payload []byte) error {
	if b.err != nil {
		return b.err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, published{channel: channel, payload: payload})
	return nil
}

func (b *memBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, errors.New("not implemented")
}

func testStream(cusip string, seq int64) domain.AlgoStream[domain.Bond] {
	bond := domain.Bond{CUSIP: cusip, Ticker: "US2Y"}
	return domain.NewAlgoStream(
		domain.NewPriceStream(bond,
			domain.NewPriceStreamOrder(decimal.RequireFromString("99.99"), 1_000_000, 2_000_000, domain.Bid),
			domain.NewPriceStreamOrder(decimal.RequireFromString("100.01"), 1_000_000, 2_000_000, domain.Offer),
		),
		domain.StreamMeta{ID: uuid.New(), Sequence: seq, PublishedAt: time.Now().UTC()},
	)
}

func TestCacheSink(t *testing.T) {
	cache := newMemCache()
	s := NewCacheSink[domain.Bond](cache)
	ctx := context.Background()

	require.NoError(t, s.ProcessAdd(ctx, testStream("912828M80", 0)))
	require.NoError(t, s.ProcessUpdate(ctx, testStream("912828M80", 1)))

	data, err := cache.GetStream(ctx, "912828M80")
	require.NoError(t, err)

	var got struct {
		ProductID string `json:"product_id"`
		Sequence  int64  `json:"sequence"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "912828M80", got.ProductID)
	assert.Equal(t, int64(1), got.Sequence)

	require.NoError(t, s.ProcessRemove(ctx, testStream("912828M80", 2)))
	_, err = cache.GetStream(ctx, "912828M80")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCacheSink_PropagatesErrors(t *testing.T) {
	cache := newMemCache()
	cache.err = errors.New("redis down")
	s := NewCacheSink[domain.Bond](cache)

	err := s.ProcessAdd(context.Background(), testStream("912828M80", 0))
	assert.ErrorIs(t, err, cache.err)
}

func TestBusSink(t *testing.T) {
	bus := &memBus{}
	s := NewBusSink[domain.Bond](bus, "")
	ctx := context.Background()

	require.NoError(t, s.ProcessAdd(ctx, testStream("912828YK0", 3)))
	require.NoError(t, s.ProcessRemove(ctx, testStream("912828YK0", 4)))
	require.Len(t, bus.msgs, 2)

	assert.Equal(t, "ch:stream:912828YK0", bus.msgs[0].channel)

	var env Envelope
	require.NoError(t, json.Unmarshal(bus.msgs[0].payload, &env))
	assert.Equal(t, EnvelopeType, env.Type)
	assert.Equal(t, "add", env.Event)
	assert.Equal(t, "912828YK0", env.ProductID)
	assert.Contains(t, string(env.Stream), `"sequence":3`)

	require.NoError(t, json.Unmarshal(bus.msgs[1].payload, &env))
	assert.Equal(t, "remove", env.Event)
}

func TestBusSink_CustomPrefixAndErrors(t *testing.T) {
	bus := &memBus{err: errors.New("publish failed")}
	s := NewBusSink[domain.Bond](bus, "quotes.")
	assert.Equal(t, "quotes.X", s.Channel("X"))

	err := s.ProcessAdd(context.Background(), testStream("X", 0))
	assert.ErrorIs(t, err, bus.err)
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	s := NewLogSink[domain.Bond](logger)

	require.NoError(t, s.ProcessAdd(context.Background(), testStream("912828YK0", 7)))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "algo stream", line["msg"])
	assert.Equal(t, "912828YK0", line["product_id"])
	assert.Equal(t, "99.99", line["bid"])
	assert.Equal(t, "100.01", line["offer"])
	assert.Equal(t, float64(7), line["sequence"])
	assert.Equal(t, "log_sink", line["component"])
}
