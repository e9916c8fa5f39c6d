package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceStreamOrder is one side of a streamed quote. Only the visible quantity
// is shown to the market; the hidden quantity is held in reserve.
type PriceStreamOrder struct {
	price           decimal.Decimal
	visibleQuantity int64
	hiddenQuantity  int64
	side            PricingSide
}

// NewPriceStreamOrder builds an order leg.
func NewPriceStreamOrder(price decimal.Decimal, visibleQuantity, hiddenQuantity int64, side PricingSide) PriceStreamOrder {
	return PriceStreamOrder{
		price:           price,
		visibleQuantity: visibleQuantity,
		hiddenQuantity:  hiddenQuantity,
		side:            side,
	}
}

func (o PriceStreamOrder) Price() decimal.Decimal { return o.price }
func (o PriceStreamOrder) VisibleQuantity() int64  { return o.visibleQuantity }
func (o PriceStreamOrder) HiddenQuantity() int64   { return o.hiddenQuantity }
func (o PriceStreamOrder) Side() PricingSide       { return o.side }

type priceStreamOrderJSON struct {
	Price           decimal.Decimal `json:"price"`
	VisibleQuantity int64           `json:"visible_quantity"`
	HiddenQuantity  int64           `json:"hidden_quantity"`
	Side            PricingSide     `json:"side"`
}

// MarshalJSON implements json.Marshaler.
func (o PriceStreamOrder) MarshalJSON() ([]byte, error) {
	return json.Marshal(priceStreamOrderJSON{
		Price:           o.price,
		VisibleQuantity: o.visibleQuantity,
		HiddenQuantity:  o.hiddenQuantity,
		Side:            o.side,
	})
}

// PriceStream is a two-way market for a single product.
type PriceStream[T Product] struct {
	product    T
	bidOrder   PriceStreamOrder
	offerOrder PriceStreamOrder
}

// NewPriceStream builds a two-way market from its bid and offer legs.
func NewPriceStream[T Product](product T, bidOrder, offerOrder PriceStreamOrder) PriceStream[T] {
	return PriceStream[T]{
		product:    product,
		bidOrder:   bidOrder,
		offerOrder: offerOrder,
	}
}

func (s PriceStream[T]) Product() T                   { return s.product }
func (s PriceStream[T]) BidOrder() PriceStreamOrder   { return s.bidOrder }
func (s PriceStream[T]) OfferOrder() PriceStreamOrder { return s.offerOrder }

type priceStreamJSON[T Product] struct {
	Product    T                `json:"product"`
	BidOrder   PriceStreamOrder `json:"bid"`
	OfferOrder PriceStreamOrder `json:"offer"`
}

// MarshalJSON implements json.Marshaler.
func (s PriceStream[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(priceStreamJSON[T]{
		Product:    s.product,
		BidOrder:   s.bidOrder,
		OfferOrder: s.offerOrder,
	})
}

// StreamMeta is per-record bookkeeping attached to an AlgoStream at publish
// time.
type StreamMeta struct {
	ID          uuid.UUID
	Sequence    int64
	PublishedAt time.Time
}

// AlgoStream is the publishable record for one product's current quote. A new
// record is built on every publish; records are never mutated.
type AlgoStream[T Product] struct {
	priceStream PriceStream[T]
	meta        StreamMeta
}

// NewAlgoStream wraps a price stream into a publishable record.
func NewAlgoStream[T Product](priceStream PriceStream[T], meta StreamMeta) AlgoStream[T] {
	return AlgoStream[T]{
		priceStream: priceStream,
		meta:        meta,
	}
}

// PriceStream returns the wrapped two-way market.
func (a AlgoStream[T]) PriceStream() PriceStream[T] { return a.priceStream }

// ProductID is shorthand for PriceStream().Product().ProductID().
func (a AlgoStream[T]) ProductID() string { return a.priceStream.product.ProductID() }

func (a AlgoStream[T]) ID() uuid.UUID          { return a.meta.ID }
func (a AlgoStream[T]) Sequence() int64        { return a.meta.Sequence }
func (a AlgoStream[T]) PublishedAt() time.Time { return a.meta.PublishedAt }

type algoStreamJSON[T Product] struct {
	ID          uuid.UUID      `json:"id"`
	ProductID   string         `json:"product_id"`
	Sequence    int64          `json:"sequence"`
	PublishedAt time.Time      `json:"published_at"`
	PriceStream PriceStream[T] `json:"price_stream"`
}

// MarshalJSON implements json.Marshaler.
func (a AlgoStream[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(algoStreamJSON[T]{
		ID:          a.meta.ID,
		ProductID:   a.ProductID(),
		Sequence:    a.meta.Sequence,
		PublishedAt: a.meta.PublishedAt,
		PriceStream: a.priceStream,
	})
}
