package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PricingSide is the side of a two-way market.
type PricingSide int

const (
	Bid PricingSide = iota
	Offer
)

// String returns "BID" or "OFFER".
func (s PricingSide) String() string {
	switch s {
	case Bid:
		return "BID"
	case Offer:
		return "OFFER"
	default:
		return fmt.Sprintf("PricingSide(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s PricingSide) MarshalText() ([]byte, error) {
	switch s {
	case Bid, Offer:
		return []byte(s.String()), nil
	default:
		return nil, fmt.Errorf("domain: invalid pricing side %d", int(s))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler. Matching is
// case-insensitive.
func (s *PricingSide) UnmarshalText(text []byte) error {
	switch strings.ToUpper(strings.TrimSpace(string(text))) {
	case "BID":
		*s = Bid
	case "OFFER":
		*s = Offer
	default:
		return fmt.Errorf("domain: unknown pricing side %q", string(text))
	}
	return nil
}

// Price is the upstream pricing output for one product: a mid price and the
// distance between bid and offer around it.
type Price[T Product] struct {
	product        T
	mid            decimal.Decimal
	bidOfferSpread decimal.Decimal
}

// NewPrice builds a Price. No validation is applied; see PricingService for the
// checks performed on ingest.
func NewPrice[T Product](product T, mid, bidOfferSpread decimal.Decimal) Price[T] {
	return Price[T]{
		product:        product,
		mid:            mid,
		bidOfferSpread: bidOfferSpread,
	}
}

// Product returns the priced product.
func (p Price[T]) Product() T { return p.product }

// Mid returns the mid price.
func (p Price[T]) Mid() decimal.Decimal { return p.mid }

// BidOfferSpread returns the full bid/offer spread.
func (p Price[T]) BidOfferSpread() decimal.Decimal { return p.bidOfferSpread }

type priceJSON[T Product] struct {
	ProductID      string          `json:"product_id"`
	Product        T               `json:"product"`
	Mid            decimal.Decimal `json:"mid"`
	BidOfferSpread decimal.Decimal `json:"spread"`
}

// MarshalJSON implements json.Marshaler.
func (p Price[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(priceJSON[T]{
		ProductID:      p.product.ProductID(),
		Product:        p.product,
		Mid:            p.mid,
		BidOfferSpread: p.bidOfferSpread,
	})
}
