// Package feed pushes upstream prices into the pricing service.
package feed

import (
	"context"
	"fmt"
	"strings"

	"github.com/alanyoungcy/algostream/internal/domain"
	"github.com/shopspring/decimal"
)

// ProductLookup resolves a product id to its reference data.
type ProductLookup[T domain.Product] interface {
	Lookup(id string) (T, error)
}

// PriceSink accepts prices from a feed; PricingService satisfies it.
type PriceSink[T domain.Product] interface {
	OnMessage(ctx context.Context, price domain.Price[T]) error
	Remove(ctx context.Context, productID string) error
}

// ActionRemove withdraws the stored price for a product.
const ActionRemove = "remove"

// PriceMessage is the wire shape of one upstream price. Mid and spread accept
// both JSON numbers and strings; an absent or null field stays invalid.
// Action is empty for a price and ActionRemove to withdraw one, in which case
// mid and spread are ignored.
type PriceMessage struct {
	Action    string              `json:"action,omitempty"`
	ProductID string              `json:"product_id"`
	Mid       decimal.NullDecimal `json:"mid"`
	Spread    decimal.NullDecimal `json:"spread"`
}

// ToPrice resolves msg.ProductID through products and builds the Price.
func ToPrice[T domain.Product](products ProductLookup[T], msg PriceMessage) (domain.Price[T], error) {
	id := strings.TrimSpace(msg.ProductID)
	if id == "" {
		return domain.Price[T]{}, fmt.Errorf("%w: missing product_id", domain.ErrInvalidPrice)
	}
	if !msg.Mid.Valid {
		return domain.Price[T]{}, fmt.Errorf("%w: missing mid", domain.ErrInvalidPrice)
	}
	if !msg.Spread.Valid {
		return domain.Price[T]{}, fmt.Errorf("%w: missing spread", domain.ErrInvalidPrice)
	}
	product, err := products.Lookup(id)
	if err != nil {
		return domain.Price[T]{}, err
	}
	return domain.NewPrice(product, msg.Mid.Decimal, msg.Spread.Decimal), nil
}
