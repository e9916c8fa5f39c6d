package domain

import "time"

// Product is anything a quote can be published for. The only capability the
// pipeline needs is a stable string identifier.
type Product interface {
	ProductID() string
}

// Bond is a fixed-income instrument identified by its CUSIP.
type Bond struct {
	CUSIP    string    `json:"cusip"`
	Ticker   string    `json:"ticker"`
	Coupon   float64   `json:"coupon"`
	Maturity time.Time `json:"maturity"`
}

// ProductID returns the CUSIP.
func (b Bond) ProductID() string { return b.CUSIP }

var _ Product = Bond{}
