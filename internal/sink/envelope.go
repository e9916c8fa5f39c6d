// Package sink holds downstream listeners that carry published algo streams
// out of the process: a latest-value cache, a pub/sub bus, and the log.
package sink

import (
	"encoding/json"
	"time"
)

// DefaultChannelPrefix is prepended to the product id to form the bus channel
// of a product's stream events.
const DefaultChannelPrefix = "ch:stream:"

// Envelope is the JSON message published on the bus for every stream event.
type Envelope struct {
	Type      string          `json:"type"`
	Event     string          `json:"event"`
	ProductID string          `json:"product_id"`
	Stream    json.RawMessage `json:"stream"`
	SentAt    time.Time       `json:"sent_at"`
}

// EnvelopeType is the Type of every stream Envelope.
const EnvelopeType = "algo_stream"
