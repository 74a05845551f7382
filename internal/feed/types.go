// Package feed streams live prices, aggregates them into fixed-granularity
// candles and serves candle windows to the decision loop.
package feed

import (
	"fmt"
	"strings"

	"github.com/Akondltd/radbot/internal/domain"
)

// PriceUpdate is one streamed trade print for a pair.
type PriceUpdate struct {
	Pair        domain.Pair
	Price       float64 // TokenB per TokenA
	Volume      float64
	TimestampMs int64
}

// subscribeRequest is sent after every (re)connect.
type subscribeRequest struct {
	Op    string   `json:"op"`
	ID    uint64   `json:"id"`
	Pairs []string `json:"pairs"`
}

// wsMessage is the envelope of every server frame.
type wsMessage struct {
	Type        string  `json:"type"` // "price", "subscribed", "error"
	ID          uint64  `json:"id,omitempty"`
	Pair        string  `json:"pair,omitempty"`
	Price       float64 `json:"price,omitempty"`
	Volume      float64 `json:"volume,omitempty"`
	TimestampMs int64   `json:"timestamp_ms,omitempty"`
	Message     string  `json:"message,omitempty"`
}

// ParsePair parses "A/B".
func ParsePair(s string) (domain.Pair, error) {
	a, b, ok := strings.Cut(s, "/")
	if !ok || a == "" || b == "" || strings.Contains(b, "/") {
		return domain.Pair{}, fmt.Errorf("%w: pair %q", domain.ErrInvalidParameter, s)
	}
	return domain.Pair{TokenA: a, TokenB: b}, nil
}
