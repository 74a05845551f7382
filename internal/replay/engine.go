package replay

import (
	"context"

	"github.com/Akondltd/radbot/internal/domain"
)

// Event is one candle close delivered during replay.
type Event struct {
	Index  int           // position in the ordered series
	Candle domain.Candle // the candle that just closed
	// History holds every candle up to and including Candle. It is shared
	// across events and must not be modified.
	History []domain.Candle
}

// ReplayEngine processes candles in deterministic order.
type ReplayEngine interface {
	// OnCandle is called for each candle in order.
	// Candles are guaranteed to have strictly increasing timestamps.
	OnCandle(ctx context.Context, event *Event) error
}
