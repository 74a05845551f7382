package replay

import (
	"context"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/storage"
)

// Runner loads candles from storage and replays them in deterministic order.
type Runner struct {
	candleStore storage.CandleStore
}

// NewRunner creates a new replay runner.
func NewRunner(candleStore storage.CandleStore) *Runner {
	return &Runner{
		candleStore: candleStore,
	}
}

// Load returns the ordered candles for a pair within [from, to].
func (r *Runner) Load(ctx context.Context, pair domain.Pair, from, to int64) ([]domain.Candle, error) {
	candles, err := r.candleStore.GetByTimeRange(ctx, pair, from, to)
	if err != nil {
		return nil, err
	}
	return OrderCandles(candles), nil
}

// Run loads candles for a pair within time range and replays them through the engine.
func (r *Runner) Run(ctx context.Context, pair domain.Pair, from, to int64, engine ReplayEngine) error {
	candles, err := r.Load(ctx, pair, from, to)
	if err != nil {
		return err
	}
	return Replay(ctx, candles, engine)
}

// Replay feeds already-loaded candles through the engine. Candles must be
// strictly increasing in time; use OrderCandles first for raw input.
func Replay(ctx context.Context, candles []domain.Candle, engine ReplayEngine) error {
	if err := CheckOrdering(candles); err != nil {
		return err
	}

	for i := range candles {
		if err := ctx.Err(); err != nil {
			return err
		}
		event := &Event{
			Index:   i,
			Candle:  candles[i],
			History: candles[:i+1:i+1],
		}
		if err := engine.OnCandle(ctx, event); err != nil {
			return err
		}
	}

	return nil
}
