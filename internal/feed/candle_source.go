package feed

import (
	"context"
	"fmt"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/engine"
	"github.com/Akondltd/radbot/internal/storage"
)

// StoreSource serves candle windows from a candle store.
type StoreSource struct {
	store storage.CandleStore
}

var _ engine.CandleSource = (*StoreSource)(nil)

// NewStoreSource creates a store-backed candle source.
func NewStoreSource(store storage.CandleStore) *StoreSource {
	return &StoreSource{store: store}
}

// Window returns the n most recent stored candles, oldest first.
func (s *StoreSource) Window(ctx context.Context, pair domain.Pair, n int) ([]domain.Candle, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: window size %d", domain.ErrInvalidParameter, n)
	}
	candles, err := s.store.GetLatest(ctx, pair, n)
	if err != nil {
		return nil, fmt.Errorf("window %s: %w", pair, err)
	}
	return candles, nil
}

// History returns stored candles within [from, to], oldest first.
func (s *StoreSource) History(ctx context.Context, pair domain.Pair, from, to int64) ([]domain.Candle, error) {
	if from > to {
		return nil, fmt.Errorf("%w: history range %d > %d", domain.ErrInvalidParameter, from, to)
	}
	candles, err := s.store.GetByTimeRange(ctx, pair, from, to)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", pair, err)
	}
	return candles, nil
}
