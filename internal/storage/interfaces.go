package storage

import (
	"context"

	"github.com/Akondltd/radbot/internal/domain"
)

// TradeStateStore provides access to trade_states storage.
// Each trade is one row; the decision loop loads, mutates a clone and saves.
type TradeStateStore interface {
	// Create adds a new trade. Returns ErrDuplicateKey if trade_id exists.
	Create(ctx context.Context, s *domain.TradeState) error

	// Get retrieves a trade by ID. Returns ErrNotFound if not exists.
	Get(ctx context.Context, tradeID string) (*domain.TradeState, error)

	// Save replaces an existing trade. Returns ErrNotFound if not exists.
	Save(ctx context.Context, s *domain.TradeState) error

	// List returns all trades ordered by trade_id ASC.
	List(ctx context.Context) ([]*domain.TradeState, error)

	// Delete removes a trade. Returns ErrNotFound if not exists.
	Delete(ctx context.Context, tradeID string) error
}

// OptimizationResultStore provides access to optimization_results storage.
// Append-only: every optimizer run is recorded, adopted or not.
type OptimizationResultStore interface {
	// Insert adds a result. Returns ErrDuplicateKey if result_id exists.
	Insert(ctx context.Context, r *domain.OptimizationResult) error

	// GetByTradeID retrieves all results for a trade, ordered by evaluated_at ASC.
	GetByTradeID(ctx context.Context, tradeID string) ([]*domain.OptimizationResult, error)

	// GetLatest returns the most recent result for a trade. Returns ErrNotFound if none.
	GetLatest(ctx context.Context, tradeID string) (*domain.OptimizationResult, error)
}

// CandleStore provides access to candles storage, keyed by pair and
// candle open time.
type CandleStore interface {
	// InsertBulk adds candles for a pair. Fails entire batch on any duplicate
	// (pair, timestamp_ms).
	InsertBulk(ctx context.Context, pair domain.Pair, candles []domain.Candle) error

	// GetByTimeRange retrieves candles within [start, end] (inclusive),
	// ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, pair domain.Pair, start, end int64) ([]domain.Candle, error)

	// GetLatest retrieves the n most recent candles, ordered by timestamp ASC.
	GetLatest(ctx context.Context, pair domain.Pair, n int) ([]domain.Candle, error)
}
