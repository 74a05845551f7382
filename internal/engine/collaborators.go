package engine

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Akondltd/radbot/internal/domain"
)

// CandleSource supplies price history for a pair.
type CandleSource interface {
	// Window returns the n most recent closed candles, oldest first.
	Window(ctx context.Context, pair domain.Pair, n int) ([]domain.Candle, error)

	// History returns candles within [from, to] (ms), oldest first.
	History(ctx context.Context, pair domain.Pair, from, to int64) ([]domain.Candle, error)
}

// ImpactEstimator quotes the price impact of a prospective trade.
type ImpactEstimator interface {
	Estimate(ctx context.Context, pair domain.Pair, side domain.ActionKind, notional decimal.Decimal) (domain.PriceImpactEstimate, error)
}

// Executor submits orders. Implementations must treat Order.ClientOrderID
// as an idempotency key.
type Executor interface {
	Submit(ctx context.Context, order *domain.Order) (*domain.Fill, error)
}

// EventPublisher announces committed actions and optimizer results.
type EventPublisher interface {
	PublishAction(ctx context.Context, action *domain.Action) error
	PublishOptimization(ctx context.Context, result *domain.OptimizationResult) error
}

// Locker provides single-flight execution per trade ID.
type Locker interface {
	// Acquire blocks until the key is held or ctx is done. The returned
	// release function is safe to call more than once.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// NopPublisher discards events.
type NopPublisher struct{}

// PublishAction implements EventPublisher.
func (NopPublisher) PublishAction(context.Context, *domain.Action) error { return nil }

// PublishOptimization implements EventPublisher.
func (NopPublisher) PublishOptimization(context.Context, *domain.OptimizationResult) error {
	return nil
}

var _ EventPublisher = NopPublisher{}
