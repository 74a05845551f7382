package engine

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/logger"
	"github.com/Akondltd/radbot/internal/observability"
)

// CreateTrade fills in lifecycle defaults, validates and stores a new trade.
func (e *Engine) CreateTrade(ctx context.Context, state *domain.TradeState) error {
	nowMs := e.deps.Now().UnixMilli()

	s := state.Clone()
	if s.Status == "" {
		s.Status = domain.StatusAwaitingEntry
	}
	if s.StartToken == "" {
		s.StartToken = s.HoldingToken
	}
	if s.StartAmount.IsZero() {
		s.StartAmount = s.Amount
	}
	if s.PositionFraction == 0 {
		s.PositionFraction = 1.0
	}
	s.CreatedAtMs = nowMs
	s.UpdatedAtMs = nowMs

	if err := s.Validate(); err != nil {
		return err
	}
	if err := e.deps.Trades.Create(ctx, s); err != nil {
		return fmt.Errorf("create trade %s: %w", s.TradeID, err)
	}
	e.log.Info("trade created",
		logger.String("trade_id", s.TradeID),
		logger.Stringer("pair", s.Pair),
		logger.String("strategy", string(s.StrategyKind)),
	)
	return nil
}

// Pause stops automated decisions for a trade from its next tick on.
func (e *Engine) Pause(ctx context.Context, tradeID string) error {
	return e.mutate(ctx, tradeID, Pause)
}

// Resume re-enables automated decisions.
func (e *Engine) Resume(ctx context.Context, tradeID string) error {
	return e.mutate(ctx, tradeID, Resume)
}

// ManualOverride flips the whole position now, in any status including
// PAUSED. It is still subject to the impact guard: a vetoed override returns
// a HOLD action and leaves the trade untouched.
func (e *Engine) ManualOverride(ctx context.Context, tradeID string, kind domain.ActionKind) (*domain.Action, error) {
	release, err := e.deps.Locker.Acquire(ctx, tradeID)
	if err != nil {
		return nil, fmt.Errorf("acquire lock for %s: %w", tradeID, err)
	}
	defer release()

	state, err := e.load(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if kind != sideFor(state) {
		return nil, fmt.Errorf("%w: cannot %s while holding %s", domain.ErrInvalidTransition, kind, state.HoldingToken)
	}

	candles, err := e.window(ctx, state.Pair)
	if err != nil {
		return nil, err
	}
	price := decimal.NewFromFloat(candles[len(candles)-1].Close)
	nowMs := e.deps.Now().UnixMilli()

	work := state.Clone()
	in := &intent{
		kind:     kind,
		amount:   work.Amount,
		fraction: 1,
		reason:   domain.ReasonManualOverride,
		trace:    []string{"manual override"},
	}

	est, err := e.estimate(ctx, work.Pair, kind, in.amount)
	if err != nil {
		return nil, err
	}
	if ok, why := e.guard.Allow(est); !ok {
		observability.RecordImpactVeto()
		hold := domain.Hold(tradeID, domain.ReasonImpactVeto, price, nowMs)
		hold.ImpactPct = &est.EstimatedImpactPct
		hold.Trace = append(in.trace, why)
		e.publishAction(ctx, hold)
		return hold, nil
	}

	action, err := e.execute(ctx, work, in, price, est, nowMs)
	if err != nil {
		return nil, err
	}
	if err := e.deps.Trades.Save(ctx, work); err != nil {
		return nil, collaboratorError("save trade", err)
	}

	observability.RecordAction(string(action.Kind), action.Reason)
	e.publishAction(ctx, action)
	return action, nil
}

// mutate applies fn to a trade under its lock and saves the result.
func (e *Engine) mutate(ctx context.Context, tradeID string, fn func(*domain.TradeState) error) error {
	release, err := e.deps.Locker.Acquire(ctx, tradeID)
	if err != nil {
		return fmt.Errorf("acquire lock for %s: %w", tradeID, err)
	}
	defer release()

	state, err := e.load(ctx, tradeID)
	if err != nil {
		return err
	}
	if err := fn(state); err != nil {
		return err
	}
	state.UpdatedAtMs = e.deps.Now().UnixMilli()
	if err := e.deps.Trades.Save(ctx, state); err != nil {
		return collaboratorError("save trade", err)
	}
	return nil
}
