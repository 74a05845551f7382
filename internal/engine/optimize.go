package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/logger"
	"github.com/Akondltd/radbot/internal/observability"
)

// Optimize re-tunes an AI trade from its candle history. The grid search runs
// without the trade lock; the result is recorded either way and an adopted
// parameter set is swapped in under the lock.
func (e *Engine) Optimize(ctx context.Context, tradeID string) (*domain.OptimizationResult, error) {
	start := time.Now()

	state, err := e.load(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if state.StrategyKind != domain.StrategyAI {
		return nil, fmt.Errorf("%w: trade %s uses %s, not ai", domain.ErrInvalidParameter, tradeID, state.StrategyKind)
	}

	now := e.deps.Now()
	from := now.Add(-e.cfg.HistoryWindow).UnixMilli()
	history, err := e.deps.Candles.History(ctx, state.Pair, from, now.UnixMilli())
	observability.RecordCollaboratorCall("candles", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, collaboratorError("candle history", err)
	}

	result, err := e.OptimizeState(ctx, state, history)
	if err != nil {
		status := "error"
		if errors.Is(err, domain.ErrInsufficientData) {
			status = "insufficient_data"
		}
		observability.RecordOptimizerRun(tradeID, status, time.Since(start).Seconds(), 0)
		if status == "insufficient_data" {
			e.stampAttempt(ctx, tradeID, now.UnixMilli())
		}
		return nil, err
	}

	if e.deps.Results != nil {
		if err := e.deps.Results.Insert(ctx, result); err != nil {
			return nil, collaboratorError("record optimization result", err)
		}
	}
	if err := e.commitOptimization(ctx, result); err != nil {
		return result, err
	}

	status := "not_adopted"
	if result.Adopted {
		status = "adopted"
	}
	observability.RecordOptimizerRun(tradeID, status, time.Since(start).Seconds(), result.Score)
	e.log.Info("optimization finished",
		logger.String("trade_id", tradeID),
		logger.String("result_id", result.ResultID),
		logger.Bool("adopted", result.Adopted),
		logger.String("reason", result.Reason),
		logger.Float64("score", result.Score),
		logger.Int("trades", result.TradeCount),
		logger.Int("candles", result.CandleCount),
	)

	if err := e.deps.Publisher.PublishOptimization(ctx, result); err != nil {
		e.log.Warn("publish optimization failed", logger.String("trade_id", tradeID), logger.Error(err))
	}
	return result, nil
}

// OptimizeState evaluates the parameter grid for state over history without
// touching any store.
func (e *Engine) OptimizeState(ctx context.Context, state *domain.TradeState, history []domain.Candle) (*domain.OptimizationResult, error) {
	return e.optimizer.Optimize(ctx, state, history, e.deps.Now().UnixMilli())
}

// commitOptimization stamps the run on the trade and swaps in an adopted set.
func (e *Engine) commitOptimization(ctx context.Context, result *domain.OptimizationResult) error {
	return e.mutate(ctx, result.TradeID, func(state *domain.TradeState) error {
		state.LastOptimizationAtMs = result.EvaluatedAtMs
		state.LastOptimizationAttemptAtMs = result.EvaluatedAtMs
		if result.Adopted && state.StrategyKind == domain.StrategyAI {
			state.Parameters = result.ParameterSet.Clone()
		}
		return nil
	})
}

// stampAttempt records a skipped run so the next attempt waits a full
// optimize interval.
func (e *Engine) stampAttempt(ctx context.Context, tradeID string, nowMs int64) {
	err := e.mutate(ctx, tradeID, func(state *domain.TradeState) error {
		state.LastOptimizationAttemptAtMs = nowMs
		return nil
	})
	if err != nil {
		e.log.Warn("stamp optimization attempt failed", logger.String("trade_id", tradeID), logger.Error(err))
	}
}
