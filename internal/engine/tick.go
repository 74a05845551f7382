package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/logger"
	"github.com/Akondltd/radbot/internal/observability"
	"github.com/Akondltd/radbot/internal/risk"
	"github.com/Akondltd/radbot/internal/sizing"
	"github.com/Akondltd/radbot/internal/storage"
	"github.com/Akondltd/radbot/internal/strategy"
)

func newClientOrderID() string { return uuid.NewString() }

// intent is an action that still has to pass the impact guard.
type intent struct {
	kind     domain.ActionKind
	amount   decimal.Decimal
	fraction float64
	forced   bool
	reason   string
	trace    []string
}

// Tick runs one decision for a trade under its lock and persists the result.
// On error the stored state is untouched.
func (e *Engine) Tick(ctx context.Context, tradeID string) (*domain.Action, error) {
	start := time.Now()

	release, err := e.deps.Locker.Acquire(ctx, tradeID)
	if err != nil {
		return nil, fmt.Errorf("acquire lock for %s: %w", tradeID, err)
	}
	defer release()

	state, err := e.load(ctx, tradeID)
	if err != nil {
		observability.RecordTick("error", time.Since(start).Seconds())
		return nil, err
	}

	action, next, err := e.TickState(ctx, state)
	if err != nil {
		observability.RecordTick("error", time.Since(start).Seconds())
		return nil, err
	}

	if err := e.deps.Trades.Save(ctx, next); err != nil {
		observability.RecordTick("error", time.Since(start).Seconds())
		if action.Executed() {
			e.log.Error("executed action not persisted",
				logger.String("trade_id", tradeID),
				logger.String("client_order_id", action.ClientOrderID),
				logger.Error(err),
			)
		}
		return nil, collaboratorError("save trade", err)
	}

	observability.RecordTick("ok", time.Since(start).Seconds())
	observability.RecordAction(string(action.Kind), action.Reason)
	observability.UpdatePositionFraction(tradeID, next.PositionFraction)
	observability.MarkTickSuccess(e.deps.Now().Unix())

	if action.Executed() || action.Reason == domain.ReasonImpactVeto {
		e.publishAction(ctx, action)
	}
	return action, nil
}

// TickState evaluates one decision for state. The input is never modified;
// the returned state is the successor to persist. On error no successor is
// returned and the tick is skipped.
func (e *Engine) TickState(ctx context.Context, state *domain.TradeState) (*domain.Action, *domain.TradeState, error) {
	now := e.deps.Now()
	nowMs := now.UnixMilli()

	if state.Status == domain.StatusPaused {
		return domain.Hold(state.TradeID, domain.ReasonPaused, decimal.Zero, nowMs), state.Clone(), nil
	}

	candles, err := e.window(ctx, state.Pair)
	if err != nil {
		return nil, nil, err
	}
	price := decimal.NewFromFloat(candles[len(candles)-1].Close)
	if !price.IsPositive() {
		return nil, nil, fmt.Errorf("%w: non-positive price %s for %s", domain.ErrExternalCollaborator, price, state.Pair)
	}

	work := state.Clone()
	log := e.log.With(logger.String("trade_id", work.TradeID))

	var in *intent
	if work.StrategyKind != domain.StrategyPingPong {
		if trig := risk.EvaluateStops(work, work.RiskyPrice(price)); trig != nil {
			in = &intent{
				kind:     sideFor(work),
				amount:   work.Amount,
				fraction: 1,
				forced:   true,
				reason:   trig.Reason,
				trace:    []string{fmt.Sprintf("%s: risky price %s at or below %s", trig.Reason, trig.Price, trig.Level)},
			}
			if trig.Retry {
				in.trace = append(in.trace, "retrying stop vetoed earlier")
			}
			observability.RecordStopTrigger(trig.Reason)
			log.Info("stop triggered", logger.String("reason", trig.Reason), logger.Stringer("level", trig.Level))
		}
	}

	if in == nil {
		hold, proposed, err := e.propose(ctx, work, candles, price, nowMs)
		if err != nil {
			return nil, nil, err
		}
		if hold != nil {
			return hold, work, nil
		}
		in = proposed
	}

	if !in.amount.IsPositive() {
		hold := domain.Hold(work.TradeID, domain.ReasonNoSignal, price, nowMs)
		hold.Trace = append(in.trace, "nothing to trade")
		return hold, work, nil
	}

	est, err := e.estimate(ctx, work.Pair, in.kind, in.amount)
	if err != nil {
		return nil, nil, err
	}
	if ok, why := e.guard.Allow(est); !ok {
		observability.RecordImpactVeto()
		hold := domain.Hold(work.TradeID, domain.ReasonImpactVeto, price, nowMs)
		hold.ImpactPct = &est.EstimatedImpactPct
		hold.Forced = in.forced
		hold.Trace = append(in.trace, why)
		if in.forced {
			work.StopBreached = true
			log.Warn("forced exit vetoed, retrying next tick",
				logger.String("reason", in.reason),
				logger.Float64("impact_pct", est.EstimatedImpactPct),
			)
		}
		return hold, work, nil
	}

	action, err := e.execute(ctx, work, in, price, est, nowMs)
	if err != nil {
		return nil, nil, err
	}
	log.Info("action executed",
		logger.String("kind", string(action.Kind)),
		logger.String("reason", action.Reason),
		logger.Stringer("amount_in", action.Fill.AmountIn),
		logger.Stringer("amount_out", action.Fill.AmountOut),
	)
	return action, work, nil
}

// propose asks the trade's strategy for an action and sizes it. It returns
// either a HOLD action or an intent.
func (e *Engine) propose(ctx context.Context, work *domain.TradeState, candles []domain.Candle, price decimal.Decimal, nowMs int64) (*domain.Action, *intent, error) {
	strat, err := e.strategies.For(work.StrategyKind)
	if err != nil {
		return nil, nil, err
	}
	proposal, err := strat.Propose(ctx, &strategy.Input{State: work, Candles: candles, Price: price})
	if err != nil {
		return nil, nil, fmt.Errorf("propose for %s: %w", work.TradeID, err)
	}
	if proposal.Decision != nil && proposal.Regime != nil {
		observability.UpdateComposite(work.TradeID, string(proposal.Regime.Label), proposal.Decision.Composite)
	}

	if proposal.Action == domain.ActionHold {
		hold := domain.Hold(work.TradeID, proposal.Reason, price, nowMs)
		hold.Trace = proposal.Trace
		return hold, nil, nil
	}

	isAI := work.StrategyKind == domain.StrategyAI
	if isAI && work.LastFlipAtMs > 0 && nowMs-work.LastFlipAtMs < e.cfg.MinFlipInterval.Milliseconds() {
		hold := domain.Hold(work.TradeID, domain.ReasonCooldown, price, nowMs)
		hold.Trace = append(proposal.Trace, fmt.Sprintf("last flip %s ago", time.Duration(nowMs-work.LastFlipAtMs)*time.Millisecond))
		return hold, nil, nil
	}

	in := &intent{
		kind:     proposal.Action,
		amount:   work.Amount,
		fraction: 1,
		reason:   proposal.Reason,
		trace:    proposal.Trace,
	}
	if isAI && !work.HoldingRisky() {
		res, err := sizing.Kelly(work.OutcomeHistory, work.TradeCount, work.PositionFraction, e.cfg.Kelly)
		if err != nil {
			e.log.Warn("kelly sizing fell back",
				logger.String("trade_id", work.TradeID),
				logger.Float64("fraction", res.Fraction),
				logger.Error(err),
			)
		}
		work.PositionFraction = res.Fraction
		in.fraction = res.Fraction
		in.amount, _ = sizing.Split(work.Amount, res.Fraction)
		in.trace = append(in.trace, fmt.Sprintf("kelly fraction %.4f (active=%t)", res.Fraction, res.Active))
	}
	return nil, in, nil
}

// execute submits the order and applies the fill to work.
func (e *Engine) execute(ctx context.Context, work *domain.TradeState, in *intent, price decimal.Decimal, est domain.PriceImpactEstimate, nowMs int64) (*domain.Action, error) {
	order := &domain.Order{
		ClientOrderID: e.deps.NewID(),
		TradeID:       work.TradeID,
		Pair:          work.Pair,
		Side:          in.kind,
		FromToken:     work.HoldingToken,
		ToToken:       work.Pair.Other(work.HoldingToken),
		AmountIn:      in.amount,
		ExpectedPrice: price,
		MaxImpactPct:  e.guard.MaxImpactPct,
	}

	start := time.Now()
	fill, err := e.deps.Executor.Submit(ctx, order)
	observability.RecordCollaboratorCall("executor", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, collaboratorError("submit order "+order.ClientOrderID, err)
	}

	if err := ApplyFill(work, in.kind, fill, nowMs); err != nil {
		e.log.Error("fill could not be applied",
			logger.String("trade_id", work.TradeID),
			logger.String("client_order_id", order.ClientOrderID),
			logger.Error(err),
		)
		return nil, err
	}

	impact := est.EstimatedImpactPct
	return &domain.Action{
		TradeID:       work.TradeID,
		Kind:          in.kind,
		Amount:        in.amount,
		Price:         price,
		Fraction:      in.fraction,
		Forced:        in.forced,
		Reason:        in.reason,
		Trace:         in.trace,
		ImpactPct:     &impact,
		ClientOrderID: order.ClientOrderID,
		Fill:          fill,
		TimestampMs:   nowMs,
	}, nil
}

func (e *Engine) load(ctx context.Context, tradeID string) (*domain.TradeState, error) {
	state, err := e.deps.Trades.Get(ctx, tradeID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("trade %s: %w", tradeID, err)
	}
	if err != nil {
		return nil, collaboratorError("load trade", err)
	}
	return state, nil
}

func (e *Engine) window(ctx context.Context, pair domain.Pair) ([]domain.Candle, error) {
	start := time.Now()
	candles, err := e.deps.Candles.Window(ctx, pair, e.cfg.WindowSize)
	observability.RecordCollaboratorCall("candles", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, collaboratorError("candle window", err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%w: no candles for %s", domain.ErrInsufficientData, pair)
	}
	return candles, nil
}

func (e *Engine) estimate(ctx context.Context, pair domain.Pair, side domain.ActionKind, notional decimal.Decimal) (domain.PriceImpactEstimate, error) {
	start := time.Now()
	est, err := e.deps.Impact.Estimate(ctx, pair, side, notional)
	observability.RecordCollaboratorCall("impact", time.Since(start).Seconds(), err)
	if err != nil {
		return domain.PriceImpactEstimate{}, collaboratorError("impact estimate", err)
	}
	return est, nil
}

func (e *Engine) publishAction(ctx context.Context, action *domain.Action) {
	if err := e.deps.Publisher.PublishAction(ctx, action); err != nil {
		e.log.Warn("publish action failed", logger.String("trade_id", action.TradeID), logger.Error(err))
	}
}
