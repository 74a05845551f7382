package verification

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/engine"
	"github.com/Akondltd/radbot/internal/optimizer"
	"github.com/Akondltd/radbot/internal/storage"
)

// ErrTradeNotFound is returned when the trade behind a result doesn't exist.
var ErrTradeNotFound = errors.New("trade not found")

// OptimizerVerifier replays optimizer runs over the same candle window.
type OptimizerVerifier struct {
	optimizer *optimizer.Optimizer
	trades    storage.TradeStateStore
	results   storage.OptimizationResultStore
	candles   engine.CandleSource
}

// Options contains configuration for creating an OptimizerVerifier.
type Options struct {
	Optimizer *optimizer.Optimizer
	Trades    storage.TradeStateStore
	Results   storage.OptimizationResultStore
	Candles   engine.CandleSource
}

// NewOptimizerVerifier creates a new OptimizerVerifier.
func NewOptimizerVerifier(opts Options) *OptimizerVerifier {
	return &OptimizerVerifier{
		optimizer: opts.Optimizer,
		trades:    opts.Trades,
		results:   opts.Results,
		candles:   opts.Candles,
	}
}

// VerifyResult reloads the candle window of a stored result and re-runs the
// optimizer at the stored evaluation time.
func (v *OptimizerVerifier) VerifyResult(ctx context.Context, stored *domain.OptimizationResult) (*VerificationResult, error) {
	state, err := v.trades.Get(ctx, stored.TradeID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTradeNotFound, stored.TradeID)
		}
		return nil, err
	}

	history, err := v.candles.History(ctx, state.Pair, stored.WindowStartMs, stored.WindowEndMs)
	if err != nil {
		return nil, fmt.Errorf("load window for %s: %w", stored.ResultID, err)
	}

	replayed, err := v.optimizer.Optimize(ctx, state, history, stored.EvaluatedAtMs)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", stored.ResultID, err)
	}

	return newResult(stored, CompareResults(stored, replayed)), nil
}

// VerifyTrade verifies every stored result of a trade, oldest first.
func (v *OptimizerVerifier) VerifyTrade(ctx context.Context, tradeID string) (*VerificationReport, error) {
	results, err := v.results.GetByTradeID(ctx, tradeID)
	if err != nil {
		return nil, err
	}

	report := &VerificationReport{}
	for _, r := range results {
		res, err := v.VerifyResult(ctx, r)
		if err != nil {
			return nil, err
		}
		report.add(*res)
	}
	return report, nil
}

// VerifyAll verifies the results of every trade, ordered by trade ID.
func (v *OptimizerVerifier) VerifyAll(ctx context.Context) (*VerificationReport, error) {
	states, err := v.trades.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(states, func(i, j int) bool { return states[i].TradeID < states[j].TradeID })

	report := &VerificationReport{}
	for _, s := range states {
		sub, err := v.VerifyTrade(ctx, s.TradeID)
		if err != nil {
			return nil, err
		}
		for _, r := range sub.Results {
			report.add(r)
		}
	}
	return report, nil
}

// VerifyDeterminism runs the optimizer twice on identical inputs and
// compares the two results.
func (v *OptimizerVerifier) VerifyDeterminism(ctx context.Context, state *domain.TradeState, history []domain.Candle, nowMs int64) (*VerificationResult, error) {
	first, err := v.optimizer.Optimize(ctx, state, history, nowMs)
	if err != nil {
		return nil, err
	}
	second, err := v.optimizer.Optimize(ctx, state.Clone(), append([]domain.Candle(nil), history...), nowMs)
	if err != nil {
		return nil, err
	}
	return newResult(first, CompareResults(first, second)), nil
}

func newResult(stored *domain.OptimizationResult, d []FieldDivergence) *VerificationResult {
	return &VerificationResult{
		ResultID:    stored.ResultID,
		TradeID:     stored.TradeID,
		Match:       len(d) == 0,
		Divergences: d,
	}
}

func (r *VerificationReport) add(res VerificationResult) {
	r.TotalResults++
	if res.Match {
		r.MatchedResults++
	} else {
		r.DivergentResults++
	}
	r.Results = append(r.Results, res)
}
