package reporting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/idhash"
	"github.com/Akondltd/radbot/internal/metrics"
	"github.com/Akondltd/radbot/internal/storage"
)

// DefaultTopN is the number of candidates listed per trade.
const DefaultTopN = 5

const paramsIDLen = 12

// Generator produces reports from stored data.
type Generator struct {
	trades  storage.TradeStateStore
	results storage.OptimizationResultStore
	topN    int
	now     func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(trades storage.TradeStateStore, results storage.OptimizationResultStore) *Generator {
	return &Generator{
		trades:  trades,
		results: results,
		topN:    DefaultTopN,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithTopN sets how many candidates are listed per trade.
func (g *Generator) WithTopN(n int) *Generator {
	if n > 0 {
		g.topN = n
	}
	return g
}

// Generate builds a report for the given trades, or for all trades when
// tradeIDs is empty.
func (g *Generator) Generate(ctx context.Context, tradeIDs ...string) (*Report, error) {
	states, err := g.load(ctx, tradeIDs)
	if err != nil {
		return nil, err
	}

	r := &Report{GeneratedAt: g.now(), TopN: g.topN}
	for _, s := range states {
		r.Trades = append(r.Trades, tradeRow(s))

		results, err := g.results.GetByTradeID(ctx, s.TradeID)
		if err != nil {
			return nil, fmt.Errorf("load results for %s: %w", s.TradeID, err)
		}
		for _, res := range results {
			r.History = append(r.History, optimizationRow(res))
		}
		if len(results) > 0 {
			r.Candidates = append(r.Candidates, candidateRows(results[len(results)-1], g.topN)...)
		}
	}
	return r, nil
}

func (g *Generator) load(ctx context.Context, ids []string) ([]*domain.TradeState, error) {
	if len(ids) == 0 {
		states, err := g.trades.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list trades: %w", err)
		}
		return states, nil
	}

	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	out := make([]*domain.TradeState, 0, len(sorted))
	for _, id := range sorted {
		s, err := g.trades.Get(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("trade %q: %w", id, err)
		}
		if err != nil {
			return nil, fmt.Errorf("load trade %s: %w", id, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func tradeRow(s *domain.TradeState) TradeRow {
	m := metrics.SummarizeOutcomes(s.OutcomeHistory)
	return TradeRow{
		TradeID:              s.TradeID,
		Pair:                 s.Pair.String(),
		Strategy:             string(s.StrategyKind),
		Status:               string(s.Status),
		HoldingToken:         s.HoldingToken,
		Amount:               s.Amount.String(),
		StartAmount:          s.StartAmount.String(),
		RealizedProfit:       s.RealizedProfit.String(),
		PositionFraction:     s.PositionFraction,
		TradeCount:           s.TradeCount,
		WinRate:              m.WinRate,
		TotalReturn:          m.TotalReturn,
		MaxDrawdown:          m.MaxDrawdown,
		MaxConsecutiveLosses: m.MaxConsecutiveLosses,
		LastOptimizationAtMs: s.LastOptimizationAtMs,
	}
}

func optimizationRow(r *domain.OptimizationResult) OptimizationRow {
	return OptimizationRow{
		TradeID:             r.TradeID,
		ResultID:            r.ResultID,
		EvaluatedAtMs:       r.EvaluatedAtMs,
		Adopted:             r.Adopted,
		Reason:              r.Reason,
		ExecutionThreshold:  r.ParameterSet.ExecutionThreshold,
		ConfidenceThreshold: r.ParameterSet.ConfidenceThreshold,
		WeightBias:          string(r.ParameterSet.WeightBias),
		Score:               r.Score,
		WinRate:             r.WinRate,
		TotalReturn:         r.TotalReturn,
		SharpeRatio:         r.SharpeRatio,
		MaxDrawdown:         r.MaxDrawdown,
		TradeCount:          r.TradeCount,
		CandleCount:         r.CandleCount,
	}
}

func candidateRows(r *domain.OptimizationResult, n int) []CandidateRow {
	cands := append([]domain.CandidateScore(nil), r.Candidates...)
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].Rank < cands[j].Rank })
	if len(cands) > n {
		cands = cands[:n]
	}
	out := make([]CandidateRow, len(cands))
	for i, c := range cands {
		out[i] = CandidateRow{
			TradeID:             r.TradeID,
			Rank:                c.Rank,
			ParamsID:            idhash.ComputeParameterSetID(c.Parameters)[:paramsIDLen],
			ExecutionThreshold:  c.Parameters.ExecutionThreshold,
			ConfidenceThreshold: c.Parameters.ConfidenceThreshold,
			WeightBias:          string(c.Parameters.WeightBias),
			Score:               c.Score,
			WinRate:             c.WinRate,
			TotalReturn:         c.TotalReturn,
			SharpeRatio:         c.SharpeRatio,
			MaxDrawdown:         c.MaxDrawdown,
			TradeCount:          c.TradeCount,
		}
	}
	return out
}
