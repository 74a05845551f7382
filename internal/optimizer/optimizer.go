// Package optimizer re-tunes an AI trade's parameter set by replaying its
// recent candle history under every grid combination.
package optimizer

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/Akondltd/radbot/internal/backtest"
	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/idhash"
	"github.com/Akondltd/radbot/internal/replay"
)

// Defaults.
const (
	DefaultMinCandles  = 100
	DefaultHistoryDays = 90
)

// Config holds optimizer settings.
type Config struct {
	MinCandles        int
	Workers           int
	MinFlipIntervalMs int64
	Backtest          backtest.Config
}

// DefaultConfig returns the default optimizer configuration.
func DefaultConfig() Config {
	return Config{
		MinCandles: DefaultMinCandles,
		Workers:    runtime.GOMAXPROCS(0),
		Backtest:   backtest.DefaultConfig(),
	}
}

// Optimizer evaluates the parameter grid for one trade at a time.
type Optimizer struct {
	cfg  Config
	grid []domain.ParameterSet
}

// New creates an optimizer.
func New(cfg Config) (*Optimizer, error) {
	if cfg.MinCandles <= 0 {
		cfg.MinCandles = DefaultMinCandles
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	grid, err := Grid()
	if err != nil {
		return nil, err
	}
	return &Optimizer{cfg: cfg, grid: grid}, nil
}

// Optimize ranks every grid combination over history and picks the best.
// It never mutates state; the caller swaps in ParameterSet when the result
// is Adopted. Identical inputs produce identical results.
func (o *Optimizer) Optimize(ctx context.Context, state *domain.TradeState, history []domain.Candle, nowMs int64) (*domain.OptimizationResult, error) {
	candles := replay.OrderCandles(history)
	if len(candles) < o.cfg.MinCandles {
		return nil, fmt.Errorf("%w: %d candles, need %d", domain.ErrInsufficientData, len(candles), o.cfg.MinCandles)
	}

	snapshots, err := backtest.Precompute(ctx, candles, o.cfg.Backtest)
	if err != nil {
		return nil, fmt.Errorf("precompute snapshots: %w", err)
	}

	sim := backtest.SimConfigFor(state, o.cfg.MinFlipIntervalMs)
	candidates, err := o.evaluate(ctx, snapshots, sim)
	if err != nil {
		return nil, err
	}
	rank(candidates)

	best := candidates[0]
	result := &domain.OptimizationResult{
		ResultID:      idhash.ComputeResultID(state.TradeID, candles[0].TimestampMs, candles[len(candles)-1].TimestampMs, len(candles), nowMs),
		TradeID:       state.TradeID,
		ParameterSet:  best.Parameters.Clone(),
		WinRate:       best.WinRate,
		TotalReturn:   best.TotalReturn,
		SharpeRatio:   best.SharpeRatio,
		MaxDrawdown:   best.MaxDrawdown,
		Score:         best.Score,
		TradeCount:    best.TradeCount,
		CandleCount:   len(candles),
		WindowStartMs: candles[0].TimestampMs,
		WindowEndMs:   candles[len(candles)-1].TimestampMs,
		EvaluatedAtMs: nowMs,
		Candidates:    candidates,
	}

	result.Adopted, result.Reason = adoption(best)
	return result, nil
}

// adoption decides whether the best candidate replaces the active set. A
// candidate that never traded says nothing about the market and is not adopted.
func adoption(best domain.CandidateScore) (bool, string) {
	switch {
	case best.TradeCount == 0:
		return false, domain.ReasonNoTrades
	case best.Parameters.Validate() != nil:
		return false, domain.ReasonInvalidParameter
	default:
		return true, ""
	}
}

// evaluate simulates every grid point. Results are written by grid index so
// worker scheduling cannot change the output.
func (o *Optimizer) evaluate(ctx context.Context, snapshots []backtest.Snapshot, sim backtest.SimConfig) ([]domain.CandidateScore, error) {
	out := make([]domain.CandidateScore, len(o.grid))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < o.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res := backtest.Simulate(snapshots, o.grid[i], sim)
				out[i] = domain.CandidateScore{
					GridIndex:   i,
					Parameters:  o.grid[i].Clone(),
					WinRate:     res.Metrics.WinRate,
					TotalReturn: res.Metrics.TotalReturn,
					SharpeRatio: res.Metrics.SharpeRatio,
					MaxDrawdown: res.Metrics.MaxDrawdown,
					Score:       Score(res.Metrics),
					TradeCount:  res.Metrics.TradeCount,
				}
			}
		}()
	}

	var err error
feed:
	for i := range o.grid {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err != nil {
		return nil, err
	}
	return out, nil
}

// rank orders candidates by score DESC, then grid index ASC, and numbers them from 1.
func rank(candidates []domain.CandidateScore) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].GridIndex < candidates[j].GridIndex
	})
	for i := range candidates {
		candidates[i].Rank = i + 1
	}
}
