package backtest

import (
	"context"
	"fmt"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/replay"
)

// Runner executes backtests over stored candles.
type Runner struct {
	replayRunner *replay.Runner
	cfg          Config
}

// NewRunner creates a new backtest runner.
func NewRunner(replayRunner *replay.Runner, cfg Config) *Runner {
	return &Runner{
		replayRunner: replayRunner,
		cfg:          cfg,
	}
}

// Run executes a backtest for a pair within time range under one parameter set.
func (r *Runner) Run(ctx context.Context, pair domain.Pair, from, to int64, params domain.ParameterSet, sim SimConfig) (*Result, error) {
	engine := NewEngine(r.cfg)

	if err := r.replayRunner.Run(ctx, pair, from, to, engine); err != nil {
		return nil, err
	}
	if len(engine.Snapshots()) == 0 {
		return nil, fmt.Errorf("%w: no candles beyond the %d-candle lookback", domain.ErrInsufficientData, r.cfg.Lookback)
	}

	result := Simulate(engine.Snapshots(), params, sim)
	return &result, nil
}

// Precompute replays already-loaded candles and returns their snapshots.
func Precompute(ctx context.Context, candles []domain.Candle, cfg Config) ([]Snapshot, error) {
	engine := NewEngine(cfg)
	if err := replay.Replay(ctx, replay.OrderCandles(candles), engine); err != nil {
		return nil, err
	}
	return engine.Snapshots(), nil
}
