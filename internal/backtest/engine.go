package backtest

import (
	"context"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/indicator"
	"github.com/Akondltd/radbot/internal/regime"
	"github.com/Akondltd/radbot/internal/replay"
)

// DefaultLookback is the number of candles before the evaluated candle that
// each snapshot sees. Snapshots start once that many candles are available.
const DefaultLookback = 100

// Config controls snapshot precomputation.
type Config struct {
	Indicators     indicator.Params
	RegimeLookback int
	Lookback       int
}

// DefaultConfig returns the default snapshot configuration.
func DefaultConfig() Config {
	return Config{
		Indicators:     indicator.DefaultParams(),
		RegimeLookback: regime.DefaultLookback,
		Lookback:       DefaultLookback,
	}
}

// Snapshot holds everything the AI ensemble needs at one candle. Readings and
// regime do not depend on the parameter set, so they are computed once and
// shared by every grid combination.
type Snapshot struct {
	Index       int
	TimestampMs int64
	Close       float64
	Readings    []domain.IndicatorReading
	Regime      domain.RegimeState
}

// Engine precomputes snapshots during replay.
// Implements replay.ReplayEngine.
type Engine struct {
	cfg       Config
	detector  *regime.Detector
	snapshots []Snapshot
}

// NewEngine creates a new backtest engine.
func NewEngine(cfg Config) *Engine {
	if cfg.Lookback <= 0 {
		cfg.Lookback = DefaultLookback
	}
	return &Engine{
		cfg:      cfg,
		detector: regime.NewDetector(cfg.RegimeLookback),
	}
}

// OnCandle computes the snapshot for the candle once enough history exists.
// Implements replay.ReplayEngine.
func (e *Engine) OnCandle(_ context.Context, event *replay.Event) error {
	if event.Index < e.cfg.Lookback {
		return nil
	}

	window := event.History[event.Index-e.cfg.Lookback:]
	readings, err := indicator.ComputeAll(domain.AIIndicators, window, e.cfg.Indicators)
	if err != nil {
		return err
	}

	e.snapshots = append(e.snapshots, Snapshot{
		Index:       event.Index,
		TimestampMs: event.Candle.TimestampMs,
		Close:       event.Candle.Close,
		Readings:    readings,
		Regime:      e.detector.Detect(window),
	})
	return nil
}

// Snapshots returns the precomputed snapshots in candle order.
func (e *Engine) Snapshots() []Snapshot {
	return e.snapshots
}

// Ensure Engine implements replay.ReplayEngine
var _ replay.ReplayEngine = (*Engine)(nil)
