// Package engine runs the per-trade decision loop: candles in, one sized and
// risk-checked action out, committed to the trade state only on success.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/logger"
	"github.com/Akondltd/radbot/internal/optimizer"
	"github.com/Akondltd/radbot/internal/risk"
	"github.com/Akondltd/radbot/internal/sizing"
	"github.com/Akondltd/radbot/internal/storage"
	"github.com/Akondltd/radbot/internal/strategy"
)

// Defaults.
const (
	DefaultWindowSize      = 150
	DefaultMinFlipInterval = 60 * time.Minute
	DefaultHistoryWindow   = optimizer.DefaultHistoryDays * 24 * time.Hour
)

// Config holds decision loop settings.
type Config struct {
	WindowSize      int
	MinFlipInterval time.Duration // AI trades only
	HistoryWindow   time.Duration // optimizer input
	MaxImpactPct    float64
	Kelly           sizing.KellyConfig
	Strategy        strategy.Config
	Optimizer       optimizer.Config
}

// DefaultConfig returns the standard decision loop configuration.
func DefaultConfig() Config {
	return Config{
		WindowSize:      DefaultWindowSize,
		MinFlipInterval: DefaultMinFlipInterval,
		HistoryWindow:   DefaultHistoryWindow,
		MaxImpactPct:    risk.DefaultMaxImpactPct,
		Kelly:           sizing.DefaultKellyConfig(),
		Strategy: strategy.Config{
			Indicators:      optimizer.DefaultConfig().Backtest.Indicators,
			ManualAgreement: 0.5,
			RegimeLookback:  optimizer.DefaultConfig().Backtest.RegimeLookback,
		},
		Optimizer: optimizer.DefaultConfig(),
	}
}

// Deps are the collaborators the engine drives.
type Deps struct {
	Trades    storage.TradeStateStore
	Results   storage.OptimizationResultStore
	Candles   CandleSource
	Impact    ImpactEstimator
	Executor  Executor
	Publisher EventPublisher
	Locker    Locker
	Logger    *logger.Logger
	Now       func() time.Time
	NewID     func() string // client order IDs
}

// Engine owns the decision loop and the optimizer entry point.
type Engine struct {
	cfg        Config
	deps       Deps
	strategies strategy.Set
	guard      risk.ImpactGuard
	optimizer  *optimizer.Optimizer
	log        *logger.Logger
}

// New creates an engine.
func New(deps Deps, cfg Config) (*Engine, error) {
	if deps.Trades == nil || deps.Candles == nil || deps.Impact == nil || deps.Executor == nil {
		return nil, errors.New("engine: trades, candles, impact and executor are required")
	}
	if deps.Publisher == nil {
		deps.Publisher = NopPublisher{}
	}
	if deps.Locker == nil {
		deps.Locker = NewKeyedLocker()
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = newClientOrderID
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = DefaultWindowSize
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = DefaultHistoryWindow
	}
	cfg.Optimizer.MinFlipIntervalMs = cfg.MinFlipInterval.Milliseconds()

	strategies, err := strategy.NewSet(cfg.Strategy)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	opt, err := optimizer.New(cfg.Optimizer)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	return &Engine{
		cfg:        cfg,
		deps:       deps,
		strategies: strategies,
		guard:      risk.NewImpactGuard(cfg.MaxImpactPct),
		optimizer:  opt,
		log:        deps.Logger.Component("engine"),
	}, nil
}

// collaboratorError marks err as an external failure.
func collaboratorError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrExternalCollaborator, op, err)
}
