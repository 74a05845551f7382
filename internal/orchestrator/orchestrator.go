// Package orchestrator schedules the decision loop: one tick per trade on the
// polling cadence and a periodic optimizer run per AI trade.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/logger"
	"github.com/Akondltd/radbot/internal/storage"
)

// Defaults.
const (
	DefaultTickInterval     = 10 * time.Minute
	DefaultOptimizeInterval = 7 * 24 * time.Hour
	DefaultConcurrency      = 4
)

// TradeEngine is the subset of the engine the orchestrator drives.
type TradeEngine interface {
	Tick(ctx context.Context, tradeID string) (*domain.Action, error)
	Optimize(ctx context.Context, tradeID string) (*domain.OptimizationResult, error)
}

// Options for creating Orchestrator.
type Options struct {
	Engine           TradeEngine
	Trades           storage.TradeStateStore
	TickInterval     time.Duration
	OptimizeInterval time.Duration
	Concurrency      int // trades processed in parallel
	Logger           *logger.Logger
	Now              func() time.Time
}

// Orchestrator runs rounds of ticks. Each trade is isolated: an error or
// panic in one trade is recorded and never stops the others.
type Orchestrator struct {
	engine           TradeEngine
	trades           storage.TradeStateStore
	tickInterval     time.Duration
	optimizeInterval time.Duration
	concurrency      int
	log              *logger.Logger
	now              func() time.Time

	// deferred holds the time of optimizer runs skipped for insufficient
	// history, until the store reflects the attempt.
	mu       sync.Mutex
	deferred map[string]int64
}

// New creates a new Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.Engine == nil || opts.Trades == nil {
		return nil, errors.New("orchestrator: engine and trade store are required")
	}
	o := &Orchestrator{
		engine:           opts.Engine,
		trades:           opts.Trades,
		tickInterval:     opts.TickInterval,
		optimizeInterval: opts.OptimizeInterval,
		concurrency:      opts.Concurrency,
		log:              opts.Logger,
		now:              opts.Now,
		deferred:         make(map[string]int64),
	}
	if o.tickInterval <= 0 {
		o.tickInterval = DefaultTickInterval
	}
	if o.optimizeInterval <= 0 {
		o.optimizeInterval = DefaultOptimizeInterval
	}
	if o.concurrency <= 0 {
		o.concurrency = DefaultConcurrency
	}
	if o.log == nil {
		o.log = logger.Nop()
	}
	o.log = o.log.Component("orchestrator")
	if o.now == nil {
		o.now = time.Now
	}
	return o, nil
}

// RoundResult summarizes one pass over all trades.
type RoundResult struct {
	TradesSeen int
	Executed   int
	Held       int
	Optimized  int
	Errors     []string // "trade_id: error", sorted
}

// Run executes a round immediately and then every tick interval until ctx
// is done.
func (o *Orchestrator) Run(ctx context.Context) error {
	ticker := time.NewTicker(o.tickInterval)
	defer ticker.Stop()

	for {
		res, err := o.RunOnce(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			o.log.Error("round failed", logger.Error(err))
		} else if res != nil {
			o.log.Info("round complete",
				logger.Int("trades", res.TradesSeen),
				logger.Int("executed", res.Executed),
				logger.Int("held", res.Held),
				logger.Int("optimized", res.Optimized),
				logger.Int("errors", len(res.Errors)),
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce ticks every trade once and runs the optimizer for AI trades whose
// last optimization is older than the optimize interval.
func (o *Orchestrator) RunOnce(ctx context.Context) (*RoundResult, error) {
	states, err := o.trades.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}

	result := &RoundResult{TradesSeen: len(states)}
	var mu sync.Mutex
	sem := make(chan struct{}, o.concurrency)
	var wg sync.WaitGroup

	for _, s := range states {
		select {
		case <-ctx.Done():
			wg.Wait()
			return result, ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(s *domain.TradeState) {
			defer wg.Done()
			defer func() { <-sem }()

			out := o.processTrade(ctx, s)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case out.executed:
				result.Executed++
			case out.held:
				result.Held++
			}
			if out.optimized {
				result.Optimized++
			}
			for _, e := range out.errs {
				result.Errors = append(result.Errors, s.TradeID+": "+e.Error())
			}
		}(s)
	}
	wg.Wait()

	sort.Strings(result.Errors)
	return result, nil
}

type tradeOutcome struct {
	executed  bool
	held      bool
	optimized bool
	errs      []error
}

// processTrade ticks one trade and optionally optimizes it. Panics are
// recovered into errors.
func (o *Orchestrator) processTrade(ctx context.Context, s *domain.TradeState) (out tradeOutcome) {
	log := o.log.With(logger.String("trade_id", s.TradeID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("trade panicked", logger.Any("panic", r), logger.String("stack", string(debug.Stack())))
			out.errs = append(out.errs, fmt.Errorf("panic: %v", r))
		}
	}()

	action, err := o.engine.Tick(ctx, s.TradeID)
	switch {
	case err != nil:
		log.Warn("tick skipped", logger.Error(err))
		out.errs = append(out.errs, fmt.Errorf("tick: %w", err))
	case action.Executed():
		out.executed = true
	default:
		out.held = true
	}

	if !o.optimizeDue(s) {
		return out
	}

	res, err := o.engine.Optimize(ctx, s.TradeID)
	switch {
	case errors.Is(err, domain.ErrInsufficientData):
		o.mu.Lock()
		o.deferred[s.TradeID] = o.now().UnixMilli()
		o.mu.Unlock()
		log.Info("optimization deferred: not enough history",
			logger.Duration("retry_in", o.optimizeInterval))
	case err != nil:
		log.Warn("optimization failed", logger.Error(err))
		out.errs = append(out.errs, fmt.Errorf("optimize: %w", err))
	default:
		out.optimized = true
		log.Info("optimization recorded",
			logger.String("result_id", res.ResultID),
			logger.Bool("adopted", res.Adopted),
		)
	}
	return out
}

// optimizeDue reports whether an AI trade is due for re-optimization: a full
// interval must pass since the last run or skipped attempt. Paused trades are
// not optimized.
func (o *Orchestrator) optimizeDue(s *domain.TradeState) bool {
	if s.StrategyKind != domain.StrategyAI || s.Status == domain.StatusPaused {
		return false
	}
	last := max(s.LastOptimizationAtMs, s.LastOptimizationAttemptAtMs)
	o.mu.Lock()
	last = max(last, o.deferred[s.TradeID])
	o.mu.Unlock()
	return o.now().UnixMilli()-last >= o.optimizeInterval.Milliseconds()
}
