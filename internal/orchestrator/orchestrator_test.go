package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/storage/memory"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeEngine struct {
	mu        sync.Mutex
	ticks     map[string]int
	optimized map[string]int
	tickFn    func(id string) (*domain.Action, error)
	optErr    error
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{ticks: map[string]int{}, optimized: map[string]int{}}
}

func (f *fakeEngine) Tick(_ context.Context, id string) (*domain.Action, error) {
	f.mu.Lock()
	f.ticks[id]++
	f.mu.Unlock()
	if f.tickFn != nil {
		return f.tickFn(id)
	}
	return domain.Hold(id, domain.ReasonNoSignal, decimal.NewFromInt(1), 0), nil
}

func (f *fakeEngine) Optimize(_ context.Context, id string) (*domain.OptimizationResult, error) {
	f.mu.Lock()
	f.optimized[id]++
	f.mu.Unlock()
	if f.optErr != nil {
		return nil, f.optErr
	}
	return &domain.OptimizationResult{ResultID: "r-" + id, TradeID: id}, nil
}

func trade(id string, kind domain.StrategyKind, lastOptMs int64) *domain.TradeState {
	return &domain.TradeState{
		TradeID:              id,
		Pair:                 domain.Pair{TokenA: "XRD", TokenB: "xUSDC"},
		AccumulationToken:    "xUSDC",
		StartToken:           "xUSDC",
		StartAmount:          decimal.NewFromInt(100),
		HoldingToken:         "xUSDC",
		Amount:               decimal.NewFromInt(100),
		Status:               domain.StatusAwaitingEntry,
		StrategyKind:         kind,
		LastOptimizationAtMs: lastOptMs,
	}
}

func setup(t *testing.T, eng TradeEngine, trades ...*domain.TradeState) *Orchestrator {
	t.Helper()
	store := memory.NewTradeStateStore()
	for _, s := range trades {
		if err := store.Create(context.Background(), s); err != nil {
			t.Fatalf("create %s: %v", s.TradeID, err)
		}
	}
	o, err := New(Options{
		Engine:           eng,
		Trades:           store,
		OptimizeInterval: 7 * 24 * time.Hour,
		Concurrency:      2,
		Now:              func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o
}

func TestRunOnce_TicksEveryTrade(t *testing.T) {
	eng := newFakeEngine()
	eng.tickFn = func(id string) (*domain.Action, error) {
		a := domain.Hold(id, domain.ReasonNoSignal, decimal.NewFromInt(1), 0)
		if id == "b" {
			a.Kind = domain.ActionBuy
			a.Fill = &domain.Fill{}
		}
		return a, nil
	}
	o := setup(t, eng, trade("a", domain.StrategyPingPong, 0), trade("b", domain.StrategyManual, 0), trade("c", domain.StrategyPingPong, 0))

	res, err := o.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if res.TradesSeen != 3 || res.Executed != 1 || res.Held != 2 || len(res.Errors) != 0 {
		t.Errorf("unexpected result %+v", res)
	}
	for _, id := range []string{"a", "b", "c"} {
		if eng.ticks[id] != 1 {
			t.Errorf("trade %s ticked %d times", id, eng.ticks[id])
		}
	}
	if len(eng.optimized) != 0 {
		t.Errorf("non-AI trades must not be optimized: %v", eng.optimized)
	}
}

func TestRunOnce_OptimizeTrigger(t *testing.T) {
	eng := newFakeEngine()
	week := (7 * 24 * time.Hour).Milliseconds()
	nowMs := testNow.UnixMilli()

	paused := trade("paused", domain.StrategyAI, 0)
	paused.Status = domain.StatusPaused
	paused.ResumeStatus = domain.StatusAwaitingEntry

	o := setup(t, eng,
		trade("due", domain.StrategyAI, nowMs-week),
		trade("fresh", domain.StrategyAI, nowMs-week+1),
		trade("never", domain.StrategyAI, 0),
		paused,
	)

	res, err := o.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if res.Optimized != 2 {
		t.Errorf("expected 2 optimizations, got %d", res.Optimized)
	}
	if eng.optimized["due"] != 1 || eng.optimized["never"] != 1 {
		t.Errorf("unexpected optimizations %v", eng.optimized)
	}
	if eng.optimized["fresh"] != 0 || eng.optimized["paused"] != 0 {
		t.Errorf("fresh and paused trades must not be optimized: %v", eng.optimized)
	}
	if eng.ticks["paused"] != 1 {
		t.Error("paused trades still tick")
	}
}

func TestRunOnce_IsolatesFailures(t *testing.T) {
	eng := newFakeEngine()
	eng.tickFn = func(id string) (*domain.Action, error) {
		switch id {
		case "boom":
			panic("indicator blew up")
		case "down":
			return nil, domain.ErrExternalCollaborator
		}
		return domain.Hold(id, domain.ReasonNoSignal, decimal.NewFromInt(1), 0), nil
	}
	eng.optErr = domain.ErrInsufficientData

	o := setup(t, eng,
		trade("boom", domain.StrategyPingPong, 0),
		trade("down", domain.StrategyPingPong, 0),
		trade("ok", domain.StrategyAI, 0),
	)

	res, err := o.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if res.Held != 1 {
		t.Errorf("healthy trade should still tick, got %+v", res)
	}
	if len(res.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %v", res.Errors)
	}
	if !strings.HasPrefix(res.Errors[0], "boom: panic") || !strings.HasPrefix(res.Errors[1], "down: tick") {
		t.Errorf("unexpected errors %v", res.Errors)
	}
	if res.Optimized != 0 {
		t.Error("insufficient history is not an optimization")
	}
}

func TestRunOnce_InsufficientHistoryWaitsFullInterval(t *testing.T) {
	eng := newFakeEngine()
	eng.optErr = domain.ErrInsufficientData

	store := memory.NewTradeStateStore()
	if err := store.Create(context.Background(), trade("ai", domain.StrategyAI, 0)); err != nil {
		t.Fatalf("create: %v", err)
	}
	now := testNow
	o, err := New(Options{
		Engine:           eng,
		Trades:           store,
		OptimizeInterval: 7 * 24 * time.Hour,
		Now:              func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for run := 0; run < 3; run++ {
		if _, err := o.RunOnce(context.Background()); err != nil {
			t.Fatalf("Run %d: RunOnce: %v", run, err)
		}
		now = now.Add(DefaultTickInterval)
	}
	if eng.optimized["ai"] != 1 {
		t.Fatalf("expected one optimize call over 3 rounds, got %d", eng.optimized["ai"])
	}
	if eng.ticks["ai"] != 3 {
		t.Errorf("expected a tick every round, got %d", eng.ticks["ai"])
	}

	now = testNow.Add(7 * 24 * time.Hour)
	if _, err := o.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if eng.optimized["ai"] != 2 {
		t.Errorf("expected a retry after a full interval, got %d calls", eng.optimized["ai"])
	}
}

func TestRunOnce_PersistedAttemptDefersOptimize(t *testing.T) {
	eng := newFakeEngine()
	s := trade("ai", domain.StrategyAI, 0)
	s.LastOptimizationAttemptAtMs = testNow.Add(-time.Hour).UnixMilli()
	o := setup(t, eng, s)

	if _, err := o.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if eng.optimized["ai"] != 0 {
		t.Errorf("a recent skipped attempt must defer the next run, got %d calls", eng.optimized["ai"])
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	eng := newFakeEngine()
	o := setup(t, eng, trade("a", domain.StrategyPingPong, 0))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		eng.mu.Lock()
		n := eng.ticks["a"]
		eng.mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first round never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("expected error without engine")
	}
}
