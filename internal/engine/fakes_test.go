package engine

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/storage/memory"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeCandles struct {
	mu      sync.Mutex
	candles []domain.Candle
	err     error
}

func (f *fakeCandles) set(candles []domain.Candle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.candles = candles
}

func (f *fakeCandles) Window(_ context.Context, _ domain.Pair, n int) ([]domain.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if len(f.candles) > n {
		return f.candles[len(f.candles)-n:], nil
	}
	return f.candles, nil
}

func (f *fakeCandles) History(_ context.Context, _ domain.Pair, from, to int64) ([]domain.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Candle
	for _, c := range f.candles {
		if c.TimestampMs >= from && c.TimestampMs <= to {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeImpact struct {
	pct float64
	err error
}

func (f *fakeImpact) Estimate(_ context.Context, pair domain.Pair, side domain.ActionKind, notional decimal.Decimal) (domain.PriceImpactEstimate, error) {
	if f.err != nil {
		return domain.PriceImpactEstimate{}, f.err
	}
	return domain.PriceImpactEstimate{Pair: pair, Side: side, NotionalAmount: notional, EstimatedImpactPct: f.pct}, nil
}

// fakeExecutor fills at the expected price with no slippage.
type fakeExecutor struct {
	mu     sync.Mutex
	orders []*domain.Order
	err    error
}

func (f *fakeExecutor) Submit(_ context.Context, order *domain.Order) (*domain.Fill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.orders = append(f.orders, order)
	out := order.AmountIn.Mul(order.ExpectedPrice)
	if order.Side == domain.ActionBuy {
		out = order.AmountIn.Div(order.ExpectedPrice)
	}
	return &domain.Fill{
		Price:       order.ExpectedPrice,
		AmountIn:    order.AmountIn,
		AmountOut:   out,
		TimestampMs: testNow.UnixMilli(),
		TxRef:       "tx-" + order.ClientOrderID,
	}, nil
}

func (f *fakeExecutor) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

type recordingPublisher struct {
	mu      sync.Mutex
	actions []*domain.Action
	results []*domain.OptimizationResult
}

func (p *recordingPublisher) PublishAction(_ context.Context, a *domain.Action) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actions = append(p.actions, a)
	return nil
}

func (p *recordingPublisher) PublishOptimization(_ context.Context, r *domain.OptimizationResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, r)
	return nil
}

type harness struct {
	engine    *Engine
	trades    *memory.TradeStateStore
	results   *memory.OptimizationResultStore
	candles   *fakeCandles
	impact    *fakeImpact
	executor  *fakeExecutor
	publisher *recordingPublisher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		trades:    memory.NewTradeStateStore(),
		results:   memory.NewOptimizationResultStore(),
		candles:   &fakeCandles{},
		impact:    &fakeImpact{pct: 0.5},
		executor:  &fakeExecutor{},
		publisher: &recordingPublisher{},
	}
	ids := 0
	e, err := New(Deps{
		Trades:    h.trades,
		Results:   h.results,
		Candles:   h.candles,
		Impact:    h.impact,
		Executor:  h.executor,
		Publisher: h.publisher,
		Now:       func() time.Time { return testNow },
		NewID: func() string {
			ids++
			return "order-" + strconv.Itoa(ids)
		},
	}, DefaultConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	h.engine = e
	return h
}

// flat returns n candles closing at price, ending at testNow.
func flat(price float64, n int) []domain.Candle {
	out := make([]domain.Candle, n)
	end := testNow.UnixMilli()
	for i := range out {
		out[i] = domain.Candle{
			TimestampMs: end - int64(n-1-i)*600_000,
			Open:        price,
			High:        price,
			Low:         price,
			Close:       price,
			Volume:      100,
		}
	}
	return out
}

func pingPongTrade(id string) *domain.TradeState {
	return &domain.TradeState{
		TradeID:           id,
		Pair:              domain.Pair{TokenA: "XRD", TokenB: "xUSDC"},
		AccumulationToken: "xUSDC",
		HoldingToken:      "xUSDC",
		Amount:            decimal.NewFromInt(1000),
		StrategyKind:      domain.StrategyPingPong,
		BuyPrice:          domain.DecimalPtr(decimal.RequireFromString("0.030")),
		SellPrice:         domain.DecimalPtr(decimal.RequireFromString("0.040")),
	}
}

// stoppedTrade holds 25000 XRD bought at 0.04 with a 10% stop-loss.
func stoppedTrade(id string) *domain.TradeState {
	return &domain.TradeState{
		TradeID:           id,
		Pair:              domain.Pair{TokenA: "XRD", TokenB: "xUSDC"},
		AccumulationToken: "xUSDC",
		StartToken:        "xUSDC",
		StartAmount:       decimal.NewFromInt(1000),
		HoldingToken:      "XRD",
		Amount:            decimal.NewFromInt(25000),
		Status:            domain.StatusHoldingA,
		StrategyKind:      domain.StrategyManual,
		Indicators:        []domain.IndicatorName{domain.IndicatorRSI},
		StopLossPct:       domain.DecimalPtr(decimal.RequireFromString("0.10")),
		EntryPrice:        domain.DecimalPtr(decimal.RequireFromString("0.04")),
		EntryCost:         domain.DecimalPtr(decimal.NewFromInt(1000)),
	}
}
