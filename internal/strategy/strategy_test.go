package strategy

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/indicator"
)

// Helper to create candles from closes with a ±1% range
func makeCandles(closes []float64) []domain.Candle {
	out := make([]domain.Candle, len(closes))
	for i, c := range closes {
		out[i] = domain.Candle{
			TimestampMs: int64(i) * 600_000,
			Open:        c,
			High:        c * 1.01,
			Low:         c * 0.99,
			Close:       c,
			Volume:      100,
		}
	}
	return out
}

func ramp(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

func baseState(kind domain.StrategyKind, holding string) *domain.TradeState {
	return &domain.TradeState{
		TradeID:           "trade-1",
		Pair:              domain.Pair{TokenA: "XRD", TokenB: "xUSDC"},
		AccumulationToken: "xUSDC",
		HoldingToken:      holding,
		Amount:            decimal.NewFromInt(1000),
		StrategyKind:      kind,
		BuyPrice:          domain.DecimalPtr(decimal.RequireFromString("0.030")),
		SellPrice:         domain.DecimalPtr(decimal.RequireFromString("0.040")),
	}
}

func TestPingPong(t *testing.T) {
	s := NewPingPongStrategy()
	ctx := context.Background()

	tests := []struct {
		name    string
		holding string
		price   string
		want    domain.ActionKind
	}{
		{"holding A at sell level", "XRD", "0.040", domain.ActionSell},
		{"holding A below sell level", "XRD", "0.039", domain.ActionHold},
		{"holding B at buy level", "xUSDC", "0.030", domain.ActionBuy},
		{"holding B above buy level", "xUSDC", "0.031", domain.ActionHold},
		{"holding B above sell level", "xUSDC", "0.050", domain.ActionHold},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for run := 0; run < 3; run++ {
				p, err := s.Propose(ctx, &Input{
					State: baseState(domain.StrategyPingPong, tc.holding),
					Price: decimal.RequireFromString(tc.price),
				})
				if err != nil {
					t.Fatalf("Run %d: Propose failed: %v", run, err)
				}
				if p.Action != tc.want {
					t.Errorf("Run %d: expected %s, got %s", run, tc.want, p.Action)
				}
			}
		})
	}

	state := baseState(domain.StrategyPingPong, "XRD")
	state.BuyPrice = nil
	if _, err := s.Propose(ctx, &Input{State: state, Price: decimal.NewFromInt(1)}); !errors.Is(err, ErrMissingLevels) {
		t.Errorf("expected ErrMissingLevels, got %v", err)
	}
}

func TestManual_AlignsWithHolding(t *testing.T) {
	s := NewManualStrategy(indicator.DefaultParams(), 0.5)
	candles := makeCandles(ramp(100, 2, 80))

	// a strong rise makes MA cross and ROC vote BUY
	state := baseState(domain.StrategyManual, "xUSDC")
	state.Indicators = []domain.IndicatorName{domain.IndicatorMACross, domain.IndicatorROC}

	p, err := s.Propose(context.Background(), &Input{State: state, Candles: candles})
	if err != nil {
		t.Fatalf("Propose failed: %v", err)
	}
	if p.Action != domain.ActionBuy || p.Reason != domain.ReasonSignal {
		t.Errorf("expected BUY/SIGNAL, got %s/%s (%v)", p.Action, p.Reason, p.Trace)
	}

	// already holding A: a BUY vote cannot execute
	state.HoldingToken = "XRD"
	p, err = s.Propose(context.Background(), &Input{State: state, Candles: candles})
	if err != nil {
		t.Fatalf("Propose failed: %v", err)
	}
	if p.Action != domain.ActionHold || p.Reason != domain.ReasonHoldingMismatch {
		t.Errorf("expected HOLD/HOLDING_MISMATCH, got %s/%s", p.Action, p.Reason)
	}

	state.Indicators = nil
	if _, err := s.Propose(context.Background(), &Input{State: state, Candles: candles}); !errors.Is(err, ErrMissingIndicators) {
		t.Errorf("expected ErrMissingIndicators, got %v", err)
	}
}

func TestAI_ReportsRegime(t *testing.T) {
	s := NewAIStrategy(indicator.DefaultParams(), 50)
	state := baseState(domain.StrategyAI, "xUSDC")

	p, err := s.Propose(context.Background(), &Input{State: state, Candles: makeCandles(ramp(100, 2, 150))})
	if err != nil {
		t.Fatalf("Propose failed: %v", err)
	}
	if p.Regime == nil || p.Regime.Label != domain.RegimeTrendingUp {
		t.Errorf("expected trending_up regime, got %+v", p.Regime)
	}
	if p.Decision == nil || p.Decision.Composite <= 0 {
		t.Errorf("expected positive composite on a rising series, got %+v", p.Decision)
	}
	if p.Action == domain.ActionSell {
		t.Error("holding B can never propose SELL")
	}
}

func TestFromKind(t *testing.T) {
	cfg := Config{Indicators: indicator.DefaultParams(), ManualAgreement: 0.5, RegimeLookback: 50}

	set, err := NewSet(cfg)
	if err != nil {
		t.Fatalf("NewSet failed: %v", err)
	}
	for _, kind := range []domain.StrategyKind{domain.StrategyPingPong, domain.StrategyManual, domain.StrategyAI} {
		s, err := set.For(kind)
		if err != nil {
			t.Fatalf("For(%s): %v", kind, err)
		}
		if s.Kind() != kind {
			t.Errorf("expected kind %s, got %s", kind, s.Kind())
		}
	}

	if _, err := FromKind("grid", cfg); !errors.Is(err, ErrUnknownStrategyKind) {
		t.Errorf("expected ErrUnknownStrategyKind, got %v", err)
	}
}
