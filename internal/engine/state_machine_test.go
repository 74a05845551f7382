package engine

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Akondltd/radbot/internal/domain"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name     string
		status   domain.Status
		holdingA bool
		kind     domain.ActionKind
		want     domain.Status
		wantErr  error
	}{
		{"entry buy", domain.StatusAwaitingEntry, false, domain.ActionBuy, domain.StatusHoldingA, nil},
		{"entry sell", domain.StatusAwaitingEntry, true, domain.ActionSell, domain.StatusHoldingB, nil},
		{"flip to A", domain.StatusHoldingB, false, domain.ActionBuy, domain.StatusHoldingA, nil},
		{"flip to B", domain.StatusHoldingA, true, domain.ActionSell, domain.StatusHoldingB, nil},
		{"hold keeps status", domain.StatusHoldingA, true, domain.ActionHold, domain.StatusHoldingA, nil},
		{"hold while paused", domain.StatusPaused, true, domain.ActionHold, domain.StatusPaused, nil},
		{"buy while holding A", domain.StatusHoldingA, true, domain.ActionBuy, "", domain.ErrInvalidTransition},
		{"sell while holding B", domain.StatusHoldingB, false, domain.ActionSell, "", domain.ErrInvalidTransition},
		{"status disagrees", domain.StatusHoldingA, false, domain.ActionBuy, "", domain.ErrInvalidTransition},
		{"paused", domain.StatusPaused, false, domain.ActionBuy, "", domain.ErrPaused},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Transition(tc.status, tc.holdingA, tc.kind)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestPauseResume(t *testing.T) {
	state := stoppedTrade("t")

	if err := Resume(state); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition resuming an active trade, got %v", err)
	}
	if err := Pause(state); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	if state.Status != domain.StatusPaused || state.ResumeStatus != domain.StatusHoldingA {
		t.Fatalf("unexpected paused state %s/%s", state.Status, state.ResumeStatus)
	}
	if err := Resume(state); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if state.Status != domain.StatusHoldingA || state.ResumeStatus != "" {
		t.Errorf("unexpected resumed state %s/%s", state.Status, state.ResumeStatus)
	}
}

func fill(price, in, out string) *domain.Fill {
	return &domain.Fill{
		Price:     decimal.RequireFromString(price),
		AmountIn:  decimal.RequireFromString(in),
		AmountOut: decimal.RequireFromString(out),
	}
}

func TestApplyFill_PartialEntryParksReserve(t *testing.T) {
	state := pingPongTrade("t")
	state.Status = domain.StatusHoldingB
	state.StartToken = "xUSDC"
	state.StartAmount = decimal.NewFromInt(1000)

	// Kelly sized the entry at 40%
	if err := ApplyFill(state, domain.ActionBuy, fill("0.04", "400", "10000"), 1000); err != nil {
		t.Fatalf("ApplyFill failed: %v", err)
	}
	if state.HoldingToken != "XRD" || !state.Amount.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("expected 10000 XRD, got %s %s", state.Amount, state.HoldingToken)
	}
	if state.ReserveToken != "xUSDC" || !state.ReservedAmount.Equal(decimal.NewFromInt(600)) {
		t.Errorf("expected 600 xUSDC reserved, got %s %s", state.ReservedAmount, state.ReserveToken)
	}
	if !state.EntryCost.Equal(decimal.NewFromInt(400)) {
		t.Errorf("expected entry cost 400, got %s", state.EntryCost)
	}

	// exit folds the reserve back in; 10000 × 0.05 = 500, +600 reserve = 1100, capped at 1000
	if err := ApplyFill(state, domain.ActionSell, fill("0.05", "10000", "500"), 2000); err != nil {
		t.Fatalf("ApplyFill failed: %v", err)
	}
	if !state.ReservedAmount.IsZero() || state.ReserveToken != "" {
		t.Errorf("reserve should be folded in, got %s %s", state.ReservedAmount, state.ReserveToken)
	}
	if !state.Amount.Equal(decimal.NewFromInt(1000)) || !state.RealizedProfit.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected 1000 with 100 realized, got %s and %s", state.Amount, state.RealizedProfit)
	}
	if state.TradeCount != 1 || state.OutcomeHistory[0].PnLPct != 25 {
		t.Errorf("expected one +25%% outcome, got %+v", state.OutcomeHistory)
	}
	if state.LastFlipAtMs != 2000 || state.Status != domain.StatusHoldingB {
		t.Errorf("unexpected bookkeeping: flip=%d status=%s", state.LastFlipAtMs, state.Status)
	}
}

func TestApplyFill_Compounding(t *testing.T) {
	state := pingPongTrade("t")
	state.Status = domain.StatusHoldingB
	state.StartToken = "xUSDC"
	state.StartAmount = decimal.NewFromInt(1000)
	state.Compounding = true

	_ = ApplyFill(state, domain.ActionBuy, fill("0.04", "1000", "25000"), 1)
	_ = ApplyFill(state, domain.ActionSell, fill("0.05", "25000", "1250"), 2)

	if !state.Amount.Equal(decimal.NewFromInt(1250)) || !state.RealizedProfit.IsZero() {
		t.Errorf("compounding trade should keep 1250, got %s (realized %s)", state.Amount, state.RealizedProfit)
	}
}

func TestApplyFill_RejectsBadFills(t *testing.T) {
	tests := []struct {
		name string
		kind domain.ActionKind
		fill *domain.Fill
		want error
	}{
		{"nil fill", domain.ActionBuy, nil, domain.ErrExternalCollaborator},
		{"zero in", domain.ActionBuy, fill("0.04", "0", "0"), domain.ErrExternalCollaborator},
		{"overspend", domain.ActionBuy, fill("0.04", "1001", "25025"), domain.ErrExternalCollaborator},
		{"wrong side", domain.ActionSell, fill("0.04", "1000", "40"), domain.ErrInvalidTransition},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			state := pingPongTrade("t")
			state.Status = domain.StatusHoldingB
			if err := ApplyFill(state, tc.kind, tc.fill, 1); !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestApplyFill_TrimsOutcomeHistory(t *testing.T) {
	state := stoppedTrade("t")
	state.OutcomeHistory = make([]domain.Outcome, MaxOutcomeHistory)
	state.TradeCount = MaxOutcomeHistory

	if err := ApplyFill(state, domain.ActionSell, fill("0.05", "25000", "1250"), 1); err != nil {
		t.Fatalf("ApplyFill failed: %v", err)
	}
	if len(state.OutcomeHistory) != MaxOutcomeHistory || state.TradeCount != MaxOutcomeHistory+1 {
		t.Errorf("expected %d kept and count %d, got %d and %d",
			MaxOutcomeHistory, MaxOutcomeHistory+1, len(state.OutcomeHistory), state.TradeCount)
	}
	if state.OutcomeHistory[MaxOutcomeHistory-1].PnLPct != 25 {
		t.Errorf("newest outcome should be last, got %+v", state.OutcomeHistory[MaxOutcomeHistory-1])
	}
}
