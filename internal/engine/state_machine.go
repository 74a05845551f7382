package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Akondltd/radbot/internal/domain"
)

// MaxOutcomeHistory bounds the outcomes kept on a trade. Kelly reads only
// the trailing window; TradeCount keeps the full count.
const MaxOutcomeHistory = 200

var hundred = decimal.NewFromInt(100)

// Transition returns the status after an executed automated action.
//
//	AWAITING_ENTRY --BUY (holding B)--> HOLDING_A
//	AWAITING_ENTRY --SELL (holding A)--> HOLDING_B
//	HOLDING_B      --BUY-->             HOLDING_A
//	HOLDING_A      --SELL-->            HOLDING_B
//
// HOLD never changes status. PAUSED is only left through Resume.
func Transition(status domain.Status, holdingA bool, kind domain.ActionKind) (domain.Status, error) {
	if kind == domain.ActionHold {
		return status, nil
	}
	switch status {
	case domain.StatusPaused:
		return status, domain.ErrPaused
	case domain.StatusAwaitingEntry, domain.StatusHoldingA, domain.StatusHoldingB:
		if status == domain.StatusHoldingA && !holdingA || status == domain.StatusHoldingB && holdingA {
			return status, fmt.Errorf("%w: status %s disagrees with holding", domain.ErrInvalidTransition, status)
		}
		switch {
		case kind == domain.ActionBuy && !holdingA:
			return domain.StatusHoldingA, nil
		case kind == domain.ActionSell && holdingA:
			return domain.StatusHoldingB, nil
		}
	}
	return status, fmt.Errorf("%w: %s from %s", domain.ErrInvalidTransition, kind, status)
}

// Pause suspends automated decisions. The current status is kept for Resume.
func Pause(state *domain.TradeState) error {
	if state.Status == domain.StatusPaused {
		return fmt.Errorf("%w: trade %s already paused", domain.ErrInvalidTransition, state.TradeID)
	}
	state.ResumeStatus = state.Status
	state.Status = domain.StatusPaused
	return nil
}

// Resume restores the status held before Pause.
func Resume(state *domain.TradeState) error {
	if state.Status != domain.StatusPaused {
		return fmt.Errorf("%w: trade %s is not paused", domain.ErrInvalidTransition, state.TradeID)
	}
	state.Status = state.ResumeStatus
	if state.Status == "" {
		state.Status = state.HoldingStatus()
	}
	state.ResumeStatus = ""
	return nil
}

// sideFor returns the action that moves the trade out of its current holding.
func sideFor(state *domain.TradeState) domain.ActionKind {
	if state.HoldingA() {
		return domain.ActionSell
	}
	return domain.ActionBuy
}

// ApplyFill commits an executed flip to state: holding and amount, reserve
// folding, entry and outcome bookkeeping, the non-compounding cap and the
// status transition. A paused trade (manual override) stays paused with its
// resume status moved to the new holding.
func ApplyFill(state *domain.TradeState, kind domain.ActionKind, fill *domain.Fill, nowMs int64) error {
	if fill == nil || !fill.AmountIn.IsPositive() || fill.AmountOut.IsNegative() {
		return fmt.Errorf("%w: unusable fill", domain.ErrExternalCollaborator)
	}
	if fill.AmountIn.GreaterThan(state.Amount) {
		return fmt.Errorf("%w: fill spent %s of %s", domain.ErrExternalCollaborator, fill.AmountIn, state.Amount)
	}

	from := state.HoldingToken
	to := state.Pair.Other(from)
	paused := state.Status == domain.StatusPaused

	if !paused {
		next, err := Transition(state.Status, state.HoldingA(), kind)
		if err != nil {
			return err
		}
		state.Status = next
	} else if kind != sideFor(state) {
		return fmt.Errorf("%w: %s while holding %s", domain.ErrInvalidTransition, kind, from)
	}

	amount := fill.AmountOut
	remaining := state.Amount.Sub(fill.AmountIn)

	// The reserve slot holds one token. Flipping into it folds it back in.
	if state.ReserveToken == to && state.ReservedAmount.IsPositive() {
		amount = amount.Add(state.ReservedAmount)
		state.ReservedAmount = decimal.Zero
		state.ReserveToken = ""
	}
	if remaining.IsPositive() {
		state.ReservedAmount = state.ReservedAmount.Add(remaining)
		state.ReserveToken = from
	}

	risky := state.RiskyToken()
	fillPrice := state.RiskyPrice(fill.Price)
	switch {
	case to == risky:
		state.EntryPrice = domain.DecimalPtr(fillPrice)
		state.EntryCost = domain.DecimalPtr(fill.AmountIn)
		state.TrailingPeakPrice = nil
		if state.TrailingStopPct != nil {
			state.TrailingPeakPrice = domain.DecimalPtr(fillPrice)
		}
	case from == risky:
		if state.EntryCost != nil && state.EntryCost.IsPositive() {
			pnl, _ := fill.AmountOut.Div(*state.EntryCost).Sub(decimal.NewFromInt(1)).Mul(hundred).Float64()
			outcome := domain.Outcome{ExitPrice: fillPrice, PnLPct: pnl, TimestampMs: nowMs}
			if state.EntryPrice != nil {
				outcome.EntryPrice = *state.EntryPrice
			}
			state.OutcomeHistory = append(state.OutcomeHistory, outcome)
			if len(state.OutcomeHistory) > MaxOutcomeHistory {
				state.OutcomeHistory = state.OutcomeHistory[len(state.OutcomeHistory)-MaxOutcomeHistory:]
			}
			state.TradeCount++
		}
		state.EntryPrice = nil
		state.EntryCost = nil
		state.TrailingPeakPrice = nil
	}
	state.StopBreached = false

	if !state.Compounding && to == state.StartToken && state.StartAmount.IsPositive() && amount.GreaterThan(state.StartAmount) {
		state.RealizedProfit = state.RealizedProfit.Add(amount.Sub(state.StartAmount))
		amount = state.StartAmount
	}

	state.HoldingToken = to
	state.Amount = amount
	state.LastFlipAtMs = nowMs
	state.UpdatedAtMs = nowMs
	if paused {
		state.ResumeStatus = state.HoldingStatus()
	}
	return nil
}
