// Package risk evaluates stop-loss, trailing-stop and price-impact rules for
// one trade. Stop rules only apply while the trade holds its risky token.
// Prices passed in are risky-token prices in accumulation units
// (see domain.TradeState.RiskyPrice).
package risk

import (
	"github.com/shopspring/decimal"

	"github.com/Akondltd/radbot/internal/domain"
)

var one = decimal.NewFromInt(1)

// Trigger describes a forced exit.
type Trigger struct {
	Reason string          // domain.ReasonStopLoss or domain.ReasonTrailingStop
	Level  decimal.Decimal // price at or below which the stop fires
	Price  decimal.Decimal // observed risky price
	Retry  bool            // re-issued after an earlier veto
}

// StopLossLevel returns entry × (1 − pct), or false when the stop is not armed.
func StopLossLevel(state *domain.TradeState) (decimal.Decimal, bool) {
	if state.StopLossPct == nil || state.EntryPrice == nil || !state.HoldingRisky() {
		return decimal.Zero, false
	}
	return state.EntryPrice.Mul(one.Sub(*state.StopLossPct)), true
}

// CheckStopLoss fires when the risky price is at or below the stop level.
func CheckStopLoss(state *domain.TradeState, riskyPrice decimal.Decimal) *Trigger {
	level, armed := StopLossLevel(state)
	if !armed || riskyPrice.GreaterThan(level) {
		return nil
	}
	return &Trigger{Reason: domain.ReasonStopLoss, Level: level, Price: riskyPrice}
}

// UpdateTrailingPeak raises the trailing peak to the risky price. The peak
// never decreases while armed.
func UpdateTrailingPeak(state *domain.TradeState, riskyPrice decimal.Decimal) {
	if state.TrailingStopPct == nil || !state.HoldingRisky() {
		return
	}
	if state.TrailingPeakPrice == nil || riskyPrice.GreaterThan(*state.TrailingPeakPrice) {
		state.TrailingPeakPrice = domain.DecimalPtr(riskyPrice)
	}
}

// TrailingStopLevel returns peak × (1 − pct), or false when not armed.
func TrailingStopLevel(state *domain.TradeState) (decimal.Decimal, bool) {
	if state.TrailingStopPct == nil || state.TrailingPeakPrice == nil || !state.HoldingRisky() {
		return decimal.Zero, false
	}
	return state.TrailingPeakPrice.Mul(one.Sub(*state.TrailingStopPct)), true
}

// CheckTrailingStop fires when the risky price is at or below the trailing level.
func CheckTrailingStop(state *domain.TradeState, riskyPrice decimal.Decimal) *Trigger {
	level, armed := TrailingStopLevel(state)
	if !armed || riskyPrice.GreaterThan(level) {
		return nil
	}
	return &Trigger{Reason: domain.ReasonTrailingStop, Level: level, Price: riskyPrice}
}

// EvaluateStops updates the trailing peak and returns the forced exit, if any.
// A stop breach latched by an earlier veto is re-issued until the position is
// closed. Stop-loss takes precedence over the trailing stop.
func EvaluateStops(state *domain.TradeState, riskyPrice decimal.Decimal) *Trigger {
	if !state.HoldingRisky() {
		return nil
	}
	UpdateTrailingPeak(state, riskyPrice)

	if t := CheckStopLoss(state, riskyPrice); t != nil {
		return t
	}
	if t := CheckTrailingStop(state, riskyPrice); t != nil {
		return t
	}
	if state.StopBreached {
		level, _ := StopLossLevel(state)
		return &Trigger{Reason: domain.ReasonStopLoss, Level: level, Price: riskyPrice, Retry: true}
	}
	return nil
}
