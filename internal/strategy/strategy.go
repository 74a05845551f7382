package strategy

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/ensemble"
)

// Strategy proposes an action for one tick.
type Strategy interface {
	// Propose evaluates the candle window for the trade. It has no side
	// effects on the trade state. The proposal is already aligned with
	// the current holding.
	Propose(ctx context.Context, input *Input) (*Proposal, error)

	// Kind returns the strategy kind served.
	Kind() domain.StrategyKind
}

// Input holds all data needed for one proposal.
type Input struct {
	State   *domain.TradeState
	Candles []domain.Candle
	Price   decimal.Decimal // last close, B per A
}

// Proposal is a strategy's opinion before risk rules and sizing.
type Proposal struct {
	Action   domain.ActionKind
	Reason   string
	Trace    []string
	Regime   *domain.RegimeState
	Decision *ensemble.Decision
}

// align maps an ensemble vote onto the current holding: BUY needs TokenB
// to spend and SELL needs TokenA.
func align(state *domain.TradeState, vote domain.Vote) (domain.ActionKind, string) {
	switch {
	case vote == domain.VoteBuy && !state.HoldingA():
		return domain.ActionBuy, domain.ReasonSignal
	case vote == domain.VoteSell && state.HoldingA():
		return domain.ActionSell, domain.ReasonSignal
	case vote == domain.VoteHold:
		return domain.ActionHold, domain.ReasonNoSignal
	default:
		return domain.ActionHold, domain.ReasonHoldingMismatch
	}
}
