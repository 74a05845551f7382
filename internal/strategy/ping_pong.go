package strategy

import (
	"context"
	"fmt"

	"github.com/Akondltd/radbot/internal/domain"
)

// PingPongStrategy flips between fixed price levels: it sells TokenA at or
// above the sell price and buys it back at or below the buy price. It does not
// consult indicators.
type PingPongStrategy struct{}

// NewPingPongStrategy creates a new PingPongStrategy.
func NewPingPongStrategy() *PingPongStrategy {
	return &PingPongStrategy{}
}

// Kind returns domain.StrategyPingPong.
func (s *PingPongStrategy) Kind() domain.StrategyKind {
	return domain.StrategyPingPong
}

// Propose compares the last price to the trade's levels.
func (s *PingPongStrategy) Propose(_ context.Context, input *Input) (*Proposal, error) {
	state := input.State
	if state.BuyPrice == nil || state.SellPrice == nil {
		return nil, ErrMissingLevels
	}

	price := input.Price
	switch {
	case state.HoldingA() && price.GreaterThanOrEqual(*state.SellPrice):
		return &Proposal{
			Action: domain.ActionSell,
			Reason: domain.ReasonPingPong,
			Trace:  []string{fmt.Sprintf("price %s >= sell level %s", price, state.SellPrice)},
		}, nil
	case !state.HoldingA() && price.LessThanOrEqual(*state.BuyPrice):
		return &Proposal{
			Action: domain.ActionBuy,
			Reason: domain.ReasonPingPong,
			Trace:  []string{fmt.Sprintf("price %s <= buy level %s", price, state.BuyPrice)},
		}, nil
	}
	return &Proposal{
		Action: domain.ActionHold,
		Reason: domain.ReasonNoSignal,
		Trace:  []string{fmt.Sprintf("price %s inside [%s, %s]", price, state.BuyPrice, state.SellPrice)},
	}, nil
}
