package strategy

import (
	"context"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/ensemble"
	"github.com/Akondltd/radbot/internal/indicator"
)

// ManualStrategy votes the trade's chosen indicators with equal weight behind
// an ADX trend gate.
type ManualStrategy struct {
	Params    indicator.Params
	Agreement float64
}

// NewManualStrategy creates a new ManualStrategy.
func NewManualStrategy(params indicator.Params, agreement float64) *ManualStrategy {
	return &ManualStrategy{Params: params, Agreement: agreement}
}

// Kind returns domain.StrategyManual.
func (s *ManualStrategy) Kind() domain.StrategyKind {
	return domain.StrategyManual
}

// Propose computes the selected indicators and the majority vote.
func (s *ManualStrategy) Propose(_ context.Context, input *Input) (*Proposal, error) {
	if len(input.State.Indicators) == 0 {
		return nil, ErrMissingIndicators
	}
	readings, err := indicator.ComputeAll(input.State.Indicators, input.Candles, s.Params)
	if err != nil {
		return nil, err
	}
	adx := indicator.ADX(input.Candles, s.Params)

	decision := ensemble.Manual(readings, adx, ensemble.ManualConfig{
		Agreement:    s.Agreement,
		ADXThreshold: s.Params.ADXThreshold,
	})

	action, reason := align(input.State, decision.Vote)
	if decision.Gated {
		reason = domain.ReasonADXGate
	}
	return &Proposal{
		Action:   action,
		Reason:   reason,
		Trace:    decision.Trace,
		Decision: &decision,
	}, nil
}
