package strategy

import (
	"context"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/ensemble"
	"github.com/Akondltd/radbot/internal/indicator"
	"github.com/Akondltd/radbot/internal/regime"
)

// AIStrategy weighs the full indicator set by market regime and the trade's
// active parameter set.
type AIStrategy struct {
	Params   indicator.Params
	Detector *regime.Detector
}

// NewAIStrategy creates a new AIStrategy.
func NewAIStrategy(params indicator.Params, regimeLookback int) *AIStrategy {
	return &AIStrategy{
		Params:   params,
		Detector: regime.NewDetector(regimeLookback),
	}
}

// Kind returns domain.StrategyAI.
func (s *AIStrategy) Kind() domain.StrategyKind {
	return domain.StrategyAI
}

// Propose detects the regime and runs the weighted ensemble.
func (s *AIStrategy) Propose(_ context.Context, input *Input) (*Proposal, error) {
	rs := s.Detector.Detect(input.Candles)
	readings, err := indicator.ComputeAll(domain.AIIndicators, input.Candles, s.Params)
	if err != nil {
		return nil, err
	}
	decision := ensemble.AI(readings, rs, input.State.Parameters)

	action, reason := align(input.State, decision.Vote)
	return &Proposal{
		Action:   action,
		Reason:   reason,
		Trace:    decision.Trace,
		Regime:   &rs,
		Decision: &decision,
	}, nil
}
