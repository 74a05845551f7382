package strategy

import (
	"errors"
	"fmt"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/indicator"
)

// Factory errors
var (
	ErrUnknownStrategyKind = errors.New("unknown strategy kind")
	ErrMissingLevels       = errors.New("ping_pong requires buy and sell price")
	ErrMissingIndicators   = errors.New("manual requires at least one indicator")
)

// Config carries the shared settings strategies are built from.
type Config struct {
	Indicators      indicator.Params
	ManualAgreement float64
	RegimeLookback  int
}

// FromKind creates the Strategy for a trade's strategy kind.
func FromKind(kind domain.StrategyKind, cfg Config) (Strategy, error) {
	switch kind {
	case domain.StrategyPingPong:
		return NewPingPongStrategy(), nil
	case domain.StrategyManual:
		return NewManualStrategy(cfg.Indicators, cfg.ManualAgreement), nil
	case domain.StrategyAI:
		return NewAIStrategy(cfg.Indicators, cfg.RegimeLookback), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategyKind, kind)
	}
}

// Set holds one strategy per kind so the decision loop can dispatch without
// rebuilding them every tick.
type Set map[domain.StrategyKind]Strategy

// NewSet builds every strategy kind from cfg.
func NewSet(cfg Config) (Set, error) {
	set := make(Set, 3)
	for _, kind := range []domain.StrategyKind{domain.StrategyPingPong, domain.StrategyManual, domain.StrategyAI} {
		s, err := FromKind(kind, cfg)
		if err != nil {
			return nil, err
		}
		set[kind] = s
	}
	return set, nil
}

// For returns the strategy for kind.
func (s Set) For(kind domain.StrategyKind) (Strategy, error) {
	st, ok := s[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategyKind, kind)
	}
	return st, nil
}
