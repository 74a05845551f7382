package quote

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/engine"
)

// Static reports a fixed impact for every quote. Used for paper trading
// and backtests without a quote service.
type Static struct {
	Pct float64
}

var _ engine.ImpactEstimator = Static{}

// Estimate implements engine.ImpactEstimator.
func (s Static) Estimate(_ context.Context, pair domain.Pair, side domain.ActionKind, notional decimal.Decimal) (domain.PriceImpactEstimate, error) {
	return domain.PriceImpactEstimate{
		Pair:               pair,
		Side:               side,
		NotionalAmount:     notional,
		EstimatedImpactPct: s.Pct,
	}, nil
}
