package risk

import (
	"fmt"

	"github.com/Akondltd/radbot/internal/domain"
)

// DefaultMaxImpactPct is the largest tolerated price impact, in percent.
const DefaultMaxImpactPct = 5.0

// ImpactGuard vetoes trades whose estimated price impact is too large.
// It is evaluated last and overrides every other rule, forced exits included.
type ImpactGuard struct {
	MaxImpactPct float64
}

// NewImpactGuard creates a guard; a non-positive limit uses the default.
func NewImpactGuard(maxImpactPct float64) ImpactGuard {
	if maxImpactPct <= 0 {
		maxImpactPct = DefaultMaxImpactPct
	}
	return ImpactGuard{MaxImpactPct: maxImpactPct}
}

// Allow reports whether the estimate is within the limit, with a reason
// when it is not.
func (g ImpactGuard) Allow(est domain.PriceImpactEstimate) (bool, string) {
	if est.EstimatedImpactPct > g.MaxImpactPct {
		return false, fmt.Sprintf("price impact %.2f%% exceeds %.2f%%", est.EstimatedImpactPct, g.MaxImpactPct)
	}
	return true, ""
}
