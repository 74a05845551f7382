package optimizer

import (
	"math"

	"github.com/Akondltd/radbot/internal/domain"
)

// Score weights.
const (
	winRateWeight  = 0.3
	returnWeight   = 0.3
	sharpeWeight   = 0.2
	drawdownWeight = 0.2
)

// Score combines replay metrics into one ranking value:
// 0.3·win_rate + 0.3·clamp(return, −1, 2) + 0.2·clamp(sharpe/2, −2, 2) + 0.2·(1 − drawdown).
func Score(m domain.PerformanceMetrics) float64 {
	return winRateWeight*m.WinRate +
		returnWeight*clamp(m.TotalReturn, -1, 2) +
		sharpeWeight*clamp(m.SharpeRatio/2, -2, 2) +
		drawdownWeight*(1-clamp(m.MaxDrawdown, 0, 1))
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(lo, math.Min(hi, v))
}
