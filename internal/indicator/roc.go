package indicator

import (
	"math"

	talib "github.com/markcheno/go-talib"

	"github.com/Akondltd/radbot/internal/domain"
)

// ROC scores the rate of change over the period. A zero-line cross reads
// ±0.8; otherwise the magnitude is scaled against the threshold percentage.
// Values: roc, previous roc.
func ROC(candles []domain.Candle, p Params) domain.IndicatorReading {
	if len(candles) < p.ROCPeriod+2 {
		return insufficient(domain.IndicatorROC)
	}
	roc := talib.Roc(domain.Closes(candles), p.ROCPeriod)
	last := len(roc) - 1
	now, prev := roc[last], roc[last-1]

	var score float64
	switch {
	case prev <= 0 && now > 0:
		score = 0.8
	case prev >= 0 && now < 0:
		score = -0.8
	case math.Abs(now) <= p.ROCThreshold:
		score = now / p.ROCThreshold * 0.5
	default:
		excess := math.Min((math.Abs(now)-p.ROCThreshold)/p.ROCThreshold*0.5, 0.5)
		score = math.Copysign(0.5+excess, now)
	}
	return newReading(domain.IndicatorROC, score, p.VoteThreshold, now, prev)
}
