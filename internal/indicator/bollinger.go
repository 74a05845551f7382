package indicator

import "github.com/Akondltd/radbot/internal/domain"

// Bollinger scores the last close inside SMA ± k·σ bands (sample σ).
// At or below the lower band reads +1, at or above the upper band -1.
// Values: upper, middle, lower.
func Bollinger(candles []domain.Candle, p Params) domain.IndicatorReading {
	if len(candles) < p.BollingerPeriod {
		return insufficient(domain.IndicatorBollinger)
	}
	closes := domain.Closes(candles)
	window := closes[len(closes)-p.BollingerPeriod:]
	mid := mean(window)
	std := sampleStd(window)
	upper := mid + p.BollingerStdDev*std
	lower := mid - p.BollingerStdDev*std
	price := closes[len(closes)-1]

	var score float64
	switch {
	case std == 0:
		score = 0
	case price <= lower:
		score = 1
	case price >= upper:
		score = -1
	default:
		score = -(price - mid) / (upper - mid)
	}
	return newReading(domain.IndicatorBollinger, score, p.VoteThreshold, upper, mid, lower)
}
