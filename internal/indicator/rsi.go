package indicator

import "github.com/Akondltd/radbot/internal/domain"

// rsiValue computes RSI from simple averages of the last period changes.
// A window with no losses reads 100 (or 50 when flat).
func rsiValue(closes []float64, period int) float64 {
	n := len(closes)
	var gain, loss float64
	for i := n - period; i < n; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gain += change
		} else {
			loss -= change
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)
	if avgLoss == 0 {
		if avgGain > 0 {
			return 100
		}
		return 50
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// RSI scores the relative strength index. Readings at or beyond the
// oversold/overbought levels reach the vote threshold; the neutral band
// scales linearly through zero at its midpoint.
func RSI(candles []domain.Candle, p Params) domain.IndicatorReading {
	if len(candles) < p.RSIPeriod+1 {
		return insufficient(domain.IndicatorRSI)
	}
	rsi := rsiValue(domain.Closes(candles), p.RSIPeriod)

	t := p.VoteThreshold
	oversold, overbought := p.RSIOversold, p.RSIOverbought
	mid := (oversold + overbought) / 2

	var score float64
	switch {
	case rsi <= oversold:
		score = t + (1-t)*(oversold-rsi)/oversold
	case rsi >= overbought:
		score = -(t + (1-t)*(rsi-overbought)/(100-overbought))
	case rsi < mid:
		score = t * (mid - rsi) / (mid - oversold)
	default:
		score = -t * (rsi - mid) / (overbought - mid)
	}
	return newReading(domain.IndicatorRSI, score, t, rsi)
}
