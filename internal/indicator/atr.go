package indicator

import (
	talib "github.com/markcheno/go-talib"

	"github.com/Akondltd/radbot/internal/domain"
)

// ATR measures volatility and never votes. Score is ATR as a percentage of
// price mapped so 1% reads 0 and 10% reads 1. Values: atr, atr percent.
func ATR(candles []domain.Candle, p Params) domain.IndicatorReading {
	if len(candles) < p.ATRPeriod+1 {
		return insufficient(domain.IndicatorATR)
	}
	atr := talib.Atr(domain.Highs(candles), domain.Lows(candles), domain.Closes(candles), p.ATRPeriod)
	last := len(candles) - 1
	value := atr[last]
	price := candles[last].Close

	var pct float64
	if price != 0 {
		pct = value / price * 100
	}
	score := clamp((pct-1)/9, -1, 1)
	return domain.IndicatorReading{
		Name:       domain.IndicatorATR,
		Values:     []float64{value, pct},
		Score:      score,
		Vote:       domain.VoteHold,
		Confidence: clamp(score, 0, 1),
		Sufficient: true,
	}
}
