package indicator

import (
	"math"

	"github.com/Akondltd/radbot/internal/domain"
)

// midpoint is the average of the highest high and lowest low over the
// period ending at index end (inclusive).
func midpoint(highs, lows []float64, end, period int) float64 {
	from := end - period + 1
	return (highest(highs, from, end+1) + lowest(lows, from, end+1)) / 2
}

// Ichimoku scores the Tenkan/Kijun relation (±0.3), price against the
// displaced cloud (±0.4) and the cloud colour (±0.3). Before the cloud is
// formed only the Tenkan/Kijun relation counts, at ±0.5.
// Values: tenkan, kijun, senkou A, senkou B (NaN while unformed).
func Ichimoku(candles []domain.Candle, p Params) domain.IndicatorReading {
	if len(candles) < p.IchimokuSenkouB {
		return insufficient(domain.IndicatorIchimoku)
	}
	highs, lows := domain.Highs(candles), domain.Lows(candles)
	last := len(candles) - 1
	price := candles[last].Close

	tenkan := midpoint(highs, lows, last, p.IchimokuTenkan)
	kijun := midpoint(highs, lows, last, p.IchimokuKijun)

	tk := 0.0
	switch {
	case tenkan > kijun:
		tk = 1
	case tenkan < kijun:
		tk = -1
	}

	// the cloud at the last candle was projected displacement candles ago
	src := last - p.IchimokuDisplacement
	if src < p.IchimokuSenkouB-1 {
		return newReading(domain.IndicatorIchimoku, tk*0.5, p.VoteThreshold, tenkan, kijun, math.NaN(), math.NaN())
	}

	senkouA := (midpoint(highs, lows, src, p.IchimokuTenkan) + midpoint(highs, lows, src, p.IchimokuKijun)) / 2
	senkouB := midpoint(highs, lows, src, p.IchimokuSenkouB)

	score := tk * 0.3
	top, bottom := math.Max(senkouA, senkouB), math.Min(senkouA, senkouB)
	switch {
	case price > top:
		score += 0.4
	case price < bottom:
		score -= 0.4
	}
	switch {
	case senkouA > senkouB:
		score += 0.3
	case senkouA < senkouB:
		score -= 0.3
	}
	return newReading(domain.IndicatorIchimoku, score, p.VoteThreshold, tenkan, kijun, senkouA, senkouB)
}
