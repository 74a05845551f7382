package indicator

import (
	talib "github.com/markcheno/go-talib"

	"github.com/Akondltd/radbot/internal/domain"
)

// MACross scores the percentage gap between the short and long simple
// moving averages: a 2% gap saturates the score. Values: short, long.
func MACross(candles []domain.Candle, p Params) domain.IndicatorReading {
	if len(candles) < p.MALong {
		return insufficient(domain.IndicatorMACross)
	}
	closes := domain.Closes(candles)
	short := talib.Sma(closes, p.MAShort)
	long := talib.Sma(closes, p.MALong)

	last := len(closes) - 1
	s, l := short[last], long[last]
	var score float64
	if l != 0 {
		diffPct := (s - l) / l * 100
		score = diffPct / 2
	}
	return newReading(domain.IndicatorMACross, score, p.VoteThreshold, s, l)
}
