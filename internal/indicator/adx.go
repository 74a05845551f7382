package indicator

import (
	talib "github.com/markcheno/go-talib"

	"github.com/Akondltd/radbot/internal/domain"
)

func adxLookback(p Params) int {
	return 2*p.ADXPeriod + 1
}

// ADX measures trend strength with Wilder smoothing. It gates the manual
// ensemble and never votes. Values: adx.
func ADX(candles []domain.Candle, p Params) domain.IndicatorReading {
	if len(candles) < adxLookback(p) {
		return insufficient(domain.IndicatorADX)
	}
	adx := talib.Adx(domain.Highs(candles), domain.Lows(candles), domain.Closes(candles), p.ADXPeriod)
	value := adx[len(adx)-1]
	return domain.IndicatorReading{
		Name:       domain.IndicatorADX,
		Values:     []float64{value},
		Vote:       domain.VoteHold,
		Confidence: clamp(value/100, 0, 1),
		Sufficient: true,
	}
}

// Trending reports whether an ADX reading clears the threshold. An
// insufficient reading does not block trading.
func Trending(r domain.IndicatorReading, threshold float64) bool {
	if !r.Sufficient || len(r.Values) == 0 {
		return true
	}
	return r.Values[0] >= threshold
}
