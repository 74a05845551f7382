package indicator

import (
	"math"

	talib "github.com/markcheno/go-talib"

	"github.com/Akondltd/radbot/internal/domain"
)

const obvSlopeBars = 5

// OBV scores on-balance volume against its EMA signal line: a cross reads
// ±1, otherwise the averaged normalized slopes of both lines.
// Values: obv, signal.
func OBV(candles []domain.Candle, p Params) domain.IndicatorReading {
	if len(candles) < p.OBVSignal+obvSlopeBars {
		return insufficient(domain.IndicatorOBV)
	}
	obv := talib.Obv(domain.Closes(candles), domain.Volumes(candles))
	signal := ewm(obv, p.OBVSignal)
	last := len(obv) - 1

	var score float64
	switch {
	case obv[last] > signal[last] && obv[last-1] <= signal[last-1]:
		score = 1
	case obv[last] < signal[last] && obv[last-1] >= signal[last-1]:
		score = -1
	default:
		back := last - obvSlopeBars + 1
		obvSlope := (obv[last] - obv[back]) / obvSlopeBars
		sigSlope := (signal[last] - signal[back]) / obvSlopeBars
		maxSlope := math.Max(math.Max(math.Abs(obvSlope), math.Abs(sigSlope)), 1)
		score = (obvSlope/maxSlope + sigSlope/maxSlope) / 2
	}
	return newReading(domain.IndicatorOBV, score, p.VoteThreshold, obv[last], signal[last])
}
