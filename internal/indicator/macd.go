package indicator

import "github.com/Akondltd/radbot/internal/domain"

// macdRangeWindow is the number of candles whose price range normalizes the histogram.
const macdRangeWindow = 20

// MACD scores the histogram (MACD line minus signal line) relative to the
// recent price range. Values: macd, signal, histogram.
func MACD(candles []domain.Candle, p Params) domain.IndicatorReading {
	if len(candles) < p.MACDSlow+p.MACDSignal {
		return insufficient(domain.IndicatorMACD)
	}
	closes := domain.Closes(candles)
	fast := ewm(closes, p.MACDFast)
	slow := ewm(closes, p.MACDSlow)

	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = fast[i] - slow[i]
	}
	signal := ewm(line, p.MACDSignal)

	last := len(closes) - 1
	hist := line[last] - signal[last]

	from := len(closes) - macdRangeWindow
	if from < 0 {
		from = 0
	}
	priceRange := highest(closes, from, len(closes)) - lowest(closes, from, len(closes))

	var score float64
	if priceRange > 0 {
		score = hist / priceRange * 10
	}
	return newReading(domain.IndicatorMACD, score, p.VoteThreshold, line[last], signal[last], hist)
}
