package indicator

import (
	talib "github.com/markcheno/go-talib"

	"github.com/Akondltd/radbot/internal/domain"
)

// rsiSeries computes an exponentially smoothed RSI for every change in closes.
// The result has len(closes)-1 entries.
func rsiSeries(closes []float64, period int) []float64 {
	n := len(closes) - 1
	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i-1] = change
		} else {
			losses[i-1] = -change
		}
	}
	avgGain := ewm(gains, period)
	avgLoss := ewm(losses, period)

	out := make([]float64, n)
	for i := range out {
		switch {
		case avgLoss[i] == 0 && avgGain[i] > 0:
			out[i] = 100
		case avgLoss[i] == 0:
			out[i] = 50
		default:
			out[i] = 100 - 100/(1+avgGain[i]/avgLoss[i])
		}
	}
	return out
}

func stochRSILookback(p Params) int {
	return p.StochRSIPeriod + p.StochPeriod + p.StochK + p.StochD + 1
}

// StochRSI scores the stochastic oscillator of RSI. A %K/%D cross inside the
// oversold (overbought) zone reads +1 (-1); otherwise %K is scaled so the
// zone edges sit at ±0.5. Values: %K, %D.
func StochRSI(candles []domain.Candle, p Params) domain.IndicatorReading {
	if len(candles) < stochRSILookback(p) {
		return insufficient(domain.IndicatorStochRSI)
	}
	rsi := rsiSeries(domain.Closes(candles), p.StochRSIPeriod)

	stoch := make([]float64, len(rsi))
	for i := range rsi {
		if i < p.StochPeriod-1 {
			stoch[i] = 50
			continue
		}
		lo := lowest(rsi, i-p.StochPeriod+1, i+1)
		hi := highest(rsi, i-p.StochPeriod+1, i+1)
		if hi == lo {
			stoch[i] = 50
			continue
		}
		stoch[i] = 100 * (rsi[i] - lo) / (hi - lo)
	}

	k := smooth(stoch, p.StochK)
	d := smooth(k, p.StochD)

	last := len(k) - 1
	kNow, dNow := k[last], d[last]
	kPrev, dPrev := k[last-1], d[last-1]
	oversold, overbought := p.StochOversold, p.StochOverbought

	var score float64
	switch {
	case kPrev <= dPrev && kNow > dNow && kNow < oversold:
		score = 1
	case kPrev >= dPrev && kNow < dNow && kNow > overbought:
		score = -1
	case kNow < oversold:
		score = 0.5 + (oversold-kNow)/oversold*0.5
	case kNow > overbought:
		score = -0.5 - (kNow-overbought)/(100-overbought)*0.5
	default:
		mid := (oversold + overbought) / 2
		score = (mid - kNow) / (mid - oversold) * 0.5
	}
	return newReading(domain.IndicatorStochRSI, score, p.VoteThreshold, kNow, dNow)
}

// smooth is a simple moving average that leaves the warm-up entries at their
// raw value instead of zero.
func smooth(values []float64, period int) []float64 {
	if period <= 1 {
		return append([]float64(nil), values...)
	}
	out := talib.Sma(values, period)
	for i := 0; i < period-1 && i < len(out); i++ {
		out[i] = values[i]
	}
	return out
}
