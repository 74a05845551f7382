package regime

import "github.com/Akondltd/radbot/internal/domain"

// Raw per-regime weights before normalization. Trending regimes favour trend
// followers, ranging regimes favour mean reversion, high volatility favours
// the bands over trend followers. ATR is non-directional and never enters the
// AI composite; it keeps a weight so the vector covers every AI indicator.
var rawWeights = map[domain.RegimeLabel]map[domain.IndicatorName]float64{
	domain.RegimeTrendingUp:   trendingWeights,
	domain.RegimeTrendingDown: trendingWeights,
	domain.RegimeRanging: {
		domain.IndicatorRSI: 1.4, domain.IndicatorMACD: 0.7, domain.IndicatorMACross: 0.6,
		domain.IndicatorBollinger: 1.5, domain.IndicatorStochRSI: 1.3, domain.IndicatorROC: 0.7,
		domain.IndicatorIchimoku: 0.9, domain.IndicatorATR: 1.0,
	},
	domain.RegimeHighVolatility: {
		domain.IndicatorRSI: 1.1, domain.IndicatorMACD: 0.8, domain.IndicatorMACross: 0.7,
		domain.IndicatorBollinger: 1.8, domain.IndicatorStochRSI: 1.0, domain.IndicatorROC: 0.8,
		domain.IndicatorIchimoku: 0.9, domain.IndicatorATR: 1.0,
	},
}

var trendingWeights = map[domain.IndicatorName]float64{
	domain.IndicatorRSI: 0.8, domain.IndicatorMACD: 1.5, domain.IndicatorMACross: 1.4,
	domain.IndicatorBollinger: 0.7, domain.IndicatorStochRSI: 0.9, domain.IndicatorROC: 1.3,
	domain.IndicatorIchimoku: 1.1, domain.IndicatorATR: 0.6,
}

// Weights returns the normalized weight vector for a regime over the AI
// indicator set. Unknown regimes weigh every indicator equally. The result
// sums to 1.
func Weights(label domain.RegimeLabel) map[domain.IndicatorName]float64 {
	raw := rawWeights[label]
	out := make(map[domain.IndicatorName]float64, len(domain.AIIndicators))
	var total float64
	for _, name := range domain.AIIndicators {
		w := 1.0
		if raw != nil {
			w = raw[name]
		}
		out[name] = w
		total += w
	}
	for name := range out {
		out[name] /= total
	}
	return out
}

// Default execution thresholds used when no optimized parameter set is active.
var defaultThresholds = map[domain.RegimeLabel]float64{
	domain.RegimeTrendingUp:     0.55,
	domain.RegimeTrendingDown:   0.55,
	domain.RegimeRanging:        0.65,
	domain.RegimeHighVolatility: 0.70,
	domain.RegimeUnknown:        0.60,
}

// DefaultExecutionThreshold returns the regime dependent composite score an
// AI trade needs when it has no optimized parameters.
func DefaultExecutionThreshold(label domain.RegimeLabel) float64 {
	if t, ok := defaultThresholds[label]; ok {
		return t
	}
	return defaultThresholds[domain.RegimeUnknown]
}
