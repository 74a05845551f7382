package regime

import (
	"math"

	"github.com/Akondltd/radbot/internal/domain"
)

// DefaultLookback is the number of trailing candles classified.
const DefaultLookback = 50

// Classification thresholds.
const (
	volatilityHigh   = 0.7
	trendStrong      = 0.6
	trendWeak        = 0.3
	tightnessRanging = 0.6
	volatilityScale  = 0.10 // return σ that reads as fully volatile
	rangePctScale    = 15.0 // range % that reads as fully wide
	minStatsCandles  = 10
)

// Detector classifies the trailing window of candles into a regime.
// It keeps no state between calls.
type Detector struct {
	Lookback int
}

// NewDetector creates a detector; a non-positive lookback uses the default.
func NewDetector(lookback int) *Detector {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	return &Detector{Lookback: lookback}
}

// Detect classifies the last Lookback candles. Shorter input reads unknown
// with equal weights.
func (d *Detector) Detect(candles []domain.Candle) domain.RegimeState {
	if len(candles) < d.Lookback {
		return domain.RegimeState{
			Label:   domain.RegimeUnknown,
			Weights: Weights(domain.RegimeUnknown),
		}
	}
	window := candles[len(candles)-d.Lookback:]
	closes := domain.Closes(window)

	state := domain.RegimeState{
		TrendStrength:  trendStrength(closes),
		Volatility:     volatility(closes),
		RangeTightness: rangeTightness(closes),
	}
	state.Label = classify(state.TrendStrength, state.Volatility, state.RangeTightness)
	state.Weights = Weights(state.Label)
	return state
}

func classify(trend, vol, tightness float64) domain.RegimeLabel {
	switch {
	case vol > volatilityHigh:
		return domain.RegimeHighVolatility
	case math.Abs(trend) > trendStrong:
		return directional(trend)
	case tightness > tightnessRanging:
		return domain.RegimeRanging
	case math.Abs(trend) > trendWeak:
		return directional(trend)
	default:
		return domain.RegimeRanging
	}
}

func directional(trend float64) domain.RegimeLabel {
	if trend > 0 {
		return domain.RegimeTrendingUp
	}
	return domain.RegimeTrendingDown
}

// trendStrength is tanh of the regression slope as percent of the mean
// price per candle, scaled by R².
func trendStrength(prices []float64) float64 {
	n := len(prices)
	if n < minStatsCandles {
		return 0
	}
	xMean := float64(n-1) / 2
	var yMean float64
	for _, p := range prices {
		yMean += p
	}
	yMean /= float64(n)

	var num, den float64
	for i, p := range prices {
		dx := float64(i) - xMean
		num += dx * (p - yMean)
		den += dx * dx
	}
	if den == 0 || yMean == 0 {
		return 0
	}
	slope := num / den
	intercept := yMean - slope*xMean

	var ssRes, ssTot float64
	for i, p := range prices {
		pred := slope*float64(i) + intercept
		ssRes += (p - pred) * (p - pred)
		ssTot += (p - yMean) * (p - yMean)
	}
	r2 := 0.0
	if ssTot != 0 {
		r2 = 1 - ssRes/ssTot
	}
	slopePct := slope / yMean * 100
	return clamp(math.Tanh(slopePct)*r2, -1, 1)
}

// volatility is the sample σ of simple returns scaled into [0, 1].
func volatility(prices []float64) float64 {
	returns := make([]float64, 0, len(prices))
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			continue
		}
		returns = append(returns, prices[i]/prices[i-1]-1)
	}
	if len(returns) < 2 {
		return 0
	}
	var m float64
	for _, r := range returns {
		m += r
	}
	m /= float64(len(returns))
	var ss float64
	for _, r := range returns {
		ss += (r - m) * (r - m)
	}
	std := math.Sqrt(ss / float64(len(returns)-1))
	return clamp(std/volatilityScale, 0, 1)
}

// rangeTightness combines how often price crosses the mid of its range with
// how narrow the range is.
func rangeTightness(prices []float64) float64 {
	n := len(prices)
	if n < minStatsCandles {
		return 0
	}
	hi, lo, sum := prices[0], prices[0], 0.0
	for _, p := range prices {
		hi = math.Max(hi, p)
		lo = math.Min(lo, p)
		sum += p
	}
	meanPrice := sum / float64(n)
	if meanPrice == 0 {
		return 0
	}
	rangePct := (hi - lo) / meanPrice * 100
	middle := (hi + lo) / 2

	crosses := 0
	for i := 1; i < n; i++ {
		if (prices[i] > middle) != (prices[i-1] > middle) {
			crosses++
		}
	}
	crossScore := math.Min(float64(crosses)/float64(n), 1)
	rangeScore := 1 - math.Min(rangePct/rangePctScale, 1)
	return clamp(crossScore*0.6+rangeScore*0.4, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(lo, math.Min(hi, v))
}
