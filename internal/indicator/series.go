package indicator

import (
	"math"

	"github.com/Akondltd/radbot/internal/domain"
)

// ewm is an exponentially weighted mean with alpha = 2/(span+1), seeded with
// the first value and no bias adjustment.
func ewm(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// mean returns the arithmetic mean, 0 for an empty slice.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStd returns the sample standard deviation (n-1), 0 when n < 2.
func sampleStd(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	m := mean(values)
	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

// highest returns the max of values[from:to].
func highest(values []float64, from, to int) float64 {
	h := math.Inf(-1)
	for i := from; i < to; i++ {
		if values[i] > h {
			h = values[i]
		}
	}
	return h
}

// lowest returns the min of values[from:to].
func lowest(values []float64, from, to int) float64 {
	l := math.Inf(1)
	for i := from; i < to; i++ {
		if values[i] < l {
			l = values[i]
		}
	}
	return l
}

// clamp bounds v to [lo, hi]; NaN maps to 0.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// newReading builds a directional reading: the vote follows the score against
// the vote threshold and confidence is the score magnitude.
func newReading(name domain.IndicatorName, score, threshold float64, values ...float64) domain.IndicatorReading {
	score = clamp(score, -1, 1)
	vote := domain.VoteHold
	switch {
	case score >= threshold:
		vote = domain.VoteBuy
	case score <= -threshold:
		vote = domain.VoteSell
	}
	return domain.IndicatorReading{
		Name:       name,
		Values:     values,
		Score:      score,
		Vote:       vote,
		Confidence: math.Abs(score),
		Sufficient: true,
	}
}

// insufficient is the distinguished below-lookback result: HOLD, confidence 0.
func insufficient(name domain.IndicatorName) domain.IndicatorReading {
	return domain.IndicatorReading{
		Name:       name,
		Vote:       domain.VoteHold,
		Confidence: 0,
		Sufficient: false,
	}
}
