// Package ensemble turns indicator readings into a single BUY/SELL/HOLD
// decision. Both modes are pure functions of their inputs.
package ensemble

import (
	"fmt"
	"math"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/indicator"
	"github.com/Akondltd/radbot/internal/regime"
)

// Defaults.
const (
	DefaultAgreement           = 0.5
	DefaultConfidenceThreshold = 0.7
)

// Decision is the aggregated ensemble output.
type Decision struct {
	Vote       domain.Vote
	Composite  float64 // AI mode: weighted mean score
	Confidence float64 // AI mode: agreement of scores; manual: winning share
	Threshold  float64 // execution threshold applied
	BuyVotes   int
	SellVotes  int
	HoldVotes  int
	Gated      bool // ADX gate forced HOLD
	Trace      []string
}

// ManualConfig configures majority voting.
type ManualConfig struct {
	Agreement    float64 // share of indicators that must agree
	ADXThreshold float64
}

// Manual applies the ADX gate and then an unweighted majority vote over the
// configured indicators. Insufficient readings count as HOLD. A side wins only
// with at least Agreement of all votes and strictly more votes than the other
// side, so an even BUY/SELL split holds.
func Manual(readings []domain.IndicatorReading, adx domain.IndicatorReading, cfg ManualConfig) Decision {
	if cfg.Agreement <= 0 {
		cfg.Agreement = DefaultAgreement
	}
	d := Decision{Vote: domain.VoteHold, Threshold: cfg.Agreement}

	if !indicator.Trending(adx, cfg.ADXThreshold) {
		d.Gated = true
		d.Trace = append(d.Trace, fmt.Sprintf("adx %.2f below %.2f: hold", adx.Values[0], cfg.ADXThreshold))
		return d
	}

	for _, r := range readings {
		switch r.Vote {
		case domain.VoteBuy:
			d.BuyVotes++
		case domain.VoteSell:
			d.SellVotes++
		default:
			d.HoldVotes++
		}
		d.Trace = append(d.Trace, fmt.Sprintf("%s %s (score %.3f)", r.Name, r.Vote, r.Score))
	}

	n := float64(len(readings))
	if n == 0 {
		return d
	}
	need := cfg.Agreement * n
	switch {
	case float64(d.BuyVotes) >= need && d.BuyVotes > d.SellVotes:
		d.Vote = domain.VoteBuy
		d.Confidence = float64(d.BuyVotes) / n
	case float64(d.SellVotes) >= need && d.SellVotes > d.BuyVotes:
		d.Vote = domain.VoteSell
		d.Confidence = float64(d.SellVotes) / n
	}
	d.Trace = append(d.Trace, fmt.Sprintf("votes buy=%d sell=%d hold=%d -> %s", d.BuyVotes, d.SellVotes, d.HoldVotes, d.Vote))
	return d
}

// AI aggregates directional readings with regime weights multiplied by the
// parameter set's bias weights. It acts only when the composite score reaches
// the execution threshold and the readings agree enough (confidence is one
// minus half the population σ of scores). Without an active parameter set the
// execution threshold follows the regime.
func AI(readings []domain.IndicatorReading, rs domain.RegimeState, params domain.ParameterSet) Decision {
	execution := params.ExecutionThreshold
	confidenceMin := params.ConfidenceThreshold
	if params.IsZero() {
		execution = regime.DefaultExecutionThreshold(rs.Label)
		confidenceMin = DefaultConfidenceThreshold
	}

	d := Decision{Vote: domain.VoteHold, Threshold: execution}
	d.Trace = append(d.Trace, fmt.Sprintf("regime %s", rs.Label))

	var weighted, totalWeight float64
	scores := make([]float64, 0, len(readings))
	for _, r := range readings {
		if !indicator.IsDirectional(r.Name) {
			continue
		}
		w := rs.Weights[r.Name] * params.Weight(r.Name)
		if w <= 0 {
			continue
		}
		score := 0.0
		if r.Sufficient {
			score = r.Score
		}
		weighted += w * score
		totalWeight += w
		scores = append(scores, score)
		d.Trace = append(d.Trace, fmt.Sprintf("%s score %.3f weight %.4f", r.Name, score, w))
	}
	if totalWeight == 0 {
		return d
	}

	d.Composite = weighted / totalWeight
	d.Confidence = 1 - math.Min(populationStd(scores)/2, 1)

	switch {
	case d.Composite >= execution && d.Confidence >= confidenceMin:
		d.Vote = domain.VoteBuy
	case d.Composite <= -execution && d.Confidence >= confidenceMin:
		d.Vote = domain.VoteSell
	}
	d.Trace = append(d.Trace, fmt.Sprintf("composite %.4f confidence %.4f threshold %.2f/%.2f -> %s",
		d.Composite, d.Confidence, execution, confidenceMin, d.Vote))
	return d
}

func populationStd(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var m float64
	for _, v := range values {
		m += v
	}
	m /= float64(len(values))
	var ss float64
	for _, v := range values {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(values)))
}
