// Package verification re-runs recorded optimizations and reports any field
// that does not reproduce.
package verification

import (
	"fmt"
	"math"

	"github.com/Akondltd/radbot/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-9

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string      // field name
	Expected interface{} // stored value
	Actual   interface{} // replayed value
}

// String formats the divergence for logs and CLI output.
func (d FieldDivergence) String() string {
	return fmt.Sprintf("%s: stored=%v replayed=%v", d.Field, d.Expected, d.Actual)
}

// VerificationResult contains the result of verifying one optimizer run.
type VerificationResult struct {
	ResultID    string            // verified result ID
	TradeID     string            // trade the result belongs to
	Match       bool              // true if all fields match
	Divergences []FieldDivergence // list of divergent fields
}

// VerificationReport contains results for batch verification.
type VerificationReport struct {
	TotalResults     int                  // total results verified
	MatchedResults   int                  // results that reproduced exactly
	DivergentResults int                  // results with divergences
	Results          []VerificationResult // individual results
}

// CompareResults compares a stored optimization result with a replayed one.
// Uses FloatTolerance for float64 comparisons.
func CompareResults(stored, replayed *domain.OptimizationResult) []FieldDivergence {
	var d []FieldDivergence
	add := func(field string, expected, actual interface{}) {
		d = append(d, FieldDivergence{Field: field, Expected: expected, Actual: actual})
	}

	if stored.ResultID != replayed.ResultID {
		add("ResultID", stored.ResultID, replayed.ResultID)
	}
	if stored.TradeID != replayed.TradeID {
		add("TradeID", stored.TradeID, replayed.TradeID)
	}
	if stored.CandleCount != replayed.CandleCount {
		add("CandleCount", stored.CandleCount, replayed.CandleCount)
	}
	if stored.WindowStartMs != replayed.WindowStartMs {
		add("WindowStartMs", stored.WindowStartMs, replayed.WindowStartMs)
	}
	if stored.WindowEndMs != replayed.WindowEndMs {
		add("WindowEndMs", stored.WindowEndMs, replayed.WindowEndMs)
	}
	if stored.Adopted != replayed.Adopted {
		add("Adopted", stored.Adopted, replayed.Adopted)
	}
	if stored.Reason != replayed.Reason {
		add("Reason", stored.Reason, replayed.Reason)
	}

	d = append(d, compareParameters("ParameterSet", stored.ParameterSet, replayed.ParameterSet)...)

	floats := []struct {
		field            string
		stored, replayed float64
	}{
		{"WinRate", stored.WinRate, replayed.WinRate},
		{"TotalReturn", stored.TotalReturn, replayed.TotalReturn},
		{"SharpeRatio", stored.SharpeRatio, replayed.SharpeRatio},
		{"MaxDrawdown", stored.MaxDrawdown, replayed.MaxDrawdown},
		{"Score", stored.Score, replayed.Score},
	}
	for _, f := range floats {
		if !floatEquals(f.stored, f.replayed) {
			add(f.field, f.stored, f.replayed)
		}
	}
	if stored.TradeCount != replayed.TradeCount {
		add("TradeCount", stored.TradeCount, replayed.TradeCount)
	}

	if len(stored.Candidates) != len(replayed.Candidates) {
		add("Candidates", len(stored.Candidates), len(replayed.Candidates))
		return d
	}
	for i := range stored.Candidates {
		s, r := stored.Candidates[i], replayed.Candidates[i]
		prefix := fmt.Sprintf("Candidates[%d]", i)
		if s.GridIndex != r.GridIndex {
			add(prefix+".GridIndex", s.GridIndex, r.GridIndex)
		}
		if s.Rank != r.Rank {
			add(prefix+".Rank", s.Rank, r.Rank)
		}
		if !floatEquals(s.Score, r.Score) {
			add(prefix+".Score", s.Score, r.Score)
		}
		if s.TradeCount != r.TradeCount {
			add(prefix+".TradeCount", s.TradeCount, r.TradeCount)
		}
	}
	return d
}

func compareParameters(prefix string, s, r domain.ParameterSet) []FieldDivergence {
	var d []FieldDivergence
	if !floatEquals(s.ExecutionThreshold, r.ExecutionThreshold) {
		d = append(d, FieldDivergence{prefix + ".ExecutionThreshold", s.ExecutionThreshold, r.ExecutionThreshold})
	}
	if !floatEquals(s.ConfidenceThreshold, r.ConfidenceThreshold) {
		d = append(d, FieldDivergence{prefix + ".ConfidenceThreshold", s.ConfidenceThreshold, r.ConfidenceThreshold})
	}
	if s.WeightBias != r.WeightBias {
		d = append(d, FieldDivergence{prefix + ".WeightBias", s.WeightBias, r.WeightBias})
	}
	return d
}

// floatEquals compares two float64 values within FloatTolerance. NaN never
// appears in stored results, so it is treated as a mismatch.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}
