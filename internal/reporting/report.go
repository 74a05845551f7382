// Package reporting renders trade performance and optimization history.
package reporting

import "time"

// Report is the optimization history report.
type Report struct {
	GeneratedAt time.Time
	Trades      []TradeRow        // sorted by trade_id
	History     []OptimizationRow // sorted by trade_id, evaluated_at
	TopN        int
	Candidates  []CandidateRow // latest run per AI trade, best first
}

// TradeRow summarizes one trade's live state and closed outcomes.
type TradeRow struct {
	TradeID              string
	Pair                 string
	Strategy             string
	Status               string
	HoldingToken         string
	Amount               string // decimal string
	StartAmount          string
	RealizedProfit       string
	PositionFraction     float64
	TradeCount           int
	WinRate              float64
	TotalReturn          float64
	MaxDrawdown          float64
	MaxConsecutiveLosses int
	LastOptimizationAtMs int64
}

// OptimizationRow is one recorded optimizer run.
type OptimizationRow struct {
	TradeID             string
	ResultID            string
	EvaluatedAtMs       int64
	Adopted             bool
	Reason              string
	ExecutionThreshold  float64
	ConfidenceThreshold float64
	WeightBias          string
	Score               float64
	WinRate             float64
	TotalReturn         float64
	SharpeRatio         float64
	MaxDrawdown         float64
	TradeCount          int
	CandleCount         int
}

// CandidateRow is one ranked grid candidate of a trade's latest run.
type CandidateRow struct {
	TradeID             string
	Rank                int
	ParamsID            string // short parameter set fingerprint
	ExecutionThreshold  float64
	ConfidenceThreshold float64
	WeightBias          string
	Score               float64
	WinRate             float64
	TotalReturn         float64
	SharpeRatio         float64
	MaxDrawdown         float64
	TradeCount          int
}
