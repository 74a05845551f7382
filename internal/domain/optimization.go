package domain

// CandidateScore is the replay outcome of one grid combination.
type CandidateScore struct {
	Rank        int          `json:"rank"`
	GridIndex   int          `json:"grid_index"`
	Parameters  ParameterSet `json:"parameters"`
	WinRate     float64      `json:"win_rate"`
	TotalReturn float64      `json:"total_return"`
	SharpeRatio float64      `json:"sharpe_ratio"`
	MaxDrawdown float64      `json:"max_drawdown"`
	Score       float64      `json:"score"`
	TradeCount  int          `json:"trade_count"`
}

// OptimizationResult is one weekly optimizer run for a trade.
// Corresponds to optimization_results table in Postgres. Append-only.
type OptimizationResult struct {
	ResultID      string           `json:"result_id"` // deterministic hash
	TradeID       string           `json:"trade_id"`
	ParameterSet  ParameterSet     `json:"parameter_set"` // best candidate
	WinRate       float64          `json:"win_rate"`
	TotalReturn   float64          `json:"total_return"`
	SharpeRatio   float64          `json:"sharpe_ratio"`
	MaxDrawdown   float64          `json:"max_drawdown"` // fraction of peak equity
	Score         float64          `json:"score"`
	TradeCount    int              `json:"trade_count"`
	Adopted       bool             `json:"adopted"`
	Reason        string           `json:"reason,omitempty"`
	CandleCount   int              `json:"candle_count"`
	WindowStartMs int64            `json:"window_start_ms"`
	WindowEndMs   int64            `json:"window_end_ms"`
	EvaluatedAtMs int64            `json:"evaluated_at_ms"`
	Candidates    []CandidateScore `json:"candidates"` // ranked, best first
}

// Adoption reasons recorded on results that were not adopted.
const (
	ReasonNoTrades         = "NO_TRADES"
	ReasonInvalidParameter = "INVALID_PARAMETER"
)

// BacktestTrade is one closed round trip inside a replay.
type BacktestTrade struct {
	EntryTimeMs int64
	ExitTimeMs  int64
	EntryPrice  float64
	ExitPrice   float64
	Return      float64 // fractional return in accumulation terms
	ExitReason  string
}

// PerformanceMetrics summarizes a replay.
type PerformanceMetrics struct {
	TradeCount           int
	Wins                 int
	Losses               int
	WinRate              float64 // [0, 1]
	TotalReturn          float64 // compounded, fractional
	MeanReturn           float64
	StddevReturn         float64
	SharpeRatio          float64
	MaxDrawdown          float64 // [0, 1]
	MaxConsecutiveLosses int
}
