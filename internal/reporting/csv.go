package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders the optimization history as CSV string.
func RenderCSV(rows []OptimizationRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("trade_id,result_id,evaluated_at_ms,adopted,reason,execution_threshold,confidence_threshold,weight_bias,")
	sb.WriteString("score,win_rate,total_return,sharpe_ratio,max_drawdown,trade_count,candle_count\n")

	// Rows
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%t,%s,%.4f,%.4f,%s,%.6f,%.6f,%.6f,%.6f,%.6f,%d,%d\n",
			r.TradeID,
			r.ResultID,
			r.EvaluatedAtMs,
			r.Adopted,
			r.Reason,
			r.ExecutionThreshold,
			r.ConfidenceThreshold,
			r.WeightBias,
			r.Score,
			r.WinRate,
			r.TotalReturn,
			r.SharpeRatio,
			r.MaxDrawdown,
			r.TradeCount,
			r.CandleCount,
		))
	}

	return sb.String()
}
