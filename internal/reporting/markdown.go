package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Trade & Optimization Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Trades: %d | Optimizer runs: %d\n\n", len(r.Trades), len(r.History)))

	// Trades
	sb.WriteString("## Trades\n\n")
	if len(r.Trades) > 0 {
		sb.WriteString("| Trade | Pair | Strategy | Status | Holding | Amount | Start | Realized | Kelly | Closed | WinRate | Return | MaxDD | MaxLoss |\n")
		sb.WriteString("|-------|------|----------|--------|---------|--------|-------|----------|-------|--------|---------|--------|-------|---------|\n")
		for _, t := range r.Trades {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %s | %s | %.2f | %d | %.4f | %.4f | %.4f | %d |\n",
				t.TradeID, t.Pair, t.Strategy, t.Status, t.HoldingToken, t.Amount, t.StartAmount, t.RealizedProfit,
				t.PositionFraction, t.TradeCount, t.WinRate, t.TotalReturn, t.MaxDrawdown, t.MaxConsecutiveLosses))
		}
	} else {
		sb.WriteString("No trades.\n")
	}
	sb.WriteString("\n")

	// Optimization history
	sb.WriteString("## Optimization History\n\n")
	if len(r.History) > 0 {
		sb.WriteString("| Trade | Evaluated | Adopted | Exec | Conf | Bias | Score | WinRate | Return | Sharpe | MaxDD | Trades | Candles | Result |\n")
		sb.WriteString("|-------|-----------|---------|------|------|------|-------|---------|--------|--------|-------|--------|---------|--------|\n")
		for _, h := range r.History {
			adopted := "no"
			if h.Adopted {
				adopted = "yes"
			} else if h.Reason != "" {
				adopted = "no (" + h.Reason + ")"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %.2f | %.2f | %s | %.4f | %.4f | %.4f | %.4f | %.4f | %d | %d | %s |\n",
				h.TradeID, formatMs(h.EvaluatedAtMs), adopted,
				h.ExecutionThreshold, h.ConfidenceThreshold, h.WeightBias,
				h.Score, h.WinRate, h.TotalReturn, h.SharpeRatio, h.MaxDrawdown,
				h.TradeCount, h.CandleCount, h.ResultID))
		}
	} else {
		sb.WriteString("No optimizer runs recorded.\n")
	}
	sb.WriteString("\n")

	// Latest candidates
	sb.WriteString(fmt.Sprintf("## Latest Candidates (top %d)\n\n", r.TopN))
	if len(r.Candidates) > 0 {
		sb.WriteString("| Trade | Rank | Params | Exec | Conf | Bias | Score | WinRate | Return | Sharpe | MaxDD | Trades |\n")
		sb.WriteString("|-------|------|--------|------|------|------|-------|---------|--------|--------|-------|--------|\n")
		for _, c := range r.Candidates {
			sb.WriteString(fmt.Sprintf("| %s | %d | %s | %.2f | %.2f | %s | %.4f | %.4f | %.4f | %.4f | %.4f | %d |\n",
				c.TradeID, c.Rank, c.ParamsID, c.ExecutionThreshold, c.ConfidenceThreshold, c.WeightBias,
				c.Score, c.WinRate, c.TotalReturn, c.SharpeRatio, c.MaxDrawdown, c.TradeCount))
		}
	} else {
		sb.WriteString("No candidates available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func formatMs(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
