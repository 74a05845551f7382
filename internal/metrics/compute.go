package metrics

import (
	"fmt"
	"math"

	"github.com/Akondltd/radbot/internal/domain"
)

// TradingPeriodsPerYear annualizes the per-trade Sharpe ratio.
const TradingPeriodsPerYear = 252

// Compute calculates performance metrics from closed trades in chronological
// order. A degenerate Sharpe ratio (fewer than two trades or zero dispersion)
// reads 0.
func Compute(trades []domain.BacktestTrade) domain.PerformanceMetrics {
	n := len(trades)
	if n == 0 {
		return domain.PerformanceMetrics{}
	}

	returns := make([]float64, n)
	wins := 0
	for i, t := range trades {
		returns[i] = t.Return
		if t.Return > 0 {
			wins++
		}
	}

	mean := computeMean(returns)
	stddev := computeStddev(returns, mean)
	sharpe, err := SharpeRatio(returns)
	if err != nil {
		sharpe = 0
	}

	return domain.PerformanceMetrics{
		TradeCount:           n,
		Wins:                 wins,
		Losses:               n - wins,
		WinRate:              computeWinRate(wins, n),
		TotalReturn:          computeTotalReturn(returns),
		MeanReturn:           mean,
		StddevReturn:         stddev,
		SharpeRatio:          sharpe,
		MaxDrawdown:          computeMaxDrawdown(returns),
		MaxConsecutiveLosses: computeMaxConsecutiveLosses(returns),
	}
}

// SummarizeOutcomes computes metrics over a trade's live outcome history.
// PnL percentages are converted to fractional returns.
func SummarizeOutcomes(outcomes []domain.Outcome) domain.PerformanceMetrics {
	trades := make([]domain.BacktestTrade, len(outcomes))
	for i, o := range outcomes {
		entry, _ := o.EntryPrice.Float64()
		exit, _ := o.ExitPrice.Float64()
		trades[i] = domain.BacktestTrade{
			ExitTimeMs: o.TimestampMs,
			EntryPrice: entry,
			ExitPrice:  exit,
			Return:     o.PnLPct / 100,
		}
	}
	return Compute(trades)
}

// degenerateStddev is the relative σ below which returns are treated as
// constant; summing identical floats leaves a residue near 1e-17.
const degenerateStddev = 1e-12

// SharpeRatio is mean / sample σ of per-trade returns, annualized by
// √TradingPeriodsPerYear. Returns domain.ErrArithmeticDegenerate when σ is
// (numerically) zero or there are fewer than two returns.
func SharpeRatio(returns []float64) (float64, error) {
	if len(returns) < 2 {
		return 0, fmt.Errorf("sharpe: %d returns: %w", len(returns), domain.ErrArithmeticDegenerate)
	}
	mean := computeMean(returns)
	stddev := computeStddev(returns, mean)
	if stddev <= degenerateStddev*math.Max(1, math.Abs(mean)) {
		return 0, fmt.Errorf("sharpe: zero deviation: %w", domain.ErrArithmeticDegenerate)
	}
	return mean / stddev * math.Sqrt(TradingPeriodsPerYear), nil
}

// computeWinRate calculates win rate as wins / total.
func computeWinRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}

// computeMean calculates arithmetic mean of returns.
func computeMean(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range returns {
		sum += r
	}
	return sum / float64(len(returns))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(returns []float64, mean float64) float64 {
	n := len(returns)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, r := range returns {
		diff := r - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// computeTotalReturn compounds returns: Π(1+r) − 1.
func computeTotalReturn(returns []float64) float64 {
	equity := 1.0
	for _, r := range returns {
		equity *= 1 + r
	}
	return equity - 1
}

// computeMaxDrawdown calculates the worst peak-to-trough decline of the
// compounded equity curve as a fraction of the peak.
// Returns must be in chronological order.
func computeMaxDrawdown(returns []float64) float64 {
	equity := 1.0
	peak := 1.0
	maxDrawdown := 0.0

	for _, r := range returns {
		equity *= 1 + r
		if equity > peak {
			peak = equity
		}
		if peak <= 0 {
			continue
		}
		drawdown := (peak - equity) / peak
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return math.Min(maxDrawdown, 1)
}

// computeMaxConsecutiveLosses finds longest streak of return <= 0.
// Returns must be in chronological order.
func computeMaxConsecutiveLosses(returns []float64) int {
	maxStreak := 0
	currentStreak := 0

	for _, r := range returns {
		if r <= 0 {
			currentStreak++
			if currentStreak > maxStreak {
				maxStreak = currentStreak
			}
		} else {
			currentStreak = 0
		}
	}
	return maxStreak
}
