package backtest

import (
	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/ensemble"
	"github.com/Akondltd/radbot/internal/metrics"
)

// ExitEndOfWindow marks a position closed at the last snapshot.
const ExitEndOfWindow = "END_OF_WINDOW"

// SimConfig holds the per-trade rules applied inside a replay.
// Percentages are fractions (0.10 = 10%); zero disables a stop.
type SimConfig struct {
	RiskyIsA          bool
	StopLossPct       float64
	TrailingStopPct   float64
	MinFlipIntervalMs int64
}

// SimConfigFor derives replay rules from a trade's configuration.
func SimConfigFor(state *domain.TradeState, minFlipIntervalMs int64) SimConfig {
	cfg := SimConfig{
		RiskyIsA:          state.RiskyToken() == state.Pair.TokenA,
		MinFlipIntervalMs: minFlipIntervalMs,
	}
	if state.StopLossPct != nil {
		cfg.StopLossPct = state.StopLossPct.InexactFloat64()
	}
	if state.TrailingStopPct != nil {
		cfg.TrailingStopPct = state.TrailingStopPct.InexactFloat64()
	}
	return cfg
}

// Result is the outcome of one parameter set over a snapshot series.
type Result struct {
	Parameters domain.ParameterSet
	Trades     []domain.BacktestTrade
	Metrics    domain.PerformanceMetrics
}

// Simulate replays snapshots under params. The simulated trade starts in the
// accumulation token, enters the risky token on the entry vote and leaves it
// on the opposite vote or a stop. Returns are measured in accumulation terms.
// An open position is closed at the last snapshot.
func Simulate(snapshots []Snapshot, params domain.ParameterSet, cfg SimConfig) Result {
	entryVote, exitVote := domain.VoteBuy, domain.VoteSell
	if !cfg.RiskyIsA {
		entryVote, exitVote = domain.VoteSell, domain.VoteBuy
	}

	var (
		trades     []domain.BacktestTrade
		open       bool
		entry      float64
		peak       float64
		entryAt    int64
		lastFlipAt int64
		flipped    bool
	)

	closePosition := func(price float64, at int64, reason string) {
		trades = append(trades, domain.BacktestTrade{
			EntryTimeMs: entryAt,
			ExitTimeMs:  at,
			EntryPrice:  entry,
			ExitPrice:   price,
			Return:      price/entry - 1,
			ExitReason:  reason,
		})
		open = false
		lastFlipAt = at
		flipped = true
	}

	for _, s := range snapshots {
		price := riskyPrice(s.Close, cfg.RiskyIsA)
		if price <= 0 {
			continue
		}

		if open {
			if price > peak {
				peak = price
			}
			if cfg.StopLossPct > 0 && price <= entry*(1-cfg.StopLossPct) {
				closePosition(price, s.TimestampMs, domain.ReasonStopLoss)
				continue
			}
			if cfg.TrailingStopPct > 0 && price <= peak*(1-cfg.TrailingStopPct) {
				closePosition(price, s.TimestampMs, domain.ReasonTrailingStop)
				continue
			}
		}

		if flipped && cfg.MinFlipIntervalMs > 0 && s.TimestampMs-lastFlipAt < cfg.MinFlipIntervalMs {
			continue
		}

		decision := ensemble.AI(s.Readings, s.Regime, params)
		switch {
		case !open && decision.Vote == entryVote:
			open = true
			entry, peak, entryAt = price, price, s.TimestampMs
			lastFlipAt = s.TimestampMs
			flipped = true
		case open && decision.Vote == exitVote:
			closePosition(price, s.TimestampMs, domain.ReasonSignal)
		}
	}

	if open && len(snapshots) > 0 {
		last := snapshots[len(snapshots)-1]
		closePosition(riskyPrice(last.Close, cfg.RiskyIsA), last.TimestampMs, ExitEndOfWindow)
	}

	return Result{
		Parameters: params,
		Trades:     trades,
		Metrics:    metrics.Compute(trades),
	}
}

func riskyPrice(close float64, riskyIsA bool) float64 {
	if riskyIsA || close == 0 {
		return close
	}
	return 1 / close
}
