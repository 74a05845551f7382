// Package sizing computes the capital fraction committed to each flip.
package sizing

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/Akondltd/radbot/internal/domain"
)

// KellyConfig bounds and windows the Kelly fraction.
type KellyConfig struct {
	MinTrades   int     `yaml:"min_trades" default:"10" validate:"min=1"`
	Lookback    int     `yaml:"lookback" default:"20" validate:"min=2"`
	MinFraction float64 `yaml:"min_fraction" default:"0.10" validate:"gt=0,lte=1"`
	MaxFraction float64 `yaml:"max_fraction" default:"0.80" validate:"gt=0,lte=1,gtefield=MinFraction"`
	Multiplier  float64 `yaml:"multiplier" default:"1.0" validate:"gt=0,lte=1"`
}

// DefaultKellyConfig returns the standard warm-up, window and bounds.
func DefaultKellyConfig() KellyConfig {
	return KellyConfig{
		MinTrades:   10,
		Lookback:    20,
		MinFraction: 0.10,
		MaxFraction: 0.80,
		Multiplier:  1.0,
	}
}

// KellyResult is the sizing decision and the statistics behind it.
type KellyResult struct {
	Fraction   float64
	Active     bool
	WinRate    float64
	RewardRisk float64
	Raw        float64 // unclamped Kelly fraction
}

// Kelly sizes the next trade from the trailing outcome window. Until
// tradeCount reaches MinTrades it is dormant and returns 1.0. When the
// reward/risk ratio is undefined it returns the prior fraction clamped to the
// bounds together with an error wrapping domain.ErrArithmeticDegenerate; the
// result is usable either way.
func Kelly(outcomes []domain.Outcome, tradeCount int, prior float64, cfg KellyConfig) (KellyResult, error) {
	if tradeCount < cfg.MinTrades {
		return KellyResult{Fraction: 1.0}, nil
	}

	fallback := KellyResult{Fraction: clamp(prior, cfg.MinFraction, cfg.MaxFraction), Active: true}

	window := outcomes
	if cfg.Lookback > 0 && len(window) > cfg.Lookback {
		window = window[len(window)-cfg.Lookback:]
	}
	if len(window) == 0 {
		return fallback, fmt.Errorf("kelly: no outcomes: %w", domain.ErrInsufficientData)
	}

	var wins int
	var winSum, lossSum float64
	var losses int
	for _, o := range window {
		switch {
		case o.PnLPct > 0:
			wins++
			winSum += o.PnLPct
		case o.PnLPct < 0:
			losses++
			lossSum += -o.PnLPct
		}
	}
	winRate := float64(wins) / float64(len(window))
	fallback.WinRate = winRate

	if losses == 0 || lossSum == 0 {
		return fallback, fmt.Errorf("kelly: average loss is zero: %w", domain.ErrArithmeticDegenerate)
	}
	if wins == 0 {
		return fallback, fmt.Errorf("kelly: reward/risk undefined without wins: %w", domain.ErrArithmeticDegenerate)
	}

	avgWin := winSum / float64(wins)
	avgLoss := lossSum / float64(losses)
	r := avgWin / avgLoss
	raw := (winRate*r - (1 - winRate)) / r * cfg.Multiplier
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return fallback, fmt.Errorf("kelly: non-finite fraction: %w", domain.ErrArithmeticDegenerate)
	}

	return KellyResult{
		Fraction:   clamp(raw, cfg.MinFraction, cfg.MaxFraction),
		Active:     true,
		WinRate:    winRate,
		RewardRisk: r,
		Raw:        raw,
	}, nil
}

// Split divides amount into the traded part and the reserved remainder.
func Split(amount decimal.Decimal, fraction float64) (traded, reserved decimal.Decimal) {
	if fraction >= 1 || fraction <= 0 {
		return amount, decimal.Zero
	}
	traded = amount.Mul(decimal.NewFromFloat(fraction))
	return traded, amount.Sub(traded)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
