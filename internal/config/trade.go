package config

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Akondltd/radbot/internal/domain"
)

// TradeConfig seeds one trade at startup. Decimal amounts are strings so
// YAML never rounds them through float64.
type TradeConfig struct {
	ID                string   `yaml:"id" validate:"required"`
	TokenA            string   `yaml:"token_a" validate:"required"`
	TokenB            string   `yaml:"token_b" validate:"required,nefield=TokenA"`
	AccumulationToken string   `yaml:"accumulation_token" validate:"required"`
	HoldingToken      string   `yaml:"holding_token"` // defaults to accumulation token
	Amount            string   `yaml:"amount" validate:"required,numeric"`
	Strategy          string   `yaml:"strategy" default:"ai" validate:"oneof=ping_pong manual ai"`
	Compounding       bool     `yaml:"compounding"`
	Indicators        []string `yaml:"indicators"`
	BuyPrice          string   `yaml:"buy_price" validate:"required_if=Strategy ping_pong"`
	SellPrice         string   `yaml:"sell_price" validate:"required_if=Strategy ping_pong"`
	StopLossPct       string   `yaml:"stop_loss_pct" validate:"omitempty,numeric"`
	TrailingStopPct   string   `yaml:"trailing_stop_pct" validate:"omitempty,numeric"`
}

// ToState builds the initial trade state. The engine fills in lifecycle
// fields on creation.
func (t TradeConfig) ToState() (*domain.TradeState, error) {
	amount, err := decimal.NewFromString(t.Amount)
	if err != nil {
		return nil, fmt.Errorf("trade %s: amount: %w", t.ID, err)
	}

	holding := t.HoldingToken
	if holding == "" {
		holding = t.AccumulationToken
	}

	s := &domain.TradeState{
		TradeID:           t.ID,
		Pair:              domain.Pair{TokenA: t.TokenA, TokenB: t.TokenB},
		AccumulationToken: t.AccumulationToken,
		HoldingToken:      holding,
		Amount:            amount,
		StrategyKind:      domain.StrategyKind(t.Strategy),
		Compounding:       t.Compounding,
	}
	for _, name := range t.Indicators {
		s.Indicators = append(s.Indicators, domain.IndicatorName(name))
	}

	fields := []struct {
		name string
		raw  string
		dst  **decimal.Decimal
	}{
		{"buy_price", t.BuyPrice, &s.BuyPrice},
		{"sell_price", t.SellPrice, &s.SellPrice},
		{"stop_loss_pct", t.StopLossPct, &s.StopLossPct},
		{"trailing_stop_pct", t.TrailingStopPct, &s.TrailingStopPct},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return nil, fmt.Errorf("trade %s: %s: %w", t.ID, f.name, err)
		}
		*f.dst = domain.DecimalPtr(d)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("trade %s: %w", t.ID, err)
	}
	return s, nil
}
