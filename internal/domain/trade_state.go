package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Status is the trade state machine position.
type Status string

// Trade statuses.
const (
	StatusAwaitingEntry Status = "AWAITING_ENTRY"
	StatusHoldingA      Status = "HOLDING_A"
	StatusHoldingB      Status = "HOLDING_B"
	StatusPaused        Status = "PAUSED"
)

// StrategyKind selects how a trade proposes actions.
type StrategyKind string

// Strategy kinds.
const (
	StrategyPingPong StrategyKind = "ping_pong"
	StrategyManual   StrategyKind = "manual"
	StrategyAI       StrategyKind = "ai"
)

// Pair is the traded asset pair. Prices are quoted as TokenB per TokenA.
type Pair struct {
	TokenA string `json:"token_a"`
	TokenB string `json:"token_b"`
}

// String returns "A/B".
func (p Pair) String() string { return p.TokenA + "/" + p.TokenB }

// Contains reports whether token is one side of the pair.
func (p Pair) Contains(token string) bool { return token == p.TokenA || token == p.TokenB }

// Other returns the opposite side of token.
func (p Pair) Other(token string) string {
	if token == p.TokenA {
		return p.TokenB
	}
	return p.TokenA
}

// Outcome is one closed position, recorded when the trade returns to the
// accumulation token.
type Outcome struct {
	EntryPrice  decimal.Decimal `json:"entry_price"`
	ExitPrice   decimal.Decimal `json:"exit_price"`
	PnLPct      float64         `json:"pnl_pct"`
	TimestampMs int64           `json:"timestamp_ms"`
}

// Win reports whether the outcome was profitable.
func (o Outcome) Win() bool { return o.PnLPct > 0 }

// TradeState is the persisted state of one trade. It is owned by a single
// decision loop at a time.
type TradeState struct {
	TradeID           string          `json:"trade_id"`
	Pair              Pair            `json:"pair"`
	AccumulationToken string          `json:"accumulation_token"`
	StartToken        string          `json:"start_token"`
	StartAmount       decimal.Decimal `json:"start_amount"`

	HoldingToken string          `json:"holding_token"`
	Amount       decimal.Decimal `json:"amount"`
	Status       Status          `json:"status"`
	ResumeStatus Status          `json:"resume_status,omitempty"` // status to restore on resume

	StrategyKind StrategyKind     `json:"strategy_kind"`
	Compounding  bool             `json:"compounding"`
	Indicators   []IndicatorName  `json:"indicators,omitempty"` // manual mode subset
	BuyPrice     *decimal.Decimal `json:"buy_price,omitempty"`  // ping-pong level
	SellPrice    *decimal.Decimal `json:"sell_price,omitempty"` // ping-pong level
	Parameters   ParameterSet     `json:"parameters"`

	PositionFraction float64         `json:"position_fraction"`
	ReservedAmount   decimal.Decimal `json:"reserved_amount"`
	ReserveToken     string          `json:"reserve_token,omitempty"`

	StopLossPct       *decimal.Decimal `json:"stop_loss_pct,omitempty"`     // fraction, 0.10 = 10%
	TrailingStopPct   *decimal.Decimal `json:"trailing_stop_pct,omitempty"` // fraction
	EntryPrice        *decimal.Decimal `json:"entry_price,omitempty"`       // risky-token price at entry
	EntryCost         *decimal.Decimal `json:"entry_cost,omitempty"`        // accumulation units spent at entry
	TrailingPeakPrice *decimal.Decimal `json:"trailing_peak_price,omitempty"`
	StopBreached      bool             `json:"stop_breached"`

	TradeCount           int             `json:"trade_count"`
	OutcomeHistory       []Outcome       `json:"outcome_history"`
	RealizedProfit       decimal.Decimal `json:"realized_profit"`
	LastFlipAtMs         int64           `json:"last_flip_at_ms"`
	LastOptimizationAtMs int64           `json:"last_optimization_at_ms"`

	// LastOptimizationAttemptAtMs is stamped by every optimizer run,
	// including runs skipped for insufficient history.
	LastOptimizationAttemptAtMs int64 `json:"last_optimization_attempt_at_ms"`

	CreatedAtMs int64 `json:"created_at_ms"`
	UpdatedAtMs int64 `json:"updated_at_ms"`
}

// RiskyToken returns the pair side that is not accumulated.
func (s *TradeState) RiskyToken() string {
	return s.Pair.Other(s.AccumulationToken)
}

// HoldingRisky reports whether the position is currently in the risky token.
func (s *TradeState) HoldingRisky() bool {
	return s.HoldingToken == s.RiskyToken()
}

// HoldingA reports whether the position is in the base token.
func (s *TradeState) HoldingA() bool {
	return s.HoldingToken == s.Pair.TokenA
}

// HoldingStatus returns HOLDING_A or HOLDING_B for the current holding.
func (s *TradeState) HoldingStatus() Status {
	if s.HoldingA() {
		return StatusHoldingA
	}
	return StatusHoldingB
}

// RiskyPrice converts a pair price (B per A) into the price of the risky
// token in accumulation units.
func (s *TradeState) RiskyPrice(price decimal.Decimal) decimal.Decimal {
	if s.RiskyToken() == s.Pair.TokenA || price.IsZero() {
		return price
	}
	return decimal.NewFromInt(1).Div(price)
}

// Validate checks the static configuration of a trade.
func (s *TradeState) Validate() error {
	if s.TradeID == "" {
		return fmt.Errorf("%w: empty trade id", ErrInvalidParameter)
	}
	if s.Pair.TokenA == "" || s.Pair.TokenB == "" || s.Pair.TokenA == s.Pair.TokenB {
		return fmt.Errorf("%w: pair %s", ErrInvalidParameter, s.Pair)
	}
	if !s.Pair.Contains(s.HoldingToken) {
		return fmt.Errorf("%w: holding token %q not in pair %s", ErrInvalidParameter, s.HoldingToken, s.Pair)
	}
	if !s.Pair.Contains(s.AccumulationToken) {
		return fmt.Errorf("%w: accumulation token %q not in pair %s", ErrInvalidParameter, s.AccumulationToken, s.Pair)
	}
	if s.StartToken != "" && !s.Pair.Contains(s.StartToken) {
		return fmt.Errorf("%w: start token %q not in pair %s", ErrInvalidParameter, s.StartToken, s.Pair)
	}
	if s.Amount.IsNegative() {
		return fmt.Errorf("%w: negative amount %s", ErrInvalidParameter, s.Amount)
	}
	switch s.StrategyKind {
	case StrategyPingPong:
		if s.BuyPrice == nil || s.SellPrice == nil {
			return fmt.Errorf("%w: ping-pong requires buy and sell price", ErrInvalidParameter)
		}
		if !s.BuyPrice.IsPositive() || !s.SellPrice.GreaterThan(*s.BuyPrice) {
			return fmt.Errorf("%w: ping-pong requires 0 < buy price < sell price", ErrInvalidParameter)
		}
	case StrategyManual:
		if len(s.Indicators) == 0 {
			return fmt.Errorf("%w: manual strategy requires at least one indicator", ErrInvalidParameter)
		}
	case StrategyAI:
		if !s.Parameters.IsZero() {
			if err := s.Parameters.Validate(); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: unknown strategy kind %q", ErrInvalidParameter, s.StrategyKind)
	}
	for _, pct := range []*decimal.Decimal{s.StopLossPct, s.TrailingStopPct} {
		if pct != nil && (!pct.IsPositive() || pct.GreaterThanOrEqual(decimal.NewFromInt(1))) {
			return fmt.Errorf("%w: stop percentage %s not in (0, 1)", ErrInvalidParameter, pct)
		}
	}
	return nil
}

// Clone returns a deep copy so a tick can work on a scratch state and
// commit only on success.
func (s *TradeState) Clone() *TradeState {
	out := *s
	out.Indicators = append([]IndicatorName(nil), s.Indicators...)
	out.OutcomeHistory = append([]Outcome(nil), s.OutcomeHistory...)
	out.Parameters = s.Parameters.Clone()
	out.BuyPrice = cloneDecimal(s.BuyPrice)
	out.SellPrice = cloneDecimal(s.SellPrice)
	out.StopLossPct = cloneDecimal(s.StopLossPct)
	out.TrailingStopPct = cloneDecimal(s.TrailingStopPct)
	out.EntryPrice = cloneDecimal(s.EntryPrice)
	out.EntryCost = cloneDecimal(s.EntryCost)
	out.TrailingPeakPrice = cloneDecimal(s.TrailingPeakPrice)
	return &out
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

// DecimalPtr returns a pointer to d.
func DecimalPtr(d decimal.Decimal) *decimal.Decimal { return &d }
