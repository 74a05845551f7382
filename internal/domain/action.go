package domain

import "github.com/shopspring/decimal"

// ActionKind is the outcome of a tick.
type ActionKind string

// Action kinds. BUY acquires TokenA with TokenB; SELL disposes of TokenA for TokenB.
const (
	ActionBuy  ActionKind = "BUY"
	ActionSell ActionKind = "SELL"
	ActionHold ActionKind = "HOLD"
)

// Action reason codes.
const (
	ReasonSignal          = "SIGNAL"
	ReasonPingPong        = "PING_PONG_LEVEL"
	ReasonStopLoss        = "STOP_LOSS"
	ReasonTrailingStop    = "TRAILING_STOP"
	ReasonManualOverride  = "MANUAL_OVERRIDE"
	ReasonPaused          = "PAUSED"
	ReasonImpactVeto      = "PRICE_IMPACT_VETO"
	ReasonCooldown        = "FLIP_COOLDOWN"
	ReasonNoSignal        = "NO_SIGNAL"
	ReasonADXGate         = "ADX_GATE"
	ReasonHoldingMismatch = "HOLDING_MISMATCH"
)

// Action is the decision produced by one tick.
type Action struct {
	TradeID       string          `json:"trade_id"`
	Kind          ActionKind      `json:"kind"`
	Amount        decimal.Decimal `json:"amount"` // units of the held token to trade
	Price         decimal.Decimal `json:"price"`  // last close, B per A
	Fraction      float64         `json:"fraction"`
	Forced        bool            `json:"forced"`
	Reason        string          `json:"reason"`
	Trace         []string        `json:"trace,omitempty"`
	ImpactPct     *float64        `json:"impact_pct,omitempty"`
	ClientOrderID string          `json:"client_order_id,omitempty"`
	Fill          *Fill           `json:"fill,omitempty"`
	TimestampMs   int64           `json:"timestamp_ms"`
}

// Executed reports whether the action produced a fill.
func (a *Action) Executed() bool { return a.Fill != nil }

// Hold builds a HOLD action with a reason.
func Hold(tradeID, reason string, price decimal.Decimal, nowMs int64) *Action {
	return &Action{
		TradeID:     tradeID,
		Kind:        ActionHold,
		Price:       price,
		Reason:      reason,
		TimestampMs: nowMs,
	}
}

// Order is the instruction handed to the execution collaborator.
type Order struct {
	ClientOrderID string          `json:"client_order_id"` // idempotency key
	TradeID       string          `json:"trade_id"`
	Pair          Pair            `json:"pair"`
	Side          ActionKind      `json:"side"`
	FromToken     string          `json:"from_token"`
	ToToken       string          `json:"to_token"`
	AmountIn      decimal.Decimal `json:"amount_in"`
	ExpectedPrice decimal.Decimal `json:"expected_price"`
	MaxImpactPct  float64         `json:"max_impact_pct"`
}

// Fill is the execution result reported by the executor.
type Fill struct {
	Price       decimal.Decimal `json:"price"` // effective B per A
	AmountIn    decimal.Decimal `json:"amount_in"`
	AmountOut   decimal.Decimal `json:"amount_out"`
	TimestampMs int64           `json:"timestamp_ms"`
	TxRef       string          `json:"tx_ref,omitempty"`
}

// PriceImpactEstimate is an ephemeral quote for a prospective trade.
type PriceImpactEstimate struct {
	Pair               Pair            `json:"pair"`
	Side               ActionKind      `json:"side"`
	NotionalAmount     decimal.Decimal `json:"notional_amount"`
	EstimatedImpactPct float64         `json:"estimated_impact_pct"` // percent, 5 = 5%
}
