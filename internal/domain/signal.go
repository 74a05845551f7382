package domain

// IndicatorName identifies one indicator in the library.
type IndicatorName string

// Indicator names.
const (
	IndicatorRSI       IndicatorName = "rsi"
	IndicatorMACD      IndicatorName = "macd"
	IndicatorMACross   IndicatorName = "ma_cross"
	IndicatorBollinger IndicatorName = "bollinger"
	IndicatorStochRSI  IndicatorName = "stoch_rsi"
	IndicatorROC       IndicatorName = "roc"
	IndicatorIchimoku  IndicatorName = "ichimoku"
	IndicatorATR       IndicatorName = "atr"
	IndicatorOBV       IndicatorName = "obv"
	IndicatorADX       IndicatorName = "adx"
)

// AIIndicators is the fixed indicator set the AI ensemble and the regime
// weight vector operate on, in canonical order.
var AIIndicators = []IndicatorName{
	IndicatorRSI,
	IndicatorMACD,
	IndicatorMACross,
	IndicatorBollinger,
	IndicatorStochRSI,
	IndicatorROC,
	IndicatorIchimoku,
	IndicatorATR,
}

// Vote is the discrete opinion of one indicator or the ensemble.
type Vote string

// Votes.
const (
	VoteBuy  Vote = "BUY"
	VoteSell Vote = "SELL"
	VoteHold Vote = "HOLD"
)

// IndicatorReading is the output of one indicator over a candle window.
type IndicatorReading struct {
	Name       IndicatorName
	Values     []float64 // raw values, latest last (indicator specific)
	Score      float64   // normalized to [-1, 1]; positive is bullish
	Vote       Vote
	Confidence float64 // [0, 1]
	Sufficient bool    // false when the window was shorter than the lookback
}

// RegimeLabel classifies recent market behaviour.
type RegimeLabel string

// Regime labels.
const (
	RegimeTrendingUp     RegimeLabel = "trending_up"
	RegimeTrendingDown   RegimeLabel = "trending_down"
	RegimeRanging        RegimeLabel = "ranging"
	RegimeHighVolatility RegimeLabel = "high_volatility"
	RegimeUnknown        RegimeLabel = "unknown"
)

// IsTrending reports whether the label is one of the trending variants.
func (r RegimeLabel) IsTrending() bool {
	return r == RegimeTrendingUp || r == RegimeTrendingDown
}

// RegimeState is the detector output for one window.
type RegimeState struct {
	Label          RegimeLabel
	TrendStrength  float64 // [-1, 1]
	Volatility     float64 // [0, 1]
	RangeTightness float64 // [0, 1]
	Weights        map[IndicatorName]float64
}
