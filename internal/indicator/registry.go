package indicator

import (
	"fmt"

	"github.com/Akondltd/radbot/internal/domain"
)

// Entry describes one library entry.
type Entry struct {
	Name        domain.IndicatorName
	Directional bool // contributes a BUY/SELL opinion
	MinLookback func(p Params) int
	Compute     func(candles []domain.Candle, p Params) domain.IndicatorReading
}

var registry = map[domain.IndicatorName]Entry{
	domain.IndicatorRSI: {
		Name: domain.IndicatorRSI, Directional: true, Compute: RSI,
		MinLookback: func(p Params) int { return p.RSIPeriod + 1 },
	},
	domain.IndicatorMACD: {
		Name: domain.IndicatorMACD, Directional: true, Compute: MACD,
		MinLookback: func(p Params) int { return p.MACDSlow + p.MACDSignal },
	},
	domain.IndicatorMACross: {
		Name: domain.IndicatorMACross, Directional: true, Compute: MACross,
		MinLookback: func(p Params) int { return p.MALong },
	},
	domain.IndicatorBollinger: {
		Name: domain.IndicatorBollinger, Directional: true, Compute: Bollinger,
		MinLookback: func(p Params) int { return p.BollingerPeriod },
	},
	domain.IndicatorStochRSI: {
		Name: domain.IndicatorStochRSI, Directional: true, Compute: StochRSI,
		MinLookback: stochRSILookback,
	},
	domain.IndicatorROC: {
		Name: domain.IndicatorROC, Directional: true, Compute: ROC,
		MinLookback: func(p Params) int { return p.ROCPeriod + 2 },
	},
	domain.IndicatorIchimoku: {
		Name: domain.IndicatorIchimoku, Directional: true, Compute: Ichimoku,
		MinLookback: func(p Params) int { return p.IchimokuSenkouB },
	},
	domain.IndicatorATR: {
		Name: domain.IndicatorATR, Directional: false, Compute: ATR,
		MinLookback: func(p Params) int { return p.ATRPeriod + 1 },
	},
	domain.IndicatorOBV: {
		Name: domain.IndicatorOBV, Directional: true, Compute: OBV,
		MinLookback: func(p Params) int { return p.OBVSignal + obvSlopeBars },
	},
	domain.IndicatorADX: {
		Name: domain.IndicatorADX, Directional: false, Compute: ADX,
		MinLookback: adxLookback,
	},
}

// Lookup returns the registry entry for name.
func Lookup(name domain.IndicatorName) (Entry, error) {
	entry, ok := registry[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: unknown indicator %q", domain.ErrInvalidParameter, name)
	}
	return entry, nil
}

// IsDirectional reports whether the indicator contributes a BUY/SELL opinion.
func IsDirectional(name domain.IndicatorName) bool {
	return registry[name].Directional
}

// Compute evaluates one indicator over the window.
func Compute(name domain.IndicatorName, candles []domain.Candle, p Params) (domain.IndicatorReading, error) {
	entry, err := Lookup(name)
	if err != nil {
		return domain.IndicatorReading{}, err
	}
	return entry.Compute(candles, p), nil
}

// ComputeAll evaluates the named indicators in order.
func ComputeAll(names []domain.IndicatorName, candles []domain.Candle, p Params) ([]domain.IndicatorReading, error) {
	out := make([]domain.IndicatorReading, 0, len(names))
	for _, name := range names {
		r, err := Compute(name, candles, p)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// MaxLookback returns the largest minimum lookback among names.
func MaxLookback(names []domain.IndicatorName, p Params) int {
	max := 0
	for _, name := range names {
		if entry, ok := registry[name]; ok {
			if lb := entry.MinLookback(p); lb > max {
				max = lb
			}
		}
	}
	return max
}
