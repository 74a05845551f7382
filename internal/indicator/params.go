package indicator

import (
	"fmt"

	"github.com/Akondltd/radbot/internal/domain"
)

// Params holds the indicator periods and thresholds. The struct tags let the
// config layer load it directly from YAML with defaults applied.
type Params struct {
	RSIPeriod     int     `yaml:"rsi_period" default:"14" validate:"min=2"`
	RSIOversold   float64 `yaml:"rsi_oversold" default:"30" validate:"gt=0,lt=50"`
	RSIOverbought float64 `yaml:"rsi_overbought" default:"70" validate:"gt=50,lt=100"`

	MACDFast   int `yaml:"macd_fast" default:"15" validate:"min=2"`
	MACDSlow   int `yaml:"macd_slow" default:"30" validate:"min=3"`
	MACDSignal int `yaml:"macd_signal" default:"10" validate:"min=2"`

	MAShort int `yaml:"ma_short" default:"12" validate:"min=2"`
	MALong  int `yaml:"ma_long" default:"26" validate:"min=3"`

	BollingerPeriod int     `yaml:"bollinger_period" default:"20" validate:"min=2"`
	BollingerStdDev float64 `yaml:"bollinger_std_dev" default:"2.0" validate:"gt=0"`

	StochRSIPeriod  int     `yaml:"stoch_rsi_period" default:"14" validate:"min=2"`
	StochPeriod     int     `yaml:"stoch_period" default:"14" validate:"min=2"`
	StochK          int     `yaml:"stoch_k" default:"3" validate:"min=1"`
	StochD          int     `yaml:"stoch_d" default:"3" validate:"min=1"`
	StochOversold   float64 `yaml:"stoch_oversold" default:"20" validate:"gt=0,lt=50"`
	StochOverbought float64 `yaml:"stoch_overbought" default:"80" validate:"gt=50,lt=100"`

	ROCPeriod    int     `yaml:"roc_period" default:"12" validate:"min=1"`
	ROCThreshold float64 `yaml:"roc_threshold" default:"5" validate:"gt=0"`

	IchimokuTenkan       int `yaml:"ichimoku_tenkan" default:"9" validate:"min=2"`
	IchimokuKijun        int `yaml:"ichimoku_kijun" default:"26" validate:"min=2"`
	IchimokuSenkouB      int `yaml:"ichimoku_senkou_b" default:"52" validate:"min=2"`
	IchimokuDisplacement int `yaml:"ichimoku_displacement" default:"26" validate:"min=1"`

	ATRPeriod int `yaml:"atr_period" default:"14" validate:"min=2"`

	OBVSignal int `yaml:"obv_signal" default:"21" validate:"min=2"`

	ADXPeriod    int     `yaml:"adx_period" default:"14" validate:"min=2"`
	ADXThreshold float64 `yaml:"adx_threshold" default:"25" validate:"gte=0,lte=100"`

	// VoteThreshold is the score magnitude at which a reading votes BUY or SELL.
	VoteThreshold float64 `yaml:"vote_threshold" default:"0.65" validate:"gt=0,lte=1"`
}

// DefaultParams returns the standard periods and thresholds.
func DefaultParams() Params {
	return Params{
		RSIPeriod:            14,
		RSIOversold:          30,
		RSIOverbought:        70,
		MACDFast:             15,
		MACDSlow:             30,
		MACDSignal:           10,
		MAShort:              12,
		MALong:               26,
		BollingerPeriod:      20,
		BollingerStdDev:      2.0,
		StochRSIPeriod:       14,
		StochPeriod:          14,
		StochK:               3,
		StochD:               3,
		StochOversold:        20,
		StochOverbought:      80,
		ROCPeriod:            12,
		ROCThreshold:         5,
		IchimokuTenkan:       9,
		IchimokuKijun:        26,
		IchimokuSenkouB:      52,
		IchimokuDisplacement: 26,
		ATRPeriod:            14,
		OBVSignal:            21,
		ADXPeriod:            14,
		ADXThreshold:         25,
		VoteThreshold:        0.65,
	}
}

// Validate checks cross-field constraints the struct tags cannot express.
func (p Params) Validate() error {
	if p.MACDFast >= p.MACDSlow {
		return fmt.Errorf("%w: macd fast %d must be below slow %d", domain.ErrInvalidParameter, p.MACDFast, p.MACDSlow)
	}
	if p.MAShort >= p.MALong {
		return fmt.Errorf("%w: ma short %d must be below long %d", domain.ErrInvalidParameter, p.MAShort, p.MALong)
	}
	if p.RSIOversold >= p.RSIOverbought {
		return fmt.Errorf("%w: rsi oversold %v must be below overbought %v", domain.ErrInvalidParameter, p.RSIOversold, p.RSIOverbought)
	}
	if p.VoteThreshold <= 0 || p.VoteThreshold > 1 {
		return fmt.Errorf("%w: vote threshold %v not in (0, 1]", domain.ErrInvalidParameter, p.VoteThreshold)
	}
	return nil
}
