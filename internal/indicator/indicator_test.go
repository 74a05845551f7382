package indicator

import (
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/Akondltd/radbot/internal/domain"
)

// makeCandles builds candles around the given closes with a ±1% range.
func makeCandles(closes []float64) []domain.Candle {
	out := make([]domain.Candle, len(closes))
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		out[i] = domain.Candle{
			TimestampMs: int64(i) * 600_000,
			Open:        open,
			High:        c * 1.01,
			Low:         c * 0.99,
			Close:       c,
			Volume:      100,
		}
	}
	return out
}

func ramp(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

func flat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func noisy(seed int64, n int) []float64 {
	r := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	price := 100.0
	for i := range out {
		price *= 1 + (r.Float64()-0.5)*0.04
		out[i] = price
	}
	return out
}

func TestInsufficientData_ReadsHold(t *testing.T) {
	p := DefaultParams()
	candles := makeCandles(ramp(100, 1, 5))

	for name := range registry {
		r, err := Compute(name, candles, p)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", name, err)
		}
		if r.Sufficient {
			t.Errorf("%s: expected insufficient reading with 5 candles", name)
		}
		if r.Vote != domain.VoteHold || r.Confidence != 0 {
			t.Errorf("%s: expected HOLD/0, got %s/%v", name, r.Vote, r.Confidence)
		}
	}
}

func TestRSI(t *testing.T) {
	p := DefaultParams()

	up := RSI(makeCandles(ramp(100, 1, 30)), p)
	if up.Values[0] != 100 || up.Score != -1 || up.Vote != domain.VoteSell {
		t.Errorf("rising: got rsi=%v score=%v vote=%s", up.Values[0], up.Score, up.Vote)
	}

	down := RSI(makeCandles(ramp(200, -1, 30)), p)
	if down.Values[0] != 0 || down.Score != 1 || down.Vote != domain.VoteBuy {
		t.Errorf("falling: got rsi=%v score=%v vote=%s", down.Values[0], down.Score, down.Vote)
	}

	still := RSI(makeCandles(flat(100, 30)), p)
	if still.Values[0] != 50 || still.Score != 0 || still.Vote != domain.VoteHold {
		t.Errorf("flat: got rsi=%v score=%v vote=%s", still.Values[0], still.Score, still.Vote)
	}
}

func TestBollinger(t *testing.T) {
	p := DefaultParams()

	still := Bollinger(makeCandles(flat(100, 25)), p)
	if still.Score != 0 || still.Vote != domain.VoteHold {
		t.Errorf("zero deviation: got score=%v vote=%s", still.Score, still.Vote)
	}

	closes := append(flat(100, 24), 80)
	drop := Bollinger(makeCandles(closes), p)
	if drop.Score != 1 || drop.Vote != domain.VoteBuy {
		t.Errorf("below lower band: got score=%v vote=%s", drop.Score, drop.Vote)
	}

	closes = append(flat(100, 24), 120)
	spike := Bollinger(makeCandles(closes), p)
	if spike.Score != -1 || spike.Vote != domain.VoteSell {
		t.Errorf("above upper band: got score=%v vote=%s", spike.Score, spike.Vote)
	}
}

func TestTrendFollowers_RisingSeries(t *testing.T) {
	p := DefaultParams()
	candles := makeCandles(ramp(100, 1, 80))

	ma := MACross(candles, p)
	if ma.Vote != domain.VoteBuy {
		t.Errorf("ma_cross: expected BUY, got %s (score %v)", ma.Vote, ma.Score)
	}

	macd := MACD(candles, p)
	if macd.Score <= 0 {
		t.Errorf("macd: expected positive score, got %v", macd.Score)
	}

	roc := ROC(candles, p)
	if roc.Vote != domain.VoteBuy || roc.Score <= 0.5 {
		t.Errorf("roc: expected strong BUY, got %s (score %v)", roc.Vote, roc.Score)
	}

	ichi := Ichimoku(candles, p)
	if math.Abs(ichi.Score-1) > 1e-9 || ichi.Vote != domain.VoteBuy {
		t.Errorf("ichimoku: expected 1.0 BUY, got %v %s", ichi.Score, ichi.Vote)
	}

	obv := OBV(candles, p)
	if obv.Score <= 0 {
		t.Errorf("obv: expected positive score, got %v", obv.Score)
	}
}

func TestROC_ZeroCross(t *testing.T) {
	p := DefaultParams()
	closes := append(flat(100, 20), 101)
	r := ROC(makeCandles(closes), p)
	if r.Score != 0.8 || r.Vote != domain.VoteBuy {
		t.Errorf("cross up: got score=%v vote=%s", r.Score, r.Vote)
	}
}

func TestIchimoku_CloudNotFormed(t *testing.T) {
	p := DefaultParams()
	r := Ichimoku(makeCandles(ramp(100, 1, 60)), p)
	if !r.Sufficient {
		t.Fatal("expected sufficient reading with 60 candles")
	}
	if r.Score != 0.5 || r.Vote != domain.VoteHold {
		t.Errorf("tk only: got score=%v vote=%s", r.Score, r.Vote)
	}
	if !math.IsNaN(r.Values[2]) {
		t.Errorf("senkou A should be NaN before the cloud forms, got %v", r.Values[2])
	}
}

func TestNonDirectional(t *testing.T) {
	p := DefaultParams()
	candles := makeCandles(noisy(7, 120))

	atr := ATR(candles, p)
	if !atr.Sufficient || atr.Vote != domain.VoteHold {
		t.Errorf("atr: expected sufficient HOLD, got %+v", atr)
	}
	if IsDirectional(domain.IndicatorATR) || IsDirectional(domain.IndicatorADX) {
		t.Error("atr and adx must not be directional")
	}
}

func TestADX_Gate(t *testing.T) {
	p := DefaultParams()

	trend := ADX(makeCandles(ramp(100, 2, 60)), p)
	if !trend.Sufficient || trend.Values[0] < p.ADXThreshold {
		t.Fatalf("expected strong trend ADX, got %+v", trend)
	}
	if !Trending(trend, p.ADXThreshold) {
		t.Error("strong trend should pass the gate")
	}

	short := ADX(makeCandles(ramp(100, 2, 10)), p)
	if !Trending(short, p.ADXThreshold) {
		t.Error("insufficient ADX should not block trading")
	}

	weak := domain.IndicatorReading{Name: domain.IndicatorADX, Values: []float64{12}, Sufficient: true}
	if Trending(weak, p.ADXThreshold) {
		t.Error("ADX 12 should fail the gate")
	}
}

func TestScoresBounded(t *testing.T) {
	p := DefaultParams()
	for seed := int64(1); seed <= 20; seed++ {
		candles := makeCandles(noisy(seed, 150))
		readings, err := ComputeAll(domain.AIIndicators, candles, p)
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		for _, r := range readings {
			if r.Score < -1 || r.Score > 1 || math.IsNaN(r.Score) {
				t.Errorf("seed %d %s: score %v out of range", seed, r.Name, r.Score)
			}
			if r.Confidence < 0 || r.Confidence > 1 {
				t.Errorf("seed %d %s: confidence %v out of range", seed, r.Name, r.Confidence)
			}
		}
	}
}

func TestDeterminism(t *testing.T) {
	p := DefaultParams()
	candles := makeCandles(noisy(99, 150))

	first, err := ComputeAll(domain.AIIndicators, candles, p)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := ComputeAll(domain.AIIndicators, candles, p)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs", i)
		}
	}
}

func TestRegistry(t *testing.T) {
	p := DefaultParams()
	if _, err := ComputeAll([]domain.IndicatorName{"vwap"}, nil, p); !errors.Is(err, domain.ErrInvalidParameter) {
		t.Errorf("unknown indicator: got %v", err)
	}
	if got := MaxLookback(domain.AIIndicators, p); got != 52 {
		t.Errorf("max lookback: got %d, want 52", got)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
	bad := p
	bad.MAShort = 30
	if err := bad.Validate(); !errors.Is(err, domain.ErrInvalidParameter) {
		t.Errorf("short >= long: got %v", err)
	}
}
