package ensemble

import (
	"math"
	"testing"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/regime"
)

func votes(vs ...domain.Vote) []domain.IndicatorReading {
	names := []domain.IndicatorName{
		domain.IndicatorRSI, domain.IndicatorMACD, domain.IndicatorMACross,
		domain.IndicatorBollinger, domain.IndicatorStochRSI, domain.IndicatorROC,
	}
	out := make([]domain.IndicatorReading, len(vs))
	for i, v := range vs {
		out[i] = domain.IndicatorReading{Name: names[i], Vote: v, Sufficient: true}
	}
	return out
}

func adxReading(v float64) domain.IndicatorReading {
	return domain.IndicatorReading{Name: domain.IndicatorADX, Values: []float64{v}, Sufficient: true}
}

func TestManual(t *testing.T) {
	b, s, h := domain.VoteBuy, domain.VoteSell, domain.VoteHold
	cfg := ManualConfig{Agreement: 0.5, ADXThreshold: 25}

	tests := []struct {
		name     string
		readings []domain.IndicatorReading
		adx      domain.IndicatorReading
		want     domain.Vote
		gated    bool
	}{
		{"clear buy majority", votes(b, b, b, s), adxReading(30), b, false},
		{"even split holds", votes(b, b, s, s), adxReading(30), h, false},
		{"half buy with holds", votes(b, b, h, h), adxReading(30), b, false},
		{"minority buy holds", votes(b, h, h, h), adxReading(30), h, false},
		{"sell majority", votes(s, s, s, h), adxReading(30), s, false},
		{"weak trend gates", votes(b, b, b, b), adxReading(12), h, true},
		{"insufficient adx does not gate", votes(b, b, b, b), domain.IndicatorReading{Name: domain.IndicatorADX}, b, false},
		{"no indicators", nil, adxReading(30), h, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Manual(tc.readings, tc.adx, cfg)
			if got.Vote != tc.want {
				t.Errorf("vote: got %s, want %s (trace %v)", got.Vote, tc.want, got.Trace)
			}
			if got.Gated != tc.gated {
				t.Errorf("gated: got %v, want %v", got.Gated, tc.gated)
			}
		})
	}
}

func scored(score float64) []domain.IndicatorReading {
	out := make([]domain.IndicatorReading, 0, len(domain.AIIndicators))
	for _, name := range domain.AIIndicators {
		out = append(out, domain.IndicatorReading{Name: name, Score: score, Sufficient: true})
	}
	return out
}

func unknownRegime() domain.RegimeState {
	return domain.RegimeState{Label: domain.RegimeUnknown, Weights: regime.Weights(domain.RegimeUnknown)}
}

func TestAI_DefaultThresholds(t *testing.T) {
	rs := unknownRegime()

	buy := AI(scored(0.8), rs, domain.ParameterSet{})
	if buy.Vote != domain.VoteBuy {
		t.Fatalf("expected BUY, got %s (%v)", buy.Vote, buy.Trace)
	}
	if math.Abs(buy.Composite-0.8) > 1e-12 || math.Abs(buy.Confidence-1) > 1e-9 {
		t.Errorf("composite/confidence: got %v/%v", buy.Composite, buy.Confidence)
	}
	if buy.Threshold != regime.DefaultExecutionThreshold(domain.RegimeUnknown) {
		t.Errorf("threshold: got %v", buy.Threshold)
	}

	sell := AI(scored(-0.8), rs, domain.ParameterSet{})
	if sell.Vote != domain.VoteSell {
		t.Errorf("expected SELL, got %s", sell.Vote)
	}

	weak := AI(scored(0.3), rs, domain.ParameterSet{})
	if weak.Vote != domain.VoteHold {
		t.Errorf("expected HOLD below threshold, got %s", weak.Vote)
	}
}

func TestAI_LowConfidenceHolds(t *testing.T) {
	readings := scored(1)
	for i := range readings {
		if i%2 == 1 {
			readings[i].Score = -1
		}
	}
	// boost the bullish side so the composite clears the threshold
	params, err := domain.NewParameterSet(0.1, 0.7, domain.BiasNeutral)
	if err != nil {
		t.Fatal(err)
	}
	params.Weights[domain.IndicatorRSI] = 50

	got := AI(readings, unknownRegime(), params)
	if got.Composite < 0.1 {
		t.Fatalf("setup: composite %v should clear threshold", got.Composite)
	}
	if got.Confidence >= 0.7 || got.Vote != domain.VoteHold {
		t.Errorf("expected low-confidence HOLD, got %s conf=%v", got.Vote, got.Confidence)
	}
}

func TestAI_ParameterSetThreshold(t *testing.T) {
	params, err := domain.NewParameterSet(0.9, 0.6, domain.BiasMomentum)
	if err != nil {
		t.Fatal(err)
	}
	got := AI(scored(0.8), unknownRegime(), params)
	if got.Vote != domain.VoteHold || got.Threshold != 0.9 {
		t.Errorf("expected HOLD at threshold 0.9, got %s at %v", got.Vote, got.Threshold)
	}
}

func TestAI_ATRAndInsufficient(t *testing.T) {
	rs := unknownRegime()
	base := AI(scored(0.8), rs, domain.ParameterSet{})

	withATR := scored(0.8)
	for i := range withATR {
		if withATR[i].Name == domain.IndicatorATR {
			withATR[i].Score = -1
		}
	}
	if got := AI(withATR, rs, domain.ParameterSet{}); got.Composite != base.Composite {
		t.Errorf("atr must not move the composite: %v vs %v", got.Composite, base.Composite)
	}

	partial := scored(0.8)
	partial[0].Sufficient = false // rsi
	got := AI(partial, rs, domain.ParameterSet{})
	want := 0.8 * 6 / 7
	if math.Abs(got.Composite-want) > 1e-12 {
		t.Errorf("insufficient reading should count as 0: got %v, want %v", got.Composite, want)
	}
}
