package domain

import (
	"fmt"
	"math"
)

// WeightBias names a fixed indicator weighting applied on top of regime weights.
type WeightBias string

// Weight biases explored by the optimizer.
const (
	BiasNeutral       WeightBias = "neutral"
	BiasMomentum      WeightBias = "momentum"
	BiasMeanReversion WeightBias = "mean_reversion"
)

// WeightBiases lists the biases in grid order.
var WeightBiases = []WeightBias{BiasNeutral, BiasMomentum, BiasMeanReversion}

var biasWeights = map[WeightBias]map[IndicatorName]float64{
	BiasNeutral: {
		IndicatorRSI: 1.0, IndicatorMACD: 1.0, IndicatorMACross: 1.0, IndicatorBollinger: 1.0,
		IndicatorStochRSI: 1.0, IndicatorROC: 1.0, IndicatorIchimoku: 1.0,
	},
	BiasMomentum: {
		IndicatorRSI: 1.2, IndicatorMACD: 1.3, IndicatorMACross: 1.2, IndicatorBollinger: 0.8,
		IndicatorStochRSI: 1.1, IndicatorROC: 1.2, IndicatorIchimoku: 1.0,
	},
	BiasMeanReversion: {
		IndicatorRSI: 0.8, IndicatorMACD: 0.9, IndicatorMACross: 0.8, IndicatorBollinger: 1.3,
		IndicatorStochRSI: 1.2, IndicatorROC: 0.9, IndicatorIchimoku: 1.1,
	},
}

// BiasWeights returns a copy of the weight vector for a bias.
func BiasWeights(bias WeightBias) (map[IndicatorName]float64, error) {
	w, ok := biasWeights[bias]
	if !ok {
		return nil, fmt.Errorf("%w: unknown weight bias %q", ErrInvalidParameter, bias)
	}
	out := make(map[IndicatorName]float64, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out, nil
}

// ParameterSet is the tunable AI configuration for one trade.
// The zero value means no optimized set is active.
type ParameterSet struct {
	ExecutionThreshold  float64                   `json:"execution_threshold"`
	ConfidenceThreshold float64                   `json:"confidence_threshold"`
	WeightBias          WeightBias                `json:"weight_bias"`
	Weights             map[IndicatorName]float64 `json:"weights"`
}

// NewParameterSet builds a validated parameter set from a grid point.
func NewParameterSet(execution, confidence float64, bias WeightBias) (ParameterSet, error) {
	weights, err := BiasWeights(bias)
	if err != nil {
		return ParameterSet{}, err
	}
	p := ParameterSet{
		ExecutionThreshold:  execution,
		ConfidenceThreshold: confidence,
		WeightBias:          bias,
		Weights:             weights,
	}
	if err := p.Validate(); err != nil {
		return ParameterSet{}, err
	}
	return p, nil
}

// IsZero reports whether no parameter set is active.
func (p ParameterSet) IsZero() bool {
	return p.ExecutionThreshold == 0 && p.ConfidenceThreshold == 0 && len(p.Weights) == 0
}

// Weight returns the bias weight for an indicator; missing entries weigh 1.
func (p ParameterSet) Weight(name IndicatorName) float64 {
	if w, ok := p.Weights[name]; ok {
		return w
	}
	return 1.0
}

// Validate checks ranges. Thresholds must lie in (0, 1] and [0, 1];
// weights must be finite and non-negative with at least one positive.
func (p ParameterSet) Validate() error {
	if math.IsNaN(p.ExecutionThreshold) || p.ExecutionThreshold <= 0 || p.ExecutionThreshold > 1 {
		return fmt.Errorf("%w: execution threshold %v not in (0, 1]", ErrInvalidParameter, p.ExecutionThreshold)
	}
	if math.IsNaN(p.ConfidenceThreshold) || p.ConfidenceThreshold < 0 || p.ConfidenceThreshold > 1 {
		return fmt.Errorf("%w: confidence threshold %v not in [0, 1]", ErrInvalidParameter, p.ConfidenceThreshold)
	}
	positive := false
	for name, w := range p.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return fmt.Errorf("%w: weight %s = %v", ErrInvalidParameter, name, w)
		}
		if w > 0 {
			positive = true
		}
	}
	if len(p.Weights) > 0 && !positive {
		return fmt.Errorf("%w: all weights are zero", ErrInvalidParameter)
	}
	return nil
}

// Clone returns a deep copy.
func (p ParameterSet) Clone() ParameterSet {
	out := p
	if p.Weights != nil {
		out.Weights = make(map[IndicatorName]float64, len(p.Weights))
		for k, v := range p.Weights {
			out.Weights[k] = v
		}
	}
	return out
}
