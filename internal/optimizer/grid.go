package optimizer

import (
	"github.com/Akondltd/radbot/internal/domain"
)

// Grid axes, in enumeration order.
var (
	ExecutionThresholds  = []float64{0.5, 0.6, 0.7}
	ConfidenceThresholds = []float64{0.6, 0.7, 0.8}
)

// GridSize is the number of parameter combinations evaluated per run.
var GridSize = len(ExecutionThresholds) * len(ConfidenceThresholds) * len(domain.WeightBiases)

// Grid enumerates every combination: execution threshold outermost, then
// confidence threshold, then weight bias. The order is part of the ranking
// contract (ties resolve to the lower index).
func Grid() ([]domain.ParameterSet, error) {
	out := make([]domain.ParameterSet, 0, GridSize)
	for _, exec := range ExecutionThresholds {
		for _, conf := range ConfidenceThresholds {
			for _, bias := range domain.WeightBiases {
				p, err := domain.NewParameterSet(exec, conf, bias)
				if err != nil {
					return nil, err
				}
				out = append(out, p)
			}
		}
	}
	return out, nil
}
