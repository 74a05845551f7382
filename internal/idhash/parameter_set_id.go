package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/Akondltd/radbot/internal/domain"
)

// ComputeParameterSetID computes a deterministic fingerprint of a parameter set.
// Formula: SHA256(execution|confidence|bias|name=weight,...) with weights
// sorted by indicator name and floats printed with %g.
// Returns hex-encoded hash (64 characters).
func ComputeParameterSetID(p domain.ParameterSet) string {
	names := make([]string, 0, len(p.Weights))
	for name := range p.Weights {
		names = append(names, string(name))
	}
	sort.Strings(names)

	weights := make([]string, len(names))
	for i, name := range names {
		weights[i] = fmt.Sprintf("%s=%g", name, p.Weights[domain.IndicatorName(name)])
	}

	data := fmt.Sprintf("%g|%g|%s|%s",
		p.ExecutionThreshold,
		p.ConfidenceThreshold,
		string(p.WeightBias),
		strings.Join(weights, ","),
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
