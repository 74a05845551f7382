package idhash

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
)

// ComputeResultID computes a deterministic result_id using SHA256.
// Formula: SHA256(trade_id|window_start_ms|window_end_ms|candle_count|evaluated_at_ms)
// Returns the base58-encoded hash (43 or 44 characters).
func ComputeResultID(
	tradeID string,
	windowStartMs int64,
	windowEndMs int64,
	candleCount int,
	evaluatedAtMs int64,
) string {
	data := fmt.Sprintf("%s|%d|%d|%d|%d",
		tradeID,
		windowStartMs,
		windowEndMs,
		candleCount,
		evaluatedAtMs,
	)

	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:])
}
