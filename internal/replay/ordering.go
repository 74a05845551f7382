package replay

import (
	"sort"

	"github.com/Akondltd/radbot/internal/domain"
)

// OrderCandles returns a copy of candles ordered by timestamp ASC with
// duplicate timestamps removed. The first candle seen for a timestamp wins,
// so the result depends only on the input order of duplicates.
func OrderCandles(candles []domain.Candle) []domain.Candle {
	out := make([]domain.Candle, len(candles))
	copy(out, candles)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TimestampMs < out[j].TimestampMs
	})

	deduped := out[:0]
	for i, c := range out {
		if i > 0 && c.TimestampMs == out[i-1].TimestampMs {
			continue
		}
		deduped = append(deduped, c)
	}
	return deduped
}

// CheckOrdering returns ErrInvalidOrdering unless timestamps strictly increase.
func CheckOrdering(candles []domain.Candle) error {
	for i := 1; i < len(candles); i++ {
		if candles[i].TimestampMs <= candles[i-1].TimestampMs {
			return ErrInvalidOrdering
		}
	}
	return nil
}
