package domain

import "fmt"

// Candle is one OHLCV bar for a pair. Prices are quote token per base token.
// Corresponds to the candles table in ClickHouse.
type Candle struct {
	TimestampMs int64   // bar open time (ms)
	Open        float64 // first price in bar
	High        float64 // highest price in bar
	Low         float64 // lowest price in bar
	Close       float64 // last price in bar
	Volume      float64 // traded volume in bar
}

// Closes extracts close prices in order.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Highs extracts high prices in order.
func Highs(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.High
	}
	return out
}

// Lows extracts low prices in order.
func Lows(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Low
	}
	return out
}

// Volumes extracts volumes in order.
func Volumes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Volume
	}
	return out
}

// ValidateCandles checks that timestamps are strictly increasing.
func ValidateCandles(candles []Candle) error {
	for i := 1; i < len(candles); i++ {
		if candles[i].TimestampMs <= candles[i-1].TimestampMs {
			return fmt.Errorf("%w: candle %d timestamp %d not after %d",
				ErrInvalidParameter, i, candles[i].TimestampMs, candles[i-1].TimestampMs)
		}
	}
	return nil
}
