package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/storage"
)

// CandleStore is an in-memory implementation of storage.CandleStore.
type CandleStore struct {
	mu   sync.RWMutex
	data map[string]domain.Candle // keyed by (pair, timestamp_ms)
}

// NewCandleStore creates a new in-memory candle store.
func NewCandleStore() *CandleStore {
	return &CandleStore{
		data: make(map[string]domain.Candle),
	}
}

// candleKey generates a unique key for a candle.
func candleKey(pair domain.Pair, timestampMs int64) string {
	return fmt.Sprintf("%s|%d", pair, timestampMs)
}

// InsertBulk adds candles for a pair. Fails entire batch on duplicate.
func (s *CandleStore) InsertBulk(_ context.Context, pair domain.Pair, candles []domain.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	if pair.TokenA == "" || pair.TokenB == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: check for duplicates (existing + intra-batch)
	batchKeys := make(map[string]struct{}, len(candles))
	for _, c := range candles {
		key := candleKey(pair, c.TimestampMs)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, c := range candles {
		s.data[candleKey(pair, c.TimestampMs)] = c
	}
	return nil
}

// GetByTimeRange retrieves candles within [start, end] (inclusive), ordered by timestamp ASC.
func (s *CandleStore) GetByTimeRange(_ context.Context, pair domain.Pair, start, end int64) ([]domain.Candle, error) {
	prefix := pair.String() + "|"

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Candle
	for key, c := range s.data {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix && c.TimestampMs >= start && c.TimestampMs <= end {
			result = append(result, c)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})
	return result, nil
}

// GetLatest retrieves the n most recent candles, ordered by timestamp ASC.
func (s *CandleStore) GetLatest(ctx context.Context, pair domain.Pair, n int) ([]domain.Candle, error) {
	if n <= 0 {
		return nil, storage.ErrInvalidInput
	}
	all, err := s.GetByTimeRange(ctx, pair, 0, math.MaxInt64)
	if err != nil {
		return nil, err
	}
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}

var _ storage.CandleStore = (*CandleStore)(nil)
