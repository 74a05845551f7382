package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/storage"
)

// OptimizationResultStore is an in-memory implementation of storage.OptimizationResultStore.
type OptimizationResultStore struct {
	mu   sync.RWMutex
	data map[string]*domain.OptimizationResult // keyed by result_id
}

// NewOptimizationResultStore creates a new in-memory optimization result store.
func NewOptimizationResultStore() *OptimizationResultStore {
	return &OptimizationResultStore{
		data: make(map[string]*domain.OptimizationResult),
	}
}

// Insert adds a result. Returns ErrDuplicateKey if result_id exists.
func (s *OptimizationResultStore) Insert(_ context.Context, r *domain.OptimizationResult) error {
	if r == nil || r.ResultID == "" || r.TradeID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ResultID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[r.ResultID] = copyResult(r)
	return nil
}

// GetByTradeID retrieves all results for a trade, ordered by evaluated_at ASC.
func (s *OptimizationResultStore) GetByTradeID(_ context.Context, tradeID string) ([]*domain.OptimizationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.OptimizationResult
	for _, r := range s.data {
		if r.TradeID == tradeID {
			result = append(result, copyResult(r))
		}
	}

	// Sort by (evaluated_at ASC, result_id ASC)
	sort.Slice(result, func(i, j int) bool {
		if result[i].EvaluatedAtMs != result[j].EvaluatedAtMs {
			return result[i].EvaluatedAtMs < result[j].EvaluatedAtMs
		}
		return result[i].ResultID < result[j].ResultID
	})
	return result, nil
}

// GetLatest returns the most recent result for a trade. Returns ErrNotFound if none.
func (s *OptimizationResultStore) GetLatest(ctx context.Context, tradeID string) (*domain.OptimizationResult, error) {
	results, err := s.GetByTradeID(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, storage.ErrNotFound
	}
	return results[len(results)-1], nil
}

func copyResult(r *domain.OptimizationResult) *domain.OptimizationResult {
	out := *r
	out.ParameterSet = r.ParameterSet.Clone()
	out.Candidates = make([]domain.CandidateScore, len(r.Candidates))
	for i, c := range r.Candidates {
		c.Parameters = c.Parameters.Clone()
		out.Candidates[i] = c
	}
	return &out
}

var _ storage.OptimizationResultStore = (*OptimizationResultStore)(nil)
