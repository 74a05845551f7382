package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/storage"
)

// TradeStateStore is an in-memory implementation of storage.TradeStateStore.
type TradeStateStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TradeState // keyed by trade_id
}

// NewTradeStateStore creates a new in-memory trade state store.
func NewTradeStateStore() *TradeStateStore {
	return &TradeStateStore{
		data: make(map[string]*domain.TradeState),
	}
}

// Create adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeStateStore) Create(_ context.Context, ts *domain.TradeState) error {
	if ts == nil || ts.TradeID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[ts.TradeID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[ts.TradeID] = ts.Clone()
	return nil
}

// Get retrieves a trade by ID. Returns ErrNotFound if not exists.
func (s *TradeStateStore) Get(_ context.Context, tradeID string) (*domain.TradeState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ts, exists := s.data[tradeID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return ts.Clone(), nil
}

// Save replaces an existing trade. Returns ErrNotFound if not exists.
func (s *TradeStateStore) Save(_ context.Context, ts *domain.TradeState) error {
	if ts == nil || ts.TradeID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[ts.TradeID]; !exists {
		return storage.ErrNotFound
	}
	s.data[ts.TradeID] = ts.Clone()
	return nil
}

// List returns all trades ordered by trade_id ASC.
func (s *TradeStateStore) List(_ context.Context) ([]*domain.TradeState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.TradeState, 0, len(s.data))
	for _, ts := range s.data {
		result = append(result, ts.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TradeID < result[j].TradeID
	})
	return result, nil
}

// Delete removes a trade. Returns ErrNotFound if not exists.
func (s *TradeStateStore) Delete(_ context.Context, tradeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[tradeID]; !exists {
		return storage.ErrNotFound
	}
	delete(s.data, tradeID)
	return nil
}

var _ storage.TradeStateStore = (*TradeStateStore)(nil)
