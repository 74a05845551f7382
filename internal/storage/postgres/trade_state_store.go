package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/storage"
)

// TradeStateStore implements storage.TradeStateStore using PostgreSQL.
// The state is stored as JSONB so decimal amounts keep full precision.
type TradeStateStore struct {
	pool *Pool
}

// NewTradeStateStore creates a new TradeStateStore.
func NewTradeStateStore(pool *Pool) *TradeStateStore {
	return &TradeStateStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStateStore = (*TradeStateStore)(nil)

// Create adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeStateStore) Create(ctx context.Context, ts *domain.TradeState) (err error) {
	start := time.Now()
	defer func() { observe("create_trade", start, err) }()

	data, err := json.Marshal(ts)
	if err != nil {
		return fmt.Errorf("encode trade state: %w", err)
	}

	query := `
		INSERT INTO trade_states (
			trade_id, pair, strategy_kind, status, state, created_at_ms, updated_at_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = s.pool.Exec(ctx, query,
		ts.TradeID, ts.Pair.String(), string(ts.StrategyKind), string(ts.Status),
		data, ts.CreatedAtMs, ts.UpdatedAtMs,
	)
	return storageError("insert trade state", err)
}

// Get retrieves a trade by ID. Returns ErrNotFound if not exists.
func (s *TradeStateStore) Get(ctx context.Context, tradeID string) (_ *domain.TradeState, err error) {
	start := time.Now()
	defer func() { observe("get_trade", start, err) }()

	var data []byte
	err = s.pool.QueryRow(ctx, `SELECT state FROM trade_states WHERE trade_id = $1`, tradeID).Scan(&data)
	if err != nil {
		return nil, storageError("get trade state", err)
	}
	return decodeTradeState(data)
}

// Save replaces an existing trade. Returns ErrNotFound if not exists.
func (s *TradeStateStore) Save(ctx context.Context, ts *domain.TradeState) (err error) {
	start := time.Now()
	defer func() { observe("save_trade", start, err) }()

	data, err := json.Marshal(ts)
	if err != nil {
		return fmt.Errorf("encode trade state: %w", err)
	}

	query := `
		UPDATE trade_states
		SET status = $2, strategy_kind = $3, state = $4, updated_at_ms = $5
		WHERE trade_id = $1
	`

	tag, err := s.pool.Exec(ctx, query, ts.TradeID, string(ts.Status), string(ts.StrategyKind), data, ts.UpdatedAtMs)
	if err != nil {
		return fmt.Errorf("update trade state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// List returns all trades ordered by trade_id ASC.
func (s *TradeStateStore) List(ctx context.Context) (_ []*domain.TradeState, err error) {
	start := time.Now()
	defer func() { observe("list_trades", start, err) }()

	rows, err := s.pool.Query(ctx, `SELECT state FROM trade_states ORDER BY trade_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query trade states: %w", err)
	}
	defer rows.Close()

	var result []*domain.TradeState
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan trade state: %w", err)
		}
		ts, err := decodeTradeState(data)
		if err != nil {
			return nil, err
		}
		result = append(result, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade states: %w", err)
	}
	return result, nil
}

// Delete removes a trade. Returns ErrNotFound if not exists.
func (s *TradeStateStore) Delete(ctx context.Context, tradeID string) (err error) {
	start := time.Now()
	defer func() { observe("delete_trade", start, err) }()

	tag, err := s.pool.Exec(ctx, `DELETE FROM trade_states WHERE trade_id = $1`, tradeID)
	if err != nil {
		return fmt.Errorf("delete trade state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func decodeTradeState(data []byte) (*domain.TradeState, error) {
	var ts domain.TradeState
	if err := json.Unmarshal(data, &ts); err != nil {
		return nil, fmt.Errorf("decode trade state: %w", err)
	}
	return &ts, nil
}
