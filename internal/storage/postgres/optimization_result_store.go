package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/storage"
)

// OptimizationResultStore implements storage.OptimizationResultStore using PostgreSQL.
type OptimizationResultStore struct {
	pool *Pool
}

// NewOptimizationResultStore creates a new OptimizationResultStore.
func NewOptimizationResultStore(pool *Pool) *OptimizationResultStore {
	return &OptimizationResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.OptimizationResultStore = (*OptimizationResultStore)(nil)

const selectResultColumns = `
	SELECT
		result_id, trade_id, parameter_set,
		win_rate, total_return, sharpe_ratio, max_drawdown, score,
		trade_count, adopted, reason, candle_count,
		window_start_ms, window_end_ms, evaluated_at_ms, candidates
	FROM optimization_results
`

// Insert adds a result. Returns ErrDuplicateKey if result_id exists.
func (s *OptimizationResultStore) Insert(ctx context.Context, r *domain.OptimizationResult) (err error) {
	start := time.Now()
	defer func() { observe("insert_result", start, err) }()

	params, err := json.Marshal(r.ParameterSet)
	if err != nil {
		return fmt.Errorf("encode parameter set: %w", err)
	}
	candidates, err := json.Marshal(r.Candidates)
	if err != nil {
		return fmt.Errorf("encode candidates: %w", err)
	}

	query := `
		INSERT INTO optimization_results (
			result_id, trade_id, parameter_set,
			win_rate, total_return, sharpe_ratio, max_drawdown, score,
			trade_count, adopted, reason, candle_count,
			window_start_ms, window_end_ms, evaluated_at_ms, candidates
		) VALUES (
			$1, $2, $3,
			$4, $5, $6, $7, $8,
			$9, $10, $11, $12,
			$13, $14, $15, $16
		)
	`

	_, err = s.pool.Exec(ctx, query,
		r.ResultID, r.TradeID, params,
		r.WinRate, r.TotalReturn, r.SharpeRatio, r.MaxDrawdown, r.Score,
		r.TradeCount, r.Adopted, r.Reason, r.CandleCount,
		r.WindowStartMs, r.WindowEndMs, r.EvaluatedAtMs, candidates,
	)
	return storageError("insert optimization result", err)
}

// GetByTradeID retrieves all results for a trade, ordered by evaluated_at ASC.
func (s *OptimizationResultStore) GetByTradeID(ctx context.Context, tradeID string) (_ []*domain.OptimizationResult, err error) {
	start := time.Now()
	defer func() { observe("results_by_trade", start, err) }()

	rows, err := s.pool.Query(ctx, selectResultColumns+`
		WHERE trade_id = $1
		ORDER BY evaluated_at_ms ASC, result_id ASC
	`, tradeID)
	if err != nil {
		return nil, fmt.Errorf("query optimization results: %w", err)
	}
	defer rows.Close()

	var results []*domain.OptimizationResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate optimization results: %w", err)
	}
	return results, nil
}

// GetLatest returns the most recent result for a trade. Returns ErrNotFound if none.
func (s *OptimizationResultStore) GetLatest(ctx context.Context, tradeID string) (_ *domain.OptimizationResult, err error) {
	start := time.Now()
	defer func() { observe("latest_result", start, err) }()

	row := s.pool.QueryRow(ctx, selectResultColumns+`
		WHERE trade_id = $1
		ORDER BY evaluated_at_ms DESC, result_id DESC
		LIMIT 1
	`, tradeID)
	r, err := scanResult(row)
	if err != nil {
		return nil, storageError("latest optimization result", err)
	}
	return r, nil
}

// scanResult scans one row from pgx.Row or pgx.Rows.
func scanResult(row pgx.Row) (*domain.OptimizationResult, error) {
	var r domain.OptimizationResult
	var params, candidates []byte

	err := row.Scan(
		&r.ResultID, &r.TradeID, &params,
		&r.WinRate, &r.TotalReturn, &r.SharpeRatio, &r.MaxDrawdown, &r.Score,
		&r.TradeCount, &r.Adopted, &r.Reason, &r.CandleCount,
		&r.WindowStartMs, &r.WindowEndMs, &r.EvaluatedAtMs, &candidates,
	)
	if err != nil {
		return nil, fmt.Errorf("scan optimization result: %w", err)
	}

	if err := json.Unmarshal(params, &r.ParameterSet); err != nil {
		return nil, fmt.Errorf("decode parameter set: %w", err)
	}
	if err := json.Unmarshal(candidates, &r.Candidates); err != nil {
		return nil, fmt.Errorf("decode candidates: %w", err)
	}
	return &r, nil
}
