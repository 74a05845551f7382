package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/storage"
)

// CandleStore implements storage.CandleStore using ClickHouse.
type CandleStore struct {
	conn *Conn
}

// NewCandleStore creates a new CandleStore.
func NewCandleStore(conn *Conn) *CandleStore {
	return &CandleStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CandleStore = (*CandleStore)(nil)

// InsertBulk adds candles for a pair. Fails entire batch on duplicate
// (pair, timestamp_ms). MergeTree does not enforce keys, so duplicates are
// checked before the batch is sent.
func (s *CandleStore) InsertBulk(ctx context.Context, pair domain.Pair, candles []domain.Candle) (err error) {
	if len(candles) == 0 {
		return nil
	}
	if pair.TokenA == "" || pair.TokenB == "" {
		return storage.ErrInvalidInput
	}
	start := time.Now()
	defer func() { observe("insert_candles", start, err) }()

	seen := make(map[int64]struct{}, len(candles))
	minTs, maxTs := candles[0].TimestampMs, candles[0].TimestampMs
	for _, c := range candles {
		if _, exists := seen[c.TimestampMs]; exists {
			return storage.ErrDuplicateKey
		}
		seen[c.TimestampMs] = struct{}{}
		minTs = min(minTs, c.TimestampMs)
		maxTs = max(maxTs, c.TimestampMs)
	}

	existing, err := s.timestamps(ctx, pair, minTs, maxTs)
	if err != nil {
		return fmt.Errorf("check existing candles: %w", err)
	}
	for _, ts := range existing {
		if _, clash := seen[ts]; clash {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO candles (
			pair, timestamp_ms, open, high, low, close, volume
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	key := pair.String()
	for _, c := range candles {
		if err := batch.Append(key, uint64(c.TimestampMs), c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByTimeRange retrieves candles within [start, end] (inclusive),
// ordered by timestamp ASC.
func (s *CandleStore) GetByTimeRange(ctx context.Context, pair domain.Pair, start, end int64) (_ []domain.Candle, err error) {
	if start < 0 {
		start = 0
	}
	if end < start {
		return nil, nil
	}
	began := time.Now()
	defer func() { observe("candles_by_range", began, err) }()

	query := `
		SELECT timestamp_ms, open, high, low, close, volume
		FROM candles
		WHERE pair = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, pair.String(), uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query candles by time range: %w", err)
	}
	defer rows.Close()

	return scanCandles(rows)
}

// GetLatest retrieves the n most recent candles, ordered by timestamp ASC.
func (s *CandleStore) GetLatest(ctx context.Context, pair domain.Pair, n int) (_ []domain.Candle, err error) {
	if n <= 0 {
		return nil, storage.ErrInvalidInput
	}
	began := time.Now()
	defer func() { observe("latest_candles", began, err) }()

	query := `
		SELECT timestamp_ms, open, high, low, close, volume
		FROM (
			SELECT timestamp_ms, open, high, low, close, volume
			FROM candles
			WHERE pair = ?
			ORDER BY timestamp_ms DESC
			LIMIT ?
		)
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, pair.String(), uint64(n))
	if err != nil {
		return nil, fmt.Errorf("query latest candles: %w", err)
	}
	defer rows.Close()

	return scanCandles(rows)
}

func (s *CandleStore) timestamps(ctx context.Context, pair domain.Pair, from, to int64) ([]int64, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT timestamp_ms FROM candles
		WHERE pair = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
	`, pair.String(), uint64(from), uint64(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var ts uint64
		if err := rows.Scan(&ts); err != nil {
			return nil, err
		}
		out = append(out, int64(ts))
	}
	return out, rows.Err()
}

// scanCandles scans multiple rows.
func scanCandles(rows chRows) ([]domain.Candle, error) {
	var candles []domain.Candle

	for rows.Next() {
		var c domain.Candle
		var timestampMs uint64

		if err := rows.Scan(&timestampMs, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan candle row: %w", err)
		}

		c.TimestampMs = int64(timestampMs)
		candles = append(candles, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candle rows: %w", err)
	}

	return candles, nil
}
