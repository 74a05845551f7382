package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/storage"
)

var testPair = domain.Pair{TokenA: "XRD", TokenB: "xUSDC"}

func candleAt(ts int64, close float64) domain.Candle {
	return domain.Candle{TimestampMs: ts, Open: close, High: close, Low: close, Close: close, Volume: 1}
}

func TestCandleStore_InsertBulkAndRange(t *testing.T) {
	store := NewCandleStore()
	ctx := context.Background()

	candles := []domain.Candle{candleAt(3000, 3), candleAt(1000, 1), candleAt(2000, 2)}
	if err := store.InsertBulk(ctx, testPair, candles); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	other := domain.Pair{TokenA: "XRD", TokenB: "xETH"}
	if err := store.InsertBulk(ctx, other, []domain.Candle{candleAt(1500, 9)}); err != nil {
		t.Fatalf("InsertBulk other pair failed: %v", err)
	}

	got, err := store.GetByTimeRange(ctx, testPair, 1000, 2000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(got) != 2 || got[0].TimestampMs != 1000 || got[1].TimestampMs != 2000 {
		t.Errorf("unexpected range result: %+v", got)
	}

	latest, err := store.GetLatest(ctx, testPair, 2)
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	if len(latest) != 2 || latest[0].Close != 2 || latest[1].Close != 3 {
		t.Errorf("unexpected latest result: %+v", latest)
	}
}

func TestCandleStore_DuplicateKey(t *testing.T) {
	store := NewCandleStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, testPair, []domain.Candle{candleAt(1000, 1)}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	// existing key rejects the whole batch
	err := store.InsertBulk(ctx, testPair, []domain.Candle{candleAt(2000, 2), candleAt(1000, 1)})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
	got, _ := store.GetByTimeRange(ctx, testPair, 0, 10_000)
	if len(got) != 1 {
		t.Errorf("Expected batch to be rejected atomically, got %d candles", len(got))
	}

	// intra-batch duplicate
	err = store.InsertBulk(ctx, testPair, []domain.Candle{candleAt(5000, 5), candleAt(5000, 5)})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey for intra-batch duplicate, got %v", err)
	}

	if _, err := store.GetLatest(ctx, testPair, 0); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
