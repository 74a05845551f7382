package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/storage"
)

func TestOptimizationResultStore_InsertAndHistory(t *testing.T) {
	store := NewOptimizationResultStore()
	ctx := context.Background()

	params, err := domain.NewParameterSet(0.6, 0.7, domain.BiasMomentum)
	if err != nil {
		t.Fatalf("NewParameterSet failed: %v", err)
	}

	results := []*domain.OptimizationResult{
		{ResultID: "r2", TradeID: "t1", EvaluatedAtMs: 2000, ParameterSet: params, Adopted: true},
		{ResultID: "r1", TradeID: "t1", EvaluatedAtMs: 1000, Reason: domain.ReasonNoTrades},
		{ResultID: "r3", TradeID: "t2", EvaluatedAtMs: 1500},
	}
	for _, r := range results {
		if err := store.Insert(ctx, r); err != nil {
			t.Fatalf("Insert %s failed: %v", r.ResultID, err)
		}
	}

	if err := store.Insert(ctx, results[0]); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	history, err := store.GetByTradeID(ctx, "t1")
	if err != nil {
		t.Fatalf("GetByTradeID failed: %v", err)
	}
	if len(history) != 2 || history[0].ResultID != "r1" || history[1].ResultID != "r2" {
		t.Fatalf("unexpected history order: %+v", history)
	}

	latest, err := store.GetLatest(ctx, "t1")
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	if latest.ResultID != "r2" || !latest.Adopted {
		t.Errorf("Expected adopted r2 as latest, got %s", latest.ResultID)
	}

	// returned copies are detached
	latest.ParameterSet.Weights[domain.IndicatorRSI] = 99
	again, _ := store.GetLatest(ctx, "t1")
	if again.ParameterSet.Weights[domain.IndicatorRSI] == 99 {
		t.Error("stored parameter weights were mutated through a returned copy")
	}

	if _, err := store.GetLatest(ctx, "none"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
