package postgres

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/storage"
)

func newTrade(id string) *domain.TradeState {
	params, _ := domain.NewParameterSet(0.6, 0.7, domain.BiasMomentum)
	return &domain.TradeState{
		TradeID:           id,
		Pair:              domain.Pair{TokenA: "XRD", TokenB: "xUSDC"},
		AccumulationToken: "xUSDC",
		StartToken:        "xUSDC",
		StartAmount:       decimal.NewFromInt(1000),
		HoldingToken:      "XRD",
		Amount:            decimal.RequireFromString("25000.123456789012345678"),
		Status:            domain.StatusHoldingA,
		StrategyKind:      domain.StrategyAI,
		Parameters:        params,
		PositionFraction:  0.42,
		StopLossPct:       domain.DecimalPtr(decimal.RequireFromString("0.10")),
		EntryPrice:        domain.DecimalPtr(decimal.RequireFromString("0.04")),
		OutcomeHistory: []domain.Outcome{
			{EntryPrice: decimal.RequireFromString("0.03"), ExitPrice: decimal.RequireFromString("0.033"), PnLPct: 10, TimestampMs: 1_700_000_000_000},
		},
		TradeCount:  1,
		CreatedAtMs: 1_700_000_000_000,
		UpdatedAtMs: 1_700_000_000_000,
	}
}

func TestTradeStateStore(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTradeStateStore(pool)
	ctx := context.Background()

	t.Run("Create and Get keep full precision", func(t *testing.T) {
		require.NoError(t, store.Create(ctx, newTrade("t1")))

		got, err := store.Get(ctx, "t1")
		require.NoError(t, err)
		assert.True(t, got.Amount.Equal(decimal.RequireFromString("25000.123456789012345678")))
		assert.Equal(t, domain.BiasMomentum, got.Parameters.WeightBias)
		assert.Equal(t, 1.3, got.Parameters.Weight(domain.IndicatorMACD))
		require.Len(t, got.OutcomeHistory, 1)
		assert.True(t, got.StopLossPct.Equal(decimal.RequireFromString("0.1")))
	})

	t.Run("Create duplicate", func(t *testing.T) {
		err := store.Create(ctx, newTrade("t1"))
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	})

	t.Run("Save replaces", func(t *testing.T) {
		ts := newTrade("t1")
		ts.Status = domain.StatusPaused
		ts.ResumeStatus = domain.StatusHoldingA
		ts.UpdatedAtMs++
		require.NoError(t, store.Save(ctx, ts))

		got, err := store.Get(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPaused, got.Status)
		assert.Equal(t, domain.StatusHoldingA, got.ResumeStatus)
	})

	t.Run("Save missing", func(t *testing.T) {
		err := store.Save(ctx, newTrade("nope"))
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("List ordered", func(t *testing.T) {
		require.NoError(t, store.Create(ctx, newTrade("t0")))
		all, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "t0", all[0].TradeID)
		assert.Equal(t, "t1", all[1].TradeID)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "t0"))
		assert.ErrorIs(t, store.Delete(ctx, "t0"), storage.ErrNotFound)
		_, err := store.Get(ctx, "t0")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}
