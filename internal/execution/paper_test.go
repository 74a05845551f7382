package execution

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akondltd/radbot/internal/domain"
)

func order(id string, side domain.ActionKind, amount, price string) *domain.Order {
	return &domain.Order{
		ClientOrderID: id,
		TradeID:       "trade-1",
		Pair:          domain.Pair{TokenA: "XRD", TokenB: "xUSDC"},
		Side:          side,
		AmountIn:      decimal.RequireFromString(amount),
		ExpectedPrice: decimal.RequireFromString(price),
	}
}

func TestPaperExecutor_Fills(t *testing.T) {
	ex, err := NewPaperExecutor(0.3, nil)
	require.NoError(t, err)
	ctx := context.Background()

	buy, err := ex.Submit(ctx, order("o-1", domain.ActionBuy, "1000", "0.04"))
	require.NoError(t, err)
	assert.True(t, buy.AmountOut.Equal(decimal.RequireFromString("24925")), "got %s", buy.AmountOut)

	sell, err := ex.Submit(ctx, order("o-2", domain.ActionSell, "24925", "0.05"))
	require.NoError(t, err)
	assert.True(t, sell.AmountOut.Equal(decimal.RequireFromString("1242.51125")), "got %s", sell.AmountOut)
	assert.Equal(t, "paper:o-2", sell.TxRef)
}

func TestPaperExecutor_Idempotent(t *testing.T) {
	ex, err := NewPaperExecutor(0, nil)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := ex.Submit(ctx, order("o-1", domain.ActionSell, "100", "0.04"))
	require.NoError(t, err)
	again, err := ex.Submit(ctx, order("o-1", domain.ActionSell, "999", "1"))
	require.NoError(t, err)
	assert.Equal(t, first, again)

	// callers cannot corrupt the recorded fill
	again.AmountOut = decimal.Zero
	third, _ := ex.Submit(ctx, order("o-1", domain.ActionSell, "100", "0.04"))
	assert.True(t, third.AmountOut.Equal(decimal.NewFromInt(4)))
}

func TestPaperExecutor_Rejects(t *testing.T) {
	_, err := NewPaperExecutor(100, nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidParameter))

	ex, _ := NewPaperExecutor(0.3, nil)
	ctx := context.Background()
	for _, o := range []*domain.Order{
		nil,
		order("", domain.ActionBuy, "1", "1"),
		order("o", domain.ActionBuy, "0", "1"),
		order("o", domain.ActionBuy, "1", "0"),
		order("o", domain.ActionHold, "1", "1"),
	} {
		_, err := ex.Submit(ctx, o)
		assert.ErrorIs(t, err, domain.ErrInvalidParameter)
	}
}
