// Package execution submits orders to a venue. Only paper trading is
// implemented; live venues plug in behind engine.Executor.
package execution

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/engine"
	"github.com/Akondltd/radbot/internal/logger"
)

var hundred = decimal.NewFromInt(100)

// PaperExecutor fills every order at its expected price less a flat fee.
// Resubmitting a ClientOrderID returns the original fill.
type PaperExecutor struct {
	fee decimal.Decimal // fraction, 0.003 = 0.3%
	log *logger.Logger
	now func() time.Time

	mu    sync.Mutex
	fills map[string]*domain.Fill
}

var _ engine.Executor = (*PaperExecutor)(nil)

// NewPaperExecutor creates a paper executor charging feePct percent per swap.
func NewPaperExecutor(feePct float64, log *logger.Logger) (*PaperExecutor, error) {
	if feePct < 0 || feePct >= 100 {
		return nil, fmt.Errorf("%w: fee %.4f%%", domain.ErrInvalidParameter, feePct)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &PaperExecutor{
		fee:   decimal.NewFromFloat(feePct).Div(hundred),
		log:   log.Component("paper_executor"),
		now:   time.Now,
		fills: make(map[string]*domain.Fill),
	}, nil
}

// Submit implements engine.Executor.
func (p *PaperExecutor) Submit(_ context.Context, order *domain.Order) (*domain.Fill, error) {
	if order == nil || order.ClientOrderID == "" {
		return nil, fmt.Errorf("%w: order without client id", domain.ErrInvalidParameter)
	}
	if !order.AmountIn.IsPositive() || !order.ExpectedPrice.IsPositive() {
		return nil, fmt.Errorf("%w: order %s amount %s price %s",
			domain.ErrInvalidParameter, order.ClientOrderID, order.AmountIn, order.ExpectedPrice)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if f, ok := p.fills[order.ClientOrderID]; ok {
		cp := *f
		return &cp, nil
	}

	net := order.AmountIn.Mul(decimal.NewFromInt(1).Sub(p.fee))
	var out decimal.Decimal
	switch order.Side {
	case domain.ActionBuy:
		out = net.Div(order.ExpectedPrice)
	case domain.ActionSell:
		out = net.Mul(order.ExpectedPrice)
	default:
		return nil, fmt.Errorf("%w: side %s", domain.ErrInvalidParameter, order.Side)
	}

	fill := &domain.Fill{
		Price:       order.ExpectedPrice,
		AmountIn:    order.AmountIn,
		AmountOut:   out,
		TimestampMs: p.now().UnixMilli(),
		TxRef:       "paper:" + order.ClientOrderID,
	}
	p.fills[order.ClientOrderID] = fill

	p.log.Info("paper fill",
		logger.String("trade_id", order.TradeID),
		logger.String("side", string(order.Side)),
		logger.String("amount_in", fill.AmountIn.String()),
		logger.String("amount_out", fill.AmountOut.String()),
		logger.String("price", fill.Price.String()),
	)

	cp := *fill
	return &cp, nil
}
