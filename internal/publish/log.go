package publish

import (
	"context"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/engine"
	"github.com/Akondltd/radbot/internal/logger"
)

// LogPublisher writes events to the structured log. Used when Kafka is disabled.
type LogPublisher struct {
	log *logger.Logger
}

var _ engine.EventPublisher = (*LogPublisher)(nil)

// NewLogPublisher creates a log-backed publisher.
func NewLogPublisher(log *logger.Logger) *LogPublisher {
	if log == nil {
		log = logger.Nop()
	}
	return &LogPublisher{log: log.Component("events")}
}

// PublishAction implements engine.EventPublisher.
func (p *LogPublisher) PublishAction(_ context.Context, a *domain.Action) error {
	fields := []logger.Field{
		logger.String("trade_id", a.TradeID),
		logger.String("kind", string(a.Kind)),
		logger.String("reason", a.Reason),
		logger.String("amount", a.Amount.String()),
		logger.String("price", a.Price.String()),
		logger.Bool("forced", a.Forced),
	}
	if a.ImpactPct != nil {
		fields = append(fields, logger.Float64("impact_pct", *a.ImpactPct))
	}
	if a.Fill != nil {
		fields = append(fields, logger.String("amount_out", a.Fill.AmountOut.String()))
	}
	p.log.Info("action", fields...)
	return nil
}

// PublishOptimization implements engine.EventPublisher.
func (p *LogPublisher) PublishOptimization(_ context.Context, r *domain.OptimizationResult) error {
	p.log.Info("optimization",
		logger.String("trade_id", r.TradeID),
		logger.String("result_id", r.ResultID),
		logger.Bool("adopted", r.Adopted),
		logger.Float64("score", r.Score),
	)
	return nil
}
