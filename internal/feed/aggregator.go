package feed

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/logger"
	"github.com/Akondltd/radbot/internal/observability"
	"github.com/Akondltd/radbot/internal/storage"
)

// Aggregator folds price updates into candles of a fixed granularity.
// A candle is emitted once the first update of a later bucket arrives.
type Aggregator struct {
	granularityMs int64

	mu   sync.Mutex
	open map[domain.Pair]*openCandle
}

type openCandle struct {
	candle domain.Candle
	lastTs int64 // timestamp of the print that set Close
}

// NewAggregator creates an aggregator. Granularity must be at least one second.
func NewAggregator(granularity time.Duration) (*Aggregator, error) {
	if granularity < time.Second {
		return nil, fmt.Errorf("%w: granularity %s", domain.ErrInvalidParameter, granularity)
	}
	return &Aggregator{
		granularityMs: granularity.Milliseconds(),
		open:          make(map[domain.Pair]*openCandle),
	}, nil
}

// bucket returns the open time of the candle containing ts.
func (a *Aggregator) bucket(ts int64) int64 {
	return ts - ts%a.granularityMs
}

// Add folds u into its pair's open candle and returns the candle it closed, if any.
// Updates older than the open bucket are dropped; late prints inside the
// open bucket widen the range but never move the close.
func (a *Aggregator) Add(u PriceUpdate) (*domain.Candle, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	b := a.bucket(u.TimestampMs)
	cur, ok := a.open[u.Pair]
	if !ok {
		a.open[u.Pair] = newCandle(b, u)
		return nil, false
	}

	switch {
	case b < cur.candle.TimestampMs:
		return nil, false
	case b == cur.candle.TimestampMs:
		cur.candle.High = max(cur.candle.High, u.Price)
		cur.candle.Low = min(cur.candle.Low, u.Price)
		cur.candle.Volume += u.Volume
		if u.TimestampMs >= cur.lastTs {
			cur.candle.Close = u.Price
			cur.lastTs = u.TimestampMs
		}
		return nil, false
	}

	closed := cur.candle
	a.open[u.Pair] = newCandle(b, u)
	return &closed, true
}

// Flush closes every candle whose bucket ended at or before nowMs.
func (a *Aggregator) Flush(nowMs int64) map[domain.Pair]domain.Candle {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[domain.Pair]domain.Candle)
	for pair, c := range a.open {
		if c.candle.TimestampMs+a.granularityMs <= nowMs {
			out[pair] = c.candle
			delete(a.open, pair)
		}
	}
	return out
}

func newCandle(bucket int64, u PriceUpdate) *openCandle {
	return &openCandle{
		candle: domain.Candle{
			TimestampMs: bucket,
			Open:        u.Price,
			High:        u.Price,
			Low:         u.Price,
			Close:       u.Price,
			Volume:      u.Volume,
		},
		lastTs: u.TimestampMs,
	}
}

// Ingester drains a price stream into a candle store.
type Ingester struct {
	agg   *Aggregator
	store storage.CandleStore
	log   *logger.Logger
	now   func() time.Time
}

// NewIngester creates an ingester.
func NewIngester(agg *Aggregator, store storage.CandleStore, log *logger.Logger) *Ingester {
	if log == nil {
		log = logger.Nop()
	}
	return &Ingester{agg: agg, store: store, log: log.Component("ingest"), now: time.Now}
}

// Run consumes updates until the channel closes or ctx is done. Idle pairs
// are flushed on every granularity tick so quiet markets still close candles.
func (i *Ingester) Run(ctx context.Context, updates <-chan PriceUpdate) error {
	ticker := time.NewTicker(time.Duration(i.agg.granularityMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			if c, closed := i.agg.Add(u); closed {
				i.persist(ctx, u.Pair, *c)
			}
		case <-ticker.C:
			flushed := i.agg.Flush(i.now().UnixMilli())
			pairs := make([]domain.Pair, 0, len(flushed))
			for p := range flushed {
				pairs = append(pairs, p)
			}
			sort.Slice(pairs, func(a, b int) bool { return pairs[a].String() < pairs[b].String() })
			for _, p := range pairs {
				i.persist(ctx, p, flushed[p])
			}
		}
	}
}

// persist stores one closed candle. Duplicates are logged and skipped.
func (i *Ingester) persist(ctx context.Context, pair domain.Pair, c domain.Candle) {
	err := i.store.InsertBulk(ctx, pair, []domain.Candle{c})
	switch {
	case err == nil:
		observability.RecordCandlesStored(1)
	case errors.Is(err, storage.ErrDuplicateKey):
		i.log.Debug("candle already stored", logger.String("pair", pair.String()), logger.Int64("ts", c.TimestampMs))
	default:
		i.log.Error("candle store failed", logger.String("pair", pair.String()), logger.Error(err))
	}
}
