package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/Akondltd/radbot/internal/config"
	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/feed"
	"github.com/Akondltd/radbot/internal/logger"
	"github.com/Akondltd/radbot/internal/storage"
)

// ShutdownTimeout bounds graceful shutdown after the first signal.
const ShutdownTimeout = 30 * time.Second

// TradePairs returns the distinct pairs of the configured trades, sorted.
func TradePairs(trades []config.TradeConfig) []domain.Pair {
	seen := make(map[domain.Pair]bool, len(trades))
	var pairs []domain.Pair
	for _, t := range trades {
		p := domain.Pair{TokenA: t.TokenA, TokenB: t.TokenB}
		if seen[p] {
			continue
		}
		seen[p] = true
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].String() < pairs[j].String() })
	return pairs
}

// RunFeed streams prices for pairs into candles until ctx is done.
func RunFeed(ctx context.Context, cfg config.FeedConfig, pairs []domain.Pair, candles storage.CandleStore, log *logger.Logger) error {
	if cfg.URL == "" {
		return fmt.Errorf("%w: feed url is empty", domain.ErrInvalidParameter)
	}
	agg, err := feed.NewAggregator(cfg.Granularity)
	if err != nil {
		return err
	}

	wsCfg := feed.DefaultWSConfig()
	wsCfg.ReconnectDelay = cfg.ReconnectDelay
	wsCfg.PingInterval = cfg.PingInterval

	client, err := feed.NewWSClient(ctx, cfg.URL, pairs, &wsCfg, log)
	if err != nil {
		return fmt.Errorf("connect feed: %w", err)
	}
	defer client.Close()

	log.Info("feed started",
		logger.String("url", cfg.URL),
		logger.Int("pairs", len(pairs)),
		logger.Duration("granularity", cfg.Granularity))

	err = feed.NewIngester(agg, candles, log).Run(ctx, client.Updates())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM. A second
// signal, or a shutdown that outlasts ShutdownTimeout, exits the process.
func SignalContext(parent context.Context, log *logger.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			log.Info("shutdown requested", logger.String("signal", sig.String()))
			cancel()
		case <-parent.Done():
			return
		}

		select {
		case sig := <-sigCh:
			log.Warn("second signal, forcing exit", logger.String("signal", sig.String()))
			os.Exit(1)
		case <-time.After(ShutdownTimeout):
			log.Error("graceful shutdown timed out, forcing exit", logger.Duration("timeout", ShutdownTimeout))
			os.Exit(1)
		}
	}()

	return ctx, cancel
}
