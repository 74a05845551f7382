// Command ingest streams live prices from the feed and stores them as
// fixed-granularity candles. It runs without the decision loop so candle
// history can be built before any trade is ticked.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Akondltd/radbot/internal/app"
	"github.com/Akondltd/radbot/internal/config"
	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/feed"
	"github.com/Akondltd/radbot/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ingest: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("RADBOT_CONFIG"), "Path to YAML config (defaults when empty)")
	url := flag.String("url", "", "Feed WebSocket URL (overrides feed.url)")
	pairList := flag.String("pairs", "", "Comma-separated pairs A/B (defaults to configured trade pairs)")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		return err
	}
	if *url != "" {
		cfg.Feed.URL = *url
	}
	log, err := logger.New(&cfg.Log)
	if err != nil {
		return err
	}
	log = log.Component("ingest")

	pairs, err := resolvePairs(*pairList, cfg.Trades)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		return fmt.Errorf("no pairs to ingest: use -pairs or configure trades")
	}

	ctx, cancel := app.SignalContext(context.Background(), log)
	defer cancel()

	stores, err := app.OpenStores(ctx, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer stores.Close()

	if cfg.Metrics.Enabled {
		go app.ServeMetrics(ctx, cfg.Metrics, log)
	}

	if err := app.RunFeed(ctx, cfg.Feed, pairs, stores.Candles, log); err != nil {
		return err
	}
	log.Info("ingest stopped")
	return nil
}

func resolvePairs(list string, trades []config.TradeConfig) ([]domain.Pair, error) {
	if list == "" {
		return app.TradePairs(trades), nil
	}
	var pairs []domain.Pair
	for _, s := range strings.Split(list, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		p, err := feed.ParsePair(s)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}
