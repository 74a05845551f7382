// Command engine runs the decision loop: it seeds configured trades, ticks
// every trade on an interval and re-optimizes AI trades when due. With a
// feed url configured it also ingests live prices into candles.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"

	"github.com/joho/godotenv"

	"github.com/Akondltd/radbot/internal/app"
	"github.com/Akondltd/radbot/internal/config"
	"github.com/Akondltd/radbot/internal/logger"
	"github.com/Akondltd/radbot/internal/orchestrator"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "engine: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("RADBOT_CONFIG"), "Path to YAML config (defaults when empty)")
	once := flag.Bool("once", false, "Run a single round and exit")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(&cfg.Log)
	if err != nil {
		return err
	}
	log = log.Component("engine")

	ctx, cancel := app.SignalContext(context.Background(), log)
	defer cancel()

	rt, err := app.Build(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("build runtime: %w", err)
	}
	defer rt.Close()

	seeded, err := rt.SeedTrades(ctx)
	if err != nil {
		return fmt.Errorf("seed trades: %w", err)
	}
	log.Info("trades seeded", logger.Int("created", seeded), logger.Int("configured", len(cfg.Trades)))

	orch, err := orchestrator.New(orchestrator.Options{
		Engine:           rt.Engine,
		Trades:           rt.Stores.Trades,
		TickInterval:     cfg.Engine.TickInterval,
		OptimizeInterval: cfg.Engine.OptimizeInterval,
		Concurrency:      cfg.Engine.Concurrency,
		Logger:           log,
	})
	if err != nil {
		return err
	}

	if *once {
		res, err := orch.RunOnce(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("trades=%d executed=%d held=%d optimized=%d errors=%d\n",
			res.TradesSeen, res.Executed, res.Held, res.Optimized, len(res.Errors))
		for _, e := range res.Errors {
			fmt.Println("  " + e)
		}
		return nil
	}

	var wg sync.WaitGroup
	if cfg.Metrics.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.ServeMetrics(ctx, cfg.Metrics, log)
		}()
	}
	if cfg.Feed.URL != "" {
		pairs := app.TradePairs(cfg.Trades)
		if len(pairs) > 0 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := app.RunFeed(ctx, cfg.Feed, pairs, rt.Stores.Candles, log); err != nil {
					log.Error("feed stopped", logger.Error(err))
				}
			}()
		}
	}

	err = orch.Run(ctx)
	cancel()
	wg.Wait()
	if err != nil && ctx.Err() == nil {
		return err
	}
	log.Info("engine stopped")
	return nil
}
