// Command backtest replays a trade's candle history under one AI parameter
// set and prints the simulated round trips and performance metrics.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Akondltd/radbot/internal/app"
	"github.com/Akondltd/radbot/internal/backtest"
	"github.com/Akondltd/radbot/internal/config"
	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/feed"
	"github.com/Akondltd/radbot/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "backtest: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("RADBOT_CONFIG"), "Path to YAML config (defaults when empty)")
	tradeID := flag.String("trade", "", "Trade ID whose pair and stops are replayed (required)")
	execution := flag.Float64("exec", 0.6, "Execution threshold")
	confidence := flag.Float64("conf", 0.6, "Confidence threshold")
	bias := flag.String("bias", string(domain.BiasNeutral), "Weight bias: neutral, momentum, mean_reversion")
	useStored := flag.Bool("stored-params", false, "Use the trade's active parameter set instead of flags")
	days := flag.Int("days", 0, "History window in days (0 = configured history window)")
	outputJSON := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	if *tradeID == "" {
		return fmt.Errorf("-trade is required")
	}

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(&cfg.Log)
	if err != nil {
		return err
	}
	log = log.Component("backtest")

	ctx, cancel := app.SignalContext(context.Background(), log)
	defer cancel()

	rt, err := app.Build(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("build runtime: %w", err)
	}
	defer rt.Close()
	if _, err := rt.SeedTrades(ctx); err != nil {
		return fmt.Errorf("seed trades: %w", err)
	}

	state, err := rt.Stores.Trades.Get(ctx, *tradeID)
	if err != nil {
		return fmt.Errorf("load trade %s: %w", *tradeID, err)
	}

	params := state.Parameters
	if !*useStored {
		params, err = domain.NewParameterSet(*execution, *confidence, domain.WeightBias(strings.ToLower(*bias)))
		if err != nil {
			return err
		}
	} else if params.IsZero() {
		return fmt.Errorf("trade %s has no active parameter set", *tradeID)
	}

	window := cfg.Engine.HistoryWindow
	if *days > 0 {
		window = time.Duration(*days) * 24 * time.Hour
	}
	now := time.Now().UnixMilli()
	history, err := feed.NewStoreSource(rt.Stores.Candles).History(ctx, state.Pair, now-window.Milliseconds(), now)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	engCfg := cfg.EngineConfig()
	snapshots, err := backtest.Precompute(ctx, history, engCfg.Optimizer.Backtest)
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		return fmt.Errorf("%w: %d candles, lookback %d", domain.ErrInsufficientData, len(history), engCfg.Optimizer.Backtest.Lookback)
	}

	result := backtest.Simulate(snapshots, params, backtest.SimConfigFor(state, engCfg.MinFlipInterval.Milliseconds()))

	if *outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printResult(state, len(history), result)
	return nil
}

func printResult(state *domain.TradeState, candles int, r backtest.Result) {
	m := r.Metrics
	fmt.Printf("Backtest: %s %s (%d candles)\n", state.TradeID, state.Pair, candles)
	fmt.Printf("Params:   exec=%.2f conf=%.2f bias=%s\n",
		r.Parameters.ExecutionThreshold, r.Parameters.ConfidenceThreshold, r.Parameters.WeightBias)
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Trades:        %d (%d wins, %d losses)\n", m.TradeCount, m.Wins, m.Losses)
	fmt.Printf("Win rate:      %.2f%%\n", m.WinRate*100)
	fmt.Printf("Total return:  %.2f%%\n", m.TotalReturn*100)
	fmt.Printf("Mean return:   %.4f%%\n", m.MeanReturn*100)
	fmt.Printf("Sharpe:        %.3f\n", m.SharpeRatio)
	fmt.Printf("Max drawdown:  %.2f%%\n", m.MaxDrawdown*100)
	fmt.Printf("Max loss run:  %d\n", m.MaxConsecutiveLosses)

	if len(r.Trades) == 0 {
		return
	}
	fmt.Println(strings.Repeat("-", 60))
	for _, t := range r.Trades {
		fmt.Printf("%s -> %s  %.6f -> %.6f  %+.2f%%  %s\n",
			time.UnixMilli(t.EntryTimeMs).UTC().Format("2006-01-02 15:04"),
			time.UnixMilli(t.ExitTimeMs).UTC().Format("2006-01-02 15:04"),
			t.EntryPrice, t.ExitPrice, t.Return*100, t.ExitReason)
	}
}
