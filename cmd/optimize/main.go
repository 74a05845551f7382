// Command optimize runs the parameter optimizer for one trade. By default it
// is a dry run that prints the ranked candidates without touching the trade.
// -apply records the result and adopts the winner; -verify re-runs stored
// results and the current window and reports any divergence.
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
	"github.com/Akondltd/radbot/internal/config"
	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/feed"
	"github.com/Akondltd/radbot/internal/logger"
	"github.com/Akondltd/radbot/internal/optimizer"
	"github.com/Akondltd/radbot/internal/verification"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "optimize: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("RADBOT_CONFIG"), "Path to YAML config (defaults when empty)")
	tradeID := flag.String("trade", "", "Trade ID to optimize (required)")
	apply := flag.Bool("apply", false, "Record the result and adopt the winning parameters")
	verify := flag.Bool("verify", false, "Re-run stored results and check determinism")
	top := flag.Int("top", 5, "Candidates to print")
	outputJSON := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	if *tradeID == "" {
		return fmt.Errorf("-trade is required")
	}
	if *apply && *verify {
		return fmt.Errorf("-apply and -verify are mutually exclusive")
	}

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(&cfg.Log)
	if err != nil {
		return err
	}
	log = log.Component("optimize")

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

	if *verify {
		return runVerify(ctx, rt, *tradeID, *outputJSON)
	}

	var result *domain.OptimizationResult
	if *apply {
		result, err = rt.Engine.Optimize(ctx, *tradeID)
	} else {
		state, history, lerr := loadWindow(ctx, rt, *tradeID)
		if lerr != nil {
			return lerr
		}
		result, err = rt.Engine.OptimizeState(ctx, state, history)
	}
	if err != nil {
		return err
	}

	if *outputJSON {
		return writeJSON(result)
	}
	printResult(result, *top, *apply)
	return nil
}

func loadWindow(ctx context.Context, rt *app.Runtime, tradeID string) (*domain.TradeState, []domain.Candle, error) {
	state, err := rt.Stores.Trades.Get(ctx, tradeID)
	if err != nil {
		return nil, nil, fmt.Errorf("load trade %s: %w", tradeID, err)
	}
	now := time.Now().UnixMilli()
	from := now - rt.Config.Engine.HistoryWindow.Milliseconds()
	history, err := feed.NewStoreSource(rt.Stores.Candles).History(ctx, state.Pair, from, now)
	if err != nil {
		return nil, nil, fmt.Errorf("load history: %w", err)
	}
	return state, history, nil
}

func runVerify(ctx context.Context, rt *app.Runtime, tradeID string, outputJSON bool) error {
	opt, err := optimizer.New(rt.Config.EngineConfig().Optimizer)
	if err != nil {
		return err
	}
	v := verification.NewOptimizerVerifier(verification.Options{
		Optimizer: opt,
		Trades:    rt.Stores.Trades,
		Results:   rt.Stores.Results,
		Candles:   feed.NewStoreSource(rt.Stores.Candles),
	})

	report, err := v.VerifyTrade(ctx, tradeID)
	if err != nil {
		return err
	}

	state, history, err := loadWindow(ctx, rt, tradeID)
	if err != nil {
		return err
	}
	determinism, err := v.VerifyDeterminism(ctx, state, history, time.Now().UnixMilli())
	if err != nil {
		return err
	}

	if outputJSON {
		return writeJSON(struct {
			Stored      *verification.VerificationReport `json:"stored"`
			Determinism *verification.VerificationResult `json:"determinism"`
		}{report, determinism})
	}

	fmt.Printf("Stored results: %d verified, %d matched, %d divergent\n",
		report.TotalResults, report.MatchedResults, report.DivergentResults)
	for _, r := range report.Results {
		if r.Match {
			continue
		}
		fmt.Printf("  %s:\n", r.ResultID)
		for _, d := range r.Divergences {
			fmt.Printf("    %s\n", d.String())
		}
	}
	fmt.Printf("Determinism on current window: %s\n", verdict(determinism.Match))
	for _, d := range determinism.Divergences {
		fmt.Printf("    %s\n", d.String())
	}

	if report.DivergentResults > 0 || !determinism.Match {
		return fmt.Errorf("verification failed")
	}
	return nil
}

func verdict(ok bool) string {
	if ok {
		return "MATCH"
	}
	return "DIVERGENT"
}

func printResult(r *domain.OptimizationResult, top int, applied bool) {
	mode := "dry run"
	if applied {
		mode = "applied"
	}
	fmt.Printf("Trade %s (%s)\n", r.TradeID, mode)
	fmt.Printf("Window: %s .. %s (%d candles)\n",
		time.UnixMilli(r.WindowStartMs).UTC().Format(time.RFC3339),
		time.UnixMilli(r.WindowEndMs).UTC().Format(time.RFC3339),
		r.CandleCount)
	fmt.Printf("Adopted: %v", r.Adopted)
	if r.Reason != "" {
		fmt.Printf(" (%s)", r.Reason)
	}
	fmt.Println()
	fmt.Printf("Best: exec=%.2f conf=%.2f bias=%s score=%.4f trades=%d win=%.2f%% return=%.2f%% sharpe=%.3f dd=%.2f%%\n",
		r.ParameterSet.ExecutionThreshold, r.ParameterSet.ConfidenceThreshold, r.ParameterSet.WeightBias,
		r.Score, r.TradeCount, r.WinRate*100, r.TotalReturn*100, r.SharpeRatio, r.MaxDrawdown*100)

	n := top
	if n > len(r.Candidates) {
		n = len(r.Candidates)
	}
	if n == 0 {
		return
	}
	fmt.Println(strings.Repeat("-", 72))
	fmt.Printf("%-4s %-6s %-6s %-15s %8s %6s %8s\n", "rank", "exec", "conf", "bias", "score", "trades", "return")
	for _, c := range r.Candidates[:n] {
		fmt.Printf("%-4d %-6.2f %-6.2f %-15s %8.4f %6d %7.2f%%\n",
			c.Rank, c.Parameters.ExecutionThreshold, c.Parameters.ConfidenceThreshold,
			c.Parameters.WeightBias, c.Score, c.TradeCount, c.TotalReturn*100)
	}
}

func writeJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
