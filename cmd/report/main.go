// Command report writes a Markdown summary of trades and their optimization
// history, plus a CSV of every recorded optimizer run.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Akondltd/radbot/internal/app"
	"github.com/Akondltd/radbot/internal/config"
	"github.com/Akondltd/radbot/internal/logger"
	"github.com/Akondltd/radbot/internal/reporting"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "report: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("RADBOT_CONFIG"), "Path to YAML config (defaults when empty)")
	outputDir := flag.String("output-dir", "reports", "Output directory for generated files")
	trades := flag.String("trades", "", "Comma-separated trade IDs (defaults to all)")
	top := flag.Int("top", 5, "Candidates listed from the latest run")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(&cfg.Log)
	if err != nil {
		return err
	}
	log = log.Component("report")

	ctx := context.Background()
	stores, err := app.OpenStores(ctx, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer stores.Close()

	var ids []string
	if *trades != "" {
		for _, id := range strings.Split(*trades, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}

	rep, err := reporting.NewGenerator(stores.Trades, stores.Results).WithTopN(*top).Generate(ctx, ids...)
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	files := map[string]string{
		"REPORT.md":                 reporting.RenderMarkdown(rep),
		"optimization_history.csv": reporting.RenderCSV(rep.History),
	}
	for name, content := range files {
		path := filepath.Join(*outputDir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		log.Info("wrote report file", logger.String("path", path))
	}
	return nil
}
