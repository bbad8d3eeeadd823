package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/biolab-sim/biolab/config"
	"github.com/biolab-sim/biolab/sim"
	"github.com/biolab-sim/biolab/telemetry"
)

func main() {
	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

// run holds the driver body so deferred cleanup still runs on the error
// paths; os.Exit happens only in main.
func run() error {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int64("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	statsWindow := flag.Int("stats-window", 0, "Stats window size in ticks (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *statsWindow > 0 {
		cfg.Telemetry.WindowTicks = *statsWindow
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	out, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		return fmt.Errorf("initializing output: %w", err)
	}
	defer out.Close()

	if err := out.WriteConfig(cfg); err != nil {
		return fmt.Errorf("writing config snapshot: %w", err)
	}

	engine := sim.NewEngine(cfg, rngSeed)

	// The main goroutine is the dedicated tick driver; signals interrupt it
	// between ticks.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting simulation",
		"seed", rngSeed,
		"population", engine.PopulationCount(),
		"cap", cfg.Population.Cap,
		"workers", cfg.Derived.Workers,
		"max_ticks", *maxTicks,
	)

	for ctx.Err() == nil && (*maxTicks == 0 || engine.TickCount() < *maxTicks) {
		engine.Tick()

		if engine.ShouldFlushStats() {
			stats := engine.FlushStats()
			if *logStats {
				stats.LogStats()
			}
			if err := out.WriteTelemetry(stats); err != nil {
				slog.Error("failed to write telemetry", "error", err)
			}
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := engine.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}

	slog.Info("simulation complete",
		"ticks", humanize.Comma(engine.TickCount()),
		"population", humanize.Comma(int64(engine.PopulationCount())),
		"food", humanize.Comma(int64(engine.FoodCount())),
	)
	return nil
}
