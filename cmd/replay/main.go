// Package main drives the sandbox from a scripted key sequence without a
// window and writes the run's telemetry as CSV.
package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/pthm-cable/rigs/config"
	"github.com/pthm-cable/rigs/session"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	scriptPath := flag.String("script", "", "Replay script YAML (empty = built-in drive)")
	outputDir := flag.String("output-dir", "replay-out", "Output directory for CSV logs and config snapshot")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	workers := flag.Int("workers", 0, "Physics worker goroutines (0 = use config)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *workers > 0 {
		cfg.Physics.Workers = *workers
	}

	script, err := LoadScript(*scriptPath)
	if err != nil {
		slog.Error("failed to load script", "error", err)
		os.Exit(1)
	}
	dt := script.DT
	if dt <= 0 {
		dt = cfg.Physics.DT
	}

	s, err := session.New(cfg, session.Options{
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		OutputDir:      *outputDir,
	})
	if err != nil {
		slog.Error("failed to start session", "error", err)
		os.Exit(1)
	}

	slog.Info("replay started",
		"steps", len(script.Steps),
		"ticks", script.TotalTicks(dt),
		"dt", dt,
		"output_dir", *outputDir,
	)

	start := time.Now()
	runErr := script.Run(s, dt)
	ticks := s.Tick()
	perf := s.PerfStats()
	if err := s.Close(); err != nil {
		slog.Error("failed to close session", "error", err)
	}
	if runErr != nil {
		slog.Error("replay failed", "tick", ticks, "error", runErr)
		os.Exit(1)
	}

	slog.Info("replay finished",
		"ticks", ticks,
		"wall", time.Since(start).Round(time.Millisecond).String(),
		"perf", perf,
	)
}
