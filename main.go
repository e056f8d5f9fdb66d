package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/pbd/config"
	"github.com/pthm-cable/pbd/game"
	"github.com/pthm-cable/pbd/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Int("stats-window", 0, "Frames between stats flushes (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	metricsAddr := flag.String("metrics-addr", "", "Serve prometheus metrics on this address (empty = use config)")
	mode := flag.String("mode", "", "Backend: sequential | parallel (empty = use config)")
	preset := flag.String("preset", "", "Apply a named preset on start")
	maxFrames := flag.Int("frames", 0, "Stop after N frames (0 = unlimited)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if *mode != "" {
		m, err := config.ParseMode(*mode)
		if err != nil {
			slog.Error("invalid mode", "error", err)
			os.Exit(1)
		}
		cfg.Backend.Mode = m
	}
	if *outputDir == "" {
		*outputDir = cfg.Telemetry.OutputDir
	}
	if *metricsAddr == "" {
		*metricsAddr = cfg.Telemetry.MetricsAddr
	}

	var metrics *telemetry.Metrics
	if *metricsAddr != "" {
		metrics = telemetry.NewMetrics()
		srv := telemetry.NewMetricsServer(*metricsAddr, metrics)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
		slog.Info("serving metrics", "addr", *metricsAddr)
	}

	opts := game.Options{
		LogStats:    *logStats,
		OutputDir:   *outputDir,
		StatsWindow: *statsWindow,
		Headless:    *headless,
		Preset:      *preset,
	}

	if *headless {
		run(cfg, metrics, opts, *maxFrames)
		return
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), cfg.Screen.Title)
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGameWithOptions(cfg, metrics, opts)
	if err != nil {
		slog.Error("failed to start", "error", err)
		return
	}
	defer g.Unload()

	for !rl.WindowShouldClose() {
		g.Update()
		g.Draw()

		if *maxFrames > 0 && int(g.Frame()) >= *maxFrames {
			break
		}
	}
}

// run advances frames without a window until maxFrames is reached.
func run(cfg *config.Config, metrics *telemetry.Metrics, opts game.Options, maxFrames int) {
	g, err := game.NewGameWithOptions(cfg, metrics, opts)
	if err != nil {
		slog.Error("failed to start", "error", err)
		return
	}
	defer g.Unload()

	slog.Info("starting headless simulation",
		"mode", cfg.Backend.Mode,
		"particles", g.Engine().Len(),
		"cells", cfg.Derived.NumGridCells,
		"max_frames", maxFrames,
	)

	start := time.Now()
	for {
		g.UpdateHeadless()

		if maxFrames > 0 && int(g.Frame()) >= maxFrames {
			elapsed := time.Since(start)
			slog.Info("max frames reached",
				"frame", g.Frame(),
				"elapsed", elapsed,
				"fps", float64(g.Frame())/elapsed.Seconds(),
			)
			return
		}
	}
}
