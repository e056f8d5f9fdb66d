package game

import "log/slog"

// flushTelemetry measures the frame every statsWindow frames, then logs
// and writes the frame and perf records.
func (g *Game) flushTelemetry() {
	frame := g.engine.Frame()
	if g.statsWindow <= 0 || frame == 0 || frame%int64(g.statsWindow) != 0 {
		return
	}

	stats := g.engine.Stats()
	perfStats := g.perfCollector.Stats()
	g.lastStats = stats

	if g.logStats {
		slog.Info("frame", "stats", stats)
		slog.Info("perf", "stats", perfStats)
	}

	if err := g.outputManager.WriteFrame(stats); err != nil {
		slog.Error("failed to write frame stats", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, frame); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
}
