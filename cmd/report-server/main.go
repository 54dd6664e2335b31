// Command report-server serves the artifacts of the latest pipeline run over
// HTTP: rankings, run summary, drop alerts and Prometheus metrics.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"retailcli/internal/config"
	"retailcli/internal/infrastructure"
	"retailcli/internal/report"
)

func main() {
	port := flag.Int("port", 0, "listen port (overrides config)")
	reportsDir := flag.String("reports", "", "reports directory to serve (overrides config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *reportsDir != "" {
		cfg.Paths.ReportsDir = *reportsDir
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := report.NewServer(cfg.Server, cfg.Paths.ReportsDir, logger)
	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Error("report server failed", "error", err)
		os.Exit(1)
	}
}
