// Command pipeline runs the retail demand pipeline once: it loads the four
// input workbooks, merges them into the unified dataset, aggregates monthly
// demand, fits the demand estimator and writes the ranked demand artifacts
// into the reports directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"retailcli/internal/config"
	"retailcli/internal/exporter"
	"retailcli/internal/infrastructure"
	"retailcli/internal/pipeline"
	"retailcli/internal/report"
	"retailcli/internal/store"
	"retailcli/pkg/domain"
)

func main() {
	dataDir := flag.String("in", "", "directory holding the input workbooks (overrides config)")
	reportsDir := flag.String("out", "", "directory for output artifacts (overrides config)")
	mode := flag.String("mode", "", "estimator mode: regression, topk or linefreq (overrides config)")
	window := flag.Int("window", 0, "lag window in months (overrides config)")
	topN := flag.Int("top", 0, "entries to keep in the exported rankings (overrides config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}

	if *dataDir != "" {
		cfg.Paths.DataDir = *dataDir
	}
	if *reportsDir != "" {
		cfg.Paths.ReportsDir = *reportsDir
	}
	if *mode != "" {
		cfg.Pipeline.Mode = *mode
	}
	if *window > 0 {
		cfg.Pipeline.WindowMonths = *window
	}
	if *topN > 0 {
		cfg.Pipeline.TopN = *topN
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogger()

	if err := cfg.EnsureDirectories(); err != nil {
		logger.Error("failed to create output directories", "error", err)
		os.Exit(1)
	}

	ctx := infrastructure.WithRunID(context.Background(), infrastructure.NewRunID())

	result, err := pipeline.New(cfg.Pipeline, logger).Run(ctx, cfg.InputPaths())
	if err != nil {
		logger.ErrorContext(ctx, "pipeline run failed", "error", err)
		os.Exit(1)
	}

	if err := exportArtifacts(ctx, cfg, logger, result); err != nil {
		logger.ErrorContext(ctx, "artifact export failed", "error", err)
		os.Exit(1)
	}

	printSummary(result, cfg.Pipeline.TopN)
}

func exportArtifacts(ctx context.Context, cfg *config.Config, logger *slog.Logger, result *pipeline.Result) error {
	exp := exporter.New(cfg.Paths.ReportsDir, logger)

	if err := exp.ExportRanking(ctx, exporter.HistoricalRankingName, result.Historical, cfg.Pipeline.TopN); err != nil {
		return err
	}
	if result.Predicted != nil {
		if err := exp.ExportRanking(ctx, exporter.PredictedRankingName, result.Predicted, cfg.Pipeline.TopN); err != nil {
			return err
		}
	}

	summary := report.BuildSummary(result, cfg.Pipeline)
	if err := exp.ExportSummary(ctx, summary); err != nil {
		return err
	}

	if result.Outcome != nil && result.Outcome.Model != nil {
		if err := result.Outcome.Model.Save(cfg.ReportPath(cfg.Export.ModelFile)); err != nil {
			return err
		}
	}

	if cfg.Export.WriteUnifiedCSV {
		if err := exp.ExportUnifiedDataset(ctx, result.Merge.Records); err != nil {
			return err
		}
	}

	if cfg.Export.SQLitePath != "" {
		db, err := store.Open(cfg.Export.SQLitePath, logger)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.SaveUnifiedRecords(ctx, result.Merge.Records); err != nil {
			return err
		}
	}

	return nil
}

// printSummary writes a short human-readable digest to stdout; the structured
// run log goes through slog separately.
func printSummary(result *pipeline.Result, topN int) {
	fmt.Printf("Merged records: %d (dropped without date: %d, orphan lines: %d, amount mismatches: %d)\n",
		result.Merge.Retained, result.Merge.DroppedNoDate, result.Merge.OrphanLines, result.Merge.AmountMismatches)
	fmt.Printf("Months analyzed: %d, products: %d\n",
		len(result.Matrix.Months), len(result.Matrix.ProductIDs))

	printRanking("Top products by last-month demand:", result.Historical, topN)
	if result.Predicted != nil {
		printRanking("Top products by predicted demand:", result.Predicted, topN)
	} else if result.PredictionSkipped != nil {
		fmt.Printf("Predictive ranking skipped: %v\n", result.PredictionSkipped)
	}
}

func printRanking(title string, entries []domain.RankingEntry, topN int) {
	fmt.Println(title)
	for _, e := range entries {
		if topN > 0 && e.Rank > topN {
			break
		}
		name := e.ProductName
		if name == "" {
			name = fmt.Sprintf("product %d", e.ProductID)
		}
		fmt.Printf("  %2d. %-30s %10.2f\n", e.Rank, name, e.Value)
	}
}
