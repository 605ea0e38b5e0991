// Command ncov runs one batch reconciliation pass: fetch all daily
// snapshots, reconcile them into the canonical panel, aggregate into
// comparison buckets, then export, publish, and render as configured.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/kevinlanning/2019-nCoV/internal/adapter/chart"
	"github.com/kevinlanning/2019-nCoV/internal/adapter/csvdir"
	"github.com/kevinlanning/2019-nCoV/internal/adapter/github"
	httpadapter "github.com/kevinlanning/2019-nCoV/internal/adapter/http"
	kafkaadapter "github.com/kevinlanning/2019-nCoV/internal/adapter/kafka"
	"github.com/kevinlanning/2019-nCoV/internal/config"
	"github.com/kevinlanning/2019-nCoV/internal/domain"
	"github.com/kevinlanning/2019-nCoV/internal/observability"
	"github.com/kevinlanning/2019-nCoV/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	var source pipeline.SnapshotSource
	if cfg.SnapshotSource == "dir" {
		source = csvdir.NewSource(cfg.SnapshotDir)
		logger.Info("reading snapshots from directory", "dir", cfg.SnapshotDir)
	} else {
		source = github.NewClient(cfg, logger)
		logger.Info("fetching snapshots from github",
			"repo", cfg.GitHubOwner+"/"+cfg.GitHubRepo, "path", cfg.GitHubPath, "ref", cfg.GitHubRef)
	}

	// Panel publishing is feature-flagged via KAFKA_ENABLED.
	var publisher pipeline.PanelPublisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaSinkTopic)
	}

	policy := domain.NewDropPolicy(cfg.CutoverCountries, cfg.CutoverDate)
	p := pipeline.New(
		source,
		publisher,
		policy,
		domain.EpicenterBuckets(cfg.EpicenterSubregion, cfg.EpicenterRegion),
		domain.CountryBuckets(cfg.EpicenterRegion),
		logger,
		metrics,
	)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exitCode := 0
	result, err := p.Run(ctx)
	if err != nil {
		logger.Error("pipeline run failed", "error", err)
		exitCode = 1
	} else if err := writeOutputs(cfg, result, logger); err != nil {
		logger.Error("writing outputs failed", "error", err)
		exitCode = 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	os.Exit(exitCode)
}

// writeOutputs exports CSVs and renders comparison charts as configured.
func writeOutputs(cfg *config.Config, result *pipeline.Result, logger *slog.Logger) error {
	if cfg.OutputDir != "" {
		if err := pipeline.ExportResult(cfg.OutputDir, result); err != nil {
			return fmt.Errorf("export panel: %w", err)
		}
		logger.Info("panel exported", "dir", cfg.OutputDir)
	}

	if !cfg.ChartEnabled {
		return nil
	}
	renderer := chart.NewRenderer(cfg.ChartDir, logger)
	charts := []struct {
		file  string
		title string
		rows  []domain.BucketRow
		value chart.Value
	}{
		{"confirmed_by_region.png", "Confirmed cases: " + cfg.EpicenterSubregion + " vs rest", result.RegionBuckets, chart.Confirmed},
		{"confirmed_by_country.png", "Confirmed cases: " + cfg.EpicenterRegion + " vs rest of world", result.CountryBuckets, chart.Confirmed},
		{"deaths_by_country.png", "Deaths: " + cfg.EpicenterRegion + " vs rest of world", result.CountryBuckets, chart.Deaths},
	}
	for _, c := range charts {
		if err := renderer.Render(c.file, c.title, c.rows, c.value); err != nil {
			return fmt.Errorf("render charts: %w", err)
		}
	}
	return nil
}
