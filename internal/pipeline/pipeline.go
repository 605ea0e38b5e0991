package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/kevinlanning/2019-nCoV/internal/domain"
	"github.com/kevinlanning/2019-nCoV/internal/observability"
)

// SnapshotSource retrieves every available daily snapshot. A partial
// retrieval must surface as an error: gap-filling cannot distinguish "no
// report that day" from "input never fetched", so a missing input silently
// skipped would corrupt the contiguous-range invariant.
type SnapshotSource interface {
	Snapshots(ctx context.Context) ([]domain.Snapshot, error)
}

// PanelPublisher hands the reconciled panel to a downstream sink.
type PanelPublisher interface {
	PublishPanel(ctx context.Context, rows []domain.PanelRow) error
}

// Result is the output of one complete run.
type Result struct {
	Panel          []domain.PanelRow
	RegionBuckets  []domain.BucketRow // epicenter subregion / rest of country / rest of world
	CountryBuckets []domain.BucketRow // epicenter country / rest of world
	RecordsParsed  int
	RecordsDropped int
	Stats          domain.ReconcileStats
	CompletedAt    time.Time
}

// Pipeline orchestrates one fetch-reconcile-aggregate run.
type Pipeline struct {
	source    SnapshotSource
	publisher PanelPublisher // nil disables publishing
	policy    domain.DropPolicy
	fine      domain.BucketFunc
	coarse    domain.BucketFunc
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
	last      atomic.Pointer[Result]
}

// New creates a Pipeline. Pass a nil publisher to keep the panel in-process.
func New(source SnapshotSource, publisher PanelPublisher, policy domain.DropPolicy, fine, coarse domain.BucketFunc, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		source:    source,
		publisher: publisher,
		policy:    policy,
		fine:      fine,
		coarse:    coarse,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once a panel has been built, or an error
// describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no panel has been reconciled yet")
	}
	return nil
}

// LastResult returns the most recent run's result, or nil before the first
// successful run.
func (p *Pipeline) LastResult() *Result {
	return p.last.Load()
}

// Run executes one complete pipeline pass. Retrieval and parse failures
// fail the whole run; per-row data-quality problems are counted and logged
// but do not.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	p.metrics.RunActive.Set(1)
	defer p.metrics.RunActive.Set(0)

	snapshots, err := p.source.Snapshots(ctx)
	if err != nil {
		return nil, fmt.Errorf("retrieve snapshots: %w", err)
	}
	p.metrics.SnapshotsFetched.Add(float64(len(snapshots)))
	p.logger.Info("snapshots retrieved", "count", len(snapshots))

	var raw []domain.RawRecord
	for _, snap := range snapshots {
		records, err := domain.ParseSnapshot(snap.Name, bytes.NewReader(snap.Data))
		if err != nil {
			return nil, fmt.Errorf("parse snapshot: %w", err)
		}
		raw = append(raw, records...)
	}
	p.metrics.RecordsParsed.Add(float64(len(raw)))

	normalized, dropped := domain.NormalizeRecords(raw)
	p.metrics.RecordsDropped.Add(float64(dropped))
	if dropped > 0 {
		p.logger.Warn("records dropped for unparseable timestamps", "count", dropped)
	}

	panel, stats := domain.Reconcile(normalized, p.policy)
	p.metrics.DuplicatesCollapsed.Add(float64(stats.DuplicatesCollapsed))
	p.metrics.RowsSynthesized.Add(float64(stats.RowsSynthesized))
	p.metrics.CoarseRowsDropped.Add(float64(stats.CoarseRowsDropped))
	p.metrics.PanelRows.Set(float64(len(panel)))

	result := &Result{
		Panel:          panel,
		RegionBuckets:  domain.Aggregate(panel, p.fine),
		CountryBuckets: domain.Aggregate(panel, p.coarse),
		RecordsParsed:  len(raw),
		RecordsDropped: dropped,
		Stats:          stats,
		CompletedAt:    time.Now().UTC(),
	}

	if p.publisher != nil {
		if err := p.publisher.PublishPanel(ctx, panel); err != nil {
			return nil, fmt.Errorf("publish panel: %w", err)
		}
	}

	p.last.Store(result)
	p.ready.Store(true)
	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("panel reconciled",
		"rows", len(panel),
		"records", len(raw),
		"dropped", dropped,
		"duplicates_collapsed", stats.DuplicatesCollapsed,
		"rows_synthesized", stats.RowsSynthesized,
		"coarse_rows_dropped", stats.CoarseRowsDropped,
	)
	return result, nil
}
