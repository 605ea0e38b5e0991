// Package chart renders comparative time-series charts from aggregated
// bucket rows. It is a thin, stateless consumer of the reconciled output:
// it never reads raw data and keeps no state between renders.
package chart

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/kevinlanning/2019-nCoV/internal/domain"
	gochart "github.com/wcharczuk/go-chart/v2"
)

// Value selects the metric a chart plots.
type Value func(domain.BucketRow) float64

// Metric selectors for Render.
var (
	Confirmed Value = func(r domain.BucketRow) float64 { return float64(r.Confirmed) }
	Deaths    Value = func(r domain.BucketRow) float64 { return float64(r.Deaths) }
	Recovered Value = func(r domain.BucketRow) float64 { return float64(r.Recovered) }
)

// Renderer writes PNG charts into an output directory.
type Renderer struct {
	outDir string
	logger *slog.Logger
}

// NewRenderer creates a chart renderer writing into outDir.
func NewRenderer(outDir string, logger *slog.Logger) *Renderer {
	return &Renderer{outDir: outDir, logger: logger}
}

// Render draws one time series per bucket and writes the chart to
// filename. Buckets with fewer than two dates cannot form a line and are
// skipped; if nothing remains (an empty panel), no file is written and no
// error is returned.
func (r *Renderer) Render(filename, title string, rows []domain.BucketRow, value Value) error {
	series := buildSeries(rows, value)
	if len(series) == 0 {
		r.logger.Warn("no plottable buckets, skipping chart", "file", filename)
		return nil
	}

	graph := gochart.Chart{
		Title:  title,
		Width:  1024,
		Height: 512,
		XAxis: gochart.XAxis{
			ValueFormatter: gochart.TimeDateValueFormatter,
		},
		Series: series,
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	if err := os.MkdirAll(r.outDir, 0o755); err != nil {
		return fmt.Errorf("create chart dir: %w", err)
	}
	path := filepath.Join(r.outDir, filename)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer f.Close()

	if err := graph.Render(gochart.PNG, f); err != nil {
		return fmt.Errorf("render %s: %w", filename, err)
	}
	r.logger.Info("chart rendered", "file", path, "series", len(series))
	return nil
}

// buildSeries groups rows by bucket into time series, ordered by bucket
// name so chart colors are stable across runs.
func buildSeries(rows []domain.BucketRow, value Value) []gochart.Series {
	byBucket := make(map[string][]domain.BucketRow)
	for _, row := range rows {
		byBucket[row.Bucket] = append(byBucket[row.Bucket], row)
	}

	buckets := make([]string, 0, len(byBucket))
	for b := range byBucket {
		buckets = append(buckets, b)
	}
	sort.Strings(buckets)

	var series []gochart.Series
	for _, b := range buckets {
		bucketRows := byBucket[b]
		if len(bucketRows) < 2 {
			continue
		}
		sort.Slice(bucketRows, func(i, j int) bool {
			return bucketRows[i].ReportDate.Before(bucketRows[j].ReportDate)
		})
		ts := gochart.TimeSeries{Name: b}
		for _, row := range bucketRows {
			ts.XValues = append(ts.XValues, row.ReportDate)
			ts.YValues = append(ts.YValues, value(row))
		}
		series = append(series, ts)
	}
	return series
}
