package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kevinlanning/2019-nCoV/internal/domain"
)

// Exported file names and the date format shared with cmd/panelcheck.
const (
	PanelFile         = "panel.csv"
	RegionBucketFile  = "cases_by_region.csv"
	CountryBucketFile = "cases_by_country.csv"
	ExportDateFormat  = "2006-01-02"
)

// ExportResult writes the panel and both aggregate views as CSV files into
// dir, creating it if needed.
func ExportResult(dir string, result *Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := writeCSV(filepath.Join(dir, PanelFile), func(w *csv.Writer) error {
		return writePanel(w, result.Panel)
	}); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(dir, RegionBucketFile), func(w *csv.Writer) error {
		return writeBuckets(w, result.RegionBuckets)
	}); err != nil {
		return err
	}
	return writeCSV(filepath.Join(dir, CountryBucketFile), func(w *csv.Writer) error {
		return writeBuckets(w, result.CountryBuckets)
	})
}

// WritePanelCSV writes panel rows to w in the exported schema.
func WritePanelCSV(w io.Writer, rows []domain.PanelRow) error {
	writer := csv.NewWriter(w)
	if err := writePanel(writer, rows); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

func writeCSV(path string, write func(*csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := write(w); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}

func writePanel(w *csv.Writer, rows []domain.PanelRow) error {
	if err := w.Write([]string{"location_key", "subregion", "region", "report_date", "confirmed", "deaths", "recovered"}); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.LocationKey,
			row.Subregion,
			row.Region,
			row.ReportDate.Format(ExportDateFormat),
			strconv.Itoa(row.Confirmed),
			strconv.Itoa(row.Deaths),
			strconv.Itoa(row.Recovered),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func writeBuckets(w *csv.Writer, rows []domain.BucketRow) error {
	if err := w.Write([]string{"bucket", "report_date", "confirmed", "deaths", "recovered"}); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.Bucket,
			row.ReportDate.Format(ExportDateFormat),
			strconv.Itoa(row.Confirmed),
			strconv.Itoa(row.Deaths),
			strconv.Itoa(row.Recovered),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}
