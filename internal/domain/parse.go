package domain

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are tried in order; the first that parses wins. The
// source switched notation several times over the reporting period, so all
// historical layouts stay in the list.
var timestampLayouts = []string{
	"1/2/2006 3:04 PM",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// Canonical column identifiers used by the header alias table.
const (
	colSubregion = "subregion"
	colRegion    = "region"
	colUpdated   = "updated"
	colConfirmed = "confirmed"
	colDeaths    = "deaths"
	colRecovered = "recovered"
)

// columnAliases maps lowercased header cells to canonical columns. Early
// files use slash-separated names ("Province/State"), later files use
// underscores ("Province_State"); both eras must parse.
var columnAliases = map[string]string{
	"province/state": colSubregion,
	"province_state": colSubregion,
	"country/region": colRegion,
	"country_region": colRegion,
	"last update":    colUpdated,
	"last_update":    colUpdated,
	"confirmed":      colConfirmed,
	"deaths":         colDeaths,
	"recovered":      colRecovered,
}

// ParseSnapshot reads one daily snapshot CSV into raw records. Column
// presence varies across files; unknown columns are ignored and absent
// ones stay missing. Unparseable timestamps and counts are data-quality
// issues, not errors: they yield a zero ReportedAt or a nil count and the
// row still flows downstream. Only structural CSV failures abort the parse.
func ParseSnapshot(name string, r io.Reader) ([]RawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", name, err)
	}
	columns := mapColumns(header)

	var records []RawRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row of %s: %w", name, err)
		}
		records = append(records, parseRow(name, columns, row))
	}
	return records, nil
}

// mapColumns resolves each header cell to a canonical column, or "" for
// columns the pipeline does not track.
func mapColumns(header []string) []string {
	columns := make([]string, len(header))
	for i, cell := range header {
		columns[i] = columnAliases[normalizeHeader(cell)]
	}
	return columns
}

// normalizeHeader strips the UTF-8 BOM some files carry and lowercases the
// cell so both header eras hit the alias table.
func normalizeHeader(cell string) string {
	cell = strings.TrimPrefix(cell, "\uFEFF")
	return strings.ToLower(strings.TrimSpace(cell))
}

func parseRow(sourceFile string, columns []string, row []string) RawRecord {
	rec := RawRecord{SourceFile: sourceFile}
	for i, cell := range row {
		if i >= len(columns) {
			break
		}
		switch columns[i] {
		case colSubregion:
			rec.Subregion = strings.TrimSpace(cell)
		case colRegion:
			rec.Region = strings.TrimSpace(cell)
		case colUpdated:
			rec.ReportedAt = parseTimestamp(cell)
		case colConfirmed:
			rec.Confirmed = parseCount(cell)
		case colDeaths:
			rec.Deaths = parseCount(cell)
		case colRecovered:
			rec.Recovered = parseCount(cell)
		}
	}
	return rec
}

// parseTimestamp tries each known layout in order, returning the zero time
// when none matches.
func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parseCount parses a case count, returning nil for empty, malformed, or
// negative values. Some files encode counts as spreadsheet floats ("14.0").
func parseCount(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return nil
		}
		n = int(f)
	}
	if n < 0 {
		return nil
	}
	return &n
}
