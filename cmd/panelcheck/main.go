// Command panelcheck verifies an exported panel CSV against the panel
// invariants: unique (location, date) keys, a contiguous daily date range
// per location, and present, non-negative counts. It reports per-phase
// pass/fail and exits non-zero on any violation.
//
// Usage:
//
//	go run ./cmd/panelcheck -panel out/panel.csv
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"
)

const dateFormat = "2006-01-02"

// panelRow mirrors the exported panel schema.
type panelRow struct {
	locationKey string
	date        time.Time
	confirmed   int
	deaths      int
	recovered   int
}

// phase tracks pass/fail for one validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	panelPath := flag.String("panel", "", "path to an exported panel.csv")
	flag.Parse()

	if *panelPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	rows, err := loadPanel(*panelPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load panel: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("=== Panel Integrity Validation: %s (%d rows) ===\n\n", *panelPath, len(rows))

	phases := []*phase{
		validateUniqueKeys(rows),
		validateContiguity(rows),
		validateCounts(rows),
	}

	allPassed := true
	for _, p := range phases {
		if p.passed() {
			fmt.Printf("PASS  %s\n", p.name)
			continue
		}
		allPassed = false
		fmt.Printf("FAIL  %s\n", p.name)
		for _, e := range p.errors {
			fmt.Printf("      - %s\n", e)
		}
	}

	if !allPassed {
		os.Exit(1)
	}
}

func loadPanel(path string) ([]panelRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	// Skip the header; the exporter always writes one.
	rows := make([]panelRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != 7 {
			return nil, fmt.Errorf("row %d: expected 7 fields, got %d", i+2, len(rec))
		}
		date, err := time.ParseInLocation(dateFormat, rec[3], time.UTC)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad report_date %q", i+2, rec[3])
		}
		confirmed, deaths, recovered, err := parseCounts(rec[4], rec[5], rec[6])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rows = append(rows, panelRow{
			locationKey: rec[0],
			date:        date,
			confirmed:   confirmed,
			deaths:      deaths,
			recovered:   recovered,
		})
	}
	return rows, nil
}

func parseCounts(confirmed, deaths, recovered string) (int, int, int, error) {
	c, err := strconv.Atoi(confirmed)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("bad confirmed %q", confirmed)
	}
	d, err := strconv.Atoi(deaths)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("bad deaths %q", deaths)
	}
	r, err := strconv.Atoi(recovered)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("bad recovered %q", recovered)
	}
	return c, d, r, nil
}

func validateUniqueKeys(rows []panelRow) *phase {
	p := &phase{name: "unique (location, date) keys"}
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		key := row.locationKey + "|" + row.date.Format(dateFormat)
		if seen[key] {
			p.errorf("duplicate key %s", key)
		}
		seen[key] = true
	}
	return p
}

func validateContiguity(rows []panelRow) *phase {
	p := &phase{name: "contiguous daily range per location"}
	byLocation := make(map[string][]time.Time)
	for _, row := range rows {
		byLocation[row.locationKey] = append(byLocation[row.locationKey], row.date)
	}
	for loc, dates := range byLocation {
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
		for i := 1; i < len(dates); i++ {
			if want := dates[i-1].AddDate(0, 0, 1); !dates[i].Equal(want) {
				p.errorf("%s: gap between %s and %s",
					loc, dates[i-1].Format(dateFormat), dates[i].Format(dateFormat))
			}
		}
	}
	return p
}

func validateCounts(rows []panelRow) *phase {
	p := &phase{name: "non-negative counts"}
	for _, row := range rows {
		if row.confirmed < 0 || row.deaths < 0 || row.recovered < 0 {
			p.errorf("%s %s: negative count (confirmed=%d deaths=%d recovered=%d)",
				row.locationKey, row.date.Format(dateFormat), row.confirmed, row.deaths, row.recovered)
		}
	}
	return p
}
