// Command gensnapshots writes synthetic daily snapshot CSVs for local runs
// and fixtures. The generated files reproduce the source's known quirks:
// the header change between reporting eras, same-day duplicate rows with
// later timestamps, missing counts, self-governing subregions, and the
// state-to-city granularity switch for US rows.
//
// Usage:
//
//	go run ./cmd/gensnapshots -out data/daily_reports -start 2020-01-22 -days 45
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// headerEraCutover is the date the source switched from slash-separated to
// underscore-separated headers (and US rows to city granularity).
var headerEraCutover = time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC)

func main() {
	outDir := flag.String("out", "", "directory to write snapshot CSVs into")
	start := flag.String("start", "2020-01-22", "first snapshot date (YYYY-MM-DD)")
	days := flag.Int("days", 45, "number of daily snapshots to generate")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		log.Fatal("missing required flag: -out")
	}
	startDate, err := time.ParseInLocation("2006-01-02", *start, time.UTC)
	if err != nil {
		log.Fatalf("invalid -start: %v", err)
	}

	if err := run(*outDir, startDate, *days); err != nil {
		log.Fatal(err)
	}
}

func run(outDir string, start time.Time, days int) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i)
		name := date.Format("01-02-2006") + ".csv"
		path := filepath.Join(outDir, name)
		if err := writeSnapshot(path, date, i); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		log.Printf("wrote %s", path)
	}
	log.Printf("generated %d snapshots in %s", days, outDir)
	return nil
}

func writeSnapshot(path string, date time.Time, day int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	lateEra := !date.Before(headerEraCutover)
	if lateEra {
		err = w.Write([]string{"Province_State", "Country_Region", "Last_Update", "Confirmed", "Deaths", "Recovered"})
	} else {
		err = w.Write([]string{"Province/State", "Country/Region", "Last Update", "Confirmed", "Deaths", "Recovered"})
	}
	if err != nil {
		return err
	}

	for _, row := range snapshotRows(date, day, lateEra) {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// snapshotRows builds one day's rows with deterministic growth curves.
func snapshotRows(date time.Time, day int, lateEra bool) [][]string {
	morning := stamp(date, 10, 0, lateEra)
	evening := stamp(date, 23, 30, lateEra)

	rows := [][]string{
		// Morning report superseded by an evening update the same day.
		{"Hubei", "Mainland China", morning, count(400 + 210*day), count(12 + 6*day), count(3 + 9*day)},
		{"Hubei", "Mainland China", evening, count(444 + 230*day), count(17 + 7*day), count(5 + 10*day)},
		{"Guangdong", "Mainland China", evening, count(26 + 40*day), count(2 * day / 3), count(day * 2)},
		// Self-governing subregion with an inconsistent country column.
		{"Hong Kong", "Mainland China", evening, count(2 + day/2), "0", count(day / 5)},
		// No recovered column value for Japan in the early files.
		{"", "Japan", evening, count(2 + day), "0", ""},
		// Cruise-ship rows have no country at all.
		{"Diamond Princess cruise ship", "", evening, count(day * 4), "0", "0"},
	}

	// Every third day Thailand reports with a timestamp the parser cannot
	// read; those rows are dropped at normalization.
	if day%3 == 0 {
		rows = append(rows, []string{"", "Thailand", "pending", count(1 + day/2), "0", "0"})
	}

	// US reporting starts at state granularity, then switches to city
	// granularity without retiring the state rows.
	if day >= 4 {
		rows = append(rows, []string{"Washington", "US", evening, count(1 + (day-4)*3), "0", "0"})
		rows = append(rows, []string{"Massachusetts", "US", evening, count(1 + (day-4)*2), "0", "0"})
	}
	if lateEra {
		rows = append(rows, []string{"Seattle, WA", "US", evening, count(5 + day*3), count(day / 10), "0"})
		rows = append(rows, []string{"Boston, MA", "US", evening, count(3 + day*2), "0", "0"})
	}
	return rows
}

func stamp(date time.Time, hour, minute int, lateEra bool) string {
	t := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, time.UTC)
	if lateEra {
		return t.Format("2006-01-02 15:04:05")
	}
	return t.Format("1/2/2006 15:04")
}

func count(n int) string {
	if n < 0 {
		n = 0
	}
	return strconv.Itoa(n)
}
