package domain

import (
	"sort"
	"strings"
	"time"
)

// DropPolicy removes coarse-granularity rows superseded by finer reporting.
// The source began some countries at state granularity, then switched to
// "City, State" rows without retiring the state-only ones, double-counting
// every case after the switch. Rows for a listed country dated strictly
// after Cutover whose subregion carries no comma (state-only, or no
// subregion at all) are dropped; before the cutover they were the only
// data available and are kept.
type DropPolicy struct {
	Countries map[string]bool
	Cutover   time.Time // UTC date; zero disables the rule
}

// NewDropPolicy builds a policy from a country list and cutover date.
func NewDropPolicy(countries []string, cutover time.Time) DropPolicy {
	set := make(map[string]bool, len(countries))
	for _, c := range countries {
		set[c] = true
	}
	return DropPolicy{Countries: set, Cutover: DateOf(cutover)}
}

func (p DropPolicy) drops(row PanelRow) bool {
	if p.Cutover.IsZero() || !p.Countries[row.Region] {
		return false
	}
	if !row.ReportDate.After(p.Cutover) {
		return false
	}
	return !strings.Contains(row.Subregion, ",")
}

// ReconcileStats counts the rows each reconciliation step touched.
type ReconcileStats struct {
	DuplicatesCollapsed int
	RowsSynthesized     int
	CoarseRowsDropped   int
}

// Reconcile turns normalized records into the canonical panel:
//
//  1. Same-day duplicates collapse to the record with the latest ReportedAt;
//     on exactly equal timestamps the first-seen record wins, keeping input
//     order authoritative.
//  2. Each location's dates are filled into a contiguous daily range from
//     its first observation through today (per the package clock), carrying
//     the previous day's counts forward. No backward fill.
//  3. Counts still missing after carry-forward (a field absent at a
//     location's first appearance) become 0.
//  4. The drop policy removes superseded coarse rows.
//
// Output is sorted by location key, then date. Reapplying Reconcile to its
// own output yields an identical panel.
func Reconcile(records []NormalizedRecord, policy DropPolicy) ([]PanelRow, ReconcileStats) {
	var stats ReconcileStats

	byLocation := dedupLatest(records, &stats)

	locations := make([]string, 0, len(byLocation))
	for loc := range byLocation {
		locations = append(locations, loc)
	}
	sort.Strings(locations)

	today := DateOf(clock.Now())
	var panel []PanelRow
	for _, loc := range locations {
		for _, row := range fillLocation(byLocation[loc], today, &stats) {
			if policy.drops(row) {
				stats.CoarseRowsDropped++
				continue
			}
			panel = append(panel, row)
		}
	}
	return panel, stats
}

// dedupLatest groups records by location and date, keeping the record with
// the maximum ReportedAt per group.
func dedupLatest(records []NormalizedRecord, stats *ReconcileStats) map[string]map[time.Time]NormalizedRecord {
	byLocation := make(map[string]map[time.Time]NormalizedRecord)
	for _, rec := range records {
		byDate := byLocation[rec.LocationKey]
		if byDate == nil {
			byDate = make(map[time.Time]NormalizedRecord)
			byLocation[rec.LocationKey] = byDate
		}
		existing, ok := byDate[rec.ReportDate]
		if !ok {
			byDate[rec.ReportDate] = rec
			continue
		}
		stats.DuplicatesCollapsed++
		if rec.ReportedAt.After(existing.ReportedAt) {
			byDate[rec.ReportDate] = rec
		}
	}
	return byLocation
}

// fillLocation materializes one location's contiguous daily series. Each
// metric independently takes the observed value when present, else the
// previous day's value, starting from zero. This covers both synthesized
// dates and observed rows with a missing field.
func fillLocation(byDate map[time.Time]NormalizedRecord, today time.Time, stats *ReconcileStats) []PanelRow {
	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	start := dates[0]
	end := today
	if last := dates[len(dates)-1]; last.After(end) {
		// A report dated ahead of the run clock still anchors the range.
		end = last
	}

	first := byDate[start]
	rows := make([]PanelRow, 0, int(end.Sub(start).Hours()/24)+1)
	prev := PanelRow{}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		row := PanelRow{
			LocationKey: first.LocationKey,
			Subregion:   first.Subregion,
			Region:      first.Region,
			ReportDate:  d,
			Confirmed:   prev.Confirmed,
			Deaths:      prev.Deaths,
			Recovered:   prev.Recovered,
		}
		rec, observed := byDate[d]
		if observed {
			row.Confirmed = countOr(rec.Confirmed, row.Confirmed)
			row.Deaths = countOr(rec.Deaths, row.Deaths)
			row.Recovered = countOr(rec.Recovered, row.Recovered)
		} else {
			stats.RowsSynthesized++
		}
		rows = append(rows, row)
		prev = row
	}
	return rows
}

func countOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
