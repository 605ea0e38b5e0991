package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freezeClock(t *testing.T, at time.Time) {
	t.Helper()
	SetClock(clockwork.NewFakeClockAt(at))
	t.Cleanup(func() { SetClock(nil) })
}

func normAt(sub, region string, reportedAt time.Time, confirmed, deaths, recovered *int) NormalizedRecord {
	return NormalizedRecord{
		LocationKey: LocationKey(sub, region),
		Subregion:   sub,
		Region:      region,
		ReportDate:  DateOf(reportedAt),
		ReportedAt:  reportedAt,
		Confirmed:   confirmed,
		Deaths:      deaths,
		Recovered:   recovered,
	}
}

func day(d int) time.Time {
	return time.Date(2020, 1, d, 0, 0, 0, 0, time.UTC)
}

func at(d, hour int) time.Time {
	return time.Date(2020, 1, d, hour, 0, 0, 0, time.UTC)
}

func TestReconcile_Dedup(t *testing.T) {
	freezeClock(t, day(22))

	t.Run("latest intra-day report wins", func(t *testing.T) {
		records := []NormalizedRecord{
			normAt("Hubei", "Mainland China", at(22, 10), intPtr(400), intPtr(12), nil),
			normAt("Hubei", "Mainland China", at(22, 23), intPtr(444), intPtr(17), nil),
			normAt("Hubei", "Mainland China", at(22, 15), intPtr(420), intPtr(14), nil),
		}
		panel, stats := Reconcile(records, DropPolicy{})

		require.Len(t, panel, 1)
		assert.Equal(t, 444, panel[0].Confirmed)
		assert.Equal(t, 17, panel[0].Deaths)
		assert.Equal(t, 2, stats.DuplicatesCollapsed)
	})

	t.Run("equal timestamps keep the first seen", func(t *testing.T) {
		records := []NormalizedRecord{
			normAt("Hubei", "Mainland China", at(22, 12), intPtr(100), nil, nil),
			normAt("Hubei", "Mainland China", at(22, 12), intPtr(999), nil, nil),
		}
		panel, _ := Reconcile(records, DropPolicy{})

		require.Len(t, panel, 1)
		assert.Equal(t, 100, panel[0].Confirmed)
	})
}

func TestReconcile_GapFill(t *testing.T) {
	t.Run("carries the nearest preceding value forward", func(t *testing.T) {
		freezeClock(t, day(4))

		records := []NormalizedRecord{
			normAt("Hubei", "Mainland China", at(1, 12), intPtr(5), intPtr(1), intPtr(0)),
			normAt("Hubei", "Mainland China", at(4, 12), intPtr(9), intPtr(2), intPtr(1)),
		}
		panel, stats := Reconcile(records, DropPolicy{})

		require.Len(t, panel, 4)
		confirmed := []int{panel[0].Confirmed, panel[1].Confirmed, panel[2].Confirmed, panel[3].Confirmed}
		assert.Equal(t, []int{5, 5, 5, 9}, confirmed)
		assert.Equal(t, day(2), panel[1].ReportDate)
		assert.Equal(t, day(3), panel[2].ReportDate)
		assert.Equal(t, 2, stats.RowsSynthesized)
	})

	t.Run("extends every location through today", func(t *testing.T) {
		freezeClock(t, day(10))

		records := []NormalizedRecord{
			normAt("", "Japan", at(6, 9), intPtr(2), nil, nil),
		}
		panel, _ := Reconcile(records, DropPolicy{})

		require.Len(t, panel, 5)
		assert.Equal(t, day(6), panel[0].ReportDate)
		assert.Equal(t, day(10), panel[4].ReportDate)
		for _, row := range panel {
			assert.Equal(t, 2, row.Confirmed)
		}
	})

	t.Run("no rows before a location's first observation", func(t *testing.T) {
		freezeClock(t, day(5))

		records := []NormalizedRecord{
			normAt("Hubei", "Mainland China", at(1, 12), intPtr(100), nil, nil),
			normAt("", "US", at(4, 12), intPtr(3), nil, nil),
		}
		panel, _ := Reconcile(records, DropPolicy{})

		var usDates []time.Time
		for _, row := range panel {
			if row.LocationKey == "US" {
				usDates = append(usDates, row.ReportDate)
			}
		}
		require.Len(t, usDates, 2)
		assert.Equal(t, day(4), usDates[0])
	})

	t.Run("zero fills counts absent at first appearance", func(t *testing.T) {
		freezeClock(t, day(3))

		records := []NormalizedRecord{
			normAt("", "Japan", at(1, 9), intPtr(2), nil, nil),
			normAt("", "Japan", at(3, 9), intPtr(4), intPtr(1), nil),
		}
		panel, _ := Reconcile(records, DropPolicy{})

		require.Len(t, panel, 3)
		assert.Equal(t, 0, panel[0].Deaths)
		assert.Equal(t, 0, panel[0].Recovered)
		// Day 2 is synthesized from day 1; day 3's observed deaths override.
		assert.Equal(t, 0, panel[1].Deaths)
		assert.Equal(t, 1, panel[2].Deaths)
		assert.Equal(t, 0, panel[2].Recovered)
	})

	t.Run("observed row with a missing count carries forward", func(t *testing.T) {
		freezeClock(t, day(2))

		records := []NormalizedRecord{
			normAt("Hubei", "Mainland China", at(1, 12), intPtr(100), intPtr(3), intPtr(7)),
			normAt("Hubei", "Mainland China", at(2, 12), intPtr(150), nil, nil),
		}
		panel, _ := Reconcile(records, DropPolicy{})

		require.Len(t, panel, 2)
		assert.Equal(t, 150, panel[1].Confirmed)
		assert.Equal(t, 3, panel[1].Deaths)
		assert.Equal(t, 7, panel[1].Recovered)
	})
}

func TestReconcile_Contiguity(t *testing.T) {
	freezeClock(t, day(15))

	records := []NormalizedRecord{
		normAt("Hubei", "Mainland China", at(1, 12), intPtr(100), nil, nil),
		normAt("Hubei", "Mainland China", at(9, 12), intPtr(500), nil, nil),
		normAt("", "Japan", at(4, 12), intPtr(2), nil, nil),
		normAt("", "Thailand", at(12, 12), intPtr(8), nil, nil),
	}
	panel, _ := Reconcile(records, DropPolicy{})

	byLocation := make(map[string][]PanelRow)
	for _, row := range panel {
		byLocation[row.LocationKey] = append(byLocation[row.LocationKey], row)
	}
	require.Len(t, byLocation, 3)

	for loc, rows := range byLocation {
		assert.Equal(t, day(15), rows[len(rows)-1].ReportDate, "location %s must end today", loc)
		for i := 1; i < len(rows); i++ {
			expected := rows[i-1].ReportDate.AddDate(0, 0, 1)
			assert.Equal(t, expected, rows[i].ReportDate, "location %s has a gap", loc)
		}
		for _, row := range rows {
			assert.GreaterOrEqual(t, row.Confirmed, 0)
			assert.GreaterOrEqual(t, row.Deaths, 0)
			assert.GreaterOrEqual(t, row.Recovered, 0)
		}
	}
}

func TestReconcile_DropPolicy(t *testing.T) {
	freezeClock(t, time.Date(2020, 3, 5, 0, 0, 0, 0, time.UTC))
	cutover := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	policy := NewDropPolicy([]string{"US", "Canada"}, cutover)

	march := func(d, hour int) time.Time {
		return time.Date(2020, 3, d, hour, 0, 0, 0, time.UTC)
	}

	records := []NormalizedRecord{
		// State-only rows observed before and after the cutover.
		normAt("Washington", "US", time.Date(2020, 2, 28, 12, 0, 0, 0, time.UTC), intPtr(10), nil, nil),
		normAt("Washington", "US", march(3, 12), intPtr(40), nil, nil),
		// City-level reporting begins after the cutover.
		normAt("Seattle, WA", "US", march(2, 12), intPtr(25), nil, nil),
		normAt("Toronto, ON", "Canada", march(2, 12), intPtr(6), nil, nil),
		normAt("Ontario", "Canada", march(3, 12), intPtr(5), nil, nil),
		// Unlisted countries are never subject to the rule.
		normAt("Hubei", "Mainland China", march(3, 12), intPtr(67000), nil, nil),
	}
	panel, stats := Reconcile(records, policy)

	dates := func(key string) []time.Time {
		var out []time.Time
		for _, row := range panel {
			if row.LocationKey == key {
				out = append(out, row.ReportDate)
			}
		}
		return out
	}

	// Washington keeps 2/28..3/1 and loses everything after the cutover,
	// including gap-filled days.
	washington := dates("Washington, US")
	require.Len(t, washington, 3)
	assert.Equal(t, time.Date(2020, 2, 28, 0, 0, 0, 0, time.UTC), washington[0])
	assert.Equal(t, cutover, washington[2])

	// City-level rows survive through today.
	assert.Len(t, dates("Seattle, WA, US"), 4)
	assert.Len(t, dates("Toronto, ON, Canada"), 4)

	// A state-only location first observed after the cutover vanishes entirely.
	assert.Empty(t, dates("Ontario, Canada"))

	// Unlisted countries keep their full range.
	assert.Len(t, dates("Hubei, Mainland China"), 3)

	assert.Positive(t, stats.CoarseRowsDropped)
	for _, row := range panel {
		if row.Region != "US" && row.Region != "Canada" {
			continue
		}
		if row.ReportDate.After(cutover) {
			assert.Contains(t, row.Subregion, ",", "coarse row %s survived past the cutover", row.LocationKey)
		}
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	freezeClock(t, time.Date(2020, 3, 5, 0, 0, 0, 0, time.UTC))
	policy := NewDropPolicy([]string{"US", "Canada"}, time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC))

	records := []NormalizedRecord{
		normAt("Hubei", "Mainland China", time.Date(2020, 2, 25, 10, 0, 0, 0, time.UTC), intPtr(400), intPtr(12), nil),
		normAt("Hubei", "Mainland China", time.Date(2020, 2, 25, 23, 0, 0, 0, time.UTC), intPtr(444), intPtr(17), nil),
		normAt("Hubei", "Mainland China", time.Date(2020, 2, 28, 23, 0, 0, 0, time.UTC), intPtr(520), intPtr(20), intPtr(31)),
		normAt("Washington", "US", time.Date(2020, 2, 28, 12, 0, 0, 0, time.UTC), intPtr(10), nil, nil),
		normAt("Seattle, WA", "US", time.Date(2020, 3, 2, 12, 0, 0, 0, time.UTC), intPtr(25), nil, nil),
		normAt("", "Japan", time.Date(2020, 2, 27, 9, 0, 0, 0, time.UTC), intPtr(4), nil, nil),
	}
	first, _ := Reconcile(records, policy)
	second, _ := Reconcile(panelAsRecords(first), policy)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("reconciliation is not idempotent (-first +second):\n%s", diff)
	}
}

// panelAsRecords feeds a reconciled panel back through reconciliation, the
// way a re-run over already-clean data would look.
func panelAsRecords(panel []PanelRow) []NormalizedRecord {
	records := make([]NormalizedRecord, 0, len(panel))
	for _, row := range panel {
		c, d, r := row.Confirmed, row.Deaths, row.Recovered
		records = append(records, NormalizedRecord{
			LocationKey: row.LocationKey,
			Subregion:   row.Subregion,
			Region:      row.Region,
			ReportDate:  row.ReportDate,
			ReportedAt:  row.ReportDate,
			Confirmed:   &c,
			Deaths:      &d,
			Recovered:   &r,
		})
	}
	return records
}

// TestReconcile_EndToEnd runs the full parse → normalize → reconcile path
// over two snapshot files.
func TestReconcile_EndToEnd(t *testing.T) {
	freezeClock(t, day(23))

	day1 := "Province/State,Country/Region,Last Update,Confirmed,Deaths,Recovered\n" +
		"Hubei,Mainland China,1/22/2020 17:00,100,,\n"
	day2 := "Province/State,Country/Region,Last Update,Confirmed,Deaths,Recovered\n" +
		"Hubei,Mainland China,1/23/2020 17:00,150,,\n" +
		",US,1/23/2020 17:00,3,,\n"

	var raw []RawRecord
	for name, data := range map[string]string{"01-22-2020.csv": day1, "01-23-2020.csv": day2} {
		records, err := ParseSnapshot(name, strings.NewReader(data))
		require.NoError(t, err)
		raw = append(raw, records...)
	}

	normalized, dropped := NormalizeRecords(raw)
	require.Zero(t, dropped)

	panel, _ := Reconcile(normalized, DropPolicy{})

	expected := []PanelRow{
		{LocationKey: "Hubei, Mainland China", Subregion: "Hubei", Region: "Mainland China", ReportDate: day(22), Confirmed: 100},
		{LocationKey: "Hubei, Mainland China", Subregion: "Hubei", Region: "Mainland China", ReportDate: day(23), Confirmed: 150},
		{LocationKey: "US", Region: "US", ReportDate: day(23), Confirmed: 3},
	}
	if diff := cmp.Diff(expected, panel); diff != "" {
		t.Fatalf("panel mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcile_EmptyInput(t *testing.T) {
	freezeClock(t, day(22))

	panel, stats := Reconcile(nil, DropPolicy{})
	assert.Empty(t, panel)
	assert.Zero(t, stats)
}
