package domain

import "time"

// RawRecord is one row of a daily snapshot, exactly as reported. Counts are
// pointers because a missing field is not a zero: zero-filling happens at
// reconciliation, never at ingestion. A zero ReportedAt means the row's
// timestamp was absent or unparseable.
type RawRecord struct {
	Subregion  string
	Region     string
	ReportedAt time.Time
	Confirmed  *int
	Deaths     *int
	Recovered  *int
	SourceFile string
}

// NormalizedRecord is a RawRecord with repaired location fields plus the
// derived canonical key and report date. Region is never empty.
type NormalizedRecord struct {
	LocationKey string
	Subregion   string
	Region      string
	ReportDate  time.Time // UTC midnight
	ReportedAt  time.Time
	Confirmed   *int
	Deaths      *int
	Recovered   *int
}

// PanelRow is one cell of the reconciled panel. (LocationKey, ReportDate) is
// unique, dates are contiguous per location, and counts are resolved
// non-negative values. Counts are cumulative as reported and not forced
// monotonic: upstream downward corrections pass through.
type PanelRow struct {
	LocationKey string    `json:"location_key"`
	Subregion   string    `json:"subregion,omitempty"`
	Region      string    `json:"region"`
	ReportDate  time.Time `json:"report_date"`
	Confirmed   int       `json:"confirmed"`
	Deaths      int       `json:"deaths"`
	Recovered   int       `json:"recovered"`
}

// BucketRow is one point of an aggregated comparison series.
type BucketRow struct {
	Bucket     string    `json:"bucket"`
	ReportDate time.Time `json:"report_date"`
	Confirmed  int       `json:"confirmed"`
	Deaths     int       `json:"deaths"`
	Recovered  int       `json:"recovered"`
}

// Snapshot is one daily report file as retrieved from a source.
type Snapshot struct {
	Name string
	Data []byte
}

// LocationKey joins subregion and region into the canonical panel key. Rows
// without a subregion key on the bare region.
func LocationKey(subregion, region string) string {
	if subregion == "" {
		return region
	}
	return subregion + ", " + region
}

// DateOf truncates a timestamp to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
