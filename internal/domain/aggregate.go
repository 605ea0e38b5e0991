package domain

import (
	"sort"
	"time"
)

// BucketFunc assigns a panel row to a named comparison bucket. It must be
// total: returning a label for every row is the caller's contract, not a
// runtime condition the aggregation handles.
type BucketFunc func(PanelRow) string

// EpicenterBuckets splits the panel three ways: the epicenter subregion,
// the rest of its country, and the rest of the world.
func EpicenterBuckets(subregion, region string) BucketFunc {
	return func(row PanelRow) string {
		switch {
		case row.Region == region && row.Subregion == subregion:
			return subregion
		case row.Region == region:
			return "Rest of " + region
		default:
			return "Rest of World"
		}
	}
}

// CountryBuckets is the coarser split: the epicenter country as a whole
// versus the rest of the world. Comparative plots need both granularities.
func CountryBuckets(region string) BucketFunc {
	return func(row PanelRow) string {
		if row.Region == region {
			return region
		}
		return "Rest of World"
	}
}

// Aggregate sums panel counts per (bucket, date). The result is a pure
// projection of the panel, sorted by bucket then date.
func Aggregate(panel []PanelRow, bucket BucketFunc) []BucketRow {
	type key struct {
		bucket string
		date   time.Time
	}
	totals := make(map[key]BucketRow)
	for _, row := range panel {
		k := key{bucket: bucket(row), date: row.ReportDate}
		sum := totals[k]
		sum.Bucket = k.bucket
		sum.ReportDate = k.date
		sum.Confirmed += row.Confirmed
		sum.Deaths += row.Deaths
		sum.Recovered += row.Recovered
		totals[k] = sum
	}

	rows := make([]BucketRow, 0, len(totals))
	for _, sum := range totals {
		rows = append(rows, sum)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Bucket != rows[j].Bucket {
			return rows[i].Bucket < rows[j].Bucket
		}
		return rows[i].ReportDate.Before(rows[j].ReportDate)
	})
	return rows
}
