// Package domain models daily outbreak case-count snapshots and the
// reconciliation that turns them into a canonical location × date panel.
//
// # Data Source
//
// Each input is one day's snapshot CSV covering every reporting location
// known that day: a subregion (province or state), a region (country), a
// last-update timestamp, and cumulative confirmed, death, and recovered
// counts. The files were published daily and their conventions drifted as
// the outbreak spread, so parsing and normalization carry tables of known
// quirks rather than general inference.
//
// # Snapshot Conventions
//
// Header eras:
//
//	Early files:  Province/State, Country/Region, Last Update
//	Later files:  Province_State, Country_Region, Last_Update
//	Some files open with a UTF-8 BOM. Headers match case-insensitively.
//
// Timestamp formats, tried in fixed order:
//
//	1/22/2020 5:00 PM    month-day-year, 12-hour with AM/PM
//	1/22/2020 17:00      month-day-year, 24-hour hour:minute
//	1/22/2020 17:00:00   month-day-year, 24-hour with seconds
//	2020-01-22 17:00:00  year-month-day with seconds
//	2020-01-22T17:00:00  ISO variant used by later files
//
//	A row whose timestamp matches none of these is dropped at
//	normalization: it cannot be placed in the time series.
//
// Counts:
//
//	Cumulative integers, occasionally exported as spreadsheet floats
//	("14.0"). An empty or malformed count is missing, not zero; it stays
//	missing until reconciliation decides between carry-forward and
//	zero-fill.
//
// # Location Quirks
//
// Hong Kong, Macau, and Taiwan appear as subregions in some files but are
// tracked as their own top-level regions; when seen as a subregion they
// override the supplied region. Rows with no region at all (cruise-ship
// cases) fall back to the "Others" territory. A few early US rows carried
// a state with an inconsistent country and are forced to "US".
//
// The US and Canada switched from state-only rows ("Washington") to
// city-level rows ("Seattle, WA") without removing the state-only ones,
// double-counting every date after the transition. [DropPolicy] removes
// the stale coarse rows after the configured cutover while keeping them
// before it, when they were the only data available.
//
// # Reconciliation
//
// [Reconcile] collapses same-day duplicates (latest report wins), fills
// each location's dates into a contiguous daily range ending "today" by
// carrying the previous day's counts forward, zero-fills counts missing at
// a location's first appearance, and applies the drop policy. The panel it
// returns is the single source of truth for one run; [Aggregate] projects
// it into comparison buckets and owns no state of its own.
package domain
