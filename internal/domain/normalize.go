package domain

// The tables below encode reporting quirks of one specific dataset and time
// period. They are closed lookups, not inferred from data; extend them if
// the pipeline is pointed at later files.

// defaultSubregions imputes a subregion for rows that name a region but no
// subregion. Early files occasionally dropped the province column for the
// outbreak country, and Australian rows sometimes arrived state-less.
var defaultSubregions = map[string]string{
	"Mainland China": "Hubei",
	"Australia":      "New South Wales",
}

// selfGoverning lists subregions that are themselves recognized top-level
// regions. When one appears as a subregion, it overrides whatever region
// the row supplied.
var selfGoverning = map[string]bool{
	"Hong Kong": true,
	"Macau":     true,
	"Taiwan":    true,
}

const (
	// fallbackRegion absorbs rows with no region at all, chiefly the
	// cruise-ship cases the source filed without a country.
	fallbackRegion = "Others"

	// usStateSentinel marks rows where the source wrote a US state with an
	// inconsistent or missing country; the country is forced to usRegion.
	usStateSentinel = "Washington"
	usRegion        = "US"
)

// NormalizeRecords repairs location fields and derives the canonical key
// and report date for every record with a parseable timestamp. Records
// whose timestamp failed to parse cannot be placed in the time series and
// are dropped; the second return value counts them for observability.
func NormalizeRecords(records []RawRecord) ([]NormalizedRecord, int) {
	normalized := make([]NormalizedRecord, 0, len(records))
	dropped := 0
	for _, rec := range records {
		if rec.ReportedAt.IsZero() {
			dropped++
			continue
		}
		normalized = append(normalized, normalizeRecord(rec))
	}
	return normalized, dropped
}

// normalizeRecord applies the repair rules in fixed order: subregion
// imputation first, then region recomputation, then key and date
// derivation. Later rules depend on earlier ones having run.
func normalizeRecord(rec RawRecord) NormalizedRecord {
	subregion := rec.Subregion
	region := rec.Region

	if subregion == "" {
		if def, ok := defaultSubregions[region]; ok {
			subregion = def
		}
	}

	switch {
	case selfGoverning[subregion]:
		region = subregion
	case subregion == usStateSentinel:
		region = usRegion
	case region == "":
		region = fallbackRegion
	}

	return NormalizedRecord{
		LocationKey: LocationKey(subregion, region),
		Subregion:   subregion,
		Region:      region,
		ReportDate:  DateOf(rec.ReportedAt),
		ReportedAt:  rec.ReportedAt,
		Confirmed:   rec.Confirmed,
		Deaths:      rec.Deaths,
		Recovered:   rec.Recovered,
	}
}
