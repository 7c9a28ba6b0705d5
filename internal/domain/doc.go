// Package domain models coastal threat readings and the advisories issued for them.
//
// # Data Source
//
// Readings live in the ml_data table, one row per monitored location. The
// model jobs upstream overwrite each row in place with their latest
// predictions, so a row is a snapshot, not a time series:
//
//	location_id               opaque key, also used by location_phones and locations
//	dumping_quantity          illegal-dumping proxy, non-negative
//	saffir_simpson_category   predicted cyclone category, 0 (none) through 5
//	sea_level_rise            anomaly in mm/yr
//	bloom_risk_score          algal bloom risk, 0 through 100
//	risk_score                composite score, reported but not evaluated
//
// SQL NULL in any numeric column reads as 0.
//
// # Rule Groups
//
// Four groups are evaluated independently per row. Each group emits at most one
// advisory; a row can trigger all four at once. Ranges are open, so the
// boundary values themselves never alert:
//
//	Dumping:    50 < q < 200 stress | q > 200 severe
//	Bloom:      b < 20 low | 50 < b < 75 high | b > 75 severe
//	Cyclone:    1..2 moderate | >= 3 severe
//	Sea level:  5 < s < 20 stress | s > 20 severe
//
// Bloom scores from 20 through 50 inclusive are a dead zone with no advisory.
// The dumping and sea-level groups share the same two advisory texts.
//
// # Phone Numbers
//
// Recipient numbers are entered by hand and arrive with spaces, dashes,
// parentheses and the occasional letter. [NormalizePhone] keeps digits and a
// single leading plus sign, e.g. "+1 (555) abc-1234" becomes "+15551234".
package domain
