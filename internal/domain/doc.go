// Package domain models the demographic and housing datasets behind the
// Housing Needs Assessment (HNA) snapshots.
//
// # Data Sources
//
// Census ACS (American Community Survey):
//
//	Annual survey estimates queried through api.census.gov. Responses are
//	two-row JSON arrays: a header row of variable codes followed by a data
//	row of string values. Profile (DP) and subject (S) tables are the
//	preferred sources; detailed (B) tables serve as a stable fallback
//	because DP variable numbering shifts between vintages and profile
//	tables omit Census-Designated Places entirely in 1-year products.
//
// Census TIGERweb:
//
//	ArcGIS REST service supplying the authoritative county list
//	(NAME + GEOID) for the state.
//
// LEHD LODES:
//
//	Origin-destination commuting flows. One gzip-compressed CSV per state
//	and year with millions of census-block rows (h_geocode, w_geocode,
//	S000 job count). The first five digits of a block geocode are the
//	county FIPS, which is the aggregation key used here.
//
// Colorado SDO (DOLA):
//
//	State Demography Office CSV exports: single-year-of-age population by
//	county, county components of change (population + net migration,
//	estimates and forecasts), and county population profiles (households,
//	housing units, vacancy). These files carry banner rows above the real
//	header and occasionally rename columns, so header detection and column
//	resolution are heuristic by design.
//
// # GEOID Conventions
//
// A GEOID is a 2-digit state FIPS followed by a geography-specific code:
// 5 digits total for counties (08077 = Mesa County), 7 for places and CDPs
// (0831660 = Grand Junction). Colorado is state 08 throughout.
//
// # Absent Values
//
// Upstream values that are missing or unparseable stay absent (*float64 /
// *int nil, JSON null) and propagate through every derivation. Nothing is
// coerced to zero: a zero population is a real observation, a nil one is a
// gap in the source.
package domain
