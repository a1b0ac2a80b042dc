package census

import (
	"context"
	"strconv"

	"github.com/ridgelinedata/hna-etl/internal/domain"
)

// bSeriesVars are the detailed-table variables used when the DP profile
// chain fails. B-series tables cover every geography type (CDPs included)
// and keep stable variable codes across releases, which DP tables do not.
var bSeriesVars = []string{
	"B01003_001E", // total population            → DP05_0001E
	"B11001_001E", // total households            → DP02_0001E
	"B19013_001E", // median household income     → DP03_0062E
	"B25001_001E", // total housing units         → DP04_0001E
	"B25003_001E", // occupied housing units total
	"B25003_002E", // owner-occupied              → DP04_0047PE (%)
	"B25003_003E", // renter-occupied             → DP04_0046PE (%)
	"B25077_001E", // median home value           → DP04_0089E
	"B25064_001E", // median gross rent           → DP04_0134E
	// Structure by units in building             → DP04_0003E-0010E
	"B25024_002E",
	"B25024_003E",
	"B25024_004E",
	"B25024_005E",
	"B25024_006E",
	"B25024_007E",
	"B25024_008E",
	"B25024_009E",
	"B25024_010E",
	// GRAPI rent burden                          → DP04_0144PE-0146PE
	"B25070_001E", // renters paying rent (denominator)
	"B25070_006E", // 25.0-29.9 percent
	"B25070_007E", // 30.0-34.9 percent
	"B25070_008E", // 35.0-39.9 percent
	"B25070_009E", // 40.0-49.9 percent
	"B25070_010E", // 50.0 percent or more
	"NAME",
}

// fetchBSeries tries acs5 detailed tables for each fallback year and maps
// the response onto the DP variable namespace.
func (c *Client) fetchBSeries(ctx context.Context, geo domain.Geography) (domain.ProfileRow, Provenance, []domain.FetchAttempt, bool) {
	var attempts []domain.FetchAttempt

	for _, year := range c.yearsToTry() {
		fullURL := c.buildURL(year, "acs5", "", geo, bSeriesVars)
		row, status, preview, ok := c.getTable(ctx, fullURL)
		attempts = append(attempts, domain.FetchAttempt{
			Year:            year,
			Series:          "acs5",
			Endpoint:        "b-series",
			URL:             c.fetcher.Redact(fullURL),
			Status:          status,
			OK:              ok,
			ResponsePreview: preview,
		})
		if !ok {
			continue
		}
		c.logger.Info("resolved via B-series", "geo", geoKey(geo), "year", year)
		return MapBSeriesRow(row), Provenance{Year: year, Series: "acs5", Endpoint: "b-series"}, attempts, true
	}

	c.logger.Warn("B-series fallback also failed", "geo", geoKey(geo), "years", c.yearsToTry())
	return domain.ProfileRow{}, Provenance{}, attempts, false
}

// MapBSeriesRow converts a raw B-series response onto the DP profile
// namespace. Counts copy across directly; percentage fields the DP tables
// publish are recomputed from the underlying counts. DP04_0142PE/0143PE
// (rent burden below 25%) have no B25070 equivalent at the bins fetched
// and stay absent rather than being estimated.
func MapBSeriesRow(raw domain.SurveyRow) domain.ProfileRow {
	occ := nonNegInt(raw["B25003_001E"])
	owner := nonNegInt(raw["B25003_002E"])
	renter := nonNegInt(raw["B25003_003E"])
	grapiTotal := nonNegInt(raw["B25070_001E"])

	var ownerPct, renterPct *string
	if occ != nil && *occ > 0 {
		if owner != nil {
			ownerPct = pctString(*owner, *occ)
		}
		if renter != nil {
			renterPct = pctString(*renter, *occ)
		}
	}

	// Aggregate 20-49 and 50+ into the DP "20 or more units" bucket.
	s20to49 := nonNegInt(raw["B25024_008E"])
	s50plus := nonNegInt(raw["B25024_009E"])
	var units20Plus *string
	if s20to49 != nil || s50plus != nil {
		total := 0
		if s20to49 != nil {
			total += *s20to49
		}
		if s50plus != nil {
			total += *s50plus
		}
		s := strconv.Itoa(total)
		units20Plus = &s
	}

	grapiPct := func(n *int) *string {
		if n == nil || grapiTotal == nil || *grapiTotal <= 0 {
			return nil
		}
		return pctString(*n, *grapiTotal)
	}

	burden25to29 := nonNegInt(raw["B25070_006E"])
	burden30to34 := nonNegInt(raw["B25070_007E"])

	var burden35Plus *int
	for _, cell := range []*int{
		nonNegInt(raw["B25070_008E"]),
		nonNegInt(raw["B25070_009E"]),
		nonNegInt(raw["B25070_010E"]),
	} {
		if cell == nil {
			continue
		}
		if burden35Plus == nil {
			zero := 0
			burden35Plus = &zero
		}
		*burden35Plus += *cell
	}
	var burden35PlusPct *string
	if burden35Plus != nil {
		burden35PlusPct = grapiPct(burden35Plus)
	}

	return domain.ProfileRow{
		Name:                  raw["NAME"],
		TotalPopulation:       raw["B01003_001E"],
		TotalHouseholds:       raw["B11001_001E"],
		MedianHouseholdIncome: raw["B19013_001E"],
		TotalHousingUnits:     raw["B25001_001E"],
		OwnerOccupiedPct:      ownerPct,
		RenterOccupiedPct:     renterPct,
		MedianHomeValue:       raw["B25077_001E"],
		MedianGrossRent:       raw["B25064_001E"],
		Units1Detached:        raw["B25024_002E"],
		Units1Attached:        raw["B25024_003E"],
		Units2:                raw["B25024_004E"],
		Units3To4:             raw["B25024_005E"],
		Units5To9:             raw["B25024_006E"],
		Units10To19:           raw["B25024_007E"],
		Units20Plus:           units20Plus,
		UnitsMobileHome:       raw["B25024_010E"],
		RentBurden15To19Pct:   nil,
		RentBurden20To24Pct:   nil,
		RentBurden25To29Pct:   grapiPct(burden25to29),
		RentBurden30To34Pct:   grapiPct(burden30to34),
		RentBurden35PlusPct:   burden35PlusPct,
	}
}

// nonNegInt parses a cell as a non-negative integer; negative values are
// ACS sentinel codes (e.g. -666666666) and count as absent.
func nonNegInt(s *string) *int {
	n := domain.IntOf(s)
	if n == nil || *n < 0 {
		return nil
	}
	return n
}

// pctString renders n/total as a percentage with one decimal, the format
// DP percentage variables use.
func pctString(n, total int) *string {
	s := strconv.FormatFloat(float64(n)/float64(total)*100, 'f', 1, 64)
	return &s
}
