package domain

import "encoding/json"

// SurveyRow is a raw variable-code → value mapping as returned by the ACS
// API (header row zipped against the single data row). Values may be null.
type SurveyRow map[string]*string

// ZipRow combines an ACS header row and data row into a SurveyRow.
// Trailing header cells without values are left absent.
func ZipRow(header []string, values []*string) SurveyRow {
	row := make(SurveyRow, len(header))
	for i, code := range header {
		if i < len(values) {
			row[code] = values[i]
		} else {
			row[code] = nil
		}
	}
	return row
}

// ProfileRow is the typed rendition of an ACS housing/demographic profile
// response. JSON tags carry the DP variable codes so snapshot documents
// keep the code-keyed shape the front-end expects, while Go code reads
// named fields instead of string-keyed map lookups.
type ProfileRow struct {
	Name                  *string `json:"NAME"`
	TotalPopulation       *string `json:"DP05_0001E"`
	TotalHouseholds       *string `json:"DP02_0001E,omitempty"` // only populated via the B-series fallback
	MedianHouseholdIncome *string `json:"DP03_0062E"`
	TotalHousingUnits     *string `json:"DP04_0001E"`
	OwnerOccupiedPct      *string `json:"DP04_0047PE"`
	RenterOccupiedPct     *string `json:"DP04_0046PE"`
	MedianHomeValue       *string `json:"DP04_0089E"`
	MedianGrossRent       *string `json:"DP04_0134E"`

	// Units in structure.
	Units1Detached  *string `json:"DP04_0003E"`
	Units1Attached  *string `json:"DP04_0004E"`
	Units2          *string `json:"DP04_0005E"`
	Units3To4       *string `json:"DP04_0006E"`
	Units5To9       *string `json:"DP04_0007E"`
	Units10To19     *string `json:"DP04_0008E"`
	Units20Plus     *string `json:"DP04_0009E"`
	UnitsMobileHome *string `json:"DP04_0010E"`

	// GRAPI rent-burden shares (% of renter-occupied units paying rent).
	RentBurden15To19Pct *string `json:"DP04_0142PE"`
	RentBurden20To24Pct *string `json:"DP04_0143PE"`
	RentBurden25To29Pct *string `json:"DP04_0144PE"`
	RentBurden30To34Pct *string `json:"DP04_0145PE"`
	RentBurden35PlusPct *string `json:"DP04_0146PE"`
}

// SubjectRow is the typed rendition of an ACS S0801 commuting response.
type SubjectRow struct {
	Name             *string `json:"NAME"`
	Workers16Plus    *string `json:"S0801_C01_001E"`
	DroveCarTruckVan *string `json:"S0801_C01_002E"`
	DroveAlone       *string `json:"S0801_C01_003E"`
	Carpooled        *string `json:"S0801_C01_004E"`
	PublicTransit    *string `json:"S0801_C01_005E"`
	Walked           *string `json:"S0801_C01_006E"`
	OtherMeans       *string `json:"S0801_C01_007E"`
	MeanTravelTime   *string `json:"S0801_C01_018E"`
}

// TrendRow is the small profile slice fetched per comparison year for the
// derived-inputs builder.
type TrendRow struct {
	Name              *string `json:"NAME"`
	TotalPopulation   *string `json:"DP05_0001E"`
	TotalHouseholds   *string `json:"DP02_0001E"`
	TotalHousingUnits *string `json:"DP04_0001E"`
}

// ProfileRowFrom maps a raw SurveyRow onto the typed profile record.
func ProfileRowFrom(row SurveyRow) ProfileRow { return decodeRow[ProfileRow](row) }

// SubjectRowFrom maps a raw SurveyRow onto the typed S0801 record.
func SubjectRowFrom(row SurveyRow) SubjectRow { return decodeRow[SubjectRow](row) }

// TrendRowFrom maps a raw SurveyRow onto the typed trend record.
func TrendRowFrom(row SurveyRow) TrendRow { return decodeRow[TrendRow](row) }

// decodeRow routes a code-keyed map through its JSON form into a typed
// record; unknown codes are dropped, missing ones stay nil.
func decodeRow[T any](row SurveyRow) T {
	var out T
	data, err := json.Marshal(row)
	if err != nil {
		return out
	}
	_ = json.Unmarshal(data, &out)
	return out
}
