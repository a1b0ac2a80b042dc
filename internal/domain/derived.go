package domain

import "math"

// GeoDerivedACS5 echoes the raw cross-year observations behind the derived
// rates so consumers can validate the assumptions.
type GeoDerivedACS5 struct {
	PopY0      *int     `json:"pop_y0"`
	PopY1      *int     `json:"pop_y1"`
	HHY0       *int     `json:"hh_y0"`
	HHY1       *int     `json:"hh_y1"`
	UnitsY1    *int     `json:"units_y1"`
	HeadshipY0 *float64 `json:"headship_y0"`
	HeadshipY1 *float64 `json:"headship_y1"`
}

// GeoDerivedRates are the scaling inputs used when projecting municipal and
// CDP housing need off the containing county's projection.
type GeoDerivedRates struct {
	Share0               *float64 `json:"share0"`
	PopCAGR              *float64 `json:"pop_cagr"`
	CountyPopCAGR        *float64 `json:"county_pop_cagr"`
	RelativePopCAGR      *float64 `json:"relative_pop_cagr"`
	HeadshipBase         *float64 `json:"headship_base"`
	HeadshipSlopePerYear *float64 `json:"headship_slope_per_year"`
}

// GeoDerivedSources records the (redacted) endpoint URLs each comparison
// row came from.
type GeoDerivedSources struct {
	ACS5Y0URL       string `json:"acs5_y0_url"`
	ACS5Y1URL       string `json:"acs5_y1_url"`
	CountyACS5Y0URL string `json:"county_acs5_y0_url"`
	CountyACS5Y1URL string `json:"county_acs5_y1_url"`
}

// GeoDerived is the per-featured-geography entry of the derived-inputs
// document.
type GeoDerived struct {
	Type             GeoType           `json:"type"`
	Label            string            `json:"label"`
	ContainingCounty string            `json:"containingCounty"`
	ACS5             GeoDerivedACS5    `json:"acs5"`
	Derived          GeoDerivedRates   `json:"derived"`
	Sources          GeoDerivedSources `json:"sources"`
}

// DeriveGeoInputs computes the cross-year comparison for one featured
// geography. r0/r1 are the geography's own rows at years y0/y1; c0/c1 the
// containing county's. For counties the geography rows and county rows are
// the same and share0 is fixed at 1.
func DeriveGeoInputs(geo Geography, y0, y1 int, r0, r1, c0, c1 TrendRow) GeoDerived {
	span := y1 - y0

	pop0 := FloatOf(r0.TotalPopulation)
	pop1 := FloatOf(r1.TotalPopulation)
	hh0 := FloatOf(r0.TotalHouseholds)
	hh1 := FloatOf(r1.TotalHouseholds)
	units1 := FloatOf(r1.TotalHousingUnits)

	head0 := headshipRate(hh0, pop0)
	head1 := headshipRate(hh1, pop1)
	var headSlope *float64
	if head0 != nil && head1 != nil && span > 0 {
		headSlope = floatPtr((*head1 - *head0) / float64(span))
	}
	popCAGR := AnnualGrowthRate(pop0, pop1, span)

	cpop0 := FloatOf(c0.TotalPopulation)
	cpop1 := FloatOf(c1.TotalPopulation)
	countyCAGR := AnnualGrowthRate(cpop0, cpop1, span)

	var share0 *float64
	if geo.Type == GeoCounty {
		share0 = floatPtr(1.0)
	} else if pop1 != nil && cpop1 != nil && *cpop1 > 0 {
		share0 = floatPtr(*pop1 / *cpop1)
	}

	var relative *float64
	if geo.Type != GeoCounty && popCAGR != nil && countyCAGR != nil {
		relative = floatPtr(*popCAGR - *countyCAGR)
	}

	headBase := head1
	if headBase == nil {
		headBase = head0
	}

	containing := geo.ContainingCounty
	if geo.Type == GeoCounty {
		containing = geo.GeoID
	}

	return GeoDerived{
		Type:             geo.Type,
		Label:            geo.Label,
		ContainingCounty: containing,
		ACS5: GeoDerivedACS5{
			PopY0:      intOf(pop0),
			PopY1:      intOf(pop1),
			HHY0:       intOf(hh0),
			HHY1:       intOf(hh1),
			UnitsY1:    intOf(units1),
			HeadshipY0: head0,
			HeadshipY1: head1,
		},
		Derived: GeoDerivedRates{
			Share0:               share0,
			PopCAGR:              popCAGR,
			CountyPopCAGR:        countyCAGR,
			RelativePopCAGR:      relative,
			HeadshipBase:         headBase,
			HeadshipSlopePerYear: headSlope,
		},
	}
}

func headshipRate(households, population *float64) *float64 {
	if households == nil || population == nil || *population <= 0 {
		return nil
	}
	return floatPtr(*households / *population)
}

func intOf(f *float64) *int {
	if f == nil {
		return nil
	}
	return intPtr(int(math.Round(*f)))
}
