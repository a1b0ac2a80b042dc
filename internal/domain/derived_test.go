package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func trendRow(pop, hh, units string) TrendRow {
	return TrendRow{
		TotalPopulation:   strPtr(pop),
		TotalHouseholds:   strPtr(hh),
		TotalHousingUnits: strPtr(units),
	}
}

func TestDeriveGeoInputsPlace(t *testing.T) {
	geo := Geography{Type: GeoPlace, GeoID: "0828745", Label: "Fruita (city)", ContainingCounty: "08077"}
	r0 := trendRow("12000", "4500", "4800")
	r1 := trendRow("13500", "5100", "5400")
	c0 := trendRow("150000", "58000", "62000")
	c1 := trendRow("155000", "60000", "64000")

	d := DeriveGeoInputs(geo, 2018, 2023, r0, r1, c0, c1)

	assert.Equal(t, GeoPlace, d.Type)
	assert.Equal(t, "08077", d.ContainingCounty)

	require.NotNil(t, d.ACS5.PopY0)
	assert.Equal(t, 12000, *d.ACS5.PopY0)
	require.NotNil(t, d.ACS5.UnitsY1)
	assert.Equal(t, 5400, *d.ACS5.UnitsY1)

	require.NotNil(t, d.Derived.Share0)
	assert.InDelta(t, 13500.0/155000.0, *d.Derived.Share0, 1e-9)

	require.NotNil(t, d.Derived.PopCAGR)
	require.NotNil(t, d.Derived.CountyPopCAGR)
	require.NotNil(t, d.Derived.RelativePopCAGR)
	assert.InDelta(t, *d.Derived.PopCAGR-*d.Derived.CountyPopCAGR, *d.Derived.RelativePopCAGR, 1e-12)

	head0 := 4500.0 / 12000.0
	head1 := 5100.0 / 13500.0
	require.NotNil(t, d.Derived.HeadshipBase)
	assert.InDelta(t, head1, *d.Derived.HeadshipBase, 1e-9)
	require.NotNil(t, d.Derived.HeadshipSlopePerYear)
	assert.InDelta(t, (head1-head0)/5.0, *d.Derived.HeadshipSlopePerYear, 1e-12)
}

func TestDeriveGeoInputsCounty(t *testing.T) {
	geo := Geography{Type: GeoCounty, GeoID: "08077", Label: "Mesa County"}
	r := trendRow("155000", "60000", "64000")

	d := DeriveGeoInputs(geo, 2018, 2023, r, r, r, r)

	assert.Equal(t, "08077", d.ContainingCounty, "a county contains itself")
	require.NotNil(t, d.Derived.Share0)
	assert.Equal(t, 1.0, *d.Derived.Share0)
	assert.Nil(t, d.Derived.RelativePopCAGR, "relative growth is only defined against a different county")
}

func TestDeriveGeoInputsAbsentValues(t *testing.T) {
	geo := Geography{Type: GeoPlace, GeoID: "0815165", ContainingCounty: "08077"}
	empty := TrendRow{}

	d := DeriveGeoInputs(geo, 2018, 2023, empty, empty, empty, empty)

	assert.Nil(t, d.ACS5.PopY0)
	assert.Nil(t, d.Derived.Share0)
	assert.Nil(t, d.Derived.PopCAGR)
	assert.Nil(t, d.Derived.HeadshipBase)
	assert.Nil(t, d.Derived.HeadshipSlopePerYear)
}

func TestDeriveGeoInputsHeadshipBaseFallsBackToY0(t *testing.T) {
	geo := Geography{Type: GeoPlace, GeoID: "0828745", ContainingCounty: "08077"}
	r0 := trendRow("12000", "4500", "4800")
	r1 := TrendRow{TotalPopulation: strPtr("13500")}

	d := DeriveGeoInputs(geo, 2018, 2023, r0, r1, r0, r1)

	require.NotNil(t, d.Derived.HeadshipBase)
	assert.InDelta(t, 4500.0/12000.0, *d.Derived.HeadshipBase, 1e-9)
	assert.Nil(t, d.Derived.HeadshipSlopePerYear)
}
