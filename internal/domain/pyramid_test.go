package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSex(t *testing.T) {
	assert.Equal(t, "f", NormalizeSex("Female"))
	assert.Equal(t, "f", NormalizeSex("  female "))
	assert.Equal(t, "m", NormalizeSex("Male"))
	assert.Equal(t, "m", NormalizeSex("m"))
	assert.Equal(t, "", NormalizeSex("total"))
	assert.Equal(t, "", NormalizeSex(""))
}

func syaRec(cf string, year, age int, sex string, pop int) SYARecord {
	return SYARecord{CountyFIPS: cf, Year: year, Age: age, Sex: sex, Population: pop}
}

func TestBuildPyramidsPrefersConfiguredYear(t *testing.T) {
	records := []SYARecord{
		syaRec("08077", 2024, 0, "m", 100),
		syaRec("08077", 2024, 0, "f", 90),
		syaRec("08077", 2030, 0, "m", 110),
		syaRec("08077", 2030, 0, "f", 95),
	}
	pyramids := BuildPyramids(records, 2030, []int{2020, 2024, 2030})
	require.Contains(t, pyramids, "08077")

	p := pyramids["08077"]
	assert.Equal(t, 2030, p.PyramidYear)
	assert.Equal(t, []int{0}, p.Ages)
	assert.Equal(t, []int{110}, p.Male)
	assert.Equal(t, []int{95}, p.Female)
}

func TestBuildPyramidsFallsBackToLatestYear(t *testing.T) {
	records := []SYARecord{
		syaRec("08077", 2022, 0, "m", 10),
		syaRec("08077", 2023, 0, "m", 20),
	}
	pyramids := BuildPyramids(records, 2030, []int{2030, 2035})
	p := pyramids["08077"]
	assert.Equal(t, 2023, p.PyramidYear, "2030 absent, latest year wins")
	// Target years all absent: senior series falls back to the latest year.
	assert.Equal(t, []int{2023}, p.Senior.Years)
}

func TestBuildPyramidsSeniorShare(t *testing.T) {
	records := []SYARecord{
		syaRec("08077", 2030, 30, "m", 400),
		syaRec("08077", 2030, 30, "f", 400),
		syaRec("08077", 2030, 70, "m", 100),
		syaRec("08077", 2030, 70, "f", 100),
	}
	pyramids := BuildPyramids(records, 2030, []int{2030})
	p := pyramids["08077"]

	require.Equal(t, []int{2030}, p.Senior.Years)
	assert.Equal(t, []int{200}, p.Senior.Pop65Plus)
	// 200 of 1000 = 20%, rounded to three decimals.
	assert.Equal(t, []float64{20.0}, p.Senior.Share65Plus)
}

func TestBuildPyramidsAgeAxisCoversMaxAge(t *testing.T) {
	records := []SYARecord{
		syaRec("08077", 2030, 0, "m", 1),
		syaRec("08077", 2030, 3, "f", 2),
	}
	p := BuildPyramids(records, 2030, []int{2030})["08077"]
	assert.Equal(t, []int{0, 1, 2, 3}, p.Ages)
	assert.Equal(t, []int{1, 0, 0, 0}, p.Male)
	assert.Equal(t, []int{0, 0, 0, 2}, p.Female)
}

func TestBuildPyramidsEmptyInput(t *testing.T) {
	assert.Nil(t, BuildPyramids(nil, 2030, []int{2030}))
}
