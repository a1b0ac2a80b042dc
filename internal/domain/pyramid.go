package domain

import (
	"math"
	"sort"
	"strings"
)

// SYARecord is one normalized single-year-of-age population observation.
// Wide-format source rows (separate male/female columns) are split into two
// records by the adapter before reaching the engine.
type SYARecord struct {
	CountyFIPS string // 5-digit, state-prefixed
	Year       int
	Age        int
	Sex        string // "m" or "f" after normalization
	Population int
}

// SeniorPressure tracks the 65+ population and its share of the total for
// the projection years present in the source.
type SeniorPressure struct {
	Years       []int     `json:"years"`
	Pop65Plus   []int     `json:"pop65plus"`
	Share65Plus []float64 `json:"share65plus"`
}

// CountyPyramid is a per-county age-sex pyramid for one pyramid year plus
// the senior-pressure series.
type CountyPyramid struct {
	CountyFIPS  string
	PyramidYear int
	Ages        []int
	Male        []int
	Female      []int
	Senior      SeniorPressure
}

// NormalizeSex classifies a source sex label by its leading letter:
// "f"/"Female" → "f", "m"/"Male" → "m", anything else "". Checking the
// first letter matters because "female" also contains an "m".
func NormalizeSex(label string) string {
	s := strings.ToLower(strings.TrimSpace(label))
	switch {
	case strings.HasPrefix(s, "f"):
		return "f"
	case strings.HasPrefix(s, "m"):
		return "m"
	default:
		return ""
	}
}

// BuildPyramids buckets SYA records into per-county pyramids. The pyramid
// uses preferredYear when the source contains it, else the latest year.
// Senior pressure covers targetYears intersected with the source years,
// falling back to just the latest year when the intersection is empty.
func BuildPyramids(records []SYARecord, preferredYear int, targetYears []int) map[string]CountyPyramid {
	if len(records) == 0 {
		return nil
	}

	yearSet := make(map[int]bool)
	maxAge := 0
	for _, r := range records {
		yearSet[r.Year] = true
		if r.Age > maxAge {
			maxAge = r.Age
		}
	}
	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Ints(years)
	latest := years[len(years)-1]

	pyramidYear := latest
	if yearSet[preferredYear] {
		pyramidYear = preferredYear
	}

	var availYears []int
	for _, y := range targetYears {
		if yearSet[y] {
			availYears = append(availYears, y)
		}
	}
	if len(availYears) == 0 {
		availYears = []int{latest}
	}
	sort.Ints(availYears)
	availSet := make(map[int]bool, len(availYears))
	for _, y := range availYears {
		availSet[y] = true
	}

	type bucket struct {
		male    map[int]int
		female  map[int]int
		totals  map[int]int
		age65Up map[int]int
	}
	byCounty := make(map[string]*bucket)

	for _, r := range records {
		b := byCounty[r.CountyFIPS]
		if b == nil {
			b = &bucket{
				male:    make(map[int]int),
				female:  make(map[int]int),
				totals:  make(map[int]int),
				age65Up: make(map[int]int),
			}
			byCounty[r.CountyFIPS] = b
		}
		if r.Year == pyramidYear {
			switch r.Sex {
			case "m":
				b.male[r.Age] += r.Population
			case "f":
				b.female[r.Age] += r.Population
			}
		}
		if availSet[r.Year] {
			b.totals[r.Year] += r.Population
			if r.Age >= 65 {
				b.age65Up[r.Year] += r.Population
			}
		}
	}

	out := make(map[string]CountyPyramid, len(byCounty))
	for cf, b := range byCounty {
		ages := make([]int, maxAge+1)
		male := make([]int, maxAge+1)
		female := make([]int, maxAge+1)
		for a := 0; a <= maxAge; a++ {
			ages[a] = a
			male[a] = b.male[a]
			female[a] = b.female[a]
		}

		pop65 := make([]int, len(availYears))
		share65 := make([]float64, len(availYears))
		for i, y := range availYears {
			pop65[i] = b.age65Up[y]
			if tot := b.totals[y]; tot > 0 {
				share65[i] = math.Round(float64(pop65[i])/float64(tot)*100*1000) / 1000
			}
		}

		out[cf] = CountyPyramid{
			CountyFIPS:  cf,
			PyramidYear: pyramidYear,
			Ages:        ages,
			Male:        male,
			Female:      female,
			Senior: SeniorPressure{
				Years:       availYears,
				Pop65Plus:   pop65,
				Share65Plus: share65,
			},
		}
	}
	return out
}
