package domain

import (
	"math"
	"sort"
)

const (
	// ProjectionHorizon is the number of years projected past the base year.
	ProjectionHorizon = 20
	// historicSpan is the lookback used for the trend-sensitivity CAGR.
	historicSpan = 10

	defaultTargetVacancy = 0.05
	maxTargetVacancy     = 0.12
)

// ComponentsYear is one county-year of the components-of-change dataset.
type ComponentsYear struct {
	Population   float64
	NetMigration float64
}

// HousingProfileYear is one county-year of the population-profiles dataset.
type HousingProfileYear struct {
	Households  float64
	Units       float64
	VacancyRate *float64
}

// ProjectionBase captures the base-year observations the housing-need
// conversion is anchored on.
type ProjectionBase struct {
	Population   *float64 `json:"population"`
	Households   *float64 `json:"households"`
	HousingUnits *float64 `json:"housing_units"`
	VacancyRate  *float64 `json:"vacancy_rate"`
	HeadshipRate *float64 `json:"headship_rate"`
}

// HousingNeed is the constant-headship housing-need series.
type HousingNeed struct {
	TargetVacancy    float64    `json:"target_vacancy"`
	HouseholdsDOLA   []*float64 `json:"households_dola"`
	UnitsNeededDOLA  []*float64 `json:"units_needed_dola"`
	IncrementalUnits []*float64 `json:"incremental_units_needed_dola"`
}

// Projection is the 20-year population and housing-need outlook for one
// county. Absent inputs stay absent per year; no out-year is dropped.
type Projection struct {
	CountyFIPS      string         `json:"countyFips"`
	BaseYear        int            `json:"baseYear"`
	Years           []int          `json:"years"`
	PopulationDOLA  []*float64     `json:"population_dola"`
	PopulationTrend []*float64     `json:"population_trend"`
	HistoricCAGR10Y *float64       `json:"historic_cagr_10y"`
	NetMigration    []*float64     `json:"net_migration"`
	NetMigration20Y *float64       `json:"net_migration_20y"`
	Base            ProjectionBase `json:"base"`
	Need            HousingNeed    `json:"housing_need"`
}

// BuildProjection derives the projection for one county from its
// components-of-change years and (optionally) its housing-profile years.
// maxProfileYear and maxEstimateYear are dataset-wide hints used to choose
// the base year: latest year with housing profiles, else latest estimate
// (non-forecast) year, else the county's latest components year. Returns
// nil when the county has no components data at all.
func BuildProjection(countyFIPS string, comp map[int]ComponentsYear, profiles map[int]HousingProfileYear, maxProfileYear, maxEstimateYear int) *Projection {
	if len(comp) == 0 {
		return nil
	}
	years := make([]int, 0, len(comp))
	for y := range comp {
		years = append(years, y)
	}
	sort.Ints(years)

	baseYear := years[len(years)-1]
	switch {
	case maxProfileYear > 0:
		baseYear = maxProfileYear
	case maxEstimateYear > 0:
		baseYear = maxEstimateYear
	}
	if len(profiles) > 0 {
		if _, ok := profiles[baseYear]; !ok {
			baseYear = maxYearOfProfiles(profiles)
		}
	}
	if _, ok := comp[baseYear]; !ok {
		// Fall back to the last components year at or before the base.
		fallback := years[len(years)-1]
		for _, y := range years {
			if y <= baseYear {
				fallback = y
			}
		}
		baseYear = fallback
	}

	outYears := make([]int, 0, ProjectionHorizon+1)
	for y := baseYear; y <= baseYear+ProjectionHorizon; y++ {
		outYears = append(outYears, y)
	}

	popDOLA := make([]*float64, len(outYears))
	netMig := make([]*float64, len(outYears))
	for i, y := range outYears {
		if rec, ok := comp[y]; ok {
			popDOLA[i] = floatPtr(rec.Population)
			if y != baseYear {
				netMig[i] = floatPtr(rec.NetMigration)
			}
		}
		if y == baseYear {
			netMig[i] = floatPtr(0)
		}
	}

	var basePop *float64
	if rec, ok := comp[baseYear]; ok {
		basePop = floatPtr(rec.Population)
	}
	var histPop *float64
	if rec, ok := comp[baseYear-historicSpan]; ok {
		histPop = floatPtr(rec.Population)
	}
	cagr := AnnualGrowthRate(histPop, basePop, historicSpan)

	popTrend := make([]*float64, len(outYears))
	if basePop != nil && *basePop > 0 && cagr != nil {
		for i := range outYears {
			popTrend[i] = floatPtr(*basePop * math.Pow(1.0+*cagr, float64(i)))
		}
	}

	var baseUnits, baseHouseholds, baseVacancy *float64
	if prof, ok := profiles[baseYear]; ok {
		baseUnits = floatPtr(prof.Units)
		baseHouseholds = floatPtr(prof.Households)
		baseVacancy = prof.VacancyRate
	}

	var headship *float64
	if baseHouseholds != nil && basePop != nil && *basePop > 0 && *baseHouseholds > 0 {
		headship = floatPtr(*baseHouseholds / *basePop)
	}

	targetVacancy := defaultTargetVacancy
	if baseVacancy != nil && *baseVacancy > targetVacancy {
		targetVacancy = math.Min(maxTargetVacancy, *baseVacancy)
	}

	households := make([]*float64, len(outYears))
	unitsNeeded := make([]*float64, len(outYears))
	incremental := make([]*float64, len(outYears))
	for i := range outYears {
		p := popDOLA[i]
		if p == nil || headship == nil {
			continue
		}
		hh := *p * *headship
		need := hh / (1.0 - targetVacancy)
		households[i] = floatPtr(hh)
		unitsNeeded[i] = floatPtr(need)
		if baseUnits != nil {
			incremental[i] = floatPtr(need - *baseUnits)
		}
	}

	var netMig20 *float64
	for _, m := range netMig[1:] {
		if m == nil {
			continue
		}
		if netMig20 == nil {
			netMig20 = floatPtr(0)
		}
		*netMig20 += *m
	}

	return &Projection{
		CountyFIPS:      countyFIPS,
		BaseYear:        baseYear,
		Years:           outYears,
		PopulationDOLA:  popDOLA,
		PopulationTrend: popTrend,
		HistoricCAGR10Y: cagr,
		NetMigration:    netMig,
		NetMigration20Y: netMig20,
		Base: ProjectionBase{
			Population:   basePop,
			Households:   baseHouseholds,
			HousingUnits: baseUnits,
			VacancyRate:  baseVacancy,
			HeadshipRate: headship,
		},
		Need: HousingNeed{
			TargetVacancy:    targetVacancy,
			HouseholdsDOLA:   households,
			UnitsNeededDOLA:  unitsNeeded,
			IncrementalUnits: incremental,
		},
	}
}

func maxYearOfProfiles(profiles map[int]HousingProfileYear) int {
	maxYear := 0
	for y := range profiles {
		if y > maxYear {
			maxYear = y
		}
	}
	return maxYear
}
