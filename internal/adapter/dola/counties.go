package dola

import (
	"context"
	"strings"

	"github.com/ridgelinedata/hna-etl/internal/domain"
)

// FetchComponents downloads the county components-of-change export
// (population estimates and forecasts plus net migration). Returns
// per-county year series keyed by 5-digit GEOID, plus the latest year
// flagged as an estimate rather than a forecast, which anchors base-year
// selection downstream. Rows with countyfips <= 0 are state totals and
// skipped.
func (c *Client) FetchComponents(ctx context.Context) (map[string]map[int]domain.ComponentsYear, int, bool) {
	text, ok := c.fetcher.GetCSVWithCache(ctx, c.ComponentsURL(), c.cachePath("dola_components_county.csv"), "county components-of-change", downloadTimeout)
	if !ok {
		return nil, 0, false
	}
	return c.parseComponents(text)
}

func (c *Client) parseComponents(text string) (map[string]map[int]domain.ComponentsYear, int, bool) {
	fields, reader := domain.DetectHeader(text, domain.HeaderKeywords)
	if reader == nil {
		c.logger.Warn("could not detect header in components-change-county export")
		return nil, 0, false
	}

	fCounty := domain.PickColumn(fields, "countyfips", "county_fips", "fips", "county")
	fYear := domain.PickColumn(fields, "year")
	fPop := domain.PickColumn(fields, "totalpop", "total_population", "population", "pop", "estimate")
	fNetMig := domain.PickColumn(fields, "netmigration", "net_migration", "net_mig", "netmig")
	fDType := domain.PickColumn(fields, "datatype", "data_type", "type")

	if fCounty == "" || fYear == "" || fPop == "" || fNetMig == "" {
		c.logger.Warn("components-change-county export missing required columns", "fields", strings.Join(fields, ","))
		return nil, 0, false
	}

	iCounty := domain.ColumnIndex(fields, fCounty)
	iYear := domain.ColumnIndex(fields, fYear)
	iPop := domain.ColumnIndex(fields, fPop)
	iNetMig := domain.ColumnIndex(fields, fNetMig)
	iDType := domain.ColumnIndex(fields, fDType)

	comp := make(map[string]map[int]domain.ComponentsYear)
	maxEstimateYear := 0
	for {
		row, err := reader.Read()
		if err != nil {
			break
		}
		rawCF := domain.ParseFloat(cell(row, iCounty))
		if rawCF == nil || *rawCF <= 0 {
			continue
		}
		cf, _ := c.countyGeoID(cell(row, iCounty))
		yr, okY := cellInt(row, iYear)
		pop := domain.ParseFloat(cell(row, iPop))
		netMig := domain.ParseFloat(cell(row, iNetMig))
		if !okY || pop == nil || netMig == nil {
			continue
		}
		if comp[cf] == nil {
			comp[cf] = make(map[int]domain.ComponentsYear)
		}
		comp[cf][yr] = domain.ComponentsYear{Population: *pop, NetMigration: *netMig}
		if iDType >= 0 && strings.HasPrefix(strings.ToLower(cell(row, iDType)), "estimate") && yr > maxEstimateYear {
			maxEstimateYear = yr
		}
	}

	if len(comp) == 0 {
		c.logger.Warn("components-change-county export contained no valid data rows")
		return nil, 0, false
	}
	return comp, maxEstimateYear, true
}

// FetchProfiles downloads the county population-profiles export
// (households, housing units, vacancy rate). A missing or malformed file
// is not fatal to projections: the caller proceeds without housing
// metrics, so this returns empty maps rather than failing the build. The
// vacancy column is optional in the source.
func (c *Client) FetchProfiles(ctx context.Context) (map[string]map[int]domain.HousingProfileYear, int) {
	text, ok := c.fetcher.GetCSVWithCache(ctx, c.ProfilesURL(), c.cachePath("dola_profiles_county.csv"), "county population profiles", downloadTimeout)
	if !ok {
		c.logger.Warn("county profiles unavailable, projections will omit housing metrics")
		return nil, 0
	}
	return c.parseProfiles(text)
}

func (c *Client) parseProfiles(text string) (map[string]map[int]domain.HousingProfileYear, int) {
	fields, reader := domain.DetectHeader(text, domain.HeaderKeywords)
	if reader == nil {
		c.logger.Warn("could not detect header in profiles-county export")
		return nil, 0
	}

	fCounty := domain.PickColumn(fields, "countyfips", "county_fips", "fips", "county")
	fYear := domain.PickColumn(fields, "year")
	fHH := domain.PickColumn(fields, "households", "hh")
	fUnits := domain.PickColumn(fields, "totalhousingunits", "total_housing_units", "housing_units", "units")
	fVac := domain.PickColumn(fields, "vacancy_rate", "vacancyrate", "vac_rate", "vacancy")

	if fCounty == "" || fYear == "" || fHH == "" || fUnits == "" {
		c.logger.Warn("unexpected profiles-county schema, housing metrics omitted", "fields", strings.Join(fields, ","))
		return nil, 0
	}

	iCounty := domain.ColumnIndex(fields, fCounty)
	iYear := domain.ColumnIndex(fields, fYear)
	iHH := domain.ColumnIndex(fields, fHH)
	iUnits := domain.ColumnIndex(fields, fUnits)
	iVac := domain.ColumnIndex(fields, fVac)

	profiles := make(map[string]map[int]domain.HousingProfileYear)
	maxProfileYear := 0
	for {
		row, err := reader.Read()
		if err != nil {
			break
		}
		rawCF := domain.ParseFloat(cell(row, iCounty))
		if rawCF == nil || *rawCF <= 0 {
			continue
		}
		cf, _ := c.countyGeoID(cell(row, iCounty))
		yr, okY := cellInt(row, iYear)
		hh := domain.ParseFloat(cell(row, iHH))
		units := domain.ParseFloat(cell(row, iUnits))
		if !okY || hh == nil || units == nil {
			continue
		}
		if profiles[cf] == nil {
			profiles[cf] = make(map[int]domain.HousingProfileYear)
		}
		profiles[cf][yr] = domain.HousingProfileYear{
			Households:  *hh,
			Units:       *units,
			VacancyRate: domain.ParseFloat(cell(row, iVac)),
		}
		if yr > maxProfileYear {
			maxProfileYear = yr
		}
	}
	return profiles, maxProfileYear
}
