package dola

import (
	"context"
	"strconv"
	"strings"

	"github.com/ridgelinedata/hna-etl/internal/domain"
)

// FetchSYA downloads the county single-year-of-age export and normalizes
// it into long-format records. The file ships in two shapes: long (one
// row per county/year/age/sex) and wide (separate male and female
// population columns per row); wide rows are split into two records.
// Returns (nil, false) when neither the download nor the cache yields a
// parseable file.
func (c *Client) FetchSYA(ctx context.Context) ([]domain.SYARecord, bool) {
	text, ok := c.fetcher.GetCSVWithCache(ctx, c.SYAURL(), c.cachePath("dola_sya_county.csv"), "county single-year-of-age", downloadTimeout)
	if !ok {
		return nil, false
	}
	return c.parseSYA(text)
}

func (c *Client) parseSYA(text string) ([]domain.SYARecord, bool) {
	// Strict whole-field detection first; the export (and its cached copy)
	// names its key columns exactly. The broad substring pass is the
	// safety net for upstream renames.
	fields, reader := domain.DetectHeaderStrict(text, domain.FileHeaderKeywords)
	if reader == nil {
		fields, reader = domain.DetectHeader(text, domain.HeaderKeywords)
	}
	if reader == nil {
		c.logger.Warn("could not detect header in sya-county export")
		return nil, false
	}

	// Exact column names only: substring matching would resolve the
	// generic "population" against "malepopulation" in wide files.
	fCounty := pickExact(fields, "countyfips", "county_fips", "fips", "county")
	fYear := pickExact(fields, "year", "Year")
	fAge := pickExact(fields, "age", "Age")
	fSex := pickExact(fields, "sex", "Sex")
	fPop := pickExact(fields, "population", "pop", "Population", "total")
	fMale := pickExact(fields, "malepopulation", "male_population", "male", "Male")
	fFemale := pickExact(fields, "femalepopulation", "female_population", "female", "Female")
	wide := fMale != "" && fFemale != ""

	if fCounty == "" || fYear == "" || fAge == "" || (!wide && (fSex == "" || fPop == "")) {
		c.logger.Warn("sya-county export missing required columns", "fields", strings.Join(fields, ","))
		return nil, false
	}

	iCounty := domain.ColumnIndex(fields, fCounty)
	iYear := domain.ColumnIndex(fields, fYear)
	iAge := domain.ColumnIndex(fields, fAge)
	iSex := domain.ColumnIndex(fields, fSex)
	iPop := domain.ColumnIndex(fields, fPop)
	iMale := domain.ColumnIndex(fields, fMale)
	iFemale := domain.ColumnIndex(fields, fFemale)

	var records []domain.SYARecord
	for {
		row, err := reader.Read()
		if err != nil {
			break
		}
		raw := cell(row, iCounty)
		yr, okY := cellInt(row, iYear)
		age, okA := cellInt(row, iAge)
		cf, okC := c.countyGeoID(raw)
		if !okC || !okY || !okA {
			continue
		}
		if wide {
			if m, ok := cellInt(row, iMale); ok {
				records = append(records, domain.SYARecord{CountyFIPS: cf, Year: yr, Age: age, Sex: "m", Population: m})
			}
			if f, ok := cellInt(row, iFemale); ok {
				records = append(records, domain.SYARecord{CountyFIPS: cf, Year: yr, Age: age, Sex: "f", Population: f})
			}
			continue
		}
		pop, okP := cellInt(row, iPop)
		if !okP {
			continue
		}
		sex := domain.NormalizeSex(cell(row, iSex))
		records = append(records, domain.SYARecord{CountyFIPS: cf, Year: yr, Age: age, Sex: sex, Population: pop})
	}

	if len(records) == 0 {
		c.logger.Warn("sya-county export contained no valid data rows")
		return nil, false
	}
	return records, true
}

// countyGeoID converts the export's bare county code (often "77" or
// "77.0") into the state-prefixed 5-digit GEOID.
func (c *Client) countyGeoID(raw string) (string, bool) {
	f := domain.ParseFloat(raw)
	if f == nil || *f < 0 {
		return "", false
	}
	code := strconv.Itoa(int(*f))
	for len(code) < 3 {
		code = "0" + code
	}
	return c.stateFIPS + code, true
}

// pickExact resolves a logical column against actual headers by exact
// name only, without PickColumn's substring pass.
func pickExact(fields []string, candidates ...string) string {
	for _, cand := range candidates {
		if domain.ColumnIndex(fields, cand) >= 0 {
			return cand
		}
	}
	return ""
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func cellInt(row []string, i int) (int, bool) {
	v := domain.ParseInt(cell(row, i))
	if v == nil {
		return 0, false
	}
	return *v, true
}
