package pipeline

import (
	"context"
	"path/filepath"

	"github.com/ridgelinedata/hna-etl/internal/domain"
)

// derivedDoc is the cross-year derived-inputs snapshot covering all
// featured geographies in one document.
type derivedDoc struct {
	Updated   string                       `json:"updated"`
	ACS5Years map[string]int               `json:"acs5_years"`
	Geos      map[string]domain.GeoDerived `json:"geos"`
}

// countyTrend caches one county's comparison rows so a county shared by
// several featured geographies is fetched once per run.
type countyTrend struct {
	r0, r1 domain.TrendRow
	u0, u1 string
	err    error
}

// buildDerived computes the municipal and CDP scaling inputs from two
// ACS 5-year vintages. A geography whose rows cannot be fetched is left
// out of the document rather than failing the builder; the document is
// written even when every geography failed so consumers can see the run
// happened.
func (p *Pipeline) buildDerived(ctx context.Context) (string, error) {
	y0, y1 := p.cfg.TrendY0, p.cfg.TrendY1

	doc := derivedDoc{
		Updated:   domain.NowUTC(),
		ACS5Years: map[string]int{"y0": y0, "y1": y1},
		Geos:      make(map[string]domain.GeoDerived),
	}

	countyCache := make(map[string]*countyTrend)
	county := func(cf string) *countyTrend {
		if ct, ok := countyCache[cf]; ok {
			return ct
		}
		ct := &countyTrend{}
		geo := domain.Geography{Type: domain.GeoCounty, GeoID: cf}
		ct.r0, ct.u0, ct.err = p.census.FetchTrendRow(ctx, y0, geo)
		if ct.err == nil {
			ct.r1, ct.u1, ct.err = p.census.FetchTrendRow(ctx, y1, geo)
		}
		countyCache[cf] = ct
		return ct
	}

	for _, geo := range p.cfg.Featured {
		containing := geo.ContainingCounty
		if geo.Type == domain.GeoCounty {
			containing = geo.GeoID
		}
		if containing == "" {
			continue
		}

		r0, u0, err := p.census.FetchTrendRow(ctx, y0, geo)
		if err != nil {
			p.logger.Warn("derived inputs skipped", "geo", geo.GeoID, "year", y0, "error", err)
			continue
		}
		r1, u1, err := p.census.FetchTrendRow(ctx, y1, geo)
		if err != nil {
			p.logger.Warn("derived inputs skipped", "geo", geo.GeoID, "year", y1, "error", err)
			continue
		}

		ct := county(containing)
		if ct.err != nil {
			p.logger.Warn("derived inputs skipped, county rows unavailable",
				"geo", geo.GeoID, "county", containing, "error", ct.err)
			continue
		}

		entry := domain.DeriveGeoInputs(geo, y0, y1, r0, r1, ct.r0, ct.r1)
		entry.Sources = domain.GeoDerivedSources{
			ACS5Y0URL:       u0,
			ACS5Y1URL:       u1,
			CountyACS5Y0URL: ct.u0,
			CountyACS5Y1URL: ct.u1,
		}
		doc.Geos[geo.GeoID] = entry
	}

	path := filepath.Join(p.cfg.DerivedDir(), "geo-derived.json")
	if err := p.writeDocument(path, "derived", doc); err != nil {
		return "", err
	}
	p.logger.Info("derived inputs written", "geos", len(doc.Geos), "y0", y0, "y1", y1)

	if len(doc.Geos) < len(p.cfg.Featured) {
		return outcomePartial, nil
	}
	return outcomeSuccess, nil
}
