package pipeline

import (
	"context"
	"encoding/json"
	"os"

	"github.com/ridgelinedata/hna-etl/internal/domain"
)

// geoConfigDoc is the geography configuration snapshot consumed by the
// front-end and by later builders needing a county list.
type geoConfigDoc struct {
	Updated  string             `json:"updated"`
	Featured []domain.Geography `json:"featured"`
	Counties []domain.NamedGeo  `json:"counties"`
	Places   []domain.NamedGeo  `json:"places"`
	CDPs     []domain.NamedGeo  `json:"cdps"`
	Source   sourceRef          `json:"source"`
}

// buildGeoConfig refreshes the geography config document. When the county
// lookup returns nothing and a config from an earlier run exists on disk,
// the existing file is preserved untouched: an upstream outage must never
// replace a good geography list with an empty one.
func (p *Pipeline) buildGeoConfig(ctx context.Context) (string, error) {
	counties := p.census.Counties(ctx)
	if len(counties) == 0 {
		if _, err := os.Stat(p.cfg.GeoConfigPath()); err == nil {
			p.logger.Info("county lookup unavailable, keeping existing geography config")
			return outcomePartial, nil
		}
	}

	doc := geoConfigDoc{
		Updated:  domain.NowUTC(),
		Featured: p.cfg.Featured,
		Counties: counties,
		Places:   p.census.Places(ctx),
		CDPs:     p.census.CDPs(ctx),
		Source: sourceRef{
			"county_list": "TIGERweb State_County MapServer/1",
			"place_list":  "Census ACS 5-year 2022 place names",
		},
	}
	if err := p.writeDocument(p.cfg.GeoConfigPath(), "geo_config", doc); err != nil {
		return "", err
	}
	p.logger.Info("geography config written",
		"counties", len(doc.Counties), "places", len(doc.Places), "cdps", len(doc.CDPs))
	return outcomeSuccess, nil
}

// cachedCounties reads the county list out of the geography config written
// on a previous run. Empty when no usable config exists.
func (p *Pipeline) cachedCounties() []domain.NamedGeo {
	data, err := os.ReadFile(p.cfg.GeoConfigPath())
	if err != nil {
		return nil
	}
	var doc geoConfigDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		p.logger.Warn("cached geography config unreadable",
			"path", p.cfg.GeoConfigPath(), "error", err)
		return nil
	}
	return doc.Counties
}
