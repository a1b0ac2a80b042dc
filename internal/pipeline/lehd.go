package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/ridgelinedata/hna-etl/internal/adapter/lodes"
	"github.com/ridgelinedata/hna-etl/internal/domain"
)

// lehdDoc is the per-county commuting flow snapshot.
type lehdDoc struct {
	Updated    string    `json:"updated"`
	Year       int       `json:"year"`
	CountyFIPS string    `json:"countyFips"`
	Within     int       `json:"within"`
	Inflow     int       `json:"inflow"`
	Outflow    int       `json:"outflow"`
	Source     sourceRef `json:"source"`
}

// buildLEHD streams the year's LODES origin-destination file and writes
// one commuting summary per county. Every county in the geography list
// gets a document, zeros included: a county with no recorded flows is a
// real observation, not missing data.
func (p *Pipeline) buildLEHD(ctx context.Context) (string, error) {
	result, err := p.lodes.FetchOD(ctx, p.cfg.LODESYear)
	if err != nil {
		return "", fmt.Errorf("lodes download: %w", err)
	}

	ids := p.countyIDs(ctx)
	if len(ids) == 0 {
		return "", fmt.Errorf("no county list available for lehd summaries")
	}
	sort.Strings(ids)

	for _, cf := range ids {
		doc := lehdDoc{
			Updated:    domain.NowUTC(),
			Year:       result.Year,
			CountyFIPS: cf,
			Within:     result.Totals.Within[cf],
			Inflow:     result.Totals.Inflow[cf],
			Outflow:    result.Totals.Outflow[cf],
			Source: sourceRef{
				"dataset": lodes.Dataset,
				"url":     result.URL,
			},
		}
		path := filepath.Join(p.cfg.LEHDDir(), cf+".json")
		if err := p.writeDocument(path, "lehd", doc); err != nil {
			return "", err
		}
	}
	p.logger.Info("lehd county summaries written", "count", len(ids), "year", result.Year)
	return outcomeSuccess, nil
}
