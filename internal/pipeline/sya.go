package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ridgelinedata/hna-etl/internal/config"
	"github.com/ridgelinedata/hna-etl/internal/domain"
)

// syaDoc is the per-county age pyramid and senior-pressure snapshot.
type syaDoc struct {
	Updated     string                `json:"updated"`
	CountyFIPS  string                `json:"countyFips"`
	PyramidYear int                   `json:"pyramidYear"`
	Ages        []int                 `json:"ages"`
	Male        []int                 `json:"male"`
	Female      []int                 `json:"female"`
	Senior      domain.SeniorPressure `json:"seniorPressure"`
	Source      sourceRef             `json:"source"`
}

// buildSYA turns the single-year-of-age export into per-county pyramid
// documents. Counties are driven by the data itself rather than the
// geography list: the export covers every county, and a county absent
// from it has nothing worth writing.
func (p *Pipeline) buildSYA(ctx context.Context) (string, error) {
	records, ok := p.dola.FetchSYA(ctx)
	if !ok {
		return "", fmt.Errorf("single-year-of-age data unavailable")
	}

	pyramids := domain.BuildPyramids(records, config.PyramidPreferredYear, config.SeniorTargetYears)
	if len(pyramids) == 0 {
		return "", fmt.Errorf("no counties produced from %d sya records", len(records))
	}

	for cf, pyr := range pyramids {
		doc := syaDoc{
			Updated:     domain.NowUTC(),
			CountyFIPS:  cf,
			PyramidYear: pyr.PyramidYear,
			Ages:        pyr.Ages,
			Male:        pyr.Male,
			Female:      pyr.Female,
			Senior:      pyr.Senior,
			Source: sourceRef{
				"dataset": "Colorado SDO (DOLA) county single-year-of-age",
				"url":     p.dola.SYAURL(),
				"notes":   "Pyramid uses the selected pyramidYear; senior pressure uses available years in the file.",
			},
		}
		path := filepath.Join(p.cfg.SYADir(), cf+".json")
		if err := p.writeDocument(path, "sya", doc); err != nil {
			return "", err
		}
	}
	p.logger.Info("sya county files written", "count", len(pyramids))
	return outcomeSuccess, nil
}
