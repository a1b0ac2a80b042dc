package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/ridgelinedata/hna-etl/internal/domain"
)

// projectionDoc wraps the domain projection with run metadata.
type projectionDoc struct {
	Updated string `json:"updated"`
	*domain.Projection
	Source sourceRef `json:"source"`
}

// buildProjections derives the 20-year outlook for every county. The
// components-of-change file is required; the housing profiles file is
// optional and its absence only strips the housing-need fields. The
// county list falls back to the cached geography config, and when even
// that is empty the components data itself decides which counties exist.
func (p *Pipeline) buildProjections(ctx context.Context) (string, error) {
	comp, maxEstimateYear, ok := p.dola.FetchComponents(ctx)
	if !ok {
		return "", fmt.Errorf("components-of-change data unavailable")
	}
	profiles, maxProfileYear := p.dola.FetchProfiles(ctx)

	ids := p.countyIDs(ctx)
	if len(ids) == 0 {
		for cf := range comp {
			ids = append(ids, cf)
		}
	}
	sort.Strings(ids)

	written := 0
	for _, cf := range ids {
		proj := domain.BuildProjection(cf, comp[cf], profiles[cf], maxProfileYear, maxEstimateYear)
		if proj == nil {
			continue
		}
		doc := projectionDoc{
			Updated:    domain.NowUTC(),
			Projection: proj,
			Source: sourceRef{
				"components_change_url": p.dola.ComponentsURL(),
				"profiles_url":          p.dola.ProfilesURL(),
				"notes":                 "Population and net migration from county components-of-change; households/units/vacancy from county profiles; housing need uses a constant base-year headship rate.",
			},
		}
		path := filepath.Join(p.cfg.ProjectionsDir(), cf+".json")
		if err := p.writeDocument(path, "projections", doc); err != nil {
			return "", err
		}
		written++
	}

	if written == 0 {
		return "", fmt.Errorf("no projections produced from %d counties", len(ids))
	}
	p.logger.Info("projections written", "count", written,
		"max_profile_year", maxProfileYear, "max_estimate_year", maxEstimateYear)
	if len(profiles) == 0 {
		return outcomePartial, nil
	}
	return outcomeSuccess, nil
}
