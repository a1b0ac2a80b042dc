package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ridgelinedata/hna-etl/internal/domain"
)

// summaryDoc is the per-geography ACS snapshot. A nil profile or subject
// block means that table could not be fetched this run; the front-end
// renders what is present.
type summaryDoc struct {
	Updated    string             `json:"updated"`
	Geo        domain.Geography   `json:"geo"`
	ACSProfile *domain.ProfileRow `json:"acsProfile"`
	ACSS0801   *domain.SubjectRow `json:"acsS0801"`
	Source     sourceRef          `json:"source"`
}

// buildSummaries writes one ACS summary per featured geography. A
// geography with only one of the two tables still gets a partial
// document. When both tables fail, no document is written and the
// endpoint diagnostics run instead, so support staff get a probe log for
// exactly the geography that broke.
func (p *Pipeline) buildSummaries(ctx context.Context) (string, error) {
	written, partial, failed := 0, 0, 0

	for _, geo := range p.cfg.Featured {
		profile, profileProv, profileAttempts, profileOK := p.census.FetchProfile(ctx, geo)
		subject, subjectProv, subjectAttempts, subjectOK := p.census.FetchSubject(ctx, geo)

		if !profileOK && !subjectOK {
			failed++
			p.logger.Warn("no data available for geography, running diagnostics",
				"geo", geo.GeoID, "type", geo.Type,
				"attempts", len(profileAttempts)+len(subjectAttempts))
			result := p.diag.Run(ctx, geo)
			if result.Success {
				p.logger.Info("diagnostics found a working endpoint", "geo", geo.GeoID, "source", result.Source)
			}
			continue
		}

		// The source block names the endpoint that actually satisfied each
		// table; a missing table keeps the chain's first choice.
		doc := summaryDoc{
			Updated: domain.NowUTC(),
			Geo:     geo,
			Source: sourceRef{
				"acs_profile_endpoint": p.census.EndpointTemplate(p.census.StartYear(), "acs1", "profile"),
				"acs_s0801_endpoint":   p.census.EndpointTemplate(p.census.StartYear(), "acs1", "subject"),
			},
		}
		geoPartial := false
		if profileOK {
			doc.ACSProfile = &profile
			doc.Source["acs_profile_endpoint"] = p.census.EndpointFor(profileProv)
			p.logger.Info("profile resolved", "geo", geo.GeoID, "via", profileProv.String())
		} else {
			geoPartial = true
			p.logger.Warn("profile missing, writing partial summary", "geo", geo.GeoID)
		}
		if subjectOK {
			doc.ACSS0801 = &subject
			doc.Source["acs_s0801_endpoint"] = p.census.EndpointFor(subjectProv)
			p.logger.Info("commuting table resolved", "geo", geo.GeoID, "via", subjectProv.String())
		} else {
			geoPartial = true
			p.logger.Warn("commuting table missing, writing partial summary", "geo", geo.GeoID)
		}
		if geoPartial {
			partial++
		}

		path := filepath.Join(p.cfg.SummaryDir(), geo.GeoID+".json")
		if err := p.writeDocument(path, "summary", doc); err != nil {
			return "", err
		}
		written++
	}

	if written == 0 {
		return "", fmt.Errorf("no summaries written for %d featured geographies", len(p.cfg.Featured))
	}
	if partial > 0 || failed > 0 {
		return outcomePartial, nil
	}
	return outcomeSuccess, nil
}
