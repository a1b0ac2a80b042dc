package census

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/ridgelinedata/hna-etl/internal/domain"
)

// tigerResponse is the subset of the TIGERweb ArcGIS query response we read.
type tigerResponse struct {
	Features []struct {
		Attributes struct {
			Name  string `json:"NAME"`
			GeoID string `json:"GEOID"`
		} `json:"attributes"`
	} `json:"features"`
}

// Counties queries TIGERweb for every county in the state. On any failure
// it returns an empty list rather than an error: the caller decides
// whether to fall back to a cached geography config, and must never
// overwrite it with emptiness.
func (c *Client) Counties(ctx context.Context) []domain.NamedGeo {
	params := url.Values{}
	params.Set("where", fmt.Sprintf("STATE='%s'", c.stateFIPS))
	params.Set("outFields", "NAME,GEOID")
	params.Set("returnGeometry", "false")
	params.Set("orderByFields", "NAME")
	params.Set("f", "json")

	var resp tigerResponse
	if !c.fetcher.GetJSON(ctx, c.tigerURL+"?"+params.Encode(), &resp) {
		c.logger.Warn("county lookup unavailable, returning empty list")
		return nil
	}

	out := make([]domain.NamedGeo, 0, len(resp.Features))
	for _, f := range resp.Features {
		geoid := zfill(f.Attributes.GeoID, 5)
		name := f.Attributes.Name
		if geoid == "" || name == "" {
			continue
		}
		label := name
		if !strings.HasSuffix(strings.ToLower(name), "county") {
			label = name + " County"
		}
		out = append(out, domain.NamedGeo{GeoID: geoid, Label: label})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// Places returns every incorporated place (city, town) in the state from
// the ACS place-name lookup, sorted by label. CDP entries are excluded.
func (c *Client) Places(ctx context.Context) []domain.NamedGeo {
	entries := c.placeNames(ctx)
	out := make([]domain.NamedGeo, 0, len(entries))
	for _, e := range entries {
		if IsCDPLabel(e.Label) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// CDPs returns every Census-Designated Place in the state, labels
// normalized to the canonical "Name (CDP)" form, sorted by label.
func (c *Client) CDPs(ctx context.Context) []domain.NamedGeo {
	entries := c.placeNames(ctx)
	out := make([]domain.NamedGeo, 0, len(entries))
	for _, e := range entries {
		if !IsCDPLabel(e.Label) {
			continue
		}
		out = append(out, domain.NamedGeo{GeoID: e.GeoID, Label: NormalizeCDPLabel(e.Label)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// placeNames fetches the raw NAME/place-code pairs for every place in the
// state. Labels are cut at the first comma ("Fruita city, Colorado" →
// "Fruita city"). Empty on failure.
func (c *Client) placeNames(ctx context.Context) []domain.NamedGeo {
	params := url.Values{}
	params.Set("get", "NAME")
	params.Set("for", "place:*")
	params.Set("in", "state:"+c.stateFIPS)
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	fullURL := fmt.Sprintf("%s/%d/acs/acs5?%s", c.baseURL, placeLookupYear, params.Encode())

	var arr [][]*string
	if !c.fetcher.GetJSON(ctx, fullURL, &arr) || len(arr) < 2 {
		c.logger.Warn("place lookup unavailable, returning empty list")
		return nil
	}

	header := arr[0]
	nameIdx, placeIdx := -1, -1
	for i, h := range header {
		if h == nil {
			continue
		}
		switch *h {
		case "NAME":
			nameIdx = i
		case "place":
			placeIdx = i
		}
	}
	if nameIdx < 0 || placeIdx < 0 {
		c.logger.Warn("place lookup response missing NAME/place columns")
		return nil
	}

	var out []domain.NamedGeo
	for _, row := range arr[1:] {
		if nameIdx >= len(row) || placeIdx >= len(row) || row[nameIdx] == nil || row[placeIdx] == nil {
			continue
		}
		name := *row[nameIdx]
		code := *row[placeIdx]
		if name == "" || code == "" {
			continue
		}
		label := strings.TrimSpace(strings.SplitN(name, ",", 2)[0])
		out = append(out, domain.NamedGeo{
			GeoID: c.stateFIPS + zfill(code, 5),
			Label: label,
		})
	}
	return out
}

// IsCDPLabel reports whether a place label names a Census-Designated
// Place. Precedence: a trailing " cdp", a "(cdp)" anywhere, or a
// standalone "cdp" word, all case-insensitive.
func IsCDPLabel(label string) bool {
	l := strings.ToLower(label)
	if strings.HasSuffix(l, " cdp") || strings.Contains(l, "(cdp)") {
		return true
	}
	for _, tok := range strings.Fields(l) {
		if tok == "cdp" {
			return true
		}
	}
	return false
}

// NormalizeCDPLabel rewrites CDP labels to the canonical "Name (CDP)"
// form: "Clifton CDP" and "Clifton (cdp)" both become "Clifton (CDP)".
func NormalizeCDPLabel(label string) string {
	for _, suffix := range []string{" (CDP)", " CDP", " (cdp)", " cdp"} {
		if strings.HasSuffix(label, suffix) {
			return strings.TrimSpace(strings.TrimSuffix(label, suffix)) + " (CDP)"
		}
	}
	return label
}

// zfill left-pads s with zeros to width n, matching Census code formats.
func zfill(s string, n int) string {
	if s == "" {
		return s
	}
	for len(s) < n {
		s = "0" + s
	}
	return s
}
