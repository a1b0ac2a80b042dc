// Package census adapts the Census Bureau's ACS and TIGERweb HTTP APIs:
// URL construction per geography type, the year/series fallback chains
// that paper over product lag and coverage gaps, and the geography
// resolver that discovers counties, places, and CDPs for the state.
package census

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ridgelinedata/hna-etl/internal/config"
	"github.com/ridgelinedata/hna-etl/internal/domain"
	"github.com/ridgelinedata/hna-etl/internal/fetch"
	"github.com/ridgelinedata/hna-etl/internal/observability"
)

const (
	defaultBaseURL  = "https://api.census.gov/data"
	defaultTigerURL = "https://tigerweb.geo.census.gov/arcgis/rest/services/TIGERweb/State_County/MapServer/1/query"

	// placeLookupYear is the ACS 5-year vintage used for the place-name
	// lookup; name/GEOID pairs are stable enough that it is pinned.
	placeLookupYear = 2022

	previewLen = 250
)

// profileVars are the DP-series variables requested for the housing and
// demographic summary of each featured geography.
var profileVars = []string{
	"DP05_0001E",
	"DP03_0062E",
	"DP04_0001E",
	"DP04_0047PE",
	"DP04_0046PE",
	"DP04_0089E",
	"DP04_0134E",
	"DP04_0003E", "DP04_0004E", "DP04_0005E", "DP04_0006E",
	"DP04_0007E", "DP04_0008E", "DP04_0009E", "DP04_0010E",
	"DP04_0142PE", "DP04_0143PE", "DP04_0144PE", "DP04_0145PE", "DP04_0146PE",
	"NAME",
}

// subjectVars are the S0801 commuting variables.
var subjectVars = []string{
	"S0801_C01_001E", "S0801_C01_002E", "S0801_C01_003E", "S0801_C01_004E",
	"S0801_C01_005E", "S0801_C01_006E", "S0801_C01_007E",
	"S0801_C01_018E",
	"NAME",
}

// trendVars are the small profile slice fetched per comparison year for
// derived inputs.
var trendVars = []string{"NAME", "DP05_0001E", "DP02_0001E", "DP04_0001E"}

// Provenance names the endpoint combination that satisfied a fetch.
type Provenance struct {
	Year     int
	Series   string // "acs1" or "acs5"
	Endpoint string // "profile", "subject", or "b-series"
}

func (p Provenance) String() string {
	return fmt.Sprintf("%s/%s year=%d", p.Series, p.Endpoint, p.Year)
}

// Client queries the ACS and TIGERweb APIs through the resilient fetcher.
type Client struct {
	fetcher       *fetch.Client
	logger        *slog.Logger
	metrics       *observability.Metrics
	apiKey        string
	stateFIPS     string
	startYear     int
	fallbackYears int

	baseURL  string
	tigerURL string
}

// Option adjusts a Client after construction.
type Option func(*Client)

// WithBaseURL points the ACS queries at an alternate API host, used by
// tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithTigerURL points the county lookup at an alternate endpoint.
func WithTigerURL(u string) Option {
	return func(c *Client) { c.tigerURL = u }
}

// New creates a Census API client from the job configuration.
func New(cfg *config.Config, fetcher *fetch.Client, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Client {
	c := &Client{
		fetcher:       fetcher,
		logger:        logger,
		metrics:       metrics,
		apiKey:        cfg.CensusAPIKey,
		stateFIPS:     config.StateFIPS,
		startYear:     cfg.ACSStartYear,
		fallbackYears: cfg.ACSFallbackYears,
		baseURL:       defaultBaseURL,
		tigerURL:      defaultTigerURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartYear exposes the configured first year of the fallback window for
// provenance blocks in output documents.
func (c *Client) StartYear() int { return c.startYear }

// EndpointTemplate renders the endpoint URL for a year/series/endpoint
// combination, without query parameters.
func (c *Client) EndpointTemplate(year int, series, endpoint string) string {
	if endpoint == "" {
		return fmt.Sprintf("%s/%d/acs/%s", c.baseURL, year, series)
	}
	return fmt.Sprintf("%s/%d/acs/%s/%s", c.baseURL, year, series, endpoint)
}

// EndpointFor renders the endpoint a successful fetch resolved through,
// for output source blocks. The B-series lives at the series root.
func (c *Client) EndpointFor(p Provenance) string {
	if p.Endpoint == "b-series" {
		return c.EndpointTemplate(p.Year, p.Series, "")
	}
	return c.EndpointTemplate(p.Year, p.Series, p.Endpoint)
}

// buildURL assembles a full ACS query URL. County geographies query by
// their 3-digit county code, places and CDPs by the 5-digit place code;
// both are scoped to the state. An empty endpoint addresses the detailed
// (B-series) tables, which live at the series root.
func (c *Client) buildURL(year int, series, endpoint string, geo domain.Geography, vars []string) string {
	params := url.Values{}
	params.Set("get", strings.Join(vars, ","))
	if geo.Type == domain.GeoCounty {
		params.Set("for", "county:"+geo.GeoID[len(geo.GeoID)-3:])
	} else {
		params.Set("for", "place:"+geo.GeoID[2:])
	}
	params.Set("in", "state:"+c.stateFIPS)
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	return c.EndpointTemplate(year, series, endpoint) + "?" + params.Encode()
}

// yearsToTry is the fallback window: start year downward.
func (c *Client) yearsToTry() []int {
	years := make([]int, 0, c.fallbackYears)
	for y := c.startYear; y > c.startYear-c.fallbackYears; y-- {
		years = append(years, y)
	}
	return years
}

// getTable fetches one ACS table URL and zips the two-row response into a
// SurveyRow. Returns the HTTP status and a short body preview for the
// attempt record regardless of outcome.
func (c *Client) getTable(ctx context.Context, fullURL string) (domain.SurveyRow, int, string, bool) {
	status, body := c.fetcher.GetText(ctx, fullURL, fetch.Opts{Retries: 1})
	if status != http.StatusOK {
		return nil, status, truncate(c.fetcher.Redact(body), previewLen), false
	}

	var arr [][]any
	if err := json.Unmarshal([]byte(body), &arr); err != nil || len(arr) < 2 {
		return nil, status, truncate(c.fetcher.Redact(body), previewLen), false
	}

	header := make([]string, len(arr[0]))
	for i, v := range arr[0] {
		header[i] = cellString(v)
	}
	values := make([]*string, len(arr[1]))
	for i, v := range arr[1] {
		values[i] = cellPtr(v)
	}
	return domain.ZipRow(header, values), status, "(success - data received)", true
}

// FetchProfile resolves the housing/demographic profile for one geography
// through the fallback chain: for each year from the start year downward,
// acs1/profile → acs1/subject → acs5/profile; then the acs5 B-series
// mapped onto DP codes. Every probe is recorded as a FetchAttempt.
func (c *Client) FetchProfile(ctx context.Context, geo domain.Geography) (domain.ProfileRow, Provenance, []domain.FetchAttempt, bool) {
	var attempts []domain.FetchAttempt

	combos := []Provenance{
		{Series: "acs1", Endpoint: "profile"},
		{Series: "acs1", Endpoint: "subject"},
		{Series: "acs5", Endpoint: "profile"},
	}

	for _, year := range c.yearsToTry() {
		for _, combo := range combos {
			fullURL := c.buildURL(year, combo.Series, combo.Endpoint, geo, profileVars)
			row, status, preview, ok := c.getTable(ctx, fullURL)
			attempts = append(attempts, domain.FetchAttempt{
				Year:            year,
				Series:          combo.Series,
				Endpoint:        combo.Endpoint,
				URL:             c.fetcher.Redact(fullURL),
				Status:          status,
				OK:              ok,
				ResponsePreview: preview,
			})
			if !ok {
				continue
			}
			prov := Provenance{Year: year, Series: combo.Series, Endpoint: combo.Endpoint}
			if year != c.startYear || combo.Endpoint != "profile" || combo.Series != "acs1" {
				c.logger.Info("profile resolved via fallback",
					"geo", geoKey(geo), "source", prov.String())
			}
			c.metrics.ACSFallbackDepth.Observe(float64(len(attempts)))
			return domain.ProfileRowFrom(row), prov, attempts, true
		}
	}

	c.logger.Warn("profile chain exhausted, attempting B-series fallback",
		"geo", geoKey(geo), "years", c.yearsToTry())

	row, prov, bAttempts, ok := c.fetchBSeries(ctx, geo)
	attempts = append(attempts, bAttempts...)
	if ok {
		c.metrics.ACSFallbackDepth.Observe(float64(len(attempts)))
		return row, prov, attempts, true
	}

	c.logger.Warn("could not fetch profile", "geo", geoKey(geo), "years", c.yearsToTry())
	return domain.ProfileRow{}, Provenance{}, attempts, false
}

// FetchSubject resolves the S0801 commuting table: per year,
// acs1/subject → acs5/subject.
func (c *Client) FetchSubject(ctx context.Context, geo domain.Geography) (domain.SubjectRow, Provenance, []domain.FetchAttempt, bool) {
	var attempts []domain.FetchAttempt

	for _, year := range c.yearsToTry() {
		for _, series := range []string{"acs1", "acs5"} {
			fullURL := c.buildURL(year, series, "subject", geo, subjectVars)
			row, status, preview, ok := c.getTable(ctx, fullURL)
			attempts = append(attempts, domain.FetchAttempt{
				Year:            year,
				Series:          series,
				Endpoint:        "subject",
				URL:             c.fetcher.Redact(fullURL),
				Status:          status,
				OK:              ok,
				ResponsePreview: preview,
			})
			if !ok {
				continue
			}
			prov := Provenance{Year: year, Series: series, Endpoint: "subject"}
			if year != c.startYear || series != "acs1" {
				c.logger.Info("subject table resolved via fallback",
					"geo", geoKey(geo), "source", prov.String())
			}
			c.metrics.ACSFallbackDepth.Observe(float64(len(attempts)))
			return domain.SubjectRowFrom(row), prov, attempts, true
		}
	}

	c.logger.Warn("could not fetch S0801", "geo", geoKey(geo), "years", c.yearsToTry())
	return domain.SubjectRow{}, Provenance{}, attempts, false
}

// FetchTrendRow fetches the small acs5/profile slice for a specific year,
// for the derived-inputs comparison. Unlike the chains this is a hard
// requirement: failure is an error the builder skips the geography on.
func (c *Client) FetchTrendRow(ctx context.Context, year int, geo domain.Geography) (domain.TrendRow, string, error) {
	fullURL := c.buildURL(year, "acs5", "profile", geo, trendVars)
	row, status, _, ok := c.getTable(ctx, fullURL)
	if !ok {
		return domain.TrendRow{}, "", fmt.Errorf("acs5 profile %d for %s: HTTP %d", year, geoKey(geo), status)
	}
	return domain.TrendRowFrom(row), c.fetcher.Redact(fullURL), nil
}

func geoKey(geo domain.Geography) string {
	return string(geo.Type) + ":" + geo.GeoID
}

func cellString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

func cellPtr(v any) *string {
	if v == nil {
		return nil
	}
	s := cellString(v)
	return &s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
