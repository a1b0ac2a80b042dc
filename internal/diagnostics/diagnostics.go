// Package diagnostics probes the Census API when every regular fetch for
// a geography has failed, and writes a human-readable log for support
// staff. Diagnostics never fail the run: a broken probe is itself a
// finding worth logging.
package diagnostics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ridgelinedata/hna-etl/internal/domain"
	"github.com/ridgelinedata/hna-etl/internal/fetch"
)

// Probe variable subsets: enough to validate a working response without
// requesting the full table.
var (
	probeVars    = []string{"DP05_0001E", "DP03_0062E", "DP04_0001E", "NAME"}
	cdpProbeVars = []string{"B01003_001E", "B19013_001E", "B25001_001E", "NAME"}
)

var probeCombos = []struct{ series, endpoint string }{
	{"acs1", "profile"},
	{"acs1", "subject"},
	{"acs5", "profile"},
}

const (
	probeTimeout = 20 * time.Second
	previewLen   = 250
	successNote  = "(success - data received)"
)

// Result summarizes one diagnostics run.
type Result struct {
	Success bool
	Source  string // first working series/endpoint/year, empty on total failure
	Entries []domain.FetchAttempt
	LogPath string
}

// Runner probes ACS endpoints for a failed geography and writes the log.
type Runner struct {
	fetcher       *fetch.Client
	logger        *slog.Logger
	clock         func() string
	apiKey        string
	stateFIPS     string
	startYear     int
	fallbackYears int
	baseURL       string
	logPath       string
}

func New(fetcher *fetch.Client, logger *slog.Logger, apiKey, stateFIPS string, startYear, fallbackYears int, logPath string) *Runner {
	return &Runner{
		fetcher:       fetcher,
		logger:        logger,
		clock:         domain.NowUTC,
		apiKey:        apiKey,
		stateFIPS:     stateFIPS,
		startYear:     startYear,
		fallbackYears: fallbackYears,
		baseURL:       "https://api.census.gov/data",
		logPath:       logPath,
	}
}

// Run probes every series/endpoint/year combination for the geography,
// writes the diagnostic log, and returns a summary. CDPs additionally get
// an ACS 5-year B-series probe, since the profile and subject tables do
// not cover CDP geography.
func (r *Runner) Run(ctx context.Context, geo domain.Geography) Result {
	var entries []domain.FetchAttempt
	source := ""

	for _, year := range r.years() {
		for _, combo := range probeCombos {
			u := r.probeURL(year, combo.series, combo.endpoint, geo, probeVars)
			attempt := r.probe(ctx, u, year, combo.series, combo.endpoint)
			entries = append(entries, attempt)
			if attempt.OK && source == "" {
				source = fmt.Sprintf("%s/%s year=%d", combo.series, combo.endpoint, year)
			}
		}
	}

	if geo.Type == domain.GeoCDP && source == "" {
		for _, year := range r.years() {
			u := r.bSeriesURL(year, geo)
			attempt := r.probe(ctx, u, year, "acs5", "B-series (CDP fallback)")
			entries = append(entries, attempt)
			if attempt.OK && source == "" {
				source = fmt.Sprintf("acs5/B-series year=%d", year)
			}
		}
	}

	r.writeLog(geo, entries, source)
	return Result{Success: source != "", Source: source, Entries: entries, LogPath: r.logPath}
}

func (r *Runner) years() []int {
	var ys []int
	for y := r.startYear; y > r.startYear-r.fallbackYears; y-- {
		ys = append(ys, y)
	}
	return ys
}

func (r *Runner) probeURL(year int, series, endpoint string, geo domain.Geography, vars []string) string {
	params := url.Values{}
	params.Set("get", strings.Join(vars, ","))
	if geo.Type == domain.GeoCounty {
		params.Set("for", "county:"+geo.GeoID[len(geo.GeoID)-3:])
	} else {
		params.Set("for", "place:"+geo.GeoID[2:])
		params.Set("in", "state:"+r.stateFIPS)
	}
	if r.apiKey != "" {
		params.Set("key", r.apiKey)
	}
	return fmt.Sprintf("%s/%d/acs/%s/%s?%s", r.baseURL, year, series, endpoint, params.Encode())
}

func (r *Runner) bSeriesURL(year int, geo domain.Geography) string {
	params := url.Values{}
	params.Set("get", strings.Join(cdpProbeVars, ","))
	params.Set("for", "place:"+geo.GeoID[2:])
	params.Set("in", "state:"+r.stateFIPS)
	if r.apiKey != "" {
		params.Set("key", r.apiKey)
	}
	return fmt.Sprintf("%s/%d/acs/acs5?%s", r.baseURL, year, params.Encode())
}

// probe makes a single request, no retries. A probe that needs three
// attempts to succeed is not a working endpoint for ETL purposes.
func (r *Runner) probe(ctx context.Context, fullURL string, year int, series, endpoint string) domain.FetchAttempt {
	status, body := r.fetcher.GetText(ctx, fullURL, fetch.Opts{Timeout: probeTimeout, Retries: 1})

	ok := false
	if status == http.StatusOK {
		var parsed [][]any
		if err := json.Unmarshal([]byte(body), &parsed); err == nil && len(parsed) > 1 {
			ok = true
		}
	}

	preview := successNote
	if !ok {
		preview = truncate(r.fetcher.Redact(body), previewLen)
	}
	return domain.FetchAttempt{
		Year:            year,
		Series:          series,
		Endpoint:        endpoint,
		URL:             r.fetcher.Redact(fullURL),
		Status:          status,
		OK:              ok,
		ResponsePreview: preview,
	}
}

// writeLog renders the attempts into the plain-text format support teams
// receive. Intended audience is technical support staff; non-technical
// users download the file and forward it.
func (r *Runner) writeLog(geo domain.Geography, entries []domain.FetchAttempt, source string) {
	if err := os.MkdirAll(filepath.Dir(r.logPath), 0o755); err != nil {
		r.logger.Warn("could not create diagnostics log directory", "path", r.logPath, "error", err)
		return
	}

	var b strings.Builder
	rule := strings.Repeat("=", 72)

	b.WriteString("ACS Diagnostics Log\n")
	fmt.Fprintf(&b, "Generated : %s\n", r.clock())
	fmt.Fprintf(&b, "Geography : %s:%s\n", geo.Type, geo.GeoID)
	if source != "" {
		fmt.Fprintf(&b, "Outcome   : SUCCESS - %s\n", source)
	} else {
		b.WriteString("Outcome   : ALL ATTEMPTS FAILED\n")
	}
	b.WriteString("\n" + rule + "\nAttempted endpoints\n" + rule + "\n\n")

	for _, e := range entries {
		mark := "FAIL"
		if e.OK {
			mark = "OK"
		}
		fmt.Fprintf(&b, "[%-4s] %d %s/%s\n", mark, e.Year, e.Series, e.Endpoint)
		fmt.Fprintf(&b, "  URL    : %s\n", e.URL)
		fmt.Fprintf(&b, "  Status : %d\n", e.Status)
		if !e.OK {
			fmt.Fprintf(&b, "  Body   : %s\n", e.ResponsePreview)
		}
		b.WriteString("\n")
	}

	b.WriteString(rule + "\n")
	if source != "" {
		fmt.Fprintf(&b, "Data successfully loaded from: %s\n", source)
	} else {
		b.WriteString("No ACS data could be retrieved for this geography.\n")
		b.WriteString("Please share this file with your technical support team.\n")
	}

	if err := os.WriteFile(r.logPath, []byte(b.String()), 0o644); err != nil {
		r.logger.Warn("could not write diagnostics log", "path", r.logPath, "error", err)
		return
	}
	r.logger.Info("diagnostics log written", "path", r.logPath, "success", source != "")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
