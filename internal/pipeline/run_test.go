package pipeline

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgelinedata/hna-etl/internal/adapter/census"
	"github.com/ridgelinedata/hna-etl/internal/adapter/dola"
	"github.com/ridgelinedata/hna-etl/internal/adapter/lodes"
	"github.com/ridgelinedata/hna-etl/internal/config"
	"github.com/ridgelinedata/hna-etl/internal/diagnostics"
	"github.com/ridgelinedata/hna-etl/internal/domain"
	"github.com/ridgelinedata/hna-etl/internal/fetch"
	"github.com/ridgelinedata/hna-etl/internal/observability"
)

// Upstream fixtures for a full-batch run over a single featured county.
const (
	fixtureProfileBody = `[["NAME","DP05_0001E","DP02_0001E","DP04_0001E"],["Mesa County, Colorado","155000","60000","70000"]]`
	fixtureSubjectBody = `[["NAME","S0801_C01_001E","S0801_C01_018E"],["Mesa County, Colorado","80000","22.4"]]`
	fixtureTigerBody   = `{"features":[{"attributes":{"NAME":"Mesa","GEOID":"8077"}}]}`
	fixturePlaceBody   = `[["NAME","state","place"],["Fruita city, Colorado","08","28745"],["Clifton CDP, Colorado","08","15165"]]`

	fixtureSYACSV = "countyfips,year,age,sex,population\n" +
		"77,2030,0,Female,198\n77,2030,0,Male,210\n" +
		"77,2030,70,Female,50\n77,2030,70,Male,40\n"
	fixtureComponentsCSV = "countyfips,year,population,netmigration,datatype\n" +
		"77,2014,148000,800,Estimate\n77,2020,152000,950,Estimate\n" +
		"77,2024,155000,1000,Estimate\n77,2025,156000,1050,Forecast\n"
	fixtureProfilesCSV = "countyfips,year,households,totalhousingunits,vacancy_rate\n" +
		"77,2024,60000,70000,0.07\n"
	fixtureODCSV = "w_geocode,h_geocode,S000,SA01\n" +
		"080770001001000,080770001001001,5,0\n" +
		"080410001001000,080770001001001,3,0\n"
)

// fixtureServer serves every upstream the batch touches from one handler,
// routed by path.
func fixtureServer(t *testing.T) *httptest.Server {
	t.Helper()

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, err := zw.Write([]byte(fixtureODCSV))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tiger":
			io.WriteString(w, fixtureTigerBody)
		case "/2024/acs/acs1/profile":
			io.WriteString(w, fixtureProfileBody)
		case "/2024/acs/acs1/subject":
			io.WriteString(w, fixtureSubjectBody)
		case "/2018/acs/acs5/profile", "/2023/acs/acs5/profile":
			io.WriteString(w, fixtureProfileBody)
		case "/2022/acs/acs5":
			io.WriteString(w, fixturePlaceBody)
		case "/sya-county.csv":
			io.WriteString(w, fixtureSYACSV)
		case "/components-change-county.csv":
			io.WriteString(w, fixtureComponentsCSV)
		case "/profiles-county.csv":
			io.WriteString(w, fixtureProfilesCSV)
		case "/co/od/co_od_main_JT00_2022.csv.gz":
			w.Write(gz.Bytes())
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// fullPipeline wires every adapter at a fixture server, featuring only
// Mesa County.
func fullPipeline(t *testing.T, srvURL string) *Pipeline {
	t.Helper()
	cfg := &config.Config{
		OutputDir:        t.TempDir(),
		HTTPTimeout:      time.Second,
		ACSStartYear:     2024,
		ACSFallbackYears: 2,
		LODESYear:        2022,
		TrendY0:          2018,
		TrendY1:          2023,
		Featured: []domain.Geography{
			{Type: domain.GeoCounty, GeoID: "08077", Label: "Mesa County"},
		},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	fetcher := fetch.New(fetch.Config{
		Timeout:     time.Second,
		BackoffBase: time.Millisecond,
	}, clockwork.NewRealClock(), logger, metrics)

	censusClient := census.New(cfg, fetcher, logger, metrics,
		census.WithBaseURL(srvURL), census.WithTigerURL(srvURL+"/tiger"))
	dolaClient := dola.New(fetcher, logger, config.StateFIPS, cfg.CacheDir(), dola.WithBaseURL(srvURL))
	lodesClient := lodes.New(fetcher, logger, "co", lodes.WithBaseURL(srvURL))
	diag := diagnostics.New(fetcher, logger, "", config.StateFIPS,
		cfg.ACSStartYear, cfg.ACSFallbackYears, cfg.DebugLogPath())

	return New(cfg, censusClient, dolaClient, lodesClient, diag, logger, metrics)
}

// snapshotTree reads every file under root into a relative-path map.
func snapshotTree(t *testing.T, root string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		out[rel] = string(data)
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestRunIsIdempotent(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })

	srv := fixtureServer(t)
	p := fullPipeline(t, srv.URL)
	ctx := context.Background()

	require.NoError(t, p.Run(ctx))
	first := snapshotTree(t, p.cfg.OutputDir)

	for _, want := range []string{
		"geo-config.json",
		filepath.Join("summary", "08077.json"),
		filepath.Join("lehd", "08077.json"),
		filepath.Join("dola_sya", "08077.json"),
		filepath.Join("projections", "08077.json"),
		filepath.Join("derived", "geo-derived.json"),
	} {
		assert.Contains(t, first, want)
	}
	assert.Contains(t, first["geo-config.json"], "2026-01-02T03:04:05Z")

	require.NoError(t, p.Run(ctx))
	second := snapshotTree(t, p.cfg.OutputDir)

	assert.Equal(t, first, second, "second run with identical upstream data must reproduce the tree byte for byte")
}
