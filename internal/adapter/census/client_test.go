package census

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgelinedata/hna-etl/internal/config"
	"github.com/ridgelinedata/hna-etl/internal/domain"
	"github.com/ridgelinedata/hna-etl/internal/fetch"
	"github.com/ridgelinedata/hna-etl/internal/observability"
)

var (
	mesaCounty = domain.Geography{Type: domain.GeoCounty, GeoID: "08077", Label: "Mesa County"}
	fruita     = domain.Geography{Type: domain.GeoPlace, GeoID: "0828745", Label: "Fruita (city)", ContainingCounty: "08077"}
	clifton    = domain.Geography{Type: domain.GeoCDP, GeoID: "0815165", Label: "Clifton (CDP)", ContainingCounty: "08077"}
)

// testCensus wires a census client against an httptest handler.
func testCensus(t *testing.T, apiKey string, startYear, fallbackYears int, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	fetcher := fetch.New(fetch.Config{
		Timeout:     time.Second,
		BackoffBase: time.Millisecond,
		Secrets:     []fetch.Secret{{Name: "CENSUS_API_KEY", Value: apiKey}},
	}, clockwork.NewRealClock(), logger, metrics)

	cfg := &config.Config{
		CensusAPIKey:     apiKey,
		ACSStartYear:     startYear,
		ACSFallbackYears: fallbackYears,
	}
	c := New(cfg, fetcher, logger, metrics,
		WithBaseURL(srv.URL), WithTigerURL(srv.URL+"/tiger"))
	return c, srv
}

func acsBody(codes []string, values []string) string {
	quote := func(ss []string) string {
		out := make([]string, len(ss))
		for i, s := range ss {
			out[i] = fmt.Sprintf("%q", s)
		}
		return strings.Join(out, ",")
	}
	return fmt.Sprintf("[[%s],[%s]]", quote(codes), quote(values))
}

func TestFetchProfileFirstEndpointWins(t *testing.T) {
	c, _ := testCensus(t, "", 2024, 3, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/2024/acs/acs1/profile", r.URL.Path)
		assert.Equal(t, "county:077", r.URL.Query().Get("for"))
		assert.Equal(t, "state:08", r.URL.Query().Get("in"))
		w.Write([]byte(acsBody(
			[]string{"NAME", "DP05_0001E", "DP03_0062E"},
			[]string{"Mesa County, Colorado", "158364", "62000"},
		)))
	}))

	row, prov, attempts, ok := c.FetchProfile(context.Background(), mesaCounty)
	require.True(t, ok)
	assert.Equal(t, Provenance{Year: 2024, Series: "acs1", Endpoint: "profile"}, prov)
	require.Len(t, attempts, 1)
	assert.True(t, attempts[0].OK)

	require.NotNil(t, row.TotalPopulation)
	assert.Equal(t, "158364", *row.TotalPopulation)
	assert.Nil(t, row.TotalHousingUnits, "variable absent from response stays nil")
}

func TestFetchProfileFallsBackAcrossYears(t *testing.T) {
	c, _ := testCensus(t, "", 2024, 2, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/2024/") {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("error: unknown variable"))
			return
		}
		// 2023 acs1/profile works.
		if r.URL.Path == "/2023/acs/acs1/profile" {
			w.Write([]byte(acsBody([]string{"NAME", "DP05_0001E"}, []string{"Mesa County, Colorado", "157000"})))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	row, prov, attempts, ok := c.FetchProfile(context.Background(), mesaCounty)
	require.True(t, ok)
	assert.Equal(t, 2023, prov.Year)
	assert.Equal(t, "acs1", prov.Series)

	// Three failed 2024 combos plus the 2023 success, all recorded.
	require.Len(t, attempts, 4)
	for _, a := range attempts[:3] {
		assert.Equal(t, 2024, a.Year)
		assert.False(t, a.OK)
		assert.Equal(t, http.StatusNotFound, a.Status)
		assert.Contains(t, a.ResponsePreview, "unknown variable")
	}
	assert.True(t, attempts[3].OK)
	assert.Equal(t, "(success - data received)", attempts[3].ResponsePreview)

	require.NotNil(t, row.TotalPopulation)
	assert.Equal(t, "157000", *row.TotalPopulation)
}

func TestFetchProfileCDPBSeriesFallback(t *testing.T) {
	c, _ := testCensus(t, "", 2024, 1, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/2024/acs/acs5" {
			assert.Equal(t, "place:15165", r.URL.Query().Get("for"))
			w.Write([]byte(acsBody(
				[]string{"B01003_001E", "B11001_001E", "B25003_001E", "B25003_002E", "B25003_003E", "NAME"},
				[]string{"20413", "7400", "7000", "4200", "2800", "Clifton CDP, Colorado"},
			)))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	row, prov, attempts, ok := c.FetchProfile(context.Background(), clifton)
	require.True(t, ok)
	assert.Equal(t, "b-series", prov.Endpoint)
	// Three profile-chain failures plus the B-series success.
	require.Len(t, attempts, 4)
	assert.Equal(t, "b-series", attempts[3].Endpoint)

	require.NotNil(t, row.TotalPopulation)
	assert.Equal(t, "20413", *row.TotalPopulation)
	require.NotNil(t, row.TotalHouseholds)
	assert.Equal(t, "7400", *row.TotalHouseholds)
	require.NotNil(t, row.OwnerOccupiedPct)
	assert.Equal(t, "60.0", *row.OwnerOccupiedPct)
}

func TestFetchProfileAllFail(t *testing.T) {
	c, _ := testCensus(t, "", 2024, 2, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, _, attempts, ok := c.FetchProfile(context.Background(), mesaCounty)
	assert.False(t, ok)
	// 2 years x (3 profile combos + 1 B-series).
	assert.Len(t, attempts, 8)
}

func TestFetchSubjectChain(t *testing.T) {
	c, _ := testCensus(t, "", 2024, 1, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/2024/acs/acs1/subject":
			w.WriteHeader(http.StatusInternalServerError)
		case "/2024/acs/acs5/subject":
			w.Write([]byte(acsBody(
				[]string{"NAME", "S0801_C01_001E", "S0801_C01_018E"},
				[]string{"Fruita city, Colorado", "6300", "24.5"},
			)))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	row, prov, attempts, ok := c.FetchSubject(context.Background(), fruita)
	require.True(t, ok)
	assert.Equal(t, "acs5", prov.Series)
	require.Len(t, attempts, 2)
	assert.False(t, attempts[0].OK)
	assert.True(t, attempts[1].OK)

	require.NotNil(t, row.MeanTravelTime)
	assert.Equal(t, "24.5", *row.MeanTravelTime)
}

func TestFetchTrendRow(t *testing.T) {
	c, _ := testCensus(t, "hunter2", 2024, 1, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/2018/acs/acs5/profile", r.URL.Path)
		assert.Equal(t, "hunter2", r.URL.Query().Get("key"))
		w.Write([]byte(acsBody(
			[]string{"NAME", "DP05_0001E", "DP02_0001E", "DP04_0001E"},
			[]string{"Fruita city, Colorado", "12000", "4500", "4800"},
		)))
	}))

	row, url, err := c.FetchTrendRow(context.Background(), 2018, fruita)
	require.NoError(t, err)
	require.NotNil(t, row.TotalHouseholds)
	assert.Equal(t, "4500", *row.TotalHouseholds)
	assert.NotContains(t, url, "hunter2", "provenance URL must be redacted")
	assert.Contains(t, url, "***CENSUS_API_KEY***")
}

func TestFetchTrendRowFailure(t *testing.T) {
	c, _ := testCensus(t, "", 2024, 1, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	_, _, err := c.FetchTrendRow(context.Background(), 2018, fruita)
	assert.Error(t, err)
}

func TestBuildURLGeography(t *testing.T) {
	c, _ := testCensus(t, "", 2024, 1, http.NotFoundHandler())

	countyURL := c.buildURL(2024, "acs1", "profile", mesaCounty, []string{"NAME"})
	assert.Contains(t, countyURL, "for=county%3A077")
	assert.Contains(t, countyURL, "in=state%3A08")

	placeURL := c.buildURL(2024, "acs1", "profile", fruita, []string{"NAME"})
	assert.Contains(t, placeURL, "for=place%3A28745")

	bURL := c.buildURL(2023, "acs5", "", clifton, []string{"B01003_001E"})
	assert.Contains(t, bURL, "/2023/acs/acs5?")
}

func TestEndpointFor(t *testing.T) {
	c, _ := testCensus(t, "", 2024, 1, http.NotFoundHandler())

	assert.True(t, strings.HasSuffix(
		c.EndpointFor(Provenance{Year: 2022, Series: "acs5", Endpoint: "profile"}),
		"/2022/acs/acs5/profile"))
	assert.True(t, strings.HasSuffix(
		c.EndpointFor(Provenance{Year: 2023, Series: "acs5", Endpoint: "b-series"}),
		"/2023/acs/acs5"), "B-series endpoint is the series root")
}

func TestAttemptURLsRedacted(t *testing.T) {
	c, _ := testCensus(t, "topsecret", 2024, 1, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	_, _, attempts, ok := c.FetchProfile(context.Background(), mesaCounty)
	require.False(t, ok)
	for _, a := range attempts {
		assert.NotContains(t, a.URL, "topsecret")
	}
}
