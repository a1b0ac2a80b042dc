package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ridgelinedata/hna-etl/internal/domain"
)

// StateFIPS is the fixed state every geography belongs to (Colorado).
const StateFIPS = "08"

// PyramidPreferredYear is the pyramid vintage used when the SYA file
// contains it; otherwise the latest available year wins.
const PyramidPreferredYear = 2030

// SeniorTargetYears are the years the senior-pressure series covers when
// present in the SYA source.
var SeniorTargetYears = []int{2020, 2024, 2030, 2035, 2040, 2045, 2050}

// Config holds all job settings, populated once from environment variables
// and passed by reference to every builder. Never mutated after Load.
type Config struct {
	CensusAPIKey string

	ACSStartYear     int
	ACSFallbackYears int
	LODESYear        int
	TrendY0          int
	TrendY1          int

	SkipACS     bool
	SkipDerived bool
	SkipLEHD    bool
	SkipDOLA    bool

	OutputDir       string
	HTTPTimeout     time.Duration
	LogLevel        string
	LogFormat       string
	MetricsTextfile string

	// Featured drives the per-geography ACS builders: one county, three
	// incorporated places, and one CDP, each tagged with its county.
	Featured []domain.Geography
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	cfg := &Config{
		CensusAPIKey:     strings.TrimSpace(os.Getenv("CENSUS_API_KEY")),
		ACSStartYear:     envInt("ACS_START_YEAR", 2024),
		ACSFallbackYears: envInt("ACS_FALLBACK_YEARS", 3),
		LODESYear:        envInt("LODES_YEAR", 2022),
		TrendY0:          envInt("HNA_ACS5_TREND_Y0", 2018),
		TrendY1:          envInt("HNA_ACS5_TREND_Y1", 2023),
		SkipACS:          envBool("SKIP_ACS"),
		SkipDerived:      envBool("SKIP_DERIVED"),
		SkipLEHD:         envBool("SKIP_LEHD"),
		SkipDOLA:         envBool("SKIP_DOLA"),
		OutputDir:        envOrDefault("OUTPUT_DIR", filepath.Join("data", "hna")),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		LogFormat:        envOrDefault("LOG_FORMAT", "json"),
		MetricsTextfile:  os.Getenv("METRICS_TEXTFILE"),
		Featured:         featured(),
	}

	timeoutStr := envOrDefault("HTTP_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT %q", timeoutStr)
	}
	cfg.HTTPTimeout = timeout

	if cfg.ACSStartYear < 2010 {
		return nil, fmt.Errorf("invalid ACS_START_YEAR %d", cfg.ACSStartYear)
	}
	if cfg.ACSFallbackYears < 1 {
		return nil, fmt.Errorf("invalid ACS_FALLBACK_YEARS %d", cfg.ACSFallbackYears)
	}
	if cfg.LODESYear < 2002 {
		return nil, fmt.Errorf("invalid LODES_YEAR %d", cfg.LODESYear)
	}
	if cfg.TrendY1 <= cfg.TrendY0 {
		// Nonsensical comparison window: fall back to the defaults.
		cfg.TrendY0, cfg.TrendY1 = 2018, 2023
	}

	return cfg, nil
}

// featured returns the hand-curated geography list. A fresh slice per call
// so no caller can mutate another's view.
func featured() []domain.Geography {
	return []domain.Geography{
		{Type: domain.GeoCounty, GeoID: "08077", Label: "Mesa County"},
		{Type: domain.GeoPlace, GeoID: "0828745", Label: "Fruita (city)", ContainingCounty: "08077"},
		{Type: domain.GeoPlace, GeoID: "0831660", Label: "Grand Junction (city)", ContainingCounty: "08077"},
		{Type: domain.GeoPlace, GeoID: "0856970", Label: "Palisade (town)", ContainingCounty: "08077"},
		{Type: domain.GeoCDP, GeoID: "0815165", Label: "Clifton (CDP)", ContainingCounty: "08077"},
	}
}

// Output layout under OutputDir. One JSON document per geography/county in
// the per-dataset directories, overwritten wholesale each run.

func (c *Config) GeoConfigPath() string  { return filepath.Join(c.OutputDir, "geo-config.json") }
func (c *Config) SummaryDir() string     { return filepath.Join(c.OutputDir, "summary") }
func (c *Config) LEHDDir() string        { return filepath.Join(c.OutputDir, "lehd") }
func (c *Config) SYADir() string         { return filepath.Join(c.OutputDir, "dola_sya") }
func (c *Config) ProjectionsDir() string { return filepath.Join(c.OutputDir, "projections") }
func (c *Config) DerivedDir() string     { return filepath.Join(c.OutputDir, "derived") }
func (c *Config) CacheDir() string       { return filepath.Join(c.OutputDir, "source") }
func (c *Config) DebugLogPath() string   { return filepath.Join(c.OutputDir, "acs_debug_log.txt") }

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string) bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv(key)), "true")
}
