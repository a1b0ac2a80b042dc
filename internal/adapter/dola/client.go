// Package dola downloads the Colorado State Demography Office bulk CSV
// exports published on the SDO data download page. The files carry no
// schema guarantee: column names drift between releases and some exports
// open with banner rows, so every parse goes through header detection and
// column-name heuristics instead of fixed offsets.
package dola

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/ridgelinedata/hna-etl/internal/fetch"
)

// Bulk export files discovered via the SDO Data Download page:
// https://demography.dola.colorado.gov/assets/html/sdodata.html
const (
	defaultBaseURL = "https://storage.googleapis.com/co-publicdata"

	syaFile        = "sya-county.csv"
	componentsFile = "components-change-county.csv"
	profilesFile   = "profiles-county.csv"

	// Bulk files run to tens of megabytes; the per-request API timeout
	// is too tight for them.
	downloadTimeout = 120 * time.Second
)

// Client downloads and parses the SDO county exports. Each file is
// cached on disk after a successful download so a later outage degrades
// to last-known-good data instead of an empty build.
type Client struct {
	fetcher   *fetch.Client
	logger    *slog.Logger
	stateFIPS string
	cacheDir  string
	baseURL   string
}

// Option adjusts a Client after construction.
type Option func(*Client)

// WithBaseURL points the export downloads at an alternate object store,
// used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func New(fetcher *fetch.Client, logger *slog.Logger, stateFIPS, cacheDir string, opts ...Option) *Client {
	c := &Client{
		fetcher:   fetcher,
		logger:    logger,
		stateFIPS: stateFIPS,
		cacheDir:  cacheDir,
		baseURL:   defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SYAURL is the single-year-of-age export location, also recorded in
// output source blocks.
func (c *Client) SYAURL() string { return c.baseURL + "/" + syaFile }

// ComponentsURL is the components-of-change export location.
func (c *Client) ComponentsURL() string { return c.baseURL + "/" + componentsFile }

// ProfilesURL is the county housing-profiles export location.
func (c *Client) ProfilesURL() string { return c.baseURL + "/" + profilesFile }

func (c *Client) cachePath(name string) string {
	return filepath.Join(c.cacheDir, name)
}
