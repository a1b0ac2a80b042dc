// Package lodes streams LEHD LODES8 origin-destination files and folds
// them into per-county commuting totals. The state OD main file runs to
// millions of rows, so it is decompressed and aggregated row by row
// without ever buffering the full file.
package lodes

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/ridgelinedata/hna-etl/internal/domain"
	"github.com/ridgelinedata/hna-etl/internal/fetch"
)

// CommuteResult carries a year's aggregated totals plus the source URL
// for provenance in the output documents.
type CommuteResult struct {
	Year   int
	URL    string
	Totals *domain.CommuteTotals
}

// File index: https://lehd.ces.census.gov/data/lodes/LODES8/co/od/
const (
	defaultBaseURL = "https://lehd.ces.census.gov/data/lodes/LODES8"

	// Dataset label recorded in output documents.
	Dataset = "LEHD LODES8 OD main (JT00)"

	downloadTimeout = 120 * time.Second
)

// Client downloads one state-year OD main file per run.
type Client struct {
	fetcher *fetch.Client
	logger  *slog.Logger
	state   string // lowercase two-letter state code, e.g. "co"
	baseURL string
}

// Option adjusts a Client after construction.
type Option func(*Client)

// WithBaseURL points the download at an alternate file server, used by
// tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func New(fetcher *fetch.Client, logger *slog.Logger, state string, opts ...Option) *Client {
	c := &Client{fetcher: fetcher, logger: logger, state: state, baseURL: defaultBaseURL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the OD main file URL for a vintage year.
func (c *Client) URL(year int) string {
	return fmt.Sprintf("%s/%s/od/%s_od_main_JT00_%d.csv.gz", c.baseURL, c.state, c.state, year)
}

// FetchOD streams the year's OD main file into commuting totals. The
// download is not retried: re-pulling a hundred-megabyte file on a
// transient error costs more than skipping the build until the next run.
func (c *Client) FetchOD(ctx context.Context, year int) (*CommuteResult, error) {
	url := c.URL(year)
	body, err := c.fetcher.Stream(ctx, url, downloadTimeout)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	gz, err := gzip.NewReader(body)
	if err != nil {
		return nil, fmt.Errorf("lodes %d: %w", year, err)
	}
	defer gz.Close()

	totals, rows, err := c.aggregate(gz)
	if err != nil {
		return nil, fmt.Errorf("lodes %d: %w", year, err)
	}
	c.logger.Info("lodes aggregation complete", "year", year, "rows", rows,
		"counties_within", len(totals.Within))
	return &CommuteResult{Year: year, URL: url, Totals: totals}, nil
}

func (c *Client) aggregate(r io.Reader) (*domain.CommuteTotals, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}
	iHome, iWork, iCount := -1, -1, -1
	for i, h := range header {
		switch h {
		case "h_geocode":
			iHome = i
		case "w_geocode":
			iWork = i
		case "S000":
			iCount = i
		}
	}
	if iHome < 0 || iWork < 0 || iCount < 0 {
		return nil, 0, fmt.Errorf("missing OD columns in header %v", header)
	}

	totals := domain.NewCommuteTotals()
	rows := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Tolerate ragged rows the same way a DictReader would.
			continue
		}
		if iHome >= len(row) || iWork >= len(row) || iCount >= len(row) {
			continue
		}
		count, err := strconv.Atoi(row[iCount])
		if err != nil {
			continue
		}
		totals.Add(row[iHome], row[iWork], count)
		rows++
	}
	return totals, rows, nil
}
