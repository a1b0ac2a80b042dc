// Package fetch is the resilient HTTP layer under every upstream adapter:
// status-aware retry with exponential backoff, a circuit breaker for
// persistent outages, credential redaction on everything that gets logged,
// and an on-disk cache fallback for bulk CSV downloads.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"

	"github.com/ridgelinedata/hna-etl/internal/observability"
)

const (
	userAgent = "hna-etl/1.0"

	// maxErrorBody caps the response body returned for failed requests.
	maxErrorBody = 1000

	defaultTimeout = 30 * time.Second
	defaultRetries = 3

	breakerFailures = 8
	breakerCooldown = 60 * time.Second
)

// Secret is a credential to scrub from logged URLs and bodies.
type Secret struct {
	Name  string // redaction marker, e.g. "CENSUS_API_KEY"
	Value string
}

// Config carries client-wide defaults. Zero values fall back to the
// package defaults above.
type Config struct {
	Timeout       time.Duration
	MaxRetries    int
	BackoffBase   time.Duration // first retry wait, grows by BackoffFactor
	BackoffFactor float64
	Secrets       []Secret
}

// Opts are per-request overrides; zero values use the client defaults.
type Opts struct {
	Timeout time.Duration
	Retries int
}

// Client performs HTTP GETs with bounded retry, backoff, and a circuit
// breaker. It never returns Go errors from GetText: failures surface as a
// status code (0 for transport-level) plus an error-text body, which is the
// contract the fallback chains are built on.
type Client struct {
	httpClient    *http.Client
	clock         clockwork.Clock
	logger        *slog.Logger
	metrics       *observability.Metrics
	breaker       *gobreaker.CircuitBreaker
	secrets       []Secret
	timeout       time.Duration
	maxRetries    int
	backoffBase   time.Duration
	backoffFactor float64
}

// New creates a fetch client. The clock is swappable so tests can keep
// backoff waits out of wall time.
func New(cfg Config, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultRetries
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}
	if cfg.BackoffFactor <= 1 {
		cfg.BackoffFactor = 1.7
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "upstream",
		Timeout: breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		httpClient:    &http.Client{},
		clock:         clock,
		logger:        logger,
		metrics:       metrics,
		breaker:       breaker,
		secrets:       cfg.Secrets,
		timeout:       cfg.Timeout,
		maxRetries:    cfg.MaxRetries,
		backoffBase:   cfg.BackoffBase,
		backoffFactor: cfg.BackoffFactor,
	}
}

// Redact substitutes every configured secret in s with its marker. Applied
// to every URL or body before it reaches a log line or diagnostic file.
func (c *Client) Redact(s string) string {
	return redact(s, c.secrets)
}

// retryableStatus reports whether a status code warrants another attempt.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// GetText fetches url and returns (statusCode, body). Retryable statuses
// and transport failures are retried with exponential backoff up to the
// retry budget; other failures return immediately with a truncated body.
// Transport-level failure is reported as status 0 with the error text.
func (c *Client) GetText(ctx context.Context, url string, o Opts) (int, string) {
	timeout := c.timeout
	if o.Timeout > 0 {
		timeout = o.Timeout
	}
	retries := c.maxRetries
	if o.Retries > 0 {
		retries = o.Retries
	}

	wait := c.backoffBase
	var lastStatus int
	var lastBody string
	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		status, body, err := c.attempt(ctx, url, timeout)
		if err == nil {
			c.metrics.FetchRequests.WithLabelValues("success").Inc()
			return status, body
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.metrics.FetchRequests.WithLabelValues("breaker_open").Inc()
			c.logger.Warn("skipping fetch, circuit breaker open", "url", c.Redact(url))
			return 0, "circuit breaker open"
		}

		if status > 0 && !retryableStatus(status) {
			c.metrics.FetchRequests.WithLabelValues("failure").Inc()
			c.logger.Warn("fetch failed",
				"url", c.Redact(url),
				"status", status,
				"body", c.Redact(truncate(body, maxErrorBody)),
			)
			return status, truncate(body, maxErrorBody)
		}

		c.metrics.FetchRequests.WithLabelValues("retryable").Inc()
		c.logger.Warn("fetch attempt failed",
			"url", c.Redact(url),
			"status", status,
			"attempt", attempt,
			"retries", retries,
			"error", c.Redact(err.Error()),
		)
		lastStatus, lastBody, lastErr = status, body, err

		if attempt < retries {
			c.metrics.FetchRetries.Inc()
			c.clock.Sleep(wait)
			wait = time.Duration(float64(wait) * c.backoffFactor)
		}
	}

	c.metrics.FetchRequests.WithLabelValues("failure").Inc()
	if lastStatus > 0 {
		return lastStatus, truncate(lastBody, maxErrorBody)
	}
	return 0, c.Redact(lastErr.Error())
}

// httpFailure carries a failed attempt's status and body through the
// circuit breaker's error return.
type httpFailure struct {
	status int
	body   string
}

func (e *httpFailure) Error() string {
	if e.status == 0 {
		return e.body
	}
	return fmt.Sprintf("HTTP %d: %s", e.status, truncate(e.body, 200))
}

// attempt performs one GET through the circuit breaker. A non-2xx response
// is returned as (status, body, err) so the caller can decide whether to
// retry; the breaker counts transport failures and retryable statuses.
func (c *Client) attempt(ctx context.Context, url string, timeout time.Duration) (int, string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, readErr := io.ReadAll(resp.Body)
		if readErr != nil && len(data) == 0 {
			return nil, readErr
		}
		if retryableStatus(resp.StatusCode) {
			return nil, &httpFailure{status: resp.StatusCode, body: string(data)}
		}
		return &httpFailure{status: resp.StatusCode, body: string(data)}, nil
	})
	if err != nil {
		var hf *httpFailure
		if errors.As(err, &hf) {
			return hf.status, hf.body, err
		}
		return 0, "", err
	}

	res := result.(*httpFailure)
	if res.status != http.StatusOK {
		// Non-retryable, non-200 (e.g. 400/404): hand back for immediate return.
		return res.status, res.body, &httpFailure{status: res.status, body: res.body}
	}
	return res.status, res.body, nil
}

// GetJSON fetches url with a single attempt and decodes the response into
// out. Returns false (never an error) on non-200 or decode failure, which
// the fallback chains treat as "try the next endpoint".
func (c *Client) GetJSON(ctx context.Context, url string, out any) bool {
	status, body := c.GetText(ctx, url, Opts{Retries: 1})
	if status != http.StatusOK {
		c.logger.Warn("json fetch failed", "url", c.Redact(url), "status", status)
		return false
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		c.logger.Warn("json parse failed", "url", c.Redact(url), "error", err)
		return false
	}
	return true
}

// Stream opens url and returns the response body for streaming reads,
// without retry. Used for the bulk OD download, which is too large to
// buffer. The returned ReadCloser must be closed by the caller.
func (c *Client) Stream(ctx context.Context, url string, timeout time.Duration) (io.ReadCloser, error) {
	if timeout <= 0 {
		timeout = c.timeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("stream %s: %w", c.Redact(url), err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("stream %s: HTTP %d: %s", c.Redact(url), resp.StatusCode, c.Redact(string(body)))
	}
	return &cancelReadCloser{ReadCloser: resp.Body, cancel: cancel}, nil
}

type cancelReadCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *cancelReadCloser) Close() error {
	err := r.ReadCloser.Close()
	r.cancel()
	return err
}

func redact(s string, secrets []Secret) string {
	for _, sec := range secrets {
		if sec.Value == "" {
			continue
		}
		s = strings.ReplaceAll(s, sec.Value, "***"+sec.Name+"***")
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
