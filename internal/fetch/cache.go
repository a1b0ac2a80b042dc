package fetch

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// GetCSVWithCache downloads a bulk CSV, persisting it to cachePath on
// success. When the download fails, previously cached content is served
// instead: a single upstream outage must not blank out data that was
// published on the last good run. The cache is never overwritten by a
// failed response. Returns (content, ok).
func (c *Client) GetCSVWithCache(ctx context.Context, url, cachePath, label string, timeout time.Duration) (string, bool) {
	status, text := c.GetText(ctx, url, Opts{Timeout: timeout})
	if status == http.StatusOK {
		if err := c.writeCache(cachePath, text); err != nil {
			c.logger.Warn("could not write cache", "label", label, "path", cachePath, "error", err)
		}
		return text, true
	}

	cached, err := os.ReadFile(cachePath)
	if err != nil {
		if os.IsNotExist(err) {
			c.logger.Warn("download failed and no cache available",
				"label", label, "status", status, "path", cachePath)
		} else {
			c.logger.Warn("download failed and cache unreadable",
				"label", label, "status", status, "path", cachePath, "error", err)
		}
		return "", false
	}

	c.metrics.CacheFallbacks.Inc()
	c.logger.Info("download failed, using cached file",
		"label", label, "status", status, "path", cachePath)
	return string(cached), true
}

func (c *Client) writeCache(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
