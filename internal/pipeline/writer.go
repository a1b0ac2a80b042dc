package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// writeDocument marshals payload and writes it atomically: a crash midway
// through a run must not leave a truncated JSON file where a good snapshot
// used to be.
func (p *Pipeline) writeDocument(path, dataset string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir for %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	p.metrics.DocumentsWritten.WithLabelValues(dataset).Inc()
	return nil
}

// ensureDirs creates the full output tree up front so partially skipped
// runs still leave the expected layout behind.
func (p *Pipeline) ensureDirs() error {
	dirs := []string{
		filepath.Dir(p.cfg.GeoConfigPath()),
		p.cfg.SummaryDir(),
		p.cfg.LEHDDir(),
		p.cfg.SYADir(),
		p.cfg.ProjectionsDir(),
		p.cfg.DerivedDir(),
		p.cfg.CacheDir(),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("create output dir %s: %w", d, err)
		}
	}
	return nil
}
