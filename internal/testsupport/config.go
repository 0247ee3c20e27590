package testsupport

import (
	"path/filepath"
	"testing"

	"mediascan/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.CatalogDir = filepath.Join(base, "catalog")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Scan.Root = filepath.Join(base, "media")

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithNearThreshold overrides the near-duplicate Hamming threshold.
func WithNearThreshold(threshold int) ConfigOption {
	return func(c *config.Config) {
		c.Dedupe.NearThreshold = threshold
	}
}

// WithWorkers overrides the signing worker bound.
func WithWorkers(workers int) ConfigOption {
	return func(c *config.Config) {
		c.Pipeline.Workers = workers
	}
}

// WithJunkThresholds overrides the junk size and dimension thresholds.
func WithJunkThresholds(minBytes int64, minPixels int) ConfigOption {
	return func(c *config.Config) {
		c.Scan.JunkMinBytes = minBytes
		c.Scan.JunkMinPixels = minPixels
	}
}
