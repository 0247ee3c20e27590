package config

import (
	"fmt"
	"strings"
)

// normalize expands path fields and canonicalizes extension lists so the rest
// of the codebase never has to re-check casing or leading dots.
func (c *Config) normalize() error {
	paths := []struct {
		name  string
		value *string
	}{
		{"paths.catalog_dir", &c.Paths.CatalogDir},
		{"paths.log_dir", &c.Paths.LogDir},
		{"scan.root", &c.Scan.Root},
	}
	for _, p := range paths {
		expanded, err := expandPath(*p.value)
		if err != nil {
			return fmt.Errorf("normalize %s: %w", p.name, err)
		}
		*p.value = expanded
	}

	c.Scan.ImageExtensions = normalizeExtensions(c.Scan.ImageExtensions)
	c.Scan.VideoExtensions = normalizeExtensions(c.Scan.VideoExtensions)

	c.Video.FFmpegBinary = strings.TrimSpace(c.Video.FFmpegBinary)
	c.Video.FFprobeBinary = strings.TrimSpace(c.Video.FFprobeBinary)
	if c.Video.FFmpegBinary == "" {
		c.Video.FFmpegBinary = defaultFFmpegBinary
	}
	if c.Video.FFprobeBinary == "" {
		c.Video.FFprobeBinary = defaultFFprobeBinary
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}

func normalizeExtensions(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		ext := strings.ToLower(strings.TrimSpace(value))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}
