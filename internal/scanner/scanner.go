// Package scanner enumerates media files under the scan root and reconciles
// the result against the catalog snapshot.
package scanner

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"mediascan/internal/catalog"
	"mediascan/internal/config"
	"mediascan/internal/logging"
)

// Entry is one media file discovered on disk.
type Entry struct {
	Path    string
	Kind    catalog.Kind
	Size    int64
	ModTime time.Time
}

// Walker enumerates media files by extension allowlist.
type Walker struct {
	root         string
	imageExts    map[string]struct{}
	videoExts    map[string]struct{}
	followHidden bool
	log          *slog.Logger
}

// NewWalker builds a walker from the scan configuration.
func NewWalker(cfg *config.Config, logger *slog.Logger) *Walker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Walker{
		root:         cfg.Scan.Root,
		imageExts:    extensionSet(cfg.Scan.ImageExtensions),
		videoExts:    extensionSet(cfg.Scan.VideoExtensions),
		followHidden: cfg.Scan.FollowHidden,
		log:          logging.WithComponent(logger, "scanner"),
	}
}

// Walk returns every matching media file under the root, path-sorted.
// Unreadable directories are logged and skipped; symlinked directories are not
// followed. Only a missing or unreadable root is an error.
func (w *Walker) Walk(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			if path == w.root {
				return err
			}
			w.log.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		name := d.Name()
		hidden := strings.HasPrefix(name, ".") && path != w.root
		if d.IsDir() {
			if hidden && !w.followHidden {
				return fs.SkipDir
			}
			return nil
		}
		if hidden && !w.followHidden {
			return nil
		}

		// WalkDir does not follow symlinks for directories; skip symlinked
		// files as well so the catalog only tracks regular files.
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		kind, ok := w.kindForPath(path)
		if !ok {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			w.log.Warn("skipping unstattable file", "path", path, "error", err)
			return nil
		}
		entries = append(entries, Entry{
			Path:    path,
			Kind:    kind,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// Stat resolves a single path into an Entry, for event-driven processing.
// ok is false when the path is not a tracked media file (wrong extension,
// hidden, a directory, or not a regular file).
func (w *Walker) Stat(path string) (Entry, bool, error) {
	kind, ok := w.kindForPath(path)
	if !ok {
		return Entry{}, false, nil
	}
	if !w.followHidden && strings.HasPrefix(filepath.Base(path), ".") {
		return Entry{}, false, nil
	}

	info, err := os.Lstat(path)
	if err != nil {
		return Entry{}, false, err
	}
	if !info.Mode().IsRegular() {
		return Entry{}, false, nil
	}
	return Entry{Path: path, Kind: kind, Size: info.Size(), ModTime: info.ModTime()}, true, nil
}

func (w *Walker) kindForPath(path string) (catalog.Kind, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := w.imageExts[ext]; ok {
		return catalog.KindImage, true
	}
	if _, ok := w.videoExts[ext]; ok {
		return catalog.KindVideo, true
	}
	return "", false
}

func extensionSet(extensions []string) map[string]struct{} {
	set := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		set[strings.ToLower(ext)] = struct{}{}
	}
	return set
}
