// Package pipeline orchestrates a scan: enumerate, reconcile, sign, classify,
// persist, and recluster.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"mediascan/internal/catalog"
	"mediascan/internal/config"
	"mediascan/internal/dedupe"
	"mediascan/internal/exifdata"
	"mediascan/internal/junk"
	"mediascan/internal/logging"
	"mediascan/internal/scanner"
	"mediascan/internal/services"
	"mediascan/internal/signature"
)

// Pipeline wires the scan components around a shared store.
type Pipeline struct {
	cfg    *config.Config
	store  *catalog.Store
	engine *signature.Engine
	walker *scanner.Walker
	rules  []junk.Rule
	log    *slog.Logger
}

// Summary reports what one scan did.
type Summary struct {
	Found       int
	New         int
	Changed     int
	Unchanged   int
	Revived     int
	Missing     int
	Signed      int
	Errors      int
	Junk        int
	ExactGroups int
	NearGroups  int
	Duration    time.Duration
}

// New constructs a pipeline. The engine's sampler decides whether videos get
// perceptual signatures.
func New(cfg *config.Config, store *catalog.Store, engine *signature.Engine, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		cfg:    cfg,
		store:  store,
		engine: engine,
		walker: scanner.NewWalker(cfg, logger),
		rules:  junk.DefaultRules(cfg.Scan.JunkMinBytes, cfg.Scan.JunkMinPixels),
		log:    logging.WithComponent(logger, "pipeline"),
	}
}

// Scan runs one full reconciliation pass over the scan root. A file lock in
// the catalog directory serializes scans; a second concurrent scan fails fast
// instead of queueing. Per-file failures are recorded and counted, never
// fatal.
func (p *Pipeline) Scan(ctx context.Context) (*Summary, error) {
	start := time.Now()

	lock := flock.New(filepath.Join(p.cfg.Paths.CatalogDir, "scan.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire scan lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another scan is already running against %s", p.store.Path())
	}
	defer lock.Unlock()

	entries, err := p.walker.Walk(ctx)
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", p.cfg.Scan.Root, err)
	}

	snapshot, err := p.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog snapshot: %w", err)
	}

	diff := scanner.Reconcile(entries, snapshot)
	summary := &Summary{
		Found:     len(entries),
		New:       len(diff.New),
		Changed:   len(diff.Changed),
		Unchanged: len(diff.Unchanged),
		Revived:   len(diff.Revived),
		Missing:   len(diff.Missing),
	}
	p.log.Info("reconciled scan root",
		"found", summary.Found, "new", summary.New, "changed", summary.Changed,
		"unchanged", summary.Unchanged, "revived", summary.Revived, "missing", summary.Missing)

	if len(diff.Missing) > 0 {
		if _, err := p.store.TombstoneMissing(ctx, diff.Missing); err != nil {
			return nil, fmt.Errorf("tombstone missing files: %w", err)
		}
	}

	work := make([]scanner.Entry, 0, len(diff.New)+len(diff.Changed)+len(diff.Revived))
	work = append(work, diff.New...)
	work = append(work, diff.Changed...)

	// Rows a cancelled scan left in discovered match their on-disk identity
	// and sort into the unchanged bucket; they still need signing.
	for _, entry := range diff.Unchanged {
		if identity, ok := snapshot[entry.Path]; ok && identity.Status == catalog.StatusDiscovered {
			work = append(work, entry)
		}
	}

	if len(diff.Revived) > 0 {
		revivedPaths := make([]string, 0, len(diff.Revived))
		for _, entry := range diff.Revived {
			revivedPaths = append(revivedPaths, entry.Path)
		}
		if _, err := p.store.Revive(ctx, revivedPaths); err != nil {
			return nil, fmt.Errorf("revive files: %w", err)
		}
		// Rows that revived without a stored signature still need signing.
		for _, entry := range diff.Revived {
			row, err := p.store.GetByPath(ctx, entry.Path)
			if err != nil {
				return nil, fmt.Errorf("load revived file: %w", err)
			}
			if row != nil && row.Status != catalog.StatusSigned {
				work = append(work, entry)
			}
		}
	}

	var counts tallies
	p.runWorkers(ctx, work, &counts)
	summary.Signed = int(counts.signed.Load())
	summary.Errors = int(counts.failed.Load())
	summary.Junk = int(counts.junk.Load())

	if ctx.Err() != nil {
		return summary, ctx.Err()
	}

	exact, near, err := p.Recluster(ctx)
	if err != nil {
		return summary, err
	}
	summary.ExactGroups = exact
	summary.NearGroups = near

	summary.Duration = time.Since(start)
	p.log.Info("scan complete",
		"signed", summary.Signed, "errors", summary.Errors, "junk", summary.Junk,
		"exact_groups", summary.ExactGroups, "near_groups", summary.NearGroups,
		"duration", summary.Duration.Round(time.Millisecond))
	return summary, nil
}

// ProcessPaths signs and classifies individual paths, for watch mode. Paths
// that vanished or are not tracked media files are skipped.
func (p *Pipeline) ProcessPaths(ctx context.Context, paths []string) {
	var counts tallies
	var work []scanner.Entry
	for _, path := range paths {
		entry, ok, err := p.walker.Stat(path)
		if err != nil || !ok {
			continue
		}
		work = append(work, entry)
	}
	p.runWorkers(ctx, work, &counts)
}

// TombstoneTrees marks the given paths removed, including any catalog rows
// beneath them. The watcher cannot tell a removed file from a removed
// directory, and a file's path is never a prefix of another row's, so prefix
// matching is safe for both.
func (p *Pipeline) TombstoneTrees(ctx context.Context, paths []string) error {
	for _, path := range paths {
		if _, err := p.store.TombstoneTree(ctx, path); err != nil {
			return err
		}
	}
	return nil
}

// Recluster recomputes duplicate groups from the current signature set and
// swaps them into the store.
func (p *Pipeline) Recluster(ctx context.Context) (exact, near int, err error) {
	files, err := p.store.ListSignedFiles(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list signed files: %w", err)
	}

	groups := dedupe.Cluster(files, p.cfg.Dedupe.NearThreshold)
	current, err := p.store.Duplicates(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list duplicate groups: %w", err)
	}
	if !sameGroups(current, groups) {
		if err := p.store.ReplaceDuplicateGroups(ctx, groups); err != nil {
			return 0, 0, fmt.Errorf("replace duplicate groups: %w", err)
		}
	}

	for _, group := range groups {
		if group.Relation == catalog.RelationExact {
			exact++
		} else {
			near++
		}
	}
	return exact, near, nil
}

// sameGroups reports whether the stored groups already match the computed
// ones. Group IDs encode relation and member paths, so comparing IDs plus the
// linked member rows suffices; a row whose group reference was cleared by a
// content change shows up as a membership mismatch and forces the rewrite.
// Both sides arrive sorted by canonical path with members sorted by path.
func sameGroups(current, next []catalog.DuplicateGroup) bool {
	if len(current) != len(next) {
		return false
	}
	for i := range next {
		if current[i].ID != next[i].ID || len(current[i].MemberIDs) != len(next[i].MemberIDs) {
			return false
		}
		for j := range next[i].MemberIDs {
			if current[i].MemberIDs[j] != next[i].MemberIDs[j] {
				return false
			}
		}
	}
	return true
}

type tallies struct {
	signed atomic.Int64
	failed atomic.Int64
	junk   atomic.Int64
}

func (p *Pipeline) runWorkers(ctx context.Context, work []scanner.Entry, counts *tallies) {
	if len(work) == 0 {
		return
	}

	workers := p.cfg.Pipeline.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(work) {
		workers = len(work)
	}

	jobs := make(chan scanner.Entry)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range jobs {
				if ctx.Err() != nil {
					continue
				}
				p.processEntry(ctx, entry, counts)
			}
		}()
	}

dispatch:
	for _, entry := range work {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- entry:
		}
	}
	close(jobs)
	wg.Wait()
}

// processEntry handles one file end to end: upsert identity, sign, record
// capture metadata, classify junk. Failures mark the row, never the run.
func (p *Pipeline) processEntry(ctx context.Context, entry scanner.Entry, counts *tallies) {
	file, err := p.store.UpsertFile(ctx, entry.Path, entry.Kind, entry.Size, entry.ModTime)
	if err != nil {
		p.log.Error("failed to upsert file", "path", entry.Path, "error", err)
		counts.failed.Add(1)
		return
	}
	if file.Status == catalog.StatusSigned {
		return
	}

	result, signErr := p.engine.Sign(ctx, entry.Path, entry.Kind)
	if signErr != nil {
		p.log.Warn("signing failed", "path", entry.Path, "error", signErr)
		if err := p.store.RecordSignature(ctx, file.ID, "", nil, 0, 0, catalog.StatusError, signErr.Error()); err != nil {
			p.log.Error("failed to record signing error", "path", entry.Path, "error", err)
		}
		counts.failed.Add(1)
	} else {
		if err := p.store.RecordSignature(ctx, file.ID, result.ExactSig, result.Perceptual, result.Width, result.Height, catalog.StatusSigned, ""); err != nil {
			p.log.Error("failed to record signature", "path", entry.Path, "error", err)
			counts.failed.Add(1)
			return
		}
		counts.signed.Add(1)

		if entry.Kind == catalog.KindImage {
			if capture := exifdata.Extract(entry.Path); !capture.Empty() {
				if err := p.store.RecordCaptureInfo(ctx, file.ID, capture.TakenAt, capture.Camera); err != nil {
					p.log.Warn("failed to record capture info", "path", entry.Path, "error", err)
				}
			}
		}
	}

	// Only failures rooted in the file itself (decode errors) make it junk;
	// an environmental failure still records the error status above but says
	// nothing about the file.
	candidate := junk.Candidate{
		Path:          entry.Path,
		Size:          entry.Size,
		SigningFailed: signErr != nil && services.IsPermanent(signErr),
	}
	if result != nil {
		candidate.Width = result.Width
		candidate.Height = result.Height
	}
	verdict := junk.Classify(p.rules, candidate)
	if err := p.store.RecordJunkVerdict(ctx, file.ID, verdict.IsJunk, verdict.Rule, verdict.Reason); err != nil {
		p.log.Error("failed to record junk verdict", "path", entry.Path, "error", err)
		return
	}
	if verdict.IsJunk {
		counts.junk.Add(1)
		p.log.Debug("flagged junk file", "path", entry.Path, "rule", verdict.Rule)
	}
}
