package pipeline_test

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"mediascan/internal/catalog"
	"mediascan/internal/config"
	"mediascan/internal/pipeline"
	"mediascan/internal/signature"
	"mediascan/internal/testsupport"
)

// rampImage renders a pure horizontal brightness ramp; its difference hash is
// stable across resolutions, which makes resized copies near duplicates.
func rampImage(width, height int) image.Image {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(255 * x / max(width-1, 1))})
		}
	}
	return img
}

// stripeImage renders wide vertical stripes whose hash sits far from both the
// ramp and flat hashes, keeping video frames out of unrelated near groups.
func stripeImage(width, height int) image.Image {
	img := image.NewGray(image.Rect(0, 0, width, height))
	stripe := max(width/9, 1)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8(0)
			if (x/stripe)%2 == 1 {
				v = 255
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func copyFile(t *testing.T, src, dst string) {
	t.Helper()
	content, err := os.ReadFile(src)
	if err != nil {
		t.Fatalf("read %s: %v", src, err)
	}
	testsupport.WriteBytes(t, dst, content)
}

func newPipeline(t *testing.T, cfg *config.Config, sampler signature.Sampler) (*pipeline.Pipeline, *catalog.Store) {
	t.Helper()
	store := testsupport.MustOpenStore(t, cfg)
	engine := signature.NewEngine(sampler, cfg.Video.SampleFrames, nil)
	return pipeline.New(cfg, store, engine, nil), store
}

func TestScanFullScenario(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithJunkThresholds(100, 64))
	root := cfg.Scan.Root

	// A resized pair, an exact-duplicate pair, a flat thumbnail, a corrupt
	// file, and a video.
	testsupport.WriteJPEG(t, filepath.Join(root, "ramp_large.jpg"), rampImage(180, 120), 90)
	testsupport.WriteJPEG(t, filepath.Join(root, "ramp_small.jpg"), rampImage(45, 30), 90)
	testsupport.WriteJPEG(t, filepath.Join(root, "dup1.jpg"), testsupport.FlatImage(300, 300, color.Gray{Y: 90}), 90)
	copyFile(t, filepath.Join(root, "dup1.jpg"), filepath.Join(root, "dup2.jpg"))
	testsupport.WriteJPEG(t, filepath.Join(root, "sub", "party_thumbnail.jpg"), testsupport.FlatImage(200, 200, color.Gray{Y: 200}), 90)
	testsupport.WriteBytes(t, filepath.Join(root, "tiny.jpg"), []byte("not really a jpeg file"))
	testsupport.WriteFile(t, filepath.Join(root, "clip.mp4"), 4096)

	sampler := &testsupport.FakeSampler{Frames: []image.Image{
		stripeImage(144, 72), stripeImage(144, 72), stripeImage(144, 72),
	}}
	p, store := newPipeline(t, cfg, sampler)

	summary, err := p.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if summary.Found != 7 || summary.New != 7 {
		t.Fatalf("expected 7 new files, got %+v", summary)
	}
	if summary.Signed != 6 {
		t.Fatalf("expected 6 signed, got %+v", summary)
	}
	if summary.Errors != 1 {
		t.Fatalf("expected 1 error, got %+v", summary)
	}
	// The corrupt file is unreadable junk; the thumbnail matches the name rule.
	if summary.Junk != 2 {
		t.Fatalf("expected 2 junk files, got %+v", summary)
	}
	if summary.ExactGroups != 1 || summary.NearGroups != 1 {
		t.Fatalf("expected 1 exact + 1 near group, got %+v", summary)
	}

	ctx := context.Background()
	groups, err := store.Duplicates(ctx)
	if err != nil {
		t.Fatalf("Duplicates: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 stored groups, got %d", len(groups))
	}

	corrupt, err := store.GetByPath(ctx, filepath.Join(root, "tiny.jpg"))
	if err != nil {
		t.Fatalf("GetByPath: %v", err)
	}
	if corrupt.Status != catalog.StatusError || !corrupt.IsJunk || corrupt.JunkRule != "unreadable" {
		t.Fatalf("unexpected corrupt row: status=%s junk=%v rule=%s", corrupt.Status, corrupt.IsJunk, corrupt.JunkRule)
	}

	clip, err := store.GetByPath(ctx, filepath.Join(root, "clip.mp4"))
	if err != nil {
		t.Fatalf("GetByPath clip: %v", err)
	}
	if clip.Status != catalog.StatusSigned || clip.PerceptualSig == nil {
		t.Fatalf("expected signed video with perceptual signature, got %+v", clip)
	}
	if clip.Width != 144 || clip.Height != 72 {
		t.Fatalf("expected frame dimensions recorded, got %dx%d", clip.Width, clip.Height)
	}
}

func TestScanIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	root := cfg.Scan.Root
	testsupport.WriteJPEG(t, filepath.Join(root, "a.jpg"), rampImage(120, 90), 90)
	testsupport.WriteJPEG(t, filepath.Join(root, "b.jpg"), rampImage(60, 45), 90)
	testsupport.WriteBytes(t, filepath.Join(root, "broken.jpg"), []byte("garbage"))

	p, store := newPipeline(t, cfg, nil)
	ctx := context.Background()

	first, err := p.Scan(ctx)
	if err != nil {
		t.Fatalf("first Scan: %v", err)
	}
	if first.Signed != 2 || first.Errors != 1 {
		t.Fatalf("unexpected first summary: %+v", first)
	}
	firstGroups, err := store.Duplicates(ctx)
	if err != nil {
		t.Fatalf("Duplicates: %v", err)
	}

	second, err := p.Scan(ctx)
	if err != nil {
		t.Fatalf("second Scan: %v", err)
	}
	if second.Signed != 0 || second.Errors != 0 || second.New != 0 || second.Changed != 0 {
		t.Fatalf("second scan should be a no-op, got %+v", second)
	}
	if second.Unchanged != 3 {
		t.Fatalf("expected 3 unchanged (including the error row), got %+v", second)
	}

	secondGroups, err := store.Duplicates(ctx)
	if err != nil {
		t.Fatalf("Duplicates: %v", err)
	}
	if len(firstGroups) != len(secondGroups) {
		t.Fatalf("group count changed across idempotent scans: %d vs %d", len(firstGroups), len(secondGroups))
	}
	for i := range firstGroups {
		if firstGroups[i].CanonicalPath != secondGroups[i].CanonicalPath {
			t.Fatalf("group %d canonical changed: %s vs %s", i, firstGroups[i].CanonicalPath, secondGroups[i].CanonicalPath)
		}
		if firstGroups[i].ID != secondGroups[i].ID {
			t.Fatalf("group %d ID changed across idempotent scans: %s vs %s", i, firstGroups[i].ID, secondGroups[i].ID)
		}
	}
}

func TestScanErrorRowRetriedOnlyAfterChange(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := filepath.Join(cfg.Scan.Root, "broken.jpg")
	testsupport.WriteBytes(t, path, []byte("garbage"))

	p, store := newPipeline(t, cfg, nil)
	ctx := context.Background()

	first, err := p.Scan(ctx)
	if err != nil {
		t.Fatalf("first Scan: %v", err)
	}
	if first.Errors != 1 {
		t.Fatalf("expected 1 error, got %+v", first)
	}

	// While the file is untouched the error row is left alone.
	second, err := p.Scan(ctx)
	if err != nil {
		t.Fatalf("second Scan: %v", err)
	}
	if second.Errors != 0 || second.Signed != 0 {
		t.Fatalf("unchanged error row must not be retried, got %+v", second)
	}
	row, err := store.GetByPath(ctx, path)
	if err != nil {
		t.Fatalf("GetByPath: %v", err)
	}
	if row.Status != catalog.StatusError {
		t.Fatalf("expected error status preserved, got %s", row.Status)
	}

	// Replacing the content re-signs it.
	testsupport.WriteJPEG(t, path, rampImage(100, 80), 90)
	third, err := p.Scan(ctx)
	if err != nil {
		t.Fatalf("third Scan: %v", err)
	}
	if third.Changed != 1 || third.Signed != 1 || third.Errors != 0 {
		t.Fatalf("expected the rewritten file to sign, got %+v", third)
	}
	row, err = store.GetByPath(ctx, path)
	if err != nil {
		t.Fatalf("GetByPath: %v", err)
	}
	if row.Status != catalog.StatusSigned {
		t.Fatalf("expected signed after rewrite, got %s", row.Status)
	}
}

func TestScanDetectsContentChange(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	root := cfg.Scan.Root
	aPath := filepath.Join(root, "a.jpg")
	bPath := filepath.Join(root, "b.jpg")
	testsupport.WriteJPEG(t, aPath, testsupport.FlatImage(200, 200, color.Gray{Y: 70}), 90)
	copyFile(t, aPath, bPath)

	p, store := newPipeline(t, cfg, nil)
	ctx := context.Background()

	summary, err := p.Scan(ctx)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if summary.ExactGroups != 1 {
		t.Fatalf("expected exact group for identical copies, got %+v", summary)
	}

	// Rewriting one copy dissolves the group on the next scan.
	testsupport.WriteJPEG(t, bPath, rampImage(200, 200), 90)
	summary, err = p.Scan(ctx)
	if err != nil {
		t.Fatalf("rescan: %v", err)
	}
	if summary.Changed != 1 || summary.Signed != 1 {
		t.Fatalf("expected the rewritten file to re-sign, got %+v", summary)
	}
	if summary.ExactGroups != 0 {
		t.Fatalf("expected exact group to dissolve, got %+v", summary)
	}
	groups, err := store.Duplicates(ctx)
	if err != nil {
		t.Fatalf("Duplicates: %v", err)
	}
	if len(groups) != 0 {
		t.Fatalf("expected no stored groups, got %d", len(groups))
	}
}

func TestScanMtimeTouchTriggersResign(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := filepath.Join(cfg.Scan.Root, "a.jpg")
	testsupport.WriteJPEG(t, path, rampImage(100, 80), 90)

	p, _ := newPipeline(t, cfg, nil)
	ctx := context.Background()
	if _, err := p.Scan(ctx); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	testsupport.Touch(t, path, time.Now().Add(time.Hour))
	summary, err := p.Scan(ctx)
	if err != nil {
		t.Fatalf("rescan: %v", err)
	}
	if summary.Changed != 1 || summary.Signed != 1 {
		t.Fatalf("an mtime touch must re-sign, got %+v", summary)
	}
}

func TestScanTombstonesAndRevives(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := filepath.Join(cfg.Scan.Root, "a.jpg")
	testsupport.WriteJPEG(t, path, rampImage(100, 80), 90)

	p, store := newPipeline(t, cfg, nil)
	ctx := context.Background()
	if _, err := p.Scan(ctx); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}

	summary, err := p.Scan(ctx)
	if err != nil {
		t.Fatalf("rescan after remove: %v", err)
	}
	if summary.Missing != 1 {
		t.Fatalf("expected 1 missing, got %+v", summary)
	}
	row, err := store.GetByPath(ctx, path)
	if err != nil {
		t.Fatalf("GetByPath: %v", err)
	}
	if row.Status != catalog.StatusRemoved {
		t.Fatalf("expected removed status, got %s", row.Status)
	}

	// The file comes back byte-identical with its original mtime: it revives
	// straight to signed without recomputing anything.
	testsupport.WriteBytes(t, path, content)
	testsupport.Touch(t, path, info.ModTime())
	summary, err = p.Scan(ctx)
	if err != nil {
		t.Fatalf("rescan after restore: %v", err)
	}
	if summary.Revived != 1 || summary.Signed != 0 {
		t.Fatalf("expected revival without re-signing, got %+v", summary)
	}
	row, err = store.GetByPath(ctx, path)
	if err != nil {
		t.Fatalf("GetByPath: %v", err)
	}
	if row.Status != catalog.StatusSigned {
		t.Fatalf("expected signed after revival, got %s", row.Status)
	}
}

func TestScanResilientToCorruptFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	root := cfg.Scan.Root
	for i, shade := range []uint8{40, 120, 220} {
		testsupport.WriteJPEG(t, filepath.Join(root, "ok"+string(rune('a'+i))+".jpg"),
			testsupport.FlatImage(200, 200, color.Gray{Y: shade}), 90)
	}
	testsupport.WriteBytes(t, filepath.Join(root, "corrupt.jpg"), []byte("\xff\xd8 truncated"))

	p, _ := newPipeline(t, cfg, nil)
	summary, err := p.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan must not abort on corrupt files: %v", err)
	}
	if summary.Signed != 3 || summary.Errors != 1 {
		t.Fatalf("expected 3 signed and 1 error, got %+v", summary)
	}
}

func TestScanRefusesConcurrentRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteJPEG(t, filepath.Join(cfg.Scan.Root, "a.jpg"), rampImage(80, 60), 90)

	p, _ := newPipeline(t, cfg, nil)

	lock := flock.New(filepath.Join(cfg.Paths.CatalogDir, "scan.lock"))
	locked, err := lock.TryLock()
	if err != nil || !locked {
		t.Fatalf("failed to take lock for test: locked=%v err=%v", locked, err)
	}
	defer lock.Unlock()

	if _, err := p.Scan(context.Background()); err == nil {
		t.Fatal("expected scan to refuse while the lock is held")
	}
}

func TestProcessPaths(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	root := cfg.Scan.Root
	path := filepath.Join(root, "new.jpg")
	testsupport.WriteJPEG(t, path, rampImage(100, 80), 90)
	textPath := filepath.Join(root, "notes.txt")
	testsupport.WriteBytes(t, textPath, []byte("not media"))

	p, store := newPipeline(t, cfg, nil)
	ctx := context.Background()

	p.ProcessPaths(ctx, []string{path, textPath, filepath.Join(root, "vanished.jpg")})

	row, err := store.GetByPath(ctx, path)
	if err != nil {
		t.Fatalf("GetByPath: %v", err)
	}
	if row == nil || row.Status != catalog.StatusSigned {
		t.Fatalf("expected event-driven path to be signed, got %+v", row)
	}
	if skipped, _ := store.GetByPath(ctx, textPath); skipped != nil {
		t.Fatal("non-media paths must not enter the catalog")
	}
}
