package frames

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"mediascan/internal/services"
	"mediascan/internal/testsupport"
)

// writeStub installs an executable shell script that prints canned output.
func writeStub(t *testing.T, dir, name, script string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return path
}

const probeJSON = `{"streams":[{"codec_type":"audio"},{"codec_type":"video","width":1920,"height":1080}],"format":{"duration":"120.5"}}`

func TestProbeParsesDurationAndDimensions(t *testing.T) {
	dir := t.TempDir()
	cfg := testsupport.NewConfig(t)
	cfg.Video.FFprobeBinary = writeStub(t, dir, "ffprobe", "cat <<'EOF'\n"+probeJSON+"\nEOF")

	sampler := NewFFmpeg(cfg, nil)
	info, err := sampler.probe(context.Background(), "/media/clip.mp4")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if got := parseDuration(info.Format.Duration); got != 120.5 {
		t.Fatalf("expected duration 120.5, got %v", got)
	}

	width, height, err := sampler.ProbeDimensions(context.Background(), "/media/clip.mp4")
	if err != nil {
		t.Fatalf("ProbeDimensions: %v", err)
	}
	if width != 1920 || height != 1080 {
		t.Fatalf("expected 1920x1080, got %dx%d", width, height)
	}
}

func TestProbeFailureIsClassified(t *testing.T) {
	dir := t.TempDir()
	cfg := testsupport.NewConfig(t)
	cfg.Video.FFprobeBinary = writeStub(t, dir, "ffprobe", "echo 'no such file' >&2; exit 1")

	sampler := NewFFmpeg(cfg, nil)
	_, _, err := sampler.ProbeDimensions(context.Background(), "/media/missing.mp4")
	if err == nil {
		t.Fatal("expected probe failure")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
}

func TestExtractFramesZeroDuration(t *testing.T) {
	dir := t.TempDir()
	cfg := testsupport.NewConfig(t)
	cfg.Video.FFprobeBinary = writeStub(t, dir, "ffprobe", `echo '{"streams":[],"format":{}}'`)

	sampler := NewFFmpeg(cfg, nil)
	_, err := sampler.ExtractFrames(context.Background(), "/media/clip.mp4", 3)
	if err == nil {
		t.Fatal("expected error for zero-duration probe")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
}

func TestExtractFramesAllExtractionsFail(t *testing.T) {
	dir := t.TempDir()
	cfg := testsupport.NewConfig(t)
	cfg.Video.FFprobeBinary = writeStub(t, dir, "ffprobe", "cat <<'EOF'\n"+probeJSON+"\nEOF")
	cfg.Video.FFmpegBinary = writeStub(t, dir, "ffmpeg", "exit 1")

	sampler := NewFFmpeg(cfg, nil)
	frames, err := sampler.ExtractFrames(context.Background(), "/media/clip.mp4", 2)
	if err == nil {
		t.Fatal("expected error when every extraction fails")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	if frames != nil {
		t.Fatalf("expected no frames, got %d", len(frames))
	}
}

func TestFrameOffsetsAreEvenlySpaced(t *testing.T) {
	want := []float64{25, 50, 75}
	for i, expected := range want {
		if offset := frameOffset(100, i, 3); offset != expected {
			t.Fatalf("offset %d: got %v want %v", i, offset, expected)
		}
	}
}
