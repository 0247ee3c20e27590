package signature

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"

	"mediascan/internal/catalog"
	"mediascan/internal/logging"
	"mediascan/internal/services"
)

// Sampler yields decoded frames from a video file.
type Sampler interface {
	ExtractFrames(ctx context.Context, path string, count int) ([]image.Image, error)
}

// Prober reports video pixel dimensions. Samplers that can probe cheaply
// implement it; the engine falls back to frame bounds otherwise.
type Prober interface {
	ProbeDimensions(ctx context.Context, path string) (width, height int, err error)
}

// Engine signs media files. The exact signature is always computed; the
// perceptual signature depends on the file kind and, for videos, on what the
// sampler can deliver.
type Engine struct {
	sampler      Sampler
	sampleFrames int
	log          *slog.Logger
}

// Result carries the signing outcome for one file.
type Result struct {
	ExactSig   string
	Perceptual *uint64
	Width      int
	Height     int
}

// NewEngine constructs a signing engine. The sampler may be nil, in which case
// videos receive an exact signature only.
func NewEngine(sampler Sampler, sampleFrames int, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		sampler:      sampler,
		sampleFrames: sampleFrames,
		log:          logging.WithComponent(logger, "signature"),
	}
}

// Sign computes the signatures for path. Open and read failures are wrapped as
// transient; an undecodable image is wrapped as a decode error so callers can
// record it permanently. Video frame extraction failures are not errors: the
// file keeps its exact signature and simply has no perceptual one.
func (e *Engine) Sign(ctx context.Context, path string, kind catalog.Kind) (*Result, error) {
	exact, err := ExactFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "signature", "exact", path, err)
	}

	result := &Result{ExactSig: exact}
	switch kind {
	case catalog.KindImage:
		if err := e.signImage(path, result); err != nil {
			return nil, err
		}
	case catalog.KindVideo:
		e.signVideo(ctx, path, result)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "signature", "sign", fmt.Sprintf("unsupported kind %q", kind), nil)
	}
	return result, nil
}

func (e *Engine) signImage(path string, result *Result) error {
	f, err := os.Open(path)
	if err != nil {
		return services.Wrap(services.ErrTransient, "signature", "decode", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return services.Wrap(services.ErrDecode, "signature", "decode", path, err)
	}

	bounds := img.Bounds()
	result.Width = bounds.Dx()
	result.Height = bounds.Dy()
	hash := DifferenceHash(img)
	result.Perceptual = &hash
	return nil
}

func (e *Engine) signVideo(ctx context.Context, path string, result *Result) {
	if e.sampler == nil || e.sampleFrames <= 0 {
		return
	}

	if prober, ok := e.sampler.(Prober); ok {
		if width, height, err := prober.ProbeDimensions(ctx, path); err == nil {
			result.Width = width
			result.Height = height
		}
	}

	frames, err := e.sampler.ExtractFrames(ctx, path, e.sampleFrames)
	if err != nil {
		e.log.Warn("frame extraction failed, keeping exact signature only",
			"path", path, "error", err)
		return
	}
	if len(frames) == 0 {
		e.log.Warn("no frames extracted, keeping exact signature only", "path", path)
		return
	}

	hashes := make([]uint64, 0, len(frames))
	for _, frame := range frames {
		hashes = append(hashes, DifferenceHash(frame))
	}
	combined := CombineFrameHashes(hashes)
	result.Perceptual = &combined

	if result.Width == 0 {
		bounds := frames[0].Bounds()
		result.Width = bounds.Dx()
		result.Height = bounds.Dy()
	}
}
