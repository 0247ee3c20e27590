// Package frames extracts still frames from video files by shelling out to
// ffmpeg and ffprobe. Timeouts, non-zero exits, and partial extraction are
// handled here; callers receive decoded frames or a classified error.
package frames

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"mediascan/internal/config"
	"mediascan/internal/logging"
	"mediascan/internal/services"
)

// FFmpeg samples frames through external ffmpeg/ffprobe binaries.
type FFmpeg struct {
	ffmpegBinary   string
	ffprobeBinary  string
	probeTimeout   time.Duration
	extractTimeout time.Duration
	log            *slog.Logger
}

// NewFFmpeg constructs a sampler from the video configuration.
func NewFFmpeg(cfg *config.Config, logger *slog.Logger) *FFmpeg {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &FFmpeg{
		ffmpegBinary:   cfg.Video.FFmpegBinary,
		ffprobeBinary:  cfg.Video.FFprobeBinary,
		probeTimeout:   cfg.ProbeTimeout(),
		extractTimeout: cfg.ExtractTimeout(),
		log:            logging.WithComponent(logger, "frames"),
	}
}

type probeInfo struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ExtractFrames decodes count frames spaced evenly through the video. Frames
// that fail to extract are skipped; zero usable frames yields a classified
// error so callers can fall back to the exact signature.
func (f *FFmpeg) ExtractFrames(ctx context.Context, path string, count int) ([]image.Image, error) {
	if count <= 0 {
		return nil, nil
	}

	info, err := f.probe(ctx, path)
	if err != nil {
		return nil, err
	}
	duration := parseDuration(info.Format.Duration)
	if duration <= 0 {
		return nil, services.Wrap(services.ErrExternalTool, "frames", "probe", fmt.Sprintf("no duration reported for %s", path), nil)
	}

	tempDir, err := os.MkdirTemp("", "mediascan-frames-")
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "frames", "extract", "create temp dir", err)
	}
	defer os.RemoveAll(tempDir)

	var (
		frames  []image.Image
		lastErr error
	)
	for i := 0; i < count; i++ {
		offset := frameOffset(duration, i, count)
		dest := filepath.Join(tempDir, fmt.Sprintf("frame-%03d.jpg", i))
		if err := f.extractOne(ctx, path, offset, dest); err != nil {
			lastErr = err
			f.log.Warn("frame extraction failed", "path", path, "offset", offset, "error", err)
			continue
		}
		frame, err := decodeFrame(dest)
		if err != nil {
			lastErr = err
			f.log.Warn("frame decode failed", "path", path, "offset", offset, "error", err)
			continue
		}
		frames = append(frames, frame)
	}

	if len(frames) == 0 {
		marker := services.ErrExternalTool
		if errors.Is(lastErr, context.DeadlineExceeded) {
			marker = services.ErrTimeout
		}
		return nil, services.Wrap(marker, "frames", "extract", fmt.Sprintf("no frames extracted from %s", path), lastErr)
	}
	return frames, nil
}

// ProbeDimensions returns the pixel dimensions of the first video stream.
func (f *FFmpeg) ProbeDimensions(ctx context.Context, path string) (int, int, error) {
	info, err := f.probe(ctx, path)
	if err != nil {
		return 0, 0, err
	}
	for _, stream := range info.Streams {
		if strings.EqualFold(stream.CodecType, "video") && stream.Width > 0 {
			return stream.Width, stream.Height, nil
		}
	}
	return 0, 0, services.Wrap(services.ErrExternalTool, "frames", "probe", fmt.Sprintf("no video stream in %s", path), nil)
}

func (f *FFmpeg) probe(ctx context.Context, path string) (probeInfo, error) {
	probeCtx := ctx
	if f.probeTimeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, f.probeTimeout)
		defer cancel()
	}

	binary := f.ffprobeBinary
	if strings.TrimSpace(binary) == "" {
		binary = "ffprobe"
	}
	cmd := exec.CommandContext(probeCtx, binary,
		"-v", "error",
		"-hide_banner",
		"-show_format",
		"-show_streams",
		"-of", "json",
		"--", path,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		marker := services.ErrExternalTool
		if errors.Is(probeCtx.Err(), context.DeadlineExceeded) {
			marker = services.ErrTimeout
		}
		return probeInfo{}, services.Wrap(marker, "frames", "probe",
			fmt.Sprintf("ffprobe %s: %s", path, strings.TrimSpace(string(output))), err)
	}

	var info probeInfo
	if err := json.Unmarshal(output, &info); err != nil {
		return probeInfo{}, services.Wrap(services.ErrExternalTool, "frames", "probe", "parse ffprobe output", err)
	}
	return info, nil
}

func (f *FFmpeg) extractOne(ctx context.Context, path string, offset float64, dest string) error {
	extractCtx := ctx
	if f.extractTimeout > 0 {
		var cancel context.CancelFunc
		extractCtx, cancel = context.WithTimeout(ctx, f.extractTimeout)
		defer cancel()
	}

	binary := f.ffmpegBinary
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", strconv.FormatFloat(offset, 'f', 3, 64),
		"-i", path,
		"-frames:v", "1",
		"-q:v", "2",
		dest,
	}
	cmd := exec.CommandContext(extractCtx, binary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		if errors.Is(extractCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("ffmpeg extract: %w", context.DeadlineExceeded)
		}
		return fmt.Errorf("ffmpeg extract: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

func decodeFrame(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frame: %w", err)
	}
	defer file.Close()

	frame, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return frame, nil
}

// frameOffset spaces count frames evenly through the video, avoiding the very
// start and end where title cards and credits are common.
func frameOffset(duration float64, index, count int) float64 {
	return duration * float64(index+1) / float64(count+1)
}

func parseDuration(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return parsed
}
