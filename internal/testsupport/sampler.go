package testsupport

import (
	"context"
	"image"
)

// FakeSampler is a frame sampler returning canned frames, for pipeline and
// signature tests that must not shell out to ffmpeg.
type FakeSampler struct {
	Frames []image.Image
	Err    error
	Calls  int
}

// ExtractFrames returns the canned frames or error.
func (f *FakeSampler) ExtractFrames(_ context.Context, _ string, count int) ([]image.Image, error) {
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	if len(f.Frames) > count {
		return f.Frames[:count], nil
	}
	return f.Frames, nil
}
