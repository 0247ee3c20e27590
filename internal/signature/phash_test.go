package signature_test

import (
	"image"
	"image/color"
	"testing"

	"mediascan/internal/signature"
	"mediascan/internal/testsupport"
)

// rampImage renders a pure horizontal brightness ramp. Every row is strictly
// increasing, so the difference hash has all 64 bits set at any resolution.
func rampImage(width, height int) image.Image {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(255 * x / max(width-1, 1))})
		}
	}
	return img
}

func TestDifferenceHashDeterministic(t *testing.T) {
	img := testsupport.GradientImage(120, 90)
	if signature.DifferenceHash(img) != signature.DifferenceHash(img) {
		t.Fatal("hash of the same image must be stable")
	}
}

func TestDifferenceHashSurvivesResize(t *testing.T) {
	large := signature.DifferenceHash(rampImage(180, 120))
	small := signature.DifferenceHash(rampImage(45, 30))
	if d := signature.Distance(large, small); d != 0 {
		t.Fatalf("resized ramp should hash identically, distance %d", d)
	}
	if large != ^uint64(0) {
		t.Fatalf("ramp should set every bit, got %016x", large)
	}
}

func TestDifferenceHashSeparatesContent(t *testing.T) {
	ramp := signature.DifferenceHash(rampImage(100, 80))
	flat := signature.DifferenceHash(testsupport.FlatImage(100, 80, color.Gray{Y: 128}))
	if d := signature.Distance(ramp, flat); d <= 8 {
		t.Fatalf("unrelated images should be far apart, distance %d", d)
	}
}

func TestDistance(t *testing.T) {
	if d := signature.Distance(0, 0); d != 0 {
		t.Fatalf("expected 0, got %d", d)
	}
	if d := signature.Distance(0, ^uint64(0)); d != 64 {
		t.Fatalf("expected 64, got %d", d)
	}
	if d := signature.Distance(0b1010, 0b0110); d != 2 {
		t.Fatalf("expected 2, got %d", d)
	}
}

func TestCombineFrameHashesMajority(t *testing.T) {
	all := ^uint64(0)
	combined := signature.CombineFrameHashes([]uint64{all, all, 0})
	if combined != all {
		t.Fatalf("two of three frames should win the vote, got %016x", combined)
	}

	// Exact ties resolve to the bit being set.
	tied := signature.CombineFrameHashes([]uint64{all, 0})
	if tied != all {
		t.Fatalf("ties should set the bit, got %016x", tied)
	}

	if signature.CombineFrameHashes(nil) != 0 {
		t.Fatal("no frames should combine to zero")
	}
}
