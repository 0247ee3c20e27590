package junk_test

import (
	"testing"

	"mediascan/internal/junk"
)

func TestClassifyPrecedence(t *testing.T) {
	rules := junk.DefaultRules(10_000, 64)

	tests := []struct {
		name      string
		candidate junk.Candidate
		wantRule  string
	}{
		{
			name:      "unreadable beats everything",
			candidate: junk.Candidate{Path: "/media/thumbs.db", Size: 0, SigningFailed: true},
			wantRule:  "unreadable",
		},
		{
			name:      "zero byte thumbnail is too small, not a system file",
			candidate: junk.Candidate{Path: "/media/thumbs.db", Size: 0},
			wantRule:  "too-small",
		},
		{
			name:      "tiny image is too small before low resolution",
			candidate: junk.Candidate{Path: "/media/pic.jpg", Size: 500, Width: 10, Height: 10},
			wantRule:  "too-small",
		},
		{
			name:      "low resolution",
			candidate: junk.Candidate{Path: "/media/icon.png", Size: 50_000, Width: 32, Height: 32},
			wantRule:  "low-resolution",
		},
		{
			name:      "system file by exact name",
			candidate: junk.Candidate{Path: "/media/Desktop.ini", Size: 50_000},
			wantRule:  "system-file",
		},
		{
			name:      "thumbnail by substring",
			candidate: junk.Candidate{Path: "/media/vacation_thumbnail.jpg", Size: 50_000, Width: 800, Height: 600},
			wantRule:  "system-file",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			verdict := junk.Classify(rules, tc.candidate)
			if !verdict.IsJunk {
				t.Fatalf("expected junk verdict for %+v", tc.candidate)
			}
			if verdict.Rule != tc.wantRule {
				t.Fatalf("expected rule %q, got %q (%s)", tc.wantRule, verdict.Rule, verdict.Reason)
			}
		})
	}
}

func TestClassifyCleanFile(t *testing.T) {
	rules := junk.DefaultRules(10_000, 64)
	verdict := junk.Classify(rules, junk.Candidate{
		Path:   "/media/holiday/beach.jpg",
		Size:   2_000_000,
		Width:  4032,
		Height: 3024,
	})
	if verdict.IsJunk {
		t.Fatalf("expected clean verdict, got %+v", verdict)
	}
	if verdict.Rule != "" || verdict.Reason != "" {
		t.Fatalf("clean verdict should be zero, got %+v", verdict)
	}
}

func TestClassifyUnknownDimensionsSkipResolutionRule(t *testing.T) {
	rules := junk.DefaultRules(10_000, 64)
	verdict := junk.Classify(rules, junk.Candidate{
		Path: "/media/clip.mp4",
		Size: 5_000_000,
	})
	if verdict.IsJunk {
		t.Fatalf("files without known dimensions must not match the resolution rule, got %+v", verdict)
	}
}
