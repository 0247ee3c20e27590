// Package junk classifies media files that are unlikely to be worth keeping.
// Rules are ordered data; the first matching rule decides the verdict.
package junk

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Candidate is the evidence a rule may inspect. Width and height are zero when
// dimensions are unknown (videos without a probe, files that failed to sign).
type Candidate struct {
	Path          string
	Size          int64
	Width         int
	Height        int
	SigningFailed bool
}

// Verdict records the classification outcome.
type Verdict struct {
	IsJunk bool
	Rule   string
	Reason string
}

// Rule pairs a predicate with a stable identifier and a human-readable reason.
type Rule struct {
	ID     string
	Reason string
	Match  func(Candidate) bool
}

// systemNames are exact basenames produced by operating systems and gallery
// software rather than by cameras.
var systemNames = map[string]struct{}{
	"thumbs.db":   {},
	".ds_store":   {},
	"desktop.ini": {},
}

// DefaultRules returns the standard rule chain. Order matters: an unreadable
// file is reported as unreadable even when its name also looks like a
// thumbnail.
func DefaultRules(minBytes int64, minPixels int) []Rule {
	return []Rule{
		{
			ID:     "unreadable",
			Reason: "unreadable",
			Match: func(c Candidate) bool {
				return c.SigningFailed
			},
		},
		{
			ID:     "too-small",
			Reason: fmt.Sprintf("smaller than %d bytes", minBytes),
			Match: func(c Candidate) bool {
				return c.Size < minBytes
			},
		},
		{
			ID:     "low-resolution",
			Reason: fmt.Sprintf("resolution below %dpx", minPixels),
			Match: func(c Candidate) bool {
				if c.Width <= 0 || c.Height <= 0 {
					return false
				}
				return c.Width < minPixels || c.Height < minPixels
			},
		},
		{
			ID:     "system-file",
			Reason: "system/thumbnail file",
			Match: func(c Candidate) bool {
				name := strings.ToLower(filepath.Base(c.Path))
				if _, ok := systemNames[name]; ok {
					return true
				}
				return strings.Contains(name, "thumb")
			},
		},
	}
}

// Classify evaluates the rules in order and returns the first match. A clean
// candidate yields a zero Verdict.
func Classify(rules []Rule, c Candidate) Verdict {
	for _, rule := range rules {
		if rule.Match(c) {
			return Verdict{IsJunk: true, Rule: rule.ID, Reason: rule.Reason}
		}
	}
	return Verdict{}
}
