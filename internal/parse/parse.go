// Package parse splits a natural-language instruction into task candidates.
package parse

import (
	"regexp"
	"strings"
)

const (
	// MaxFragments caps the number of task candidates per instruction.
	MaxFragments = 10
	// minFragmentLen drops stray connector words produced by conjunction splits.
	minFragmentLen = 8
)

var (
	numberedMarkerRe = regexp.MustCompile(`(?m)(^|\s)\d+[.)]\s+`)
	conjunctionRe    = regexp.MustCompile(`(?i)\s*(?:,|;|\band then\b|\bthen\b|\band\b|\balso\b|\bafter that\b)\s*`)
)

// Parse splits one instruction into an ordered list of raw task fragments.
// Strategy, in priority order: numbered-list markers (two or more), then
// coordinating conjunctions and list punctuation, then the whole instruction
// as a single task. The result is capped at MaxFragments.
func Parse(instruction string) []string {
	trimmed := strings.TrimSpace(instruction)
	if trimmed == "" {
		return nil
	}

	if frags := splitNumbered(trimmed); len(frags) >= 2 {
		return capped(frags)
	}

	if frags := splitConjunctions(trimmed); len(frags) >= 2 {
		return capped(frags)
	}

	return []string{trimmed}
}

// splitNumbered splits on numbered-list markers like "1." or "2)".
func splitNumbered(instruction string) []string {
	markers := numberedMarkerRe.FindAllStringIndex(instruction, -1)
	if len(markers) < 2 {
		return nil
	}

	var frags []string
	for i, loc := range markers {
		start := loc[1]
		end := len(instruction)
		if i+1 < len(markers) {
			end = markers[i+1][0]
		}
		if frag := strings.TrimSpace(instruction[start:end]); frag != "" {
			frags = append(frags, frag)
		}
	}
	return frags
}

// splitConjunctions splits on sequencers and list punctuation, keeping only
// fragments above the minimum length.
func splitConjunctions(instruction string) []string {
	parts := conjunctionRe.Split(instruction, -1)

	var frags []string
	for _, part := range parts {
		frag := strings.TrimSpace(strings.Trim(part, ".,;"))
		if len(frag) >= minFragmentLen {
			frags = append(frags, frag)
		}
	}
	return frags
}

func capped(frags []string) []string {
	if len(frags) > MaxFragments {
		return frags[:MaxFragments]
	}
	return frags
}
