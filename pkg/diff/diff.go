package diff

import (
	"strings"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	maxDiffLines    = 10000
	contextLines    = 3
	truncateMessage = "... (diff truncated, exceeds 10,000 lines) ..."
)

// Stats summarises a character-level edit between two texts.
type Stats struct {
	Inserted int `json:"inserted"`
	Deleted  int `json:"deleted"`
	Edits    int `json:"edits"`
}

// Changed reports whether any characters differ.
func (s Stats) Changed() bool {
	return s.Inserted > 0 || s.Deleted > 0
}

// GenerateUnifiedDiff renders a unified diff between before and after.
// Returns an empty string if the content is identical. Diffs exceeding
// 10,000 lines are truncated with a marker.
func GenerateUnifiedDiff(before, after string, beforeLabel, afterLabel string) string {
	if before == after {
		return ""
	}

	ud := difflib.UnifiedDiff{
		A:        splitLines(before),
		B:        splitLines(after),
		FromFile: beforeLabel,
		ToFile:   afterLabel,
		Context:  contextLines,
	}
	result, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return ""
	}

	lines := strings.Split(result, "\n")
	if len(lines) > maxDiffLines {
		truncated := strings.Join(lines[:maxDiffLines], "\n")
		return truncated + "\n" + truncateMessage + "\n"
	}

	return result
}

// Compute counts inserted and deleted runes between before and after using a
// semantic character diff.
func Compute(before, after string) Stats {
	var stats Stats
	if before == after {
		return stats
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	inEdit := false
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			stats.Inserted += utf8.RuneCountInString(d.Text)
		case diffmatchpatch.DiffDelete:
			stats.Deleted += utf8.RuneCountInString(d.Text)
		case diffmatchpatch.DiffEqual:
			inEdit = false
			continue
		}
		if !inEdit {
			stats.Edits++
			inEdit = true
		}
	}
	return stats
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return difflib.SplitLines(s)
}
