package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/retag/internal/pipeline"
	"github.com/alexisbeaulieu97/retag/internal/rule"
)

func sampleResults() []fileResult {
	return []fileResult{
		{
			Path: "chart.tsx",
			Report: &pipeline.Report{Rules: []pipeline.RuleReport{
				{RuleID: "grid-stroke", Scope: rule.ScopeAttribute, Status: pipeline.StatusApplied, Applied: 2},
				{RuleID: "colors-hook", Scope: rule.ScopeRoutine, Status: pipeline.StatusSkipped, Missing: []string{"Panel"}},
			}},
			Diff:    "--- a/chart.tsx\n+++ b/chart.tsx\n@@ -1 +1 @@\n-old\n+new\n",
			Written: true,
			Backup:  "chart.tsx.bak",
		},
		{Path: "gone.tsx", Err: errors.New("gone.tsx does not exist")},
	}
}

func TestPlainResultsTable(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	r := &renderer{out: buf}
	require.NoError(t, r.results("rules.yaml", modeApply, sampleResults(), false))

	out := buf.String()
	require.Contains(t, out, "File")
	require.Contains(t, out, "missing: Panel")
	require.Contains(t, out, "gone.tsx does not exist")
	require.Contains(t, out, "2 site(s) rewritten, 1 of 2 file(s) written, 1 failed")
	require.Contains(t, out, "backup: chart.tsx.bak")
	require.NotContains(t, out, "+new")
}

func TestStyledResultsTableAndDiff(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	r := &renderer{out: buf, styled: true}
	require.NoError(t, r.results("rules.yaml", modeDryRun, sampleResults(), true))

	out := buf.String()
	require.Contains(t, out, "╭")
	require.Contains(t, out, "grid-stroke")
	require.Contains(t, out, "would be rewritten")
	require.Contains(t, out, "+new")
	require.Contains(t, out, "-old")
}

func TestPlainTableAlignsColumns(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	r := &renderer{out: buf}
	r.plainTable([]string{"A", "B"}, [][]string{{"long-value", "x"}, {"s", "y"}})
	require.Equal(t, "A           B\nlong-value  x\ns           y\n", buf.String())
}
