package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRulesListsInExecutionOrder(t *testing.T) {
	rulesPath, _ := workspace(t)

	out, err := executeCommand(newRootCmd(), "rules", "--rules", rulesPath)
	require.NoError(t, err)
	require.Contains(t, out, "demo ("+rulesPath+")")
	require.Contains(t, out, "symbol-absent(useChartColors)")

	grid := bytes.Index([]byte(out), []byte("grid-stroke"))
	hook := bytes.Index([]byte(out), []byte("colors-hook"))
	require.True(t, grid >= 0 && hook > grid)
}

func TestRulesWarnsAboutUnboundCaptures(t *testing.T) {
	dir := t.TempDir()
	rulesPath := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(rulesPath, []byte(`version: "1.0.0"
name: unbound
rules:
  - id: uses-unbound
    pattern: "<Bar %{attrs:attrs}/>"
    template: "<Bar %{attrs}%{extra} />"
`), 0o644))

	root := newRootCmd()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetArgs([]string{"rules", "--json", "--rules", rulesPath})

	require.NoError(t, root.Execute())
	require.Contains(t, out.String(), `"unbound": [`)
	require.Contains(t, errOut.String(), "template references captures")
	require.Contains(t, errOut.String(), "extra")
}

func TestRulesListsBuiltins(t *testing.T) {
	out, err := executeCommand(newRootCmd(), "rules", "--builtins")
	require.NoError(t, err)
	require.Contains(t, out, "chart-theme")
}
