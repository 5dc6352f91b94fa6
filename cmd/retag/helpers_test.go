package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const demoRules = `version: "1.0.0"
name: demo
files:
  - chart.tsx
rules:
  - id: grid-stroke
    scope: attribute
    tag: CartesianGrid
    attribute: stroke
    pattern: '"#e5e7eb"'
    template: "{chartColors.grid}"
  - id: colors-hook
    scope: routine
    routines: [Chart, Missing]
    provider: useChartColors
    template: "const chartColors = useChartColors();"
`

const demoSource = `function Chart() {
  return <CartesianGrid stroke="#e5e7eb" />;
}
`

const demoRewritten = `function Chart() {
  const chartColors = useChartColors();
  return <CartesianGrid stroke={chartColors.grid} />;
}
`

func executeCommand(cmd *cobra.Command, args ...string) (string, error) {
	cmd.SetArgs(args)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	return out.String(), err
}

// workspace writes the demo rule set and source file into a temp dir and
// returns their paths.
func workspace(t *testing.T) (rulesPath, sourcePath string) {
	t.Helper()
	dir := t.TempDir()
	rulesPath = filepath.Join(dir, "rules.yaml")
	sourcePath = filepath.Join(dir, "chart.tsx")
	require.NoError(t, os.WriteFile(rulesPath, []byte(demoRules), 0o644))
	require.NoError(t, os.WriteFile(sourcePath, []byte(demoSource), 0o644))
	return rulesPath, sourcePath
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
