package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	retagerrors "github.com/alexisbeaulieu97/retag/pkg/errors"
)

const validYAML = `version: "1.0.0"
name: demo
files:
  - src/chart.tsx
settings:
  backup: true
  encoding: latin-1
rules:
  - id: grid-stroke
    scope: attribute
    tag: CartesianGrid
    attribute: stroke
    pattern: '"#e5e7eb"'
    template: "{chartColors.grid}"
  - id: legacy
    pattern: "#000"
    template: black
    enabled: false
`

const validTOML = `version = "1.0.0"
name = "demo"

[settings]
require_clean = true

[[rules]]
id = "colors-hook"
scope = "routine"
routines = ["PriceVolumeContent", "LiquidityContent"]
provider = "useChartColors"
template = "const chartColors = useChartColors();"
`

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestParseRuleSet(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		file     string
		contents string
		assert   func(t *testing.T, rs *RuleSet, err error)
	}{
		{
			name:     "valid yaml",
			file:     "rules.yaml",
			contents: validYAML,
			assert: func(t *testing.T, rs *RuleSet, err error) {
				require.NoError(t, err)
				require.Equal(t, "demo", rs.Name)
				require.Equal(t, []string{"src/chart.tsx"}, rs.Files)
				require.True(t, rs.Settings.Backup)
				require.Equal(t, "latin-1", rs.Settings.FileEncoding())
				require.Len(t, rs.Rules, 2)
				require.True(t, rs.Rules[0].IsEnabled())
				require.False(t, rs.Rules[1].IsEnabled())
			},
		},
		{
			name:     "valid toml",
			file:     "rules.toml",
			contents: validTOML,
			assert: func(t *testing.T, rs *RuleSet, err error) {
				require.NoError(t, err)
				require.True(t, rs.Settings.RequireClean)
				require.Equal(t, "utf-8", rs.Settings.FileEncoding())
				require.Equal(t, []string{"PriceVolumeContent", "LiquidityContent"}, rs.Rules[0].Routines)
				require.Equal(t, "routine", rs.Rules[0].Spec().Scope)
			},
		},
		{
			name:     "yaml syntax error reports line",
			file:     "rules.yaml",
			contents: "version: \"1.0.0\"\nname: demo\nrules:\n  - id: [broken\n",
			assert: func(t *testing.T, rs *RuleSet, err error) {
				var parseErr *retagerrors.ParseError
				require.ErrorAs(t, err, &parseErr)
				require.Positive(t, parseErr.Line)
			},
		},
		{
			name:     "yaml unknown field",
			file:     "rules.yml",
			contents: "version: \"1.0.0\"\nname: demo\nrules:\n  - id: a\n    pattern: x\n    template: y\n    replacement: z\n",
			assert: func(t *testing.T, rs *RuleSet, err error) {
				var parseErr *retagerrors.ParseError
				require.ErrorAs(t, err, &parseErr)
				require.Equal(t, 7, parseErr.Line)
			},
		},
		{
			name:     "toml syntax error reports line",
			file:     "rules.toml",
			contents: "version = \"1.0.0\"\nname = \"demo\"\n[[rules]\n",
			assert: func(t *testing.T, rs *RuleSet, err error) {
				var parseErr *retagerrors.ParseError
				require.ErrorAs(t, err, &parseErr)
				require.Equal(t, 3, parseErr.Line)
			},
		},
		{
			name:     "empty file",
			file:     "rules.yaml",
			contents: "",
			assert: func(t *testing.T, rs *RuleSet, err error) {
				var parseErr *retagerrors.ParseError
				require.ErrorAs(t, err, &parseErr)
				require.Contains(t, parseErr.Message, "empty")
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rs, err := ParseRuleSet(writeFile(t, tc.file, tc.contents))
			tc.assert(t, rs, err)
		})
	}
}

func TestParseRuleSetMissingFile(t *testing.T) {
	t.Parallel()

	_, err := ParseRuleSet(filepath.Join(t.TempDir(), "absent.yaml"))
	var parseErr *retagerrors.ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Zero(t, parseErr.Line)
}

func TestValidateRuleSet(t *testing.T) {
	t.Parallel()

	base := func() *RuleSet {
		return &RuleSet{
			Version: "1.0.0",
			Name:    "demo",
			Rules:   []RuleSpec{{ID: "a", Pattern: "x", Template: "y"}},
		}
	}

	cases := []struct {
		name   string
		mutate func(rs *RuleSet)
		field  string
	}{
		{name: "bad version", mutate: func(rs *RuleSet) { rs.Version = "beta" }, field: "version"},
		{name: "missing name", mutate: func(rs *RuleSet) { rs.Name = "" }, field: "name"},
		{name: "no rules", mutate: func(rs *RuleSet) { rs.Rules = nil }, field: "rules"},
		{name: "bad rule id", mutate: func(rs *RuleSet) { rs.Rules[0].ID = "Grid Stroke" }, field: "rules[0].id"},
		{name: "bad encoding", mutate: func(rs *RuleSet) { rs.Settings.Encoding = "ebcdic" }, field: "settings.encoding"},
		{name: "empty file entry", mutate: func(rs *RuleSet) { rs.Files = []string{""} }, field: "files[0]"},
		{
			name:   "duplicate id",
			mutate: func(rs *RuleSet) { rs.Rules = append(rs.Rules, RuleSpec{ID: "a", Pattern: "z", Template: "w"}) },
			field:  "rules[1].id",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rs := base()
			tc.mutate(rs)
			err := ValidateRuleSet(rs)
			var validationErr *retagerrors.ValidationError
			require.ErrorAs(t, err, &validationErr)
			require.Equal(t, tc.field, validationErr.Field)
		})
	}

	require.NoError(t, ValidateRuleSet(base()))
	require.Error(t, ValidateRuleSet(nil))
}
