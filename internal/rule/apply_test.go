package rule

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/retag/internal/markup"
	retagerrors "github.com/alexisbeaulieu97/retag/pkg/errors"
)

const chartFixture = `export function PriceVolumeContent() {
  const data = usePrice();
  return (
    <Card title="Volume">
      <ResponsiveContainer width="100%" height={300}>
        <BarChart data={volumeSeries}>
          <CartesianGrid strokeDasharray="3 3" stroke="#e5e7eb" />
          <XAxis dataKey="day" tick={{ fontSize: 12 }} stroke="#6b7280" />
          <Tooltip
            contentStyle={{
              backgroundColor: "#fff",
              border: "1px solid #e5e7eb",
              borderRadius: "8px",
              fontSize: "12px",
            }}
          />
          <Line stroke="#e5e7eb" />
        </BarChart>
      </ResponsiveContainer>
    </Card>
  );
}

function LiquidityContent() { return null; }
`

func fixtureRules(t *testing.T) []*Rule {
	t.Helper()
	return []*Rule{
		mustBuild(t, Spec{
			ID:       "card-data",
			Scope:    "tag",
			Tag:      "Card",
			Pattern:  `<Card %{_:attrs}> <ResponsiveContainer %{_:attrs}> <%{chart:ident} data={%{data}}`,
			Template: `data={%{data}}`,
		}),
		mustBuild(t, Spec{
			ID:       "colors-hook",
			Scope:    "routine",
			Routines: []string{"PriceVolumeContent", "LiquidityContent", "InstrumentContent"},
			Template: "const chartColors = useChartColors()",
			Provider: "useChartColors",
		}),
		mustBuild(t, Spec{
			ID:        "grid-stroke",
			Scope:     "attribute",
			Tag:       "CartesianGrid",
			Attribute: "stroke",
			Pattern:   `"#e5e7eb"`,
			Template:  `{chartColors.grid}`,
		}),
		mustBuild(t, Spec{
			ID:       "xaxis-colors",
			Pattern:  `<XAxis %{pre:attrs}tick={{ fontSize: %{size:number} }} stroke="#6b7280"`,
			Template: `<XAxis %{pre}tick={{ fontSize: %{size}, fill: chartColors.text }} stroke={chartColors.text}`,
		}),
		mustBuild(t, Spec{
			ID:       "tooltip-style",
			Scope:    "block",
			Pattern:  `contentStyle={{`,
			Close:    `}}`,
			Contains: []string{`backgroundColor: "#fff",`, `border: "1px solid #e5e7eb",`},
			Template: `contentStyle={getTooltipStyle(chartColors)}`,
		}),
	}
}

func applyAll(t *testing.T, rules []*Rule, text string) (string, []Outcome) {
	t.Helper()
	outcomes := make([]Outcome, 0, len(rules))
	for _, r := range rules {
		out, err := r.Apply(text)
		require.NoError(t, err, r.ID())
		outcomes = append(outcomes, out)
		text = out.Text
	}
	return text, outcomes
}

func TestTagInsertionAcrossLines(t *testing.T) {
	t.Parallel()

	r := mustBuild(t, Spec{
		ID:       "card-data",
		Scope:    "tag",
		Tag:      "Card",
		Pattern:  `<Card %{_:attrs}> <%{chart:ident} data={%{data}}`,
		Template: `data={%{data}}`,
	})
	text := "<Card title=\"X\">\n      <Bar data={series}>"

	out, err := r.Apply(text)
	require.NoError(t, err)
	require.Equal(t, 1, out.Applied())
	require.Equal(t, "<Card title=\"X\" data={series}>\n      <Bar data={series}>", out.Text)
	require.Equal(t, map[string]int{"Card": 1}, out.Targets)

	again, err := r.Apply(out.Text)
	require.NoError(t, err)
	require.Zero(t, again.Applied())
	require.Equal(t, 1, again.Skipped)
	require.Equal(t, out.Text, again.Text)
}

func TestTagInsertionCopiesStringsWhole(t *testing.T) {
	t.Parallel()

	r := mustBuild(t, Spec{ID: "card-data", Scope: "tag", Pattern: `<Card%{_:attrs}> <Bar data={%{data}}`, Template: `data={%{data}}`})
	text := "<Card>\n  <Bar data={\"}\" + x}>"

	out, err := r.Apply(text)
	require.NoError(t, err)
	require.Equal(t, 1, out.Applied())
	require.Equal(t, "<Card data={\"}\" + x}>\n  <Bar data={\"}\" + x}>", out.Text)
}

func TestTagInsertionDefaultsToSpanStart(t *testing.T) {
	t.Parallel()

	r := mustBuild(t, Spec{ID: "lazy", Scope: "tag", Pattern: `<img %{_:attrs}/>`, Template: `loading="lazy"`})
	text := `<img src="a.png" /><img src="b.png" loading="eager" />`

	out, err := r.Apply(text)
	require.NoError(t, err)
	require.Equal(t, `<img src="a.png" loading="lazy" /><img src="b.png" loading="eager" />`, out.Text)
	require.Equal(t, 1, out.Skipped)

	lookalike := `<imgix src="a.png" />`
	out, err = r.Apply(lookalike)
	require.NoError(t, err)
	require.Zero(t, out.Applied())
	require.Equal(t, lookalike, out.Text)
}

func TestRoutineInsertionSameLine(t *testing.T) {
	t.Parallel()

	r := mustBuild(t, Spec{ID: "init", Scope: "routine", Routines: []string{"F"}, Template: "initTheme()", Provider: "initTheme"})

	out, err := r.Apply("function F() { return 1; }")
	require.NoError(t, err)
	require.Equal(t, "function F() { initTheme(); return 1; }", out.Text)
	require.Equal(t, 1, out.Applied())

	again, err := r.Apply(out.Text)
	require.NoError(t, err)
	require.Zero(t, again.Applied())
	require.Equal(t, 1, again.Skipped)
	require.Equal(t, out.Text, again.Text)
}

func TestRoutineInsertionOwnLineKeepsIndent(t *testing.T) {
	t.Parallel()

	r := mustBuild(t, Spec{ID: "init", Scope: "routine", Routines: []string{"Panel"}, Template: "const c = useColors();"})
	text := "function Panel({ rows }: Props) {\n    const data = rows;\n    return data;\n}"

	out, err := r.Apply(text)
	require.NoError(t, err)
	require.Equal(t, "function Panel({ rows }: Props) {\n    const c = useColors();\n    const data = rows;\n    return data;\n}", out.Text)

	again, err := r.Apply(out.Text)
	require.NoError(t, err)
	require.Zero(t, again.Applied())
}

func TestRoutineInsertionEmptyBodies(t *testing.T) {
	t.Parallel()

	r := mustBuild(t, Spec{ID: "init", Scope: "routine", Routines: []string{"A", "B"}, Template: "setup()"})
	text := "function A() {}\nfunction B() {\n}"

	out, err := r.Apply(text)
	require.NoError(t, err)
	require.Equal(t, "function A() { setup(); }\nfunction B() {\n  setup();\n}", out.Text)
}

func TestRoutineCustomAnchor(t *testing.T) {
	t.Parallel()

	r := mustBuild(t, Spec{
		ID:       "arrow",
		Scope:    "routine",
		Routines: []string{"Chart"},
		Anchor:   "const %{routine} =",
		Template: "useTrace(%{routine})",
	})
	text := "const Chart = ({ data }: Props) => {\n  return data;\n};"

	out, err := r.Apply(text)
	require.NoError(t, err)
	require.Equal(t, "const Chart = ({ data }: Props) => {\n  useTrace(Chart);\n  return data;\n};", out.Text)
}

func TestRoutineMissingNamesAreRecorded(t *testing.T) {
	t.Parallel()

	r := mustBuild(t, Spec{
		ID:       "hook",
		Scope:    "routine",
		Routines: []string{"A", "B", "C", "D", "E"},
		Template: "const colors = useColors();",
		Provider: "useColors",
	})
	text := "function A() {\n  return 1;\n}\nfunction C() {\n  return 3;\n}\nfunction E() {\n  return 5;\n}\n"

	out, err := r.Apply(text)
	require.NoError(t, err)
	require.Equal(t, 3, out.Applied())
	require.Equal(t, []string{"B", "D"}, out.Missing)
	require.Equal(t, map[string]int{"A": 1, "C": 1, "E": 1}, out.Targets)
	require.Equal(t, 3, strings.Count(out.Text, "useColors()"))
}

func TestAttributeSubstitution(t *testing.T) {
	t.Parallel()

	r := mustBuild(t, Spec{
		ID:        "grid-stroke",
		Scope:     "attribute",
		Tag:       "CartesianGrid",
		Attribute: "stroke",
		Pattern:   `"#e5e7eb"`,
		Template:  `{chartColors.grid}`,
	})
	text := `<CartesianGrid strokeDasharray="3 3" stroke="#e5e7eb" /><Line stroke="#e5e7eb" />`

	out, err := r.Apply(text)
	require.NoError(t, err)
	require.Equal(t, `<CartesianGrid strokeDasharray="3 3" stroke={chartColors.grid} /><Line stroke="#e5e7eb" />`, out.Text)
	require.Equal(t, map[string]int{"CartesianGrid": 1}, out.Targets)

	again, err := r.Apply(out.Text)
	require.NoError(t, err)
	require.Zero(t, again.Applied())
	require.Equal(t, out.Text, again.Text)
}

func TestBlockReplacement(t *testing.T) {
	t.Parallel()

	r := mustBuild(t, Spec{
		ID:       "tooltip",
		Scope:    "block",
		Pattern:  `contentStyle={{`,
		Close:    `}}`,
		Contains: []string{`backgroundColor:   "#fff",`},
		Template: `contentStyle={theme(%{body})}`,
	})
	text := "<Tooltip\n  contentStyle={{\n    backgroundColor: \"#fff\",\n  }}\n/>\n<Legend contentStyle={{ color: \"red\" }} />"

	out, err := r.Apply(text)
	require.NoError(t, err)
	require.Equal(t, 1, out.Applied())
	require.Equal(t, "<Tooltip\n  contentStyle={theme(\n    backgroundColor: \"#fff\",\n  )}\n/>\n<Legend contentStyle={{ color: \"red\" }} />", out.Text)

	body, ok := out.Spans[0].Captures.Get(CaptureBody)
	require.True(t, ok)
	require.Equal(t, "\n    backgroundColor: \"#fff\",\n  ", body)
}

func TestUnboundCaptureIdentifiesRuleAndOffset(t *testing.T) {
	t.Parallel()

	r := mustBuild(t, Spec{ID: "bad", Pattern: `color="%{c}"`, Template: `color={%{colour}}`})
	text := `<a color="red" />`

	out, err := r.Apply(text)
	require.Error(t, err)
	var unbound *retagerrors.UnboundCaptureError
	require.ErrorAs(t, err, &unbound)
	require.Equal(t, "bad", unbound.RuleID)
	require.Equal(t, "colour", unbound.Capture)
	require.Equal(t, strings.Index(text, "color="), unbound.Offset)
	require.Equal(t, text, out.Text)
}

func TestZeroMatchesLeaveTextIdentical(t *testing.T) {
	t.Parallel()

	for _, r := range fixtureRules(t) {
		text := "const untouched = 1;\n"
		out, err := r.Apply(text)
		require.NoError(t, err)
		require.Zero(t, out.Applied(), r.ID())
		require.Equal(t, text, out.Text, r.ID())
	}
}

func TestFixtureRulesAreIdempotent(t *testing.T) {
	t.Parallel()

	rules := fixtureRules(t)
	first, outcomes := applyAll(t, rules, chartFixture)
	for i, r := range rules {
		require.Positive(t, outcomes[i].Applied(), r.ID())
	}
	require.Contains(t, first, `<Card title="Volume" data={volumeSeries}>`)
	require.Contains(t, first, "function PriceVolumeContent() {\n  const chartColors = useChartColors();\n  const data")
	require.Contains(t, first, "function LiquidityContent() { const chartColors = useChartColors(); return null; }")
	require.Contains(t, first, `stroke={chartColors.grid}`)
	require.Contains(t, first, `<Line stroke="#e5e7eb" />`)
	require.Contains(t, first, `tick={{ fontSize: 12, fill: chartColors.text }} stroke={chartColors.text}`)
	require.Contains(t, first, `contentStyle={getTooltipStyle(chartColors)}`)
	require.Equal(t, []string{"InstrumentContent"}, outcomes[1].Missing)

	second, outcomes := applyAll(t, rules, first)
	for i, r := range rules {
		require.Zero(t, outcomes[i].Applied(), r.ID())
	}
	require.Equal(t, first, second)
}

func TestSpansAreSortedAndDisjoint(t *testing.T) {
	t.Parallel()

	r := mustBuild(t, Spec{ID: "hex", Pattern: `"#%{hex:ident}"`, Template: `{palette.c%{hex}}`})
	text := `a="#fff" b="#e5e7eb" c="#abc"`

	out, err := r.Apply(text)
	require.NoError(t, err)
	require.Len(t, out.Spans, 3)
	for i := 1; i < len(out.Spans); i++ {
		require.LessOrEqual(t, out.Spans[i-1].End, out.Spans[i].Start)
	}
}

func TestDeclaredOrderReachesFixedPoint(t *testing.T) {
	t.Parallel()

	grid := mustBuild(t, Spec{
		ID:        "grid-stroke",
		Scope:     "attribute",
		Tag:       "CartesianGrid",
		Attribute: "stroke",
		Pattern:   `"#e5e7eb"`,
		Template:  `{chartColors.grid}`,
	})
	theme := mustBuild(t, Spec{ID: "theme-grid", Pattern: `stroke={chartColors.grid}`, Template: `stroke={theme.grid}`})
	text := `<CartesianGrid stroke="#e5e7eb" />`

	declared, _ := applyAll(t, []*Rule{grid, theme}, text)
	require.Equal(t, `<CartesianGrid stroke={theme.grid} />`, declared)
	again, outcomes := applyAll(t, []*Rule{grid, theme}, declared)
	require.Equal(t, declared, again)
	require.Zero(t, outcomes[0].Applied())
	require.Zero(t, outcomes[1].Applied())

	// theme-grid depends on text produced by grid-stroke, so the swapped
	// order stops one step earlier.
	swapped, outcomes := applyAll(t, []*Rule{theme, grid}, text)
	require.Equal(t, `<CartesianGrid stroke={chartColors.grid} />`, swapped)
	require.Zero(t, outcomes[0].Applied())
}

func TestGuardsStandAlone(t *testing.T) {
	t.Parallel()

	text := "function F() { const c = useColors(); }"
	routines := markup.FindRoutines(text, "function F", "F")
	require.Len(t, routines, 1)
	site := Site{Routine: &routines[0], Insert: "const   c = useColors();"}

	require.True(t, SymbolReferenced{Symbol: "useColors"}.Present(text, site))
	require.False(t, SymbolReferenced{Symbol: "useColor"}.Present(text, site))
	require.True(t, StatementPresent{}.Present(text, site))
	require.False(t, StatementPresent{}.Present(text, Site{Routine: &routines[0], Insert: "init();"}))
	require.False(t, SymbolReferenced{Symbol: "useColors"}.Present(text, Site{}))

	tag, ok := markup.TagAt(`<Card data={x}>`, 0)
	require.True(t, ok)
	require.True(t, AttributeAbsent{Attribute: "data"}.Present("", Site{Tag: &tag}))
	require.False(t, AttributeAbsent{Attribute: "title"}.Present("", Site{Tag: &tag}))
	require.False(t, Structural{}.Present(text, site))
}
