package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/alexisbeaulieu97/retag/internal/pipeline"
	"github.com/alexisbeaulieu97/retag/internal/rule"
	"github.com/alexisbeaulieu97/retag/pkg/diff"
)

const (
	modeApply  = "apply"
	modeDryRun = "dry-run"
	modeCheck  = "check"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	appliedStyle = cellStyle.Foreground(lipgloss.Color("42"))
	skippedStyle = cellStyle.Foreground(lipgloss.Color("244"))
	failedStyle  = cellStyle.Foreground(lipgloss.Color("196")).Bold(true)
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	hunkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	summaryStyle = lipgloss.NewStyle().Bold(true)
)

// renderer writes command output as a styled table on a terminal, plain
// columns when piped, or JSON.
type renderer struct {
	out    io.Writer
	styled bool
	json   bool
}

func newRenderer(cmd *cobra.Command, jsonOutput bool) *renderer {
	out := cmd.OutOrStdout()
	return &renderer{out: out, json: jsonOutput, styled: !jsonOutput && isTerminal(out)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

var resultHeaders = []string{"File", "Rule", "Scope", "Status", "Applied", "Skipped", "Notes"}

// results renders per-rule outcomes for every file, then the diffs when
// showDiff is set.
func (r *renderer) results(origin, mode string, results []fileResult, showDiff bool) error {
	if r.json {
		return r.resultsJSON(origin, mode, results, showDiff)
	}

	var rows [][]string
	for _, res := range results {
		if res.Report == nil {
			rows = append(rows, []string{res.Path, "-", "-", pipeline.StatusFailed, "0", "0", res.Err.Error()})
			continue
		}
		for _, rr := range res.Report.Rules {
			rows = append(rows, []string{
				res.Path,
				rr.RuleID,
				string(rr.Scope),
				rr.Status,
				strconv.Itoa(rr.Applied),
				strconv.Itoa(rr.Skipped),
				ruleNotes(rr),
			})
		}
	}

	if r.styled {
		r.styledTable(resultHeaders, rows, 3)
	} else {
		r.plainTable(resultHeaders, rows)
	}

	fmt.Fprintln(r.out)
	r.summary(mode, results)

	if showDiff {
		for _, res := range results {
			if res.Diff != "" {
				fmt.Fprintln(r.out)
				r.diff(res.Diff)
			}
		}
	}
	return nil
}

func (r *renderer) summary(mode string, results []fileResult) {
	sites, changed, written, failed := 0, 0, 0, 0
	var backups []string
	for _, res := range results {
		if res.Report != nil && res.Err == nil {
			sites += res.Report.Total()
		}
		if res.Changed() {
			changed++
		}
		if res.Written {
			written++
		}
		if res.Backup != "" {
			backups = append(backups, res.Backup)
		}
		if res.Err != nil {
			failed++
		}
	}

	var line string
	switch mode {
	case modeCheck:
		line = fmt.Sprintf("%d site(s) pending in %d of %d file(s)", sites, changed, len(results))
	case modeDryRun:
		line = fmt.Sprintf("%d site(s) would be rewritten in %d of %d file(s), nothing written", sites, changed, len(results))
	default:
		line = fmt.Sprintf("%d site(s) rewritten, %d of %d file(s) written", sites, written, len(results))
	}
	if failed > 0 {
		line += fmt.Sprintf(", %d failed", failed)
	}
	if r.styled {
		line = summaryStyle.Render(line)
	}
	fmt.Fprintln(r.out, line)
	for _, backup := range backups {
		fmt.Fprintf(r.out, "  backup: %s\n", backup)
	}
}

func ruleNotes(rr pipeline.RuleReport) string {
	var notes []string
	if rr.Error != "" {
		notes = append(notes, rr.Error)
	}
	if len(rr.Missing) > 0 {
		notes = append(notes, "missing: "+strings.Join(rr.Missing, ", "))
	}
	return strings.Join(notes, "; ")
}

// diff prints a unified diff, colouring added and removed lines on a terminal.
func (r *renderer) diff(text string) {
	if !r.styled {
		fmt.Fprint(r.out, text)
		return
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		body := strings.TrimSuffix(line, "\n")
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			body = summaryStyle.Render(body)
		case strings.HasPrefix(line, "@@"):
			body = hunkStyle.Render(body)
		case strings.HasPrefix(line, "+"):
			body = addedStyle.Render(body)
		case strings.HasPrefix(line, "-"):
			body = removedStyle.Render(body)
		}
		fmt.Fprintln(r.out, body)
	}
}

type jsonFile struct {
	Path     string           `json:"path"`
	Encoding string           `json:"encoding,omitempty"`
	Changed  bool             `json:"changed"`
	Written  bool             `json:"written"`
	Backup   string           `json:"backup,omitempty"`
	Stats    diff.Stats       `json:"stats"`
	Report   *pipeline.Report `json:"report,omitempty"`
	Diff     string           `json:"diff,omitempty"`
	Error    string           `json:"error,omitempty"`
}

type jsonResults struct {
	Mode    string     `json:"mode"`
	RuleSet string     `json:"rule_set"`
	Total   int        `json:"total"`
	Files   []jsonFile `json:"files"`
}

func (r *renderer) resultsJSON(origin, mode string, results []fileResult, withDiff bool) error {
	output := jsonResults{Mode: mode, RuleSet: origin, Files: make([]jsonFile, len(results))}
	for i, res := range results {
		file := jsonFile{
			Path:     res.Path,
			Encoding: res.Encoding,
			Changed:  res.Changed(),
			Written:  res.Written,
			Backup:   res.Backup,
			Stats:    res.Stats,
			Report:   res.Report,
		}
		if withDiff {
			file.Diff = res.Diff
		}
		if res.Err != nil {
			file.Error = res.Err.Error()
		} else if res.Report != nil {
			output.Total += res.Report.Total()
		}
		output.Files[i] = file
	}
	return r.encode(output)
}

var ruleHeaders = []string{"#", "Rule", "Scope", "Guard", "Description"}

type jsonRule struct {
	ID          string   `json:"id"`
	Scope       string   `json:"scope"`
	Guard       string   `json:"guard"`
	Description string   `json:"description,omitempty"`
	Pattern     string   `json:"pattern,omitempty"`
	Template    string   `json:"template"`
	Routines    []string `json:"routines,omitempty"`
	Unbound     []string `json:"unbound,omitempty"`
}

// rules renders a rule list in execution order.
func (r *renderer) rules(loaded *loadedRules, rules []*rule.Rule) error {
	if r.json {
		list := make([]jsonRule, len(rules))
		for i, ru := range rules {
			list[i] = jsonRule{
				ID:          ru.ID(),
				Scope:       string(ru.Scope()),
				Guard:       ru.Guard().Name(),
				Description: ru.Description(),
				Pattern:     ru.Pattern(),
				Template:    ru.Template(),
				Routines:    ru.Routines(),
				Unbound:     ru.UnboundReferences(),
			}
		}
		return r.encode(map[string]any{"rule_set": loaded.Origin, "name": loaded.Set.Name, "rules": list})
	}

	rows := make([][]string, len(rules))
	for i, ru := range rules {
		rows[i] = []string{strconv.Itoa(i + 1), ru.ID(), string(ru.Scope()), ru.Guard().Name(), ru.Description()}
	}

	title := fmt.Sprintf("%s (%s)", loaded.Set.Name, loaded.Origin)
	if r.styled {
		fmt.Fprintln(r.out, titleStyle.Render(title))
		r.styledTable(ruleHeaders, rows, -1)
	} else {
		fmt.Fprintln(r.out, title)
		r.plainTable(ruleHeaders, rows)
	}
	return nil
}

func (r *renderer) builtins(names []string) error {
	if r.json {
		return r.encode(map[string]any{"builtins": names})
	}
	for _, name := range names {
		fmt.Fprintln(r.out, name)
	}
	return nil
}

func (r *renderer) encode(v any) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// styledTable draws a bordered table. statusCol, when not negative, names the
// column whose cells are coloured by rule status.
func (r *renderer) styledTable(headers []string, rows [][]string, statusCol int) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col != statusCol || row < 0 || row >= len(rows) {
				return cellStyle
			}
			switch rows[row][col] {
			case pipeline.StatusApplied:
				return appliedStyle
			case pipeline.StatusFailed:
				return failedStyle
			default:
				return skippedStyle
			}
		})
	fmt.Fprintln(r.out, t.Render())
}

// plainTable writes left-aligned columns sized to their widest cell.
func (r *renderer) plainTable(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths)-1 && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	writeRow := func(cells []string) {
		var b strings.Builder
		for i, cell := range cells {
			if i == len(cells)-1 {
				b.WriteString(cell)
				continue
			}
			fmt.Fprintf(&b, "%-*s  ", widths[i], cell)
		}
		fmt.Fprintln(r.out, strings.TrimRight(b.String(), " "))
	}

	writeRow(headers)
	for _, row := range rows {
		writeRow(row)
	}
}
