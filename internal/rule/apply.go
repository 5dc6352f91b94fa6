package rule

import (
	"errors"
	"slices"
	"strings"

	"github.com/alexisbeaulieu97/retag/internal/markup"
	"github.com/alexisbeaulieu97/retag/internal/pattern"
	retagerrors "github.com/alexisbeaulieu97/retag/pkg/errors"
)

// Outcome is the result of applying one rule to one text.
type Outcome struct {
	Text string
	// Spans are the sites that were rewritten, in input offsets, sorted and
	// pairwise disjoint.
	Spans []pattern.Span
	// Skipped counts sites where the guard found the effect already present.
	Skipped int
	// Missing lists routine names that were not found.
	Missing []string
	// Targets counts applied edits per tag or routine name.
	Targets map[string]int
}

// Applied returns the number of sites modified.
func (o Outcome) Applied() int {
	return len(o.Spans)
}

type edit struct {
	start  int
	end    int
	text   string
	site   pattern.Span
	target string
}

type collector struct {
	rule    *Rule
	text    string
	edits   []edit
	skipped int
	missing []string
}

// Apply runs the rule once over text. When no site is rewritten the returned
// text is the input itself. On an unbound capture the edits collected before
// the failing site are applied and returned alongside the error, which is an
// *errors.UnboundCaptureError carrying the rule id and the site offset.
func (r *Rule) Apply(text string) (Outcome, error) {
	c := &collector{rule: r, text: text}

	var err error
	switch r.scope {
	case ScopeDocument:
		err = c.document()
	case ScopeTag:
		err = c.tags()
	case ScopeAttribute:
		err = c.attributes()
	case ScopeRoutine:
		err = c.routines()
	case ScopeBlock:
		err = c.blocks()
	}

	out := c.splice()
	out.Missing = c.missing
	return out, err
}

func (c *collector) expand(captures pattern.Captures, offset int) (string, error) {
	out, err := c.rule.template.Expand(captures)
	if err != nil {
		var unbound *retagerrors.UnboundCaptureError
		if errors.As(err, &unbound) {
			unbound.RuleID = c.rule.id
			unbound.Offset = offset
		}
		return "", err
	}
	return out, nil
}

// replace records a replacement of site, counting it as skipped when the
// replacement would not change the text.
func (c *collector) replace(site pattern.Span, start, end int, replacement, target string) {
	if c.text[start:end] == replacement {
		c.skipped++
		return
	}
	c.edits = append(c.edits, edit{start: start, end: end, text: replacement, site: site, target: target})
}

func (c *collector) document() error {
	for span := range c.rule.pattern.Scan(c.text) {
		out, err := c.expand(span.Captures, span.Start)
		if err != nil {
			return err
		}
		c.replace(span, span.Start, span.End, out, "")
	}
	return nil
}

func (c *collector) tags() error {
	for span := range c.rule.pattern.Scan(c.text) {
		tag, ok := c.targetTag(span)
		if !ok {
			continue
		}
		site := Site{Span: span, Tag: &tag}
		if c.rule.guard.Present(c.text, site) {
			c.skipped++
			continue
		}
		out, err := c.expand(span.Captures, span.Start)
		if err != nil {
			return err
		}
		at := tag.InsertionPoint(c.text)
		c.edits = append(c.edits, edit{start: at, end: at, text: " " + strings.TrimSpace(out), site: span, target: tag.Name})
	}
	return nil
}

// targetTag picks the tag a tag-scope match inserts into: the first tag named
// after the rule's tag inside the span, or the tag opening the span.
func (c *collector) targetTag(span pattern.Span) (markup.Tag, bool) {
	if c.rule.tag == "" {
		return markup.TagAt(c.text, span.Start)
	}
	for _, tag := range markup.TagsIn(c.text, span.Start, span.End) {
		if tag.Name == c.rule.tag {
			return tag, true
		}
	}
	return markup.Tag{}, false
}

func (c *collector) attributes() error {
	for _, tag := range markup.ScanTags(c.text) {
		if tag.Name != c.rule.tag {
			continue
		}
		attr, ok := tag.Attr(c.rule.attribute)
		if !ok || !attr.HasValue() {
			continue
		}
		for local := range c.rule.pattern.Scan(attr.Value(c.text)) {
			span := local.Shift(attr.ValueStart)
			out, err := c.expand(span.Captures, span.Start)
			if err != nil {
				return err
			}
			c.replace(span, span.Start, span.End, out, tag.Name)
		}
	}
	return nil
}

func (c *collector) routines() error {
	seen := make(map[int]struct{})
	for _, name := range c.rule.routines {
		captures := pattern.Captures{{Name: CaptureRoutine, Value: name, Start: -1, End: -1}}
		anchor, err := c.rule.anchor.Expand(captures)
		if err != nil {
			return err
		}

		found := markup.FindRoutines(c.text, anchor, name)
		if len(found) == 0 {
			c.missing = append(c.missing, name)
			continue
		}

		for i := range found {
			routine := found[i]
			if _, dup := seen[routine.Open]; dup {
				continue
			}
			seen[routine.Open] = struct{}{}

			span := pattern.Span{Start: routine.Start, End: routine.Open + 1, Captures: pattern.Captures{
				{Name: CaptureRoutine, Value: name, Start: routine.Start, End: routine.End},
			}}
			statement, err := c.expand(span.Captures, routine.Start)
			if err != nil {
				return err
			}
			statement = strings.TrimSpace(statement)
			if !strings.HasSuffix(statement, ";") {
				statement += ";"
			}

			site := Site{Span: span, Routine: &routine, Insert: statement}
			if c.rule.guard.Present(c.text, site) {
				c.skipped++
				continue
			}
			at := routine.Open + 1
			c.edits = append(c.edits, edit{start: at, end: at, text: bodyInsertion(c.text, routine, statement), site: span, target: name})
		}
	}
	return nil
}

// bodyInsertion formats statement as the first statement of the routine body.
// A body that starts on the brace line keeps the statement on that line;
// otherwise the statement gets its own line indented like the body.
func bodyInsertion(text string, routine markup.Routine, statement string) string {
	first := routine.Open + 1
	for first < routine.Close && markup.IsSpace(text[first]) {
		first++
	}
	if !strings.Contains(text[routine.Open+1:first], "\n") {
		if first == routine.Close && first == routine.Open+1 {
			return " " + statement + " "
		}
		return " " + statement
	}

	indent := markup.LineIndent(text, first)
	if first == routine.Close {
		indent = markup.LineIndent(text, routine.Start) + "  "
	}
	return "\n" + indent + statement
}

func (c *collector) blocks() error {
	last := 0
	for span := range c.rule.pattern.Scan(c.text) {
		if span.Start < last {
			continue
		}
		closeAt := markup.FindClosing(c.text, span.End, c.rule.closing)
		if closeAt < 0 {
			continue
		}
		body := c.text[span.End:closeAt]
		if !c.bodyQualifies(body) {
			continue
		}
		end := closeAt + len(c.rule.closing)
		site := pattern.Span{Start: span.Start, End: end, Captures: span.Captures.With(CaptureBody, body, span.End, closeAt)}
		out, err := c.expand(site.Captures, site.Start)
		if err != nil {
			return err
		}
		c.replace(site, site.Start, site.End, out, "")
		last = end
	}
	return nil
}

func (c *collector) bodyQualifies(body string) bool {
	if len(c.rule.contains) == 0 {
		return true
	}
	collapsed := markup.CollapseSpace(body)
	for _, fragment := range c.rule.contains {
		if !strings.Contains(collapsed, fragment) {
			return false
		}
	}
	return true
}

// splice applies the collected edits in offset order. An edit that overlaps
// an earlier one, or inserts at the same offset, is dropped.
func (c *collector) splice() Outcome {
	out := Outcome{Text: c.text, Skipped: c.skipped}
	if len(c.edits) == 0 {
		return out
	}

	slices.SortStableFunc(c.edits, func(a, b edit) int {
		return a.start - b.start
	})

	var b strings.Builder
	b.Grow(len(c.text))
	out.Targets = make(map[string]int)
	cursor := 0
	prevStart := -1
	for _, e := range c.edits {
		if e.start < cursor || e.start == prevStart {
			out.Skipped++
			continue
		}
		b.WriteString(c.text[cursor:e.start])
		b.WriteString(e.text)
		cursor = e.end
		prevStart = e.start
		out.Spans = append(out.Spans, e.site)
		if e.target != "" {
			out.Targets[e.target]++
		}
	}
	b.WriteString(c.text[cursor:])
	out.Text = b.String()

	slices.SortStableFunc(out.Spans, func(a, b pattern.Span) int {
		return a.Start - b.Start
	})
	return out
}
