package pattern

import (
	"iter"
	"strings"

	"github.com/alexisbeaulieu97/retag/internal/markup"
)

// Capture is one named capture bound by a match. Offsets are document offsets.
type Capture struct {
	Name  string
	Value string
	Start int
	End   int
}

// Captures is an ordered capture set; order follows the pattern.
type Captures []Capture

// Get returns the value captured under name.
func (c Captures) Get(name string) (string, bool) {
	for _, capture := range c {
		if capture.Name == name {
			return capture.Value, true
		}
	}
	return "", false
}

// Names returns the capture names in order.
func (c Captures) Names() []string {
	names := make([]string, len(c))
	for i, capture := range c {
		names[i] = capture.Name
	}
	return names
}

// With returns a copy of c with name bound to value, replacing an existing
// binding in place or appending a new one.
func (c Captures) With(name, value string, start, end int) Captures {
	out := make(Captures, len(c), len(c)+1)
	copy(out, c)
	for i := range out {
		if out[i].Name == name {
			out[i] = Capture{Name: name, Value: value, Start: start, End: end}
			return out
		}
	}
	return append(out, Capture{Name: name, Value: value, Start: start, End: end})
}

// Map returns the captures as a name to value map.
func (c Captures) Map() map[string]string {
	m := make(map[string]string, len(c))
	for _, capture := range c {
		m[capture.Name] = capture.Value
	}
	return m
}

// Span is the half-open range consumed by one match plus its captures.
type Span struct {
	Start    int
	End      int
	Captures Captures
}

// Text returns the matched text.
func (s Span) Text(text string) string {
	return text[s.Start:s.End]
}

// Shift returns a copy of the span with every offset moved by delta.
func (s Span) Shift(delta int) Span {
	out := Span{Start: s.Start + delta, End: s.End + delta}
	if s.Captures != nil {
		out.Captures = make(Captures, len(s.Captures))
		for i, c := range s.Captures {
			c.Start += delta
			c.End += delta
			out.Captures[i] = c
		}
	}
	return out
}

// Overlaps reports whether the two spans share at least one byte.
func (s Span) Overlaps(other Span) bool {
	return s.Start < other.End && other.Start < s.End
}

// Scan returns a lazy, left-to-right sequence of non-overlapping matches in
// text. Each call starts a fresh scan of the text it is given.
func (p *Pattern) Scan(text string) iter.Seq[Span] {
	return func(yield func(Span) bool) {
		anchor := p.Anchor()
		pos := 0
		for pos < len(text) {
			idx := strings.Index(text[pos:], anchor)
			if idx < 0 {
				return
			}
			start := pos + idx
			span, ok := p.MatchAt(text, start)
			if !ok {
				pos = start + 1
				continue
			}
			if !yield(span) {
				return
			}
			pos = span.End
		}
	}
}

// FindAll collects every match of Scan.
func (p *Pattern) FindAll(text string) []Span {
	var spans []Span
	for span := range p.Scan(text) {
		spans = append(spans, span)
	}
	return spans
}

// MatchAt attempts an anchored match starting exactly at start. A pattern that
// begins or ends with an identifier character only matches at identifier
// boundaries, so "#fff" never matches inside "#ffffff".
func (p *Pattern) MatchAt(text string, start int) (Span, bool) {
	if startsWord(p.elems[0]) && !wordBoundary(text, start) {
		return Span{}, false
	}
	m := matcher{text: text, elems: p.elems, budget: stepBudget(len(text) - start)}
	end, ok := m.match(0, start)
	if !ok {
		return Span{}, false
	}
	return Span{Start: start, End: end, Captures: m.captures}, true
}

// Captures backtrack, so a pattern with several unanchored captures can take
// polynomial time on adversarial input. Every capture step is charged against
// a budget linear in the remaining text and the attempt fails once it runs
// out.
const (
	stepsPerByte = 16
	minSteps     = 1 << 12
)

func stepBudget(remaining int) int {
	return stepsPerByte*remaining + minSteps
}

type matcher struct {
	text     string
	elems    []element
	captures Captures
	budget   int
}

// wordBoundary reports whether offset i does not split an identifier.
func wordBoundary(text string, i int) bool {
	return i <= 0 || i >= len(text) || !markup.IsIdentChar(text[i-1]) || !markup.IsIdentChar(text[i])
}

func (m *matcher) match(ei, pos int) (int, bool) {
	if ei == len(m.elems) {
		return pos, true
	}
	e := m.elems[ei]
	switch e.kind {
	case elemLiteral:
		if !strings.HasPrefix(m.text[pos:], e.text) {
			return 0, false
		}
		end := pos + len(e.text)
		if ei == len(m.elems)-1 && endsWord(e) && !wordBoundary(m.text, end) {
			return 0, false
		}
		return m.match(ei+1, end)
	case elemSpace:
		end := pos
		for end < len(m.text) && markup.IsSpace(m.text[end]) {
			end++
		}
		if e.required && end == pos {
			return 0, false
		}
		return m.match(ei+1, end)
	default:
		return m.matchCapture(ei, pos)
	}
}

// matchCapture extends the capture at elems[ei] one unit at a time and tries
// the rest of the pattern at every admissible end, shortest first. A trailing
// capture (only ident, number or line kinds may trail) is greedy instead.
// Attribute captures never start or end inside an identifier.
func (m *matcher) matchCapture(ei, pos int) (int, bool) {
	e := m.elems[ei]
	trailing := ei == len(m.elems)-1
	attrs := e.capture == KindAttrs
	if attrs && !wordBoundary(m.text, pos) {
		return 0, false
	}

	var stack []byte
	end := pos
	best := -1
	for {
		m.budget--
		if m.budget < 0 {
			return 0, false
		}
		if len(stack) == 0 && e.accepts(m.text[pos:end]) && (!attrs || wordBoundary(m.text, end)) {
			if trailing {
				best = end
			} else if finish, ok := m.tryRest(ei, pos, end); ok {
				return finish, true
			}
		}
		if end >= len(m.text) {
			break
		}
		next, ok := e.advance(m.text, end, &stack)
		if !ok {
			break
		}
		end = next
	}

	if trailing && best >= 0 {
		return m.tryRest(ei, pos, best)
	}
	return 0, false
}

func (m *matcher) tryRest(ei, pos, end int) (int, bool) {
	e := m.elems[ei]
	mark := len(m.captures)
	if e.name != "" {
		m.captures = append(m.captures, Capture{Name: e.name, Value: m.text[pos:end], Start: pos, End: end})
	}
	if finish, ok := m.match(ei+1, end); ok {
		return finish, true
	}
	m.captures = m.captures[:mark]
	return 0, false
}

// accepts reports whether value is a complete capture of e's kind.
func (e element) accepts(value string) bool {
	switch e.capture {
	case KindIdent:
		return value != "" && markup.IsIdentStart(value[0])
	case KindNumber:
		return value != "" && value[len(value)-1] != '.'
	}
	return true
}

// advance consumes the next unit of text at i for capture e and returns the
// new end. It refuses to step past anything the capture kind may not contain.
func (e element) advance(text string, i int, stack *[]byte) (int, bool) {
	c := text[i]
	switch e.capture {
	case KindIdent:
		if !markup.IsIdentChar(c) {
			return i, false
		}
		return i + 1, true
	case KindNumber:
		if c >= '0' && c <= '9' {
			return i + 1, true
		}
		if c == '.' && i > 0 && text[i-1] >= '0' && text[i-1] <= '9' && i+1 < len(text) && text[i+1] >= '0' && text[i+1] <= '9' {
			return i + 1, true
		}
		return i, false
	case KindString:
		if c == e.quote || c == '\n' {
			return i, false
		}
		return i + 1, true
	case KindLine:
		if c == '\n' {
			return i, false
		}
		return i + 1, true
	}

	depth := len(*stack)
	switch {
	case markup.IsOpener(c):
		*stack = append(*stack, markup.CloserFor(c))
	case markup.IsCloser(c):
		if depth == 0 || (*stack)[depth-1] != c {
			return i, false
		}
		*stack = (*stack)[:depth-1]
	// Strings are consumed whole. A top-level apostrophe after a word is
	// JSX text such as "don't", not a string.
	case markup.IsQuote(c) && !(depth == 0 && c == '\'' && i > 0 && markup.IsIdentChar(text[i-1])):
		return markup.SkipString(text, i), true
	case e.capture == KindAttrs && depth == 0 && (c == '<' || c == '>'):
		return i, false
	}
	return i + 1, true
}
