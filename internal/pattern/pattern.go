// Package pattern implements whitespace-tolerant structural matching over raw
// source text. A pattern is a sequence of literal anchors, whitespace and
// named captures written as %{name} or %{name:kind}. Captures are non-greedy
// and aware of balanced delimiters, so a capture never swallows an unmatched
// closing brace or stops halfway through a nested expression.
package pattern

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/alexisbeaulieu97/retag/internal/markup"
	retagerrors "github.com/alexisbeaulieu97/retag/pkg/errors"
)

// Kind restricts what a capture may consume.
type Kind string

const (
	KindAny    Kind = "any"
	KindAttrs  Kind = "attrs"
	KindString Kind = "string"
	KindIdent  Kind = "ident"
	KindNumber Kind = "number"
	KindLine   Kind = "line"
)

var (
	kinds = map[Kind]struct{}{
		KindAny: {}, KindAttrs: {}, KindString: {}, KindIdent: {}, KindNumber: {}, KindLine: {},
	}
	captureNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

type elementKind int

const (
	elemLiteral elementKind = iota
	elemSpace
	elemCapture
)

type element struct {
	kind     elementKind
	text     string
	required bool
	name     string
	capture  Kind
	quote    byte
}

// Pattern is a compiled structural pattern. It is immutable and safe to reuse.
type Pattern struct {
	source string
	elems  []element
	names  []string
}

// ParseCapture splits a raw capture body ("name" or "name:kind") into its
// parts. An empty name or "_" denotes an anonymous capture.
func ParseCapture(body string) (string, Kind, error) {
	name, kind, hasKind := strings.Cut(strings.TrimSpace(body), ":")
	name = strings.TrimSpace(name)
	if name != "" && name != "_" && !captureNamePattern.MatchString(name) {
		return "", "", fmt.Errorf("invalid capture name %q", name)
	}
	if !hasKind {
		return name, "", nil
	}
	k := Kind(strings.TrimSpace(kind))
	if _, ok := kinds[k]; !ok {
		return "", "", fmt.Errorf("unknown capture kind %q", k)
	}
	return name, k, nil
}

// Compile parses src into a Pattern. Errors are *errors.PatternSyntaxError.
func Compile(src string) (*Pattern, error) {
	tokens, err := Tokenize(src)
	if err != nil {
		return nil, err
	}

	p := &Pattern{source: src}
	seen := make(map[string]struct{})
	for _, tok := range tokens {
		switch tok.Kind {
		case TokenText:
			p.elems = append(p.elems, element{kind: elemLiteral, text: tok.Text})
		case TokenSpace:
			p.elems = append(p.elems, element{kind: elemSpace})
		case TokenCapture:
			name, kind, err := ParseCapture(tok.Text)
			if err != nil {
				return nil, retagerrors.NewPatternSyntaxError(src, tok.Offset, err.Error())
			}
			if name == "_" {
				name = ""
			}
			if name != "" {
				if _, dup := seen[name]; dup {
					return nil, retagerrors.NewPatternSyntaxError(src, tok.Offset, fmt.Sprintf("duplicate capture name %q", name))
				}
				seen[name] = struct{}{}
				p.names = append(p.names, name)
			}
			p.elems = append(p.elems, element{kind: elemCapture, name: name, capture: kind})
			if last := len(p.elems) - 2; last >= 0 && p.elems[last].kind == elemCapture {
				return nil, retagerrors.NewPatternSyntaxError(src, tok.Offset, "captures must be separated by an anchor")
			}
			if last := len(p.elems) - 3; last >= 0 && p.elems[last].kind == elemCapture && p.elems[last+1].kind == elemSpace {
				return nil, retagerrors.NewPatternSyntaxError(src, tok.Offset, "captures must be separated by an anchor")
			}
		}
	}

	p.elems = trimSpace(p.elems)
	if len(p.elems) == 0 {
		return nil, retagerrors.NewPatternSyntaxError(src, 0, "pattern is empty")
	}
	if p.elems[0].kind != elemLiteral {
		return nil, retagerrors.NewPatternSyntaxError(src, 0, "pattern must start with a literal anchor")
	}

	for i := range p.elems {
		e := &p.elems[i]
		switch e.kind {
		case elemSpace:
			e.required = separatesWords(p.elems[i-1], p.elems[i+1])
		case elemCapture:
			inferKind(p.elems, i)
			if i == len(p.elems)-1 && (e.capture == KindAny || e.capture == KindAttrs || e.capture == KindString) {
				return nil, retagerrors.NewPatternSyntaxError(src, len(src), fmt.Sprintf("trailing %s capture must be followed by an anchor", e.capture))
			}
		}
	}

	return p, nil
}

// String returns the pattern source.
func (p *Pattern) String() string {
	return p.source
}

// Names returns the named captures in order of appearance.
func (p *Pattern) Names() []string {
	return append([]string(nil), p.names...)
}

// Has reports whether the pattern declares a capture named name.
func (p *Pattern) Has(name string) bool {
	for _, n := range p.names {
		if n == name {
			return true
		}
	}
	return false
}

// Anchor returns the leading literal every match begins with.
func (p *Pattern) Anchor() string {
	return p.elems[0].text
}

func trimSpace(elems []element) []element {
	for len(elems) > 0 && elems[0].kind == elemSpace {
		elems = elems[1:]
	}
	for len(elems) > 0 && elems[len(elems)-1].kind == elemSpace {
		elems = elems[:len(elems)-1]
	}
	return elems
}

func endsWord(e element) bool {
	return e.kind == elemLiteral && markup.IsIdentChar(e.text[len(e.text)-1])
}

func startsWord(e element) bool {
	return e.kind == elemLiteral && markup.IsIdentChar(e.text[0])
}

// separatesWords reports whether whitespace between a and b is mandatory.
// Attribute captures may be empty, so they check their own boundaries at
// match time instead.
func separatesWords(a, b element) bool {
	return (endsWord(a) || isValueCapture(a)) && (startsWord(b) || isValueCapture(b))
}

func isValueCapture(e element) bool {
	return e.kind == elemCapture && e.capture != KindAttrs
}

// inferKind resolves the effective kind of the capture at index i. An untyped
// capture wrapped in the same quote character on both sides becomes a string
// capture.
func inferKind(elems []element, i int) {
	e := &elems[i]
	var before, after byte
	if i > 0 && elems[i-1].kind == elemLiteral {
		before = elems[i-1].text[len(elems[i-1].text)-1]
	}
	if i+1 < len(elems) && elems[i+1].kind == elemLiteral {
		after = elems[i+1].text[0]
	}

	switch e.capture {
	case "":
		if before != 0 && before == after && (before == '"' || before == '\'') {
			e.capture = KindString
			e.quote = before
			return
		}
		e.capture = KindAny
	case KindString:
		e.quote = '"'
		if before == '\'' || before == '"' {
			e.quote = before
		}
	}
}
