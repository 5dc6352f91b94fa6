// Package template renders replacement text from a capture set. Templates use
// the same lexical syntax as patterns: literal text, %{name} references and
// %% for a literal percent sign. Capture values are inserted verbatim.
package template

import (
	"strings"

	"github.com/alexisbeaulieu97/retag/internal/pattern"
	retagerrors "github.com/alexisbeaulieu97/retag/pkg/errors"
)

type part struct {
	literal string
	ref     string
}

// Template is a compiled replacement template. It is immutable.
type Template struct {
	source string
	parts  []part
	refs   []string
}

// Compile parses src. Typed and anonymous references are rejected because a
// template only reads captures.
func Compile(src string) (*Template, error) {
	tokens, err := pattern.Tokenize(src)
	if err != nil {
		return nil, err
	}

	t := &Template{source: src}
	seen := make(map[string]struct{})
	for _, tok := range tokens {
		if tok.Kind != pattern.TokenCapture {
			t.appendLiteral(tok.Text)
			continue
		}
		name, kind, err := pattern.ParseCapture(tok.Text)
		if err != nil {
			return nil, retagerrors.NewPatternSyntaxError(src, tok.Offset, err.Error())
		}
		if kind != "" {
			return nil, retagerrors.NewPatternSyntaxError(src, tok.Offset, "template references cannot declare a kind")
		}
		if name == "" || name == "_" {
			return nil, retagerrors.NewPatternSyntaxError(src, tok.Offset, "template references must be named")
		}
		t.parts = append(t.parts, part{ref: name})
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			t.refs = append(t.refs, name)
		}
	}
	return t, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(src string) *Template {
	t, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Template) appendLiteral(text string) {
	if n := len(t.parts); n > 0 && t.parts[n-1].ref == "" {
		t.parts[n-1].literal += text
		return
	}
	t.parts = append(t.parts, part{literal: text})
}

// Expand renders the template with captures. A reference to a name missing
// from captures fails with *errors.UnboundCaptureError; Offset is left at -1
// for the caller to fill in.
func (t *Template) Expand(captures pattern.Captures) (string, error) {
	var b strings.Builder
	for _, p := range t.parts {
		if p.ref == "" {
			b.WriteString(p.literal)
			continue
		}
		value, ok := captures.Get(p.ref)
		if !ok {
			return "", &retagerrors.UnboundCaptureError{Capture: p.ref, Offset: -1}
		}
		b.WriteString(value)
	}
	return b.String(), nil
}

// References returns the distinct capture names the template reads, in order
// of first use.
func (t *Template) References() []string {
	return append([]string(nil), t.refs...)
}

// String returns the template source.
func (t *Template) String() string {
	return t.source
}
