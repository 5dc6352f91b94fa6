// Package rule pairs a structural pattern with a replacement template, a scope
// restricting where the pattern applies and a guard that recognises sites
// where the rewrite is already present.
package rule

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/retag/internal/markup"
	"github.com/alexisbeaulieu97/retag/internal/pattern"
	"github.com/alexisbeaulieu97/retag/internal/template"
	retagerrors "github.com/alexisbeaulieu97/retag/pkg/errors"
)

// Scope selects how a rule turns pattern matches into edits.
type Scope string

const (
	ScopeDocument  Scope = "document"
	ScopeTag       Scope = "tag"
	ScopeAttribute Scope = "attribute"
	ScopeRoutine   Scope = "routine"
	ScopeBlock     Scope = "block"
)

// DefaultAnchor locates routines declared with the function keyword.
const DefaultAnchor = "function %{routine}"

var defaultAnchor = template.MustCompile(DefaultAnchor)

// Captures bound by the rule itself rather than by its pattern.
const (
	CaptureRoutine = "routine"
	CaptureBody    = "body"
)

var scopes = []Scope{ScopeDocument, ScopeTag, ScopeAttribute, ScopeRoutine, ScopeBlock}

// ParseScope converts a scope name. An empty name selects ScopeDocument.
func ParseScope(name string) (Scope, error) {
	if name == "" {
		return ScopeDocument, nil
	}
	names := make([]string, len(scopes))
	for i, s := range scopes {
		if string(s) == name {
			return s, nil
		}
		names[i] = string(s)
	}
	return "", retagerrors.NewPatternSyntaxError(name, -1, fmt.Sprintf("unknown scope %q (want one of %s)", name, strings.Join(names, ", ")))
}

// Spec is the declarative description of a rule as authored in a rule set.
type Spec struct {
	ID          string
	Description string
	Scope       string
	Pattern     string
	Template    string

	// Tag and Attribute name the target tag and attribute for tag and
	// attribute scopes.
	Tag       string
	Attribute string

	// Routines, Anchor and Provider configure routine scope.
	Routines []string
	Anchor   string
	Provider string

	// Close and Contains configure block scope.
	Close    string
	Contains []string
}

// Rule is a compiled, immutable rewrite rule.
type Rule struct {
	id          string
	description string
	scope       Scope
	pattern     *pattern.Pattern
	template    *template.Template
	anchor      *template.Template
	guard       Guard
	tag         string
	attribute   string
	routines    []string
	closing     string
	contains    []string
}

// Build compiles spec. Malformed patterns, templates and unknown scopes fail
// with *errors.PatternSyntaxError carrying the rule id; missing scope settings
// fail with *errors.ValidationError.
func Build(spec Spec) (*Rule, error) {
	if strings.TrimSpace(spec.ID) == "" {
		return nil, retagerrors.NewValidationError("id", "rule id is required", nil)
	}

	scope, err := ParseScope(spec.Scope)
	if err != nil {
		return nil, withRuleID(spec.ID, err)
	}

	r := &Rule{
		id:          spec.ID,
		description: spec.Description,
		scope:       scope,
		tag:         spec.Tag,
		attribute:   spec.Attribute,
		closing:     spec.Close,
	}

	if r.template, err = template.Compile(spec.Template); err != nil {
		return nil, withRuleID(spec.ID, err)
	}

	if scope != ScopeRoutine {
		if strings.TrimSpace(spec.Pattern) == "" {
			return nil, retagerrors.NewValidationError(spec.ID+".pattern", fmt.Sprintf("pattern is required for %s scope", scope), nil)
		}
		if r.pattern, err = pattern.Compile(spec.Pattern); err != nil {
			return nil, withRuleID(spec.ID, err)
		}
	}

	switch scope {
	case ScopeDocument:
		r.guard = Structural{}
	case ScopeTag:
		if strings.TrimSpace(spec.Template) == "" {
			return nil, retagerrors.NewValidationError(spec.ID+".template", "tag scope needs a template to insert", nil)
		}
		if r.attribute == "" {
			r.attribute = leadingAttribute(spec.Template)
		}
		if r.attribute == "" {
			return nil, retagerrors.NewValidationError(spec.ID+".attribute", "tag scope needs the attribute it inserts", nil)
		}
		r.guard = AttributeAbsent{Attribute: r.attribute}
	case ScopeAttribute:
		if r.tag == "" || r.attribute == "" {
			return nil, retagerrors.NewValidationError(spec.ID+".attribute", "attribute scope needs both tag and attribute", nil)
		}
		r.guard = Structural{}
	case ScopeRoutine:
		if err := r.buildRoutine(spec); err != nil {
			return nil, err
		}
	case ScopeBlock:
		if spec.Close == "" {
			return nil, retagerrors.NewValidationError(spec.ID+".close", "block scope needs a closing fragment", nil)
		}
		for _, fragment := range spec.Contains {
			if collapsed := markup.CollapseSpace(fragment); collapsed != "" {
				r.contains = append(r.contains, collapsed)
			}
		}
		r.guard = Structural{}
	}

	return r, nil
}

func (r *Rule) buildRoutine(spec Spec) error {
	seen := make(map[string]struct{}, len(spec.Routines))
	for _, name := range spec.Routines {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		r.routines = append(r.routines, name)
	}
	if len(r.routines) == 0 {
		return retagerrors.NewValidationError(spec.ID+".routines", "routine scope needs at least one routine name", nil)
	}
	if strings.TrimSpace(spec.Template) == "" {
		return retagerrors.NewValidationError(spec.ID+".template", "routine scope needs a statement to insert", nil)
	}

	anchor := spec.Anchor
	if anchor == "" {
		anchor = spec.Pattern
	}
	r.anchor = defaultAnchor
	if anchor != "" {
		compiled, err := template.Compile(anchor)
		if err != nil {
			return withRuleID(spec.ID, err)
		}
		for _, ref := range compiled.References() {
			if ref != CaptureRoutine {
				return retagerrors.NewValidationError(spec.ID+".anchor", fmt.Sprintf("anchor may only reference %%{%s}, got %%{%s}", CaptureRoutine, ref), nil)
			}
		}
		r.anchor = compiled
	}

	if spec.Provider != "" {
		r.guard = SymbolReferenced{Symbol: spec.Provider}
	} else {
		r.guard = StatementPresent{}
	}
	return nil
}

// ID returns the rule identifier.
func (r *Rule) ID() string { return r.id }

// Description returns the human readable description.
func (r *Rule) Description() string { return r.description }

// Scope returns the rule scope.
func (r *Rule) Scope() Scope { return r.scope }

// Guard returns the idempotency guard.
func (r *Rule) Guard() Guard { return r.guard }

// Pattern returns the pattern source; empty for routine rules.
func (r *Rule) Pattern() string {
	if r.pattern == nil {
		return ""
	}
	return r.pattern.String()
}

// Template returns the template source.
func (r *Rule) Template() string { return r.template.String() }

// Routines returns the routine names targeted by a routine rule.
func (r *Rule) Routines() []string { return append([]string(nil), r.routines...) }

// UnboundReferences lists template references the rule can never bind. Such a
// rule compiles but fails with an unbound capture error on its first site.
func (r *Rule) UnboundReferences() []string {
	bound := make(map[string]struct{})
	if r.pattern != nil {
		for _, name := range r.pattern.Names() {
			bound[name] = struct{}{}
		}
	}
	switch r.scope {
	case ScopeRoutine:
		bound[CaptureRoutine] = struct{}{}
	case ScopeBlock:
		bound[CaptureBody] = struct{}{}
	}

	var unbound []string
	for _, ref := range r.template.References() {
		if _, ok := bound[ref]; !ok {
			unbound = append(unbound, ref)
		}
	}
	return unbound
}

func (r *Rule) String() string {
	return fmt.Sprintf("%s (%s)", r.id, r.scope)
}

func withRuleID(id string, err error) error {
	var syntaxErr *retagerrors.PatternSyntaxError
	if errors.As(err, &syntaxErr) {
		syntaxErr.RuleID = id
	}
	return err
}

// leadingAttribute returns the attribute name a tag template starts with, as
// in "data={%{data}}".
func leadingAttribute(tmpl string) string {
	tmpl = strings.TrimSpace(tmpl)
	end := 0
	for end < len(tmpl) && (markup.IsIdentChar(tmpl[end]) || tmpl[end] == '-') {
		end++
	}
	if end == 0 || !markup.IsIdentStart(tmpl[0]) {
		return ""
	}
	rest := strings.TrimLeft(tmpl[end:], " \t")
	if rest != "" && rest[0] != '=' {
		return ""
	}
	return tmpl[:end]
}
