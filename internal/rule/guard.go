package rule

import (
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/retag/internal/markup"
	"github.com/alexisbeaulieu97/retag/internal/pattern"
)

// Site is a candidate edit location handed to a guard. Tag is set for tag
// scope, Routine for routine scope; Insert holds the expanded text the rule
// is about to add when the guard runs after expansion.
type Site struct {
	Span    pattern.Span
	Tag     *markup.Tag
	Routine *markup.Routine
	Insert  string
}

// Guard recognises sites where a rule's effect is already present.
type Guard interface {
	Name() string
	Present(text string, site Site) bool
}

// Structural is the guard of rules whose pattern stops matching once the
// rewrite is applied. It never reports an effect as present.
type Structural struct{}

func (Structural) Name() string { return "structural" }

func (Structural) Present(string, Site) bool { return false }

// AttributeAbsent skips tags that already declare Attribute.
type AttributeAbsent struct {
	Attribute string
}

func (g AttributeAbsent) Name() string {
	return fmt.Sprintf("attribute-absent(%s)", g.Attribute)
}

func (g AttributeAbsent) Present(_ string, site Site) bool {
	return site.Tag != nil && site.Tag.HasAttr(g.Attribute)
}

// SymbolReferenced skips routines whose body already mentions Symbol as a
// whole word.
type SymbolReferenced struct {
	Symbol string
}

func (g SymbolReferenced) Name() string {
	return fmt.Sprintf("symbol-absent(%s)", g.Symbol)
}

func (g SymbolReferenced) Present(text string, site Site) bool {
	if site.Routine == nil {
		return false
	}
	return markup.HasWord(site.Routine.Body(text), g.Symbol)
}

// StatementPresent skips routines whose body already contains the statement
// being inserted, ignoring whitespace differences.
type StatementPresent struct{}

func (StatementPresent) Name() string { return "statement-absent" }

func (StatementPresent) Present(text string, site Site) bool {
	if site.Routine == nil {
		return false
	}
	statement := markup.CollapseSpace(strings.TrimSuffix(strings.TrimSpace(site.Insert), ";"))
	if statement == "" {
		return false
	}
	return strings.Contains(markup.CollapseSpace(site.Routine.Body(text)), statement)
}
