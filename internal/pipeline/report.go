package pipeline

import (
	"time"

	"github.com/alexisbeaulieu97/retag/internal/pattern"
	"github.com/alexisbeaulieu97/retag/internal/rule"
)

const (
	// StatusApplied marks a rule that rewrote at least one site.
	StatusApplied = "applied"
	// StatusSkipped marks a rule that made no edits.
	StatusSkipped = "skipped"
	// StatusFailed marks the rule that aborted the run.
	StatusFailed = "failed"
)

// RuleReport records one rule application.
type RuleReport struct {
	RuleID   string         `json:"rule_id"`
	Scope    rule.Scope     `json:"scope"`
	Status   string         `json:"status"`
	Applied  int            `json:"applied"`
	Skipped  int            `json:"skipped"`
	Missing  []string       `json:"missing,omitempty"`
	Targets  map[string]int `json:"targets,omitempty"`
	Spans    []pattern.Span `json:"-"`
	Duration time.Duration  `json:"duration_ns"`
	Error    string         `json:"error,omitempty"`
}

// Report summarises one pipeline run over one document. Before and After are
// document fingerprints.
type Report struct {
	RunID   string       `json:"run_id"`
	Path    string       `json:"path,omitempty"`
	Rules   []RuleReport `json:"rules"`
	Before  string       `json:"before"`
	After   string       `json:"after"`
	Version int          `json:"version"`
}

// Total returns the number of sites modified by all rules.
func (r *Report) Total() int {
	total := 0
	for _, rr := range r.Rules {
		total += rr.Applied
	}
	return total
}

// Changed reports whether the run changed the document.
func (r *Report) Changed() bool {
	return r.Before != r.After
}

// Count returns the applied count of the rule with id, or 0 when the rule did
// not run.
func (r *Report) Count(id string) int {
	if rr, ok := r.Rule(id); ok {
		return rr.Applied
	}
	return 0
}

// Rule returns the report of the rule with id.
func (r *Report) Rule(id string) (RuleReport, bool) {
	for _, rr := range r.Rules {
		if rr.RuleID == id {
			return rr, true
		}
	}
	return RuleReport{}, false
}
