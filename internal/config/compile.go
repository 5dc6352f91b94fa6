package config

import (
	"github.com/alexisbeaulieu97/retag/internal/rule"
)

// Compile builds the enabled rules of rs in declaration order. Every rule is
// compiled before any is returned, so a malformed pattern or unknown scope
// surfaces before a document is touched.
func Compile(rs *RuleSet) ([]*rule.Rule, error) {
	if err := ValidateRuleSet(rs); err != nil {
		return nil, err
	}

	rules := make([]*rule.Rule, 0, len(rs.Rules))
	for _, spec := range rs.Rules {
		if !spec.IsEnabled() {
			continue
		}
		r, err := rule.Build(spec.Spec())
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// Select narrows rules to the ids listed in only, keeping declaration order.
// An empty list selects every rule. Unknown ids are returned separately.
func Select(rules []*rule.Rule, only []string) ([]*rule.Rule, []string) {
	if len(only) == 0 {
		return rules, nil
	}
	wanted := make(map[string]bool, len(only))
	for _, id := range only {
		wanted[id] = false
	}

	var selected []*rule.Rule
	for _, r := range rules {
		if _, ok := wanted[r.ID()]; ok {
			wanted[r.ID()] = true
			selected = append(selected, r)
		}
	}

	var unknown []string
	for _, id := range only {
		if !wanted[id] {
			unknown = append(unknown, id)
			wanted[id] = true
		}
	}
	return selected, unknown
}
