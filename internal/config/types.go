package config

import (
	"github.com/alexisbeaulieu97/retag/internal/rule"
)

// RuleSet is a rule-set file: an ordered list of rules plus defaults for the
// files they apply to.
type RuleSet struct {
	Version     string     `yaml:"version" toml:"version" validate:"required,semver"`
	Name        string     `yaml:"name" toml:"name" validate:"required,min=1,max=100"`
	Description string     `yaml:"description,omitempty" toml:"description,omitempty"`
	Files       []string   `yaml:"files,omitempty" toml:"files,omitempty" validate:"omitempty,dive,required"`
	Settings    Settings   `yaml:"settings,omitempty" toml:"settings,omitempty"`
	Rules       []RuleSpec `yaml:"rules" toml:"rules" validate:"required,min=1,dive"`
}

// Settings holds rule-set wide defaults. Command-line flags override them.
type Settings struct {
	Backup       bool   `yaml:"backup,omitempty" toml:"backup,omitempty"`
	BackupDir    string `yaml:"backup_dir,omitempty" toml:"backup_dir,omitempty"`
	Encoding     string `yaml:"encoding,omitempty" toml:"encoding,omitempty" validate:"omitempty,oneof=utf-8 latin-1 windows-1252 utf-16 utf-16be"`
	RequireClean bool   `yaml:"require_clean,omitempty" toml:"require_clean,omitempty"`
}

// RuleSpec is one rule as written in a rule set. Scope-specific fields are
// checked when the rule is compiled.
type RuleSpec struct {
	ID          string   `yaml:"id" toml:"id" validate:"required,rule_id"`
	Description string   `yaml:"description,omitempty" toml:"description,omitempty"`
	Scope       string   `yaml:"scope,omitempty" toml:"scope,omitempty"`
	Pattern     string   `yaml:"pattern,omitempty" toml:"pattern,omitempty"`
	Template    string   `yaml:"template" toml:"template"`
	Tag         string   `yaml:"tag,omitempty" toml:"tag,omitempty"`
	Attribute   string   `yaml:"attribute,omitempty" toml:"attribute,omitempty"`
	Routines    []string `yaml:"routines,omitempty" toml:"routines,omitempty"`
	Anchor      string   `yaml:"anchor,omitempty" toml:"anchor,omitempty"`
	Provider    string   `yaml:"provider,omitempty" toml:"provider,omitempty"`
	Close       string   `yaml:"close,omitempty" toml:"close,omitempty"`
	Contains    []string `yaml:"contains,omitempty" toml:"contains,omitempty"`
	Enabled     *bool    `yaml:"enabled,omitempty" toml:"enabled,omitempty"`
}

// IsEnabled reports whether the rule runs. Rules are enabled unless they say
// otherwise.
func (r RuleSpec) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// Spec converts the rule to its compilable form.
func (r RuleSpec) Spec() rule.Spec {
	return rule.Spec{
		ID:          r.ID,
		Description: r.Description,
		Scope:       r.Scope,
		Pattern:     r.Pattern,
		Template:    r.Template,
		Tag:         r.Tag,
		Attribute:   r.Attribute,
		Routines:    append([]string(nil), r.Routines...),
		Anchor:      r.Anchor,
		Provider:    r.Provider,
		Close:       r.Close,
		Contains:    append([]string(nil), r.Contains...),
	}
}

// FileEncoding returns the configured file encoding, defaulting to UTF-8.
func (s Settings) FileEncoding() string {
	if s.Encoding == "" {
		return "utf-8"
	}
	return s.Encoding
}
