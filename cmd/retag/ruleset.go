package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/retag/internal/config"
	"github.com/alexisbeaulieu97/retag/internal/rule"
)

// ruleSource holds the flags that pick a rule set.
type ruleSource struct {
	Path    string
	Builtin string
	Only    []string
}

func (s *ruleSource) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.Path, "rules", "r", "", "Path to a rule-set file (YAML or TOML)")
	cmd.Flags().StringVar(&s.Builtin, "builtin", "", "Use a built-in rule set ("+strings.Join(config.BuiltinNames(), ", ")+")")
	cmd.Flags().StringSliceVar(&s.Only, "only", nil, "Run only the rules with these ids, in rule-set order")
	cmd.MarkFlagsMutuallyExclusive("rules", "builtin")
}

// loadedRules is a compiled rule set plus where it came from.
type loadedRules struct {
	Set    *config.RuleSet
	Origin string
	// BaseDir anchors relative entries of Set.Files.
	BaseDir string
	Rules   []*rule.Rule
}

// load resolves the rule set in precedence order: --builtin, --rules, a local
// rule-set file in the working directory, then the per-user rule set.
func (s ruleSource) load() (*loadedRules, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	loaded := &loadedRules{BaseDir: wd}
	switch {
	case s.Builtin != "":
		loaded.Set, err = config.Builtin(s.Builtin)
		loaded.Origin = "builtin:" + s.Builtin
	default:
		path := s.Path
		if path == "" {
			path, err = config.Discover(wd)
			if errors.Is(err, config.ErrNoRuleSet) {
				return nil, fmt.Errorf("%w: pass --rules or --builtin, add %s to the working directory, or create %s",
					err, config.LocalNames[0], config.UserConfigPath())
			}
			if err != nil {
				return nil, err
			}
		}
		loaded.Set, err = config.ParseRuleSet(path)
		loaded.Origin = path
		if abs, absErr := filepath.Abs(path); absErr == nil {
			loaded.BaseDir = filepath.Dir(abs)
		}
	}
	if err != nil {
		return nil, err
	}

	compiled, err := config.Compile(loaded.Set)
	if err != nil {
		return nil, err
	}
	selected, unknown := config.Select(compiled, s.Only)
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown rule id(s) in --only: %s", strings.Join(unknown, ", "))
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("rule set %s has no enabled rules", loaded.Origin)
	}
	loaded.Rules = selected
	return loaded, nil
}

// targets returns the files to rewrite: the command arguments when given,
// otherwise the rule set's files list resolved against BaseDir. Entries with
// glob metacharacters are expanded.
func (l *loadedRules) targets(args []string) ([]string, error) {
	entries := args
	base := ""
	if len(entries) == 0 {
		entries = l.Set.Files
		base = l.BaseDir
	}
	if len(entries) == 0 {
		return nil, errors.New("no files given and the rule set lists none")
	}

	var paths []string
	for _, entry := range entries {
		if base != "" && !filepath.IsAbs(entry) && !strings.HasPrefix(entry, "~") {
			entry = filepath.Join(base, entry)
		}
		if !strings.ContainsAny(entry, "*?[") {
			paths = append(paths, entry)
			continue
		}
		matches, err := filepath.Glob(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid file pattern %q: %w", entry, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("file pattern %q matched nothing", entry)
		}
		paths = append(paths, matches...)
	}
	return validateTargets(paths)
}
