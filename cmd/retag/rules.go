package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/retag/internal/config"
	"github.com/alexisbeaulieu97/retag/internal/logger"
)

type rulesOptions struct {
	Rules    ruleSource
	Builtins bool
	JSON     bool
}

func newRulesCmd(root *rootFlags) *cobra.Command {
	opts := rulesOptions{}

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the rules of a rule set in execution order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := root.logger(cmd)
			if err != nil {
				return err
			}
			return runRules(cmd, opts, log)
		},
	}

	opts.Rules.register(cmd)
	cmd.Flags().BoolVar(&opts.Builtins, "builtins", false, "List the built-in rule sets instead")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output rules in JSON format")

	return cmd
}

func runRules(cmd *cobra.Command, opts rulesOptions, log *logger.Logger) error {
	out := newRenderer(cmd, opts.JSON)
	if opts.Builtins {
		return out.builtins(config.BuiltinNames())
	}

	loaded, err := opts.Rules.load()
	if err != nil {
		return err
	}

	for _, r := range loaded.Rules {
		if unbound := r.UnboundReferences(); len(unbound) > 0 {
			log.WithFields(logger.Fields{
				"rule":     r.ID(),
				"captures": strings.Join(unbound, ", "),
			}).Warn(fmt.Sprintf("template references captures the %s scope never binds", r.Scope()))
		}
	}
	return out.rules(loaded, loaded.Rules)
}
