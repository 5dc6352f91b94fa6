package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/retag/internal/logger"
)

type checkOptions struct {
	Rules    ruleSource
	Files    []string
	Encoding string
	Diff     bool
	JSON     bool
}

var checkCmdRunner = runCheck

func newCheckCmd(root *rootFlags) *cobra.Command {
	opts := checkOptions{}

	cmd := &cobra.Command{
		Use:   "check [files...]",
		Short: "Report files a rule set would rewrite, without writing",
		Long: `Check runs the rule set over each file without touching it. Returns exit
code 0 when every file is already up to date, exit code 1 if any file
would change.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Files = args

			log, err := root.logger(cmd)
			if err != nil {
				return err
			}
			return checkCmdRunner(cmd, opts, log)
		},
	}

	opts.Rules.register(cmd)
	cmd.Flags().StringVar(&opts.Encoding, "encoding", "", "File encoding (default: rule set setting, then utf-8)")
	cmd.Flags().BoolVar(&opts.Diff, "diff", false, "Print the diff each file would receive")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output results in JSON format")

	return cmd
}

func runCheck(cmd *cobra.Command, opts checkOptions, log *logger.Logger) error {
	loaded, err := opts.Rules.load()
	if err != nil {
		return err
	}
	targets, err := loaded.targets(opts.Files)
	if err != nil {
		return err
	}

	encoding := opts.Encoding
	if encoding == "" {
		encoding = loaded.Set.Settings.FileEncoding()
	}

	run := newRunner(loaded, encoding, log)
	results := make([]fileResult, 0, len(targets))
	pending := 0
	var errs []error
	for _, path := range targets {
		_, res := run.rewrite(path)
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
		if res.Changed() {
			pending++
		}
		results = append(results, res)
	}

	out := newRenderer(cmd, opts.JSON)
	if err := out.results(loaded.Origin, modeCheck, results, opts.Diff); err != nil {
		return err
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if pending > 0 {
		return &exitError{code: exitFailure, err: fmt.Errorf("%d of %d file(s) would be rewritten", pending, len(results))}
	}
	return nil
}
