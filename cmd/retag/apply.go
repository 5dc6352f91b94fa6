package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/retag/internal/document"
	"github.com/alexisbeaulieu97/retag/internal/logger"
	"github.com/alexisbeaulieu97/retag/internal/vcs"
)

type applyOptions struct {
	Rules        ruleSource
	Files        []string
	DryRun       bool
	Backup       bool
	NoBackup     bool
	BackupDir    string
	Encoding     string
	RequireClean bool
	Force        bool
	JSON         bool
}

var applyCmdRunner = runApply

func newApplyCmd(root *rootFlags) *cobra.Command {
	opts := applyOptions{}

	cmd := &cobra.Command{
		Use:   "apply [files...]",
		Short: "Rewrite files with a rule set",
		Long: `Apply runs every rule of the rule set, in order, over each file and writes
the result back. Without file arguments the rule set's files list is used.
With --dry-run nothing is written and a unified diff is printed instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Files = args
			opts.DryRun = root.dryRun

			log, err := root.logger(cmd)
			if err != nil {
				return err
			}
			return applyCmdRunner(cmd, opts, log)
		},
	}

	opts.Rules.register(cmd)
	cmd.Flags().BoolVar(&opts.Backup, "backup", false, "Keep a timestamped copy of each rewritten file")
	cmd.Flags().BoolVar(&opts.NoBackup, "no-backup", false, "Never keep backups, even if the rule set asks for them")
	cmd.Flags().StringVar(&opts.BackupDir, "backup-dir", "", "Directory for backups (default: next to the file)")
	cmd.Flags().StringVar(&opts.Encoding, "encoding", "", "File encoding (default: rule set setting, then utf-8)")
	cmd.Flags().BoolVar(&opts.RequireClean, "require-clean", false, "Refuse to rewrite files with uncommitted git changes")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Rewrite files even when they have uncommitted git changes")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output results in JSON format")
	cmd.MarkFlagsMutuallyExclusive("backup", "no-backup")

	return cmd
}

func runApply(cmd *cobra.Command, opts applyOptions, log *logger.Logger) error {
	loaded, err := opts.Rules.load()
	if err != nil {
		return err
	}
	targets, err := loaded.targets(opts.Files)
	if err != nil {
		return err
	}

	settings := loaded.Set.Settings
	encoding := opts.Encoding
	if encoding == "" {
		encoding = settings.FileEncoding()
	}
	save := document.SaveOptions{
		Backup:    (settings.Backup || opts.Backup) && !opts.NoBackup,
		BackupDir: settings.BackupDir,
	}
	if opts.BackupDir != "" {
		save.BackupDir = opts.BackupDir
	}

	if (settings.RequireClean || opts.RequireClean) && !opts.Force && !opts.DryRun {
		if err := ensureClean(targets, log); err != nil {
			return err
		}
	}

	log.WithFields(logger.Fields{
		"rule_set": loaded.Origin,
		"rules":    len(loaded.Rules),
		"files":    len(targets),
		"dry_run":  opts.DryRun,
	}).Info("starting rewrite")

	run := newRunner(loaded, encoding, log)
	results := make([]fileResult, 0, len(targets))
	var errs []error
	for _, path := range targets {
		doc, res := run.rewrite(path)
		if res.Err == nil && !opts.DryRun && doc.Changed() {
			res.Backup, res.Err = document.Save(doc, save)
			res.Written = res.Err == nil
		}
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
		results = append(results, res)
	}

	mode := modeApply
	if opts.DryRun {
		mode = modeDryRun
	}
	out := newRenderer(cmd, opts.JSON)
	if err := out.results(loaded.Origin, mode, results, opts.DryRun); err != nil {
		return err
	}
	return errors.Join(errs...)
}

// ensureClean refuses to go on when any target has uncommitted git changes.
func ensureClean(targets []string, log *logger.Logger) error {
	var dirty []string
	for _, path := range targets {
		status, err := vcs.Status(path)
		if err != nil {
			return err
		}
		log.WithFields(logger.Fields{"path": path, "git": status.String()}).Debug("git status")
		if !status.Clean() {
			dirty = append(dirty, fmt.Sprintf("%s (%s)", path, status))
		}
	}
	if len(dirty) > 0 {
		return fmt.Errorf("refusing to rewrite files with uncommitted changes, commit them or pass --force: %s", strings.Join(dirty, ", "))
	}
	return nil
}
