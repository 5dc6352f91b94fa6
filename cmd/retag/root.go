package main

import (
	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/retag/internal/logger"
)

type rootFlags struct {
	verbose bool
	dryRun  bool
}

// logger builds the diagnostics logger for a command. Diagnostics go to the
// command's stderr; reports and diffs own stdout.
func (f *rootFlags) logger(cmd *cobra.Command) (*logger.Logger, error) {
	level := "warn"
	if f.verbose {
		level = "debug"
	}
	return logger.New(logger.Options{Level: level, HumanReadable: true, Writer: cmd.ErrOrStderr()})
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "retag",
		Short:         "retag rewrites JSX/TSX sources with ordered, idempotent pattern rules",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false, "Preview rewrites as a diff without writing files")

	cmd.AddCommand(newApplyCmd(flags))
	cmd.AddCommand(newCheckCmd(flags))
	cmd.AddCommand(newRulesCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
