package main

import (
	"errors"
	"fmt"
	"os"

	retagerrors "github.com/alexisbeaulieu97/retag/pkg/errors"
)

const (
	exitFailure = 1
	exitRuleSet = 2
	exitRewrite = 3
)

// exitError carries a specific process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to the process exit status: 2 for rule-set problems,
// 3 for a rule that failed mid-rewrite, 1 for everything else.
func exitCode(err error) int {
	var coded *exitError
	if errors.As(err, &coded) {
		return coded.code
	}

	var (
		parseErr      *retagerrors.ParseError
		validationErr *retagerrors.ValidationError
		syntaxErr     *retagerrors.PatternSyntaxError
		ruleErr       *retagerrors.RuleError
	)
	switch {
	case errors.As(err, &ruleErr):
		return exitRewrite
	case errors.As(err, &parseErr), errors.As(err, &validationErr), errors.As(err, &syntaxErr):
		return exitRuleSet
	}
	return exitFailure
}
