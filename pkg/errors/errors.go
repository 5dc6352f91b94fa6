package errors

import (
	"fmt"
)

// ParseError represents a rule-set parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures rule-set validation issues.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// PatternSyntaxError reports a malformed pattern or template, or a rule with an
// unknown scope. Offset is the byte offset inside Source, or -1 when the
// problem is not tied to a position.
type PatternSyntaxError struct {
	RuleID  string
	Source  string
	Offset  int
	Message string
}

// NewPatternSyntaxError constructs a PatternSyntaxError.
func NewPatternSyntaxError(source string, offset int, message string) *PatternSyntaxError {
	return &PatternSyntaxError{Source: source, Offset: offset, Message: message}
}

func (e *PatternSyntaxError) Error() string {
	if e == nil {
		return ""
	}
	prefix := "pattern syntax error"
	if e.RuleID != "" {
		prefix = fmt.Sprintf("pattern syntax error in rule %s", e.RuleID)
	}
	if e.Offset >= 0 {
		return fmt.Sprintf("%s: offset %d in %q: %s", prefix, e.Offset, e.Source, e.Message)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// UnboundCaptureError reports a template reference to a capture the match did
// not produce. Offset is the document offset of the failing match.
type UnboundCaptureError struct {
	RuleID  string
	Capture string
	Offset  int
}

func (e *UnboundCaptureError) Error() string {
	if e == nil {
		return ""
	}
	if e.RuleID != "" {
		return fmt.Sprintf("unbound capture %q in rule %s at offset %d", e.Capture, e.RuleID, e.Offset)
	}
	return fmt.Sprintf("unbound capture %q at offset %d", e.Capture, e.Offset)
}

// RuleError wraps a failure raised while a pipeline applied a rule.
type RuleError struct {
	RuleID string
	Offset int
	Err    error
}

// NewRuleError constructs a RuleError.
func NewRuleError(ruleID string, offset int, err error) error {
	return &RuleError{RuleID: ruleID, Offset: offset, Err: err}
}

func (e *RuleError) Error() string {
	if e == nil {
		return ""
	}
	if e.Offset >= 0 {
		return fmt.Sprintf("rule %s failed at offset %d: %v", e.RuleID, e.Offset, e.Err)
	}
	return fmt.Sprintf("rule %s failed: %v", e.RuleID, e.Err)
}

// Unwrap exposes the root error.
func (e *RuleError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
