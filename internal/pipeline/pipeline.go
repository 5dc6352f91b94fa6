// Package pipeline applies an ordered rule list to a document. Each rule sees
// the text produced by the rules before it. There is no rollback: when a rule
// fails, every edit committed so far stays in the document.
package pipeline

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/alexisbeaulieu97/retag/internal/document"
	"github.com/alexisbeaulieu97/retag/internal/events"
	"github.com/alexisbeaulieu97/retag/internal/logger"
	"github.com/alexisbeaulieu97/retag/internal/rule"
	retagerrors "github.com/alexisbeaulieu97/retag/pkg/errors"
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for per-rule summaries.
func WithLogger(log *logger.Logger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// WithPublisher sets the publisher receiving lifecycle events.
func WithPublisher(publisher *events.Publisher) Option {
	return func(p *Pipeline) {
		p.publisher = publisher
	}
}

// Pipeline is an ordered, immutable rule list.
type Pipeline struct {
	rules     []*rule.Rule
	log       *logger.Logger
	publisher *events.Publisher
}

// New creates a pipeline running rules in the given order.
func New(rules []*rule.Rule, opts ...Option) *Pipeline {
	p := &Pipeline{
		rules: append([]*rule.Rule(nil), rules...),
		log:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Rules returns the rules in execution order.
func (p *Pipeline) Rules() []*rule.Rule {
	return append([]*rule.Rule(nil), p.rules...)
}

// Apply runs every rule against doc in order. On failure the returned report
// covers the rules that ran, including the failing one, and the error is an
// *errors.RuleError naming the rule and the offset of the failing site.
func (p *Pipeline) Apply(doc *document.Document) (*Report, error) {
	report := &Report{
		RunID:  uuid.NewString(),
		Path:   doc.Path(),
		Before: doc.Fingerprint(),
	}
	log := p.log.WithFields(logger.Fields{"run_id": report.RunID, "path": doc.Path()})
	p.publish(events.PipelineStarted, map[string]any{"run_id": report.RunID, "path": doc.Path(), "rules": len(p.rules)})

	for _, r := range p.rules {
		p.publish(events.RuleStarted, map[string]any{"run_id": report.RunID, "rule": r.ID(), "scope": string(r.Scope())})

		started := time.Now()
		outcome, err := r.Apply(doc.Text())
		doc.Replace(outcome.Text)

		rr := RuleReport{
			RuleID:   r.ID(),
			Scope:    r.Scope(),
			Status:   StatusSkipped,
			Applied:  outcome.Applied(),
			Skipped:  outcome.Skipped,
			Missing:  outcome.Missing,
			Targets:  outcome.Targets,
			Spans:    outcome.Spans,
			Duration: time.Since(started),
		}
		if rr.Applied > 0 {
			rr.Status = StatusApplied
		}

		if err != nil {
			wrapped := retagerrors.NewRuleError(r.ID(), failureOffset(err), err)
			rr.Status = StatusFailed
			rr.Error = err.Error()
			report.Rules = append(report.Rules, rr)
			p.finish(report, doc)

			log.WithFields(logger.Fields{"rule": r.ID(), "applied": rr.Applied}).Error(err, "rule failed")
			p.publish(events.RuleFailed, map[string]any{"run_id": report.RunID, "rule": r.ID(), "error": err.Error()})
			p.publish(events.PipelineFailed, map[string]any{"run_id": report.RunID, "rule": r.ID(), "error": wrapped.Error()})
			return report, wrapped
		}
		report.Rules = append(report.Rules, rr)

		ruleLog := log.WithFields(logger.Fields{
			"rule":    r.ID(),
			"scope":   string(r.Scope()),
			"applied": rr.Applied,
			"skipped": rr.Skipped,
		})
		if len(rr.Missing) > 0 {
			ruleLog.WithFields(logger.Fields{"missing": rr.Missing}).Warn("routines not found")
		}
		ruleLog.Info("rule finished")
		if ruleLog.Enabled(zerolog.DebugLevel) {
			for _, span := range rr.Spans {
				ruleLog.WithFields(logger.Fields{"start": span.Start, "end": span.End}).Debug("site rewritten")
			}
		}

		eventType := events.RuleSkipped
		if rr.Applied > 0 {
			eventType = events.RuleApplied
		}
		p.publish(eventType, map[string]any{
			"run_id":  report.RunID,
			"rule":    r.ID(),
			"applied": rr.Applied,
			"skipped": rr.Skipped,
			"missing": rr.Missing,
		})
	}

	p.finish(report, doc)
	log.WithFields(logger.Fields{"total": report.Total(), "changed": report.Changed()}).Info("pipeline finished")
	p.publish(events.PipelineCompleted, map[string]any{"run_id": report.RunID, "total": report.Total(), "changed": report.Changed()})
	return report, nil
}

func (p *Pipeline) finish(report *Report, doc *document.Document) {
	report.After = doc.Fingerprint()
	report.Version = doc.Version()
}

func (p *Pipeline) publish(eventType string, payload map[string]any) {
	if p.publisher == nil {
		return
	}
	_ = p.publisher.Publish(events.Event{Type: eventType, Payload: payload})
}

func failureOffset(err error) int {
	var unbound *retagerrors.UnboundCaptureError
	if errors.As(err, &unbound) {
		return unbound.Offset
	}
	return -1
}
