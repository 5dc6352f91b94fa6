package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alexisbeaulieu97/retag/internal/document"
	"github.com/alexisbeaulieu97/retag/internal/events"
	"github.com/alexisbeaulieu97/retag/internal/logger"
	"github.com/alexisbeaulieu97/retag/internal/pipeline"
	"github.com/alexisbeaulieu97/retag/pkg/diff"
)

// fileResult is the outcome of running the pipeline over one file.
type fileResult struct {
	Path     string
	Encoding string
	Report   *pipeline.Report
	Stats    diff.Stats
	Diff     string
	Backup   string
	Written  bool
	Err      error
}

// Changed reports whether the pipeline produced new text for the file.
func (r fileResult) Changed() bool {
	return r.Err == nil && r.Diff != ""
}

// runner drives one pipeline across many files.
type runner struct {
	pipe     *pipeline.Pipeline
	encoding string
	log      *logger.Logger
}

func newRunner(loaded *loadedRules, encoding string, log *logger.Logger) *runner {
	publisher := events.NewPublisher(log)
	publisher.Subscribe(events.PipelineFailed, func(event events.Event) error {
		log.WithFields(logger.Fields(event.Payload)).Warn("file left unchanged")
		return nil
	})

	return &runner{
		pipe:     pipeline.New(loaded.Rules, pipeline.WithLogger(log), pipeline.WithPublisher(publisher)),
		encoding: encoding,
		log:      log,
	}
}

// rewrite loads path and runs every rule over it. When a rule fails the
// document is restored to its loaded text, so a file is rewritten completely
// or not at all.
func (r *runner) rewrite(path string) (*document.Document, fileResult) {
	res := fileResult{Path: path}

	doc, err := document.Load(path, r.encoding)
	if err != nil {
		res.Err = err
		return nil, res
	}

	res.Encoding = doc.Encoding()
	loaded := doc.Snapshot()
	report, err := r.pipe.Apply(doc)
	res.Report = report
	if err != nil {
		doc.Restore(loaded)
		res.Err = fmt.Errorf("%s: %w", path, err)
		return doc, res
	}

	label := strings.TrimPrefix(filepath.ToSlash(path), "/")
	res.Stats = diff.Compute(doc.Original(), doc.Text())
	res.Diff = diff.GenerateUnifiedDiff(doc.Original(), doc.Text(), "a/"+label, "b/"+label)
	return doc, res
}
