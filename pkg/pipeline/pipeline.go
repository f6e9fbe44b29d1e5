// Package pipeline drives a run: every handle is analysed in turn into one
// shared report builder, which is finalized and written once at the end.
package pipeline

import (
	"context"
	"errors"
	"io"
	"time"

	"igvision/pkg/analyser"
	"igvision/pkg/labels"
	"igvision/pkg/logger"
	"igvision/pkg/report"
)

// HandleResult summarises the analysis of one handle
type HandleResult struct {
	Handle string
	Posts  int
	Images int
	// Err is the error that ended the handle's stream early, if any
	Err error
}

// Result is the outcome of Run
type Result struct {
	Report  *report.Report
	Handles []HandleResult
}

// Failed returns the handles whose stream ended with an error
func (r *Result) Failed() []HandleResult {
	var failed []HandleResult
	for _, h := range r.Handles {
		if h.Err != nil {
			failed = append(failed, h)
		}
	}
	return failed
}

// Progress observes a run. Calls happen on the goroutine running it.
type Progress interface {
	HandleStarted(handle string)
	RecordAnalysed(rec *analyser.Record)
	HandleFinished(res HandleResult)
}

type nopProgress struct{}

func (nopProgress) HandleStarted(string)            {}
func (nopProgress) RecordAnalysed(*analyser.Record) {}
func (nopProgress) HandleFinished(HandleResult)     {}

// Pipeline analyses handles with a shared detector and label set
type Pipeline struct {
	source   analyser.Source
	store    analyser.Store
	detector analyser.Detector
	labels   *labels.Set
	location *time.Location
	progress Progress
	log      logger.Logger
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLocation sets the time zone of post dates
func WithLocation(loc *time.Location) Option {
	return func(p *Pipeline) {
		if loc != nil {
			p.location = loc
		}
	}
}

// WithProgress reports per-handle progress to pr
func WithProgress(pr Progress) Option {
	return func(p *Pipeline) {
		if pr != nil {
			p.progress = pr
		}
	}
}

// WithLogger sets the logger
func WithLogger(log logger.Logger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// New creates a Pipeline. The detector is loaded by the caller once and
// shared by the analyser of every handle.
func New(source analyser.Source, store analyser.Store, det analyser.Detector, set *labels.Set, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:   source,
		store:    store,
		detector: det,
		labels:   set,
		location: time.Local,
		progress: nopProgress{},
		log:      logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run analyses each handle within tr and finalizes the report. A handle
// whose feed fails is logged and skipped, keeping the records it produced;
// only cancellation of ctx aborts the run.
func (p *Pipeline) Run(ctx context.Context, handles []string, tr analyser.TimeRange) (*Result, error) {
	log := p.log.WithField("component", "pipeline")
	logger.LogComponentStart(log, "pipeline", map[string]interface{}{
		"handles": len(handles),
		"labels":  p.labels.Len(),
	})

	builder := report.NewBuilder(p.labels)
	result := &Result{Handles: make([]HandleResult, 0, len(handles))}

	for _, handle := range handles {
		res := p.runHandle(ctx, builder, handle, tr)
		result.Handles = append(result.Handles, res)

		if err := ctx.Err(); err != nil {
			logger.LogComponentStop(log, "pipeline", "cancelled")
			return nil, err
		}
		if res.Err != nil {
			log.WithError(res.Err).WithField("handle", handle).Error("Analysis of handle failed, continuing with next")
		}
	}

	result.Report = builder.Finalize()
	logger.LogComponentStop(log, "pipeline", "completed")
	return result, nil
}

func (p *Pipeline) runHandle(ctx context.Context, builder *report.Builder, handle string, tr analyser.TimeRange) HandleResult {
	p.progress.HandleStarted(handle)

	a := analyser.New(p.source, p.store, p.detector,
		analyser.WithLocation(p.location),
		analyser.WithLogger(p.log),
	)
	stream := a.Analyse(ctx, handle, tr)

	res := HandleResult{Handle: handle}
	for {
		rec, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			res.Err = err
			break
		}
		builder.Append(rec)
		p.progress.RecordAnalysed(rec)
	}

	res.Posts = stream.Posts()
	res.Images = stream.Images()
	logger.LogHandleProgress(p.log, handle, res.Posts, res.Images)
	p.progress.HandleFinished(res)
	return res
}
