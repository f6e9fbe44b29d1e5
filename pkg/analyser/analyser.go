// Package analyser turns a handle's Instagram feed into per-post records:
// metadata fields plus object counts for every static image.
//
// Each metadata field is extracted independently into a Field, so a post
// with a missing or malformed like count still yields its date, caption
// length and detections. Records are produced lazily through a Stream, one
// post at a time.
package analyser

import (
	"context"
	"time"

	"igvision/pkg/logger"
)

// Analyser produces record streams for handles. It holds no per-handle state.
type Analyser struct {
	source   Source
	store    Store
	detector Detector
	location *time.Location
	log      logger.Logger
}

// Option configures an Analyser
type Option func(*Analyser)

// WithLocation sets the time zone post dates are expressed in
func WithLocation(loc *time.Location) Option {
	return func(a *Analyser) {
		if loc != nil {
			a.location = loc
		}
	}
}

// WithLogger sets the logger
func WithLogger(log logger.Logger) Option {
	return func(a *Analyser) {
		if log != nil {
			a.log = log
		}
	}
}

// New creates an Analyser. det may be shared across analysers.
func New(source Source, store Store, det Detector, opts ...Option) *Analyser {
	a := &Analyser{
		source:   source,
		store:    store,
		detector: det,
		location: time.Local,
		log:      logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyse starts a stream over the posts of handle within tr. Nothing is
// fetched until the first call to Next.
func (a *Analyser) Analyse(ctx context.Context, handle string, tr TimeRange) *Stream {
	return &Stream{
		analyser: a,
		handle:   handle,
		window:   tr,
		log: a.log.WithContext(ctx).WithFields(map[string]interface{}{
			"component": "analyser",
			"handle":    handle,
		}),
	}
}
