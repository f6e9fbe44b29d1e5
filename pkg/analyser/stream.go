package analyser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	errs "igvision/pkg/errors"
	"igvision/pkg/logger"
)

// Stream yields the records of one handle. It is single-pass: once drained,
// failed or abandoned it cannot be resumed, only restarted with a new call
// to Analyse.
type Stream struct {
	analyser *Analyser
	handle   string
	window   TimeRange
	log      logger.Logger

	pending []json.RawMessage
	cursor  string
	fetched bool
	hasMore bool
	err     error

	posts  int
	images int
}

// Next returns the next record, io.EOF once the feed is drained or the time
// range is left, or the error that ended the stream. Errors are sticky.
func (s *Stream) Next(ctx context.Context) (*Record, error) {
	if s.err != nil {
		return nil, s.err
	}
	if err := ctx.Err(); err != nil {
		return nil, s.fail(err)
	}

	for {
		raw, err := s.nextRaw(ctx)
		if err != nil {
			return nil, s.fail(err)
		}

		p, ok := parsePost(raw)
		if !ok {
			s.log.Warn("Skipping post that is not a JSON object")
			continue
		}

		rec := s.analyser.extract(s.handle, p)
		if date, ok := rec.Date.Get(); ok {
			if s.window.tooNew(date) {
				continue
			}
			// pinned posts lead the feed whatever their date
			if s.window.tooOld(date) && p.pinned() {
				continue
			}
			if s.window.tooOld(date) {
				s.log.DebugWithFields("Reached posts older than range", map[string]interface{}{
					"shortcode": rec.Shortcode,
					"date":      date,
				})
				return nil, s.fail(io.EOF)
			}
		}

		if err := s.detect(ctx, rec); err != nil {
			return nil, s.fail(err)
		}

		s.posts++
		if missing := missingFields(rec); len(missing) > 0 {
			s.log.WithError(errs.MissingField(strings.Join(missing, ","))).
				WithField("shortcode", rec.Shortcode).
				Debug("Post has unknown fields")
		}
		objects := 0
		if rec.Counts != nil {
			objects = rec.Counts.Total()
		}
		logger.LogPost(s.log, s.handle, rec.Shortcode, rec.Video, objects)
		return rec, nil
	}
}

// All adapts the stream to a range-over-func iterator. Iteration stops after
// the first error, which is yielded with a nil record.
func (s *Stream) All(ctx context.Context) iter.Seq2[*Record, error] {
	return func(yield func(*Record, error) bool) {
		for {
			rec, err := s.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(rec, err) || err != nil {
				return
			}
		}
	}
}

// Posts returns the number of records produced so far
func (s *Stream) Posts() int {
	return s.posts
}

// Images returns the number of images run through the detector so far
func (s *Stream) Images() int {
	return s.images
}

func (s *Stream) fail(err error) error {
	s.err = err
	s.pending = nil
	return err
}

// nextRaw returns the next raw post, fetching pages as needed
func (s *Stream) nextRaw(ctx context.Context) (json.RawMessage, error) {
	for len(s.pending) == 0 {
		if s.fetched && !s.hasMore {
			return nil, io.EOF
		}

		page, err := s.analyser.source.FetchPage(ctx, s.handle, s.cursor)
		if err != nil {
			return nil, fmt.Errorf("fetch posts of %s: %w", s.handle, err)
		}
		s.fetched = true
		if page == nil {
			s.hasMore = false
			continue
		}

		s.pending = page.Posts
		s.hasMore = page.HasMore && page.Cursor != "" && page.Cursor != s.cursor
		s.cursor = page.Cursor
	}

	raw := s.pending[0]
	s.pending = s.pending[1:]
	return raw, nil
}

// detect fills rec.Counts for static images. Download and decode failures
// are logged and leave Counts nil; only cancellation is returned.
func (s *Stream) detect(ctx context.Context, rec *Record) error {
	if rec.Video || rec.MediaURL == "" || rec.Shortcode == "" {
		return nil
	}
	a := s.analyser
	log := s.log.WithField("shortcode", rec.Shortcode)

	path := a.store.Path(s.handle, rec.Shortcode)
	if !a.store.Has(s.handle, rec.Shortcode) {
		saved, err := s.download(ctx, rec)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.WithError(err).Warn("Image download failed, skipping detection")
			return nil
		}
		path = saved
	}

	counts, err := a.detector.Detect(path)
	if err != nil {
		log.WithError(err).Warn("Object detection failed, counting no objects")
		return nil
	}
	rec.Counts = counts
	s.images++
	return nil
}

func (s *Stream) download(ctx context.Context, rec *Record) (string, error) {
	body, err := s.analyser.source.Download(ctx, rec.MediaURL)
	if err != nil {
		return "", err
	}
	defer body.Close()

	return s.analyser.store.Save(s.handle, rec.Shortcode, body)
}

func (a *Analyser) extract(handle string, p post) *Record {
	media := p.mediaURL()
	return &Record{
		Handle:     handle,
		Shortcode:  p.shortcode(),
		MediaURL:   media,
		Date:       p.date(a.location),
		Likes:      p.likes(),
		Comments:   p.comments(),
		TextLength: p.textLength(),
		TagAmount:  p.tagAmount(),
		Video:      p.video(media),
	}
}
