package analyser

import (
	"time"

	"igvision/pkg/detector"
)

// Record is the analysis of one post
type Record struct {
	Handle     string
	Shortcode  string
	MediaURL   string
	Date       Field[time.Time]
	Likes      Field[int]
	Comments   Field[int]
	TextLength Field[int]
	TagAmount  Field[int]
	Video      bool
	// Counts is nil when detection was skipped or failed
	Counts detector.Counts
}

// Detected reports whether object counts are available
func (r *Record) Detected() bool {
	return r.Counts != nil
}

// TimeRange bounds the posts of a stream by date. Zero values are unbounded.
type TimeRange struct {
	Since time.Time
	Until time.Time
}

// tooNew reports whether a post dated t lies after Until
func (tr TimeRange) tooNew(t time.Time) bool {
	return !tr.Until.IsZero() && t.After(tr.Until)
}

// tooOld reports whether a post dated t lies before Since
func (tr TimeRange) tooOld(t time.Time) bool {
	return !tr.Since.IsZero() && t.Before(tr.Since)
}
