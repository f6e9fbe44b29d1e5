package analyser

import (
	"context"
	"encoding/json"
	"io"

	"igvision/pkg/detector"
)

// Page is one batch of a handle's feed, newest post first. Each entry is the
// raw JSON object of a single post.
type Page struct {
	Posts   []json.RawMessage
	Cursor  string
	HasMore bool
}

// Source provides a handle's posts and their media
type Source interface {
	// FetchPage returns the page after cursor; an empty cursor asks for the
	// newest posts.
	FetchPage(ctx context.Context, handle, cursor string) (*Page, error)
	// Download opens the media at url
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

// Store persists downloaded images
type Store interface {
	Has(handle, shortcode string) bool
	Path(handle, shortcode string) string
	Save(handle, shortcode string, r io.Reader) (string, error)
}

// Detector counts objects in an image file
type Detector interface {
	Detect(imagePath string) (detector.Counts, error)
}
