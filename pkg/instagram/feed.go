package instagram

import (
	"context"
	"io"
	"sync"

	"igvision/pkg/analyser"
)

// Feed exposes a user's timeline as an analyser.Source. The first page comes
// from the profile endpoint; later pages from the GraphQL timeline query,
// which needs the numeric user ID resolved on the first page.
type Feed struct {
	client *Client

	mu      sync.Mutex
	userIDs map[string]string
}

// NewFeed creates a Feed over client
func NewFeed(client *Client) *Feed {
	return &Feed{
		client:  client,
		userIDs: make(map[string]string),
	}
}

var _ analyser.Source = (*Feed)(nil)

// FetchPage implements analyser.Source
func (f *Feed) FetchPage(ctx context.Context, handle, cursor string) (*analyser.Page, error) {
	userID, ok := f.userID(handle)
	if cursor == "" || !ok {
		user, err := f.client.FetchUserProfile(ctx, handle)
		if err != nil {
			return nil, err
		}
		f.remember(handle, user.ID)
		userID = user.ID

		if user.IsPrivate && f.client.Session().Anonymous() {
			f.client.logger.WithField("handle", handle).Warn("Profile is private, only visible posts are analysed")
		}
		if cursor == "" {
			return toPage(user.Timeline), nil
		}
	}

	timeline, err := f.client.FetchUserMedia(ctx, userID, cursor)
	if err != nil {
		return nil, err
	}
	return toPage(*timeline), nil
}

// Download implements analyser.Source
func (f *Feed) Download(ctx context.Context, url string) (io.ReadCloser, error) {
	return f.client.Download(ctx, url)
}

func (f *Feed) userID(handle string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.userIDs[handle]
	return id, ok
}

func (f *Feed) remember(handle, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userIDs[handle] = id
}

func toPage(t Timeline) *analyser.Page {
	return &analyser.Page{
		Posts:   t.Nodes(),
		Cursor:  t.PageInfo.EndCursor,
		HasMore: t.PageInfo.HasNextPage,
	}
}
