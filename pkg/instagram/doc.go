// Package instagram is a small client for Instagram's web API.
//
// It fetches a profile with its newest posts, pages through the owner
// timeline with the GraphQL query hash and downloads media. Requests carry
// browser-like headers and, when a session is configured, the sessionid and
// csrftoken cookies. API calls and downloads are gated by rate limiters and
// transient failures are retried with backoff.
//
// Failures are *errors.Error values whose Kind tells auth problems,
// missing profiles, rate limiting and server errors apart:
//
//	client := instagram.NewClientFromConfig(cfg, log)
//	feed := instagram.NewFeed(client)
//	page, err := feed.FetchPage(ctx, "natgeo", "")
//	if errors.IsKind(err, errors.KindAuth) {
//		// log in with `igvision auth login`
//	}
package instagram
