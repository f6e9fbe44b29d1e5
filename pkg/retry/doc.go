// Package retry retries transient failures of the Instagram client with
// backoff.
//
// Only errors whose kind is network, rate_limit or server_error are retried
// by default; authentication and not-found responses fail immediately.
// Waits between attempts are cut short when the context is cancelled.
//
//	err := retry.Do(ctx, func(ctx context.Context) error {
//		return client.GetJSON(ctx, url, &page)
//	}, retry.FromConfig(cfg.Retry, log))
package retry
