// Package ratelimit throttles requests to Instagram.
//
// Two limiters implement the Limiter interface:
//
//   - SlidingWindow caps requests within a moving window. The scraping
//     client uses it for API calls, see PerMinute.
//   - TokenBucket refills a fixed number of tokens per period. The scraping
//     client uses it for media downloads.
//
// Wait honours context cancellation so an interrupted run does not sit out
// a long rate-limit pause:
//
//	limiter := ratelimit.PerMinute(60)
//	if err := limiter.Wait(ctx); err != nil {
//		return err
//	}
package ratelimit
