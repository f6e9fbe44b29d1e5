package instagram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"igvision/pkg/config"
	errs "igvision/pkg/errors"
	"igvision/pkg/logger"
	"igvision/pkg/ratelimit"
	"igvision/pkg/retry"
)

// Session holds the cookies of a logged-in browser session. The zero value
// makes anonymous requests.
type Session struct {
	SessionID string
	CSRFToken string
	UserAgent string
}

// Anonymous reports whether the session carries no login cookie
func (s Session) Anonymous() bool {
	return s.SessionID == ""
}

// Client talks to Instagram's web API
type Client struct {
	httpClient   *http.Client
	headers      map[string]string
	baseURL      string
	session      Session
	pageSize     int
	apiLimiter   ratelimit.Limiter
	mediaLimiter ratelimit.Limiter
	retry        *retry.Config
	logger       logger.Logger
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at another host, used by tests
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithSession authenticates requests with session cookies
func WithSession(s Session) Option {
	return func(c *Client) {
		c.session = s
		if s.UserAgent != "" {
			c.headers["User-Agent"] = s.UserAgent
		}
	}
}

// WithPageSize sets how many posts each timeline request asks for
func WithPageSize(n int) Option {
	return func(c *Client) { c.pageSize = n }
}

// WithLimiters sets the limiters gating API calls and media downloads
func WithLimiters(api, media ratelimit.Limiter) Option {
	return func(c *Client) {
		if api != nil {
			c.apiLimiter = api
		}
		if media != nil {
			c.mediaLimiter = media
		}
	}
}

// WithRetry sets the retry policy for API calls and download requests
func WithRetry(cfg *retry.Config) Option {
	return func(c *Client) {
		if cfg != nil {
			c.retry = cfg
		}
	}
}

// NewClient creates a client with browser-like default headers, no rate
// limiting and a single attempt per request
func NewClient(timeout time.Duration, log logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"User-Agent":      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			"Accept":          "*/*",
			"Accept-Language": "en-US,en;q=0.9",
			"X-IG-App-ID":     WebAppID,
			"Sec-Fetch-Dest":  "empty",
			"Sec-Fetch-Mode":  "cors",
			"Sec-Fetch-Site":  "same-origin",
		},
		baseURL:      BaseURL,
		pageSize:     DefaultMediaLimit,
		apiLimiter:   ratelimit.Unlimited{},
		mediaLimiter: ratelimit.Unlimited{},
		retry:        &retry.Config{MaxAttempts: 1, Logger: log},
		logger:       log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromConfig wires the client from application settings. API calls
// share a per-minute sliding window; media downloads draw from a token
// bucket of the same size.
func NewClientFromConfig(cfg *config.Config, log logger.Logger, opts ...Option) *Client {
	rpm := cfg.RateLimit.RequestsPerMinute
	var media ratelimit.Limiter = ratelimit.Unlimited{}
	if rpm > 0 {
		media = ratelimit.NewTokenBucket(rpm, time.Minute)
	}

	base := []Option{
		WithSession(Session{
			SessionID: cfg.Instagram.SessionID,
			CSRFToken: cfg.Instagram.CSRFToken,
			UserAgent: cfg.Instagram.UserAgent,
		}),
		WithPageSize(cfg.Instagram.PageSize),
		WithLimiters(ratelimit.PerMinute(rpm), media),
		WithRetry(retry.FromConfig(cfg.Retry, log)),
	}
	return NewClient(cfg.Download.Timeout, log, append(base, opts...)...)
}

// Session returns the session the client authenticates with
func (c *Client) Session() Session {
	return c.session
}

// doRequest performs a single HTTP request with the configured headers and
// session cookies
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	if !c.session.Anonymous() {
		req.AddCookie(&http.Cookie{Name: "sessionid", Value: c.session.SessionID})
		if c.session.CSRFToken != "" {
			req.AddCookie(&http.Cookie{Name: "csrftoken", Value: c.session.CSRFToken})
			req.Header.Set("X-CSRFToken", c.session.CSRFToken)
		}
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.WithPath(errs.KindNetwork, "http", req.URL.String(), err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})
	return resp, nil
}

// throttle waits for the limiter, logging when it actually blocks
func (c *Client) throttle(ctx context.Context, l ratelimit.Limiter, endpoint string) error {
	if l.Allow() {
		return nil
	}
	start := time.Now()
	err := l.Wait(ctx)
	logger.LogRateLimit(c.logger, endpoint, time.Since(start).Seconds())
	return err
}

// get throttles, sends a GET and maps error statuses. The caller closes the
// body of a successful response.
func (c *Client) get(ctx context.Context, l ratelimit.Limiter, url string) (*http.Response, error) {
	if err := c.throttle(ctx, l, url); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.WithPath(errs.KindUnknown, "create request", url, err)
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}
	if err := c.checkResponseStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// GetJSON fetches url and decodes the JSON body into target, retrying
// transient failures
func (c *Client) GetJSON(ctx context.Context, url string, target interface{}) error {
	return retry.Do(ctx, func(ctx context.Context) error {
		resp, err := c.get(ctx, c.apiLimiter, url)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return errs.WithPath(errs.KindNetwork, "read body", url, err)
		}

		if err := json.Unmarshal(body, target); err != nil {
			preview := string(body)
			if len(preview) > 200 {
				preview = preview[:200] + "..."
			}
			c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
				"url":          url,
				"status":       resp.StatusCode,
				"error":        err.Error(),
				"body_preview": preview,
			})
			return &errs.Error{Kind: errs.KindParsing, Op: "decode json", Path: url, Code: resp.StatusCode, Err: err}
		}
		return nil
	}, c.retry)
}

// checkResponseStatus maps HTTP error statuses to typed errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	url := ""
	if resp.Request != nil {
		url = resp.Request.URL.String()
	}
	fields := map[string]interface{}{
		"status": resp.StatusCode,
		"url":    url,
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		c.logger.WarnWithFields("authentication error", fields)
		return errs.HTTP(errs.KindAuth, url, resp.StatusCode, "authentication required")
	case http.StatusNotFound:
		c.logger.WarnWithFields("resource not found", fields)
		return errs.HTTP(errs.KindNotFound, url, resp.StatusCode, "resource not found")
	case http.StatusTooManyRequests:
		c.logger.WarnWithFields("rate limit exceeded", fields)
		return errs.HTTP(errs.KindRateLimit, url, resp.StatusCode, "rate limit exceeded")
	}

	if resp.StatusCode >= 500 {
		c.logger.ErrorWithFields("server error", fields)
		return errs.HTTP(errs.KindServerError, url, resp.StatusCode, "server error")
	}
	c.logger.ErrorWithFields("unexpected API error", fields)
	return errs.HTTP(errs.KindUnknown, url, resp.StatusCode, fmt.Sprintf("unexpected status code: %d", resp.StatusCode))
}

// FetchUserProfile fetches a profile together with its newest posts
func (c *Client) FetchUserProfile(ctx context.Context, username string) (*User, error) {
	if !IsValidUsername(username) {
		return nil, errs.WithPath(errs.KindNotFound, "fetch profile", username, errors.New("invalid username"))
	}
	url := ProfileURL(c.baseURL, username)

	c.logger.DebugWithFields("fetching user profile", map[string]interface{}{
		"username": username,
		"url":      url,
	})

	var response ProfileResponse
	if err := c.GetJSON(ctx, url, &response); err != nil {
		return nil, fmt.Errorf("fetch profile %s: %w", username, err)
	}

	if response.RequiresToLogin {
		c.logger.WarnWithFields("authentication required for profile", map[string]interface{}{
			"username": username,
		})
		return nil, errs.HTTP(errs.KindAuth, url, http.StatusUnauthorized, "Instagram requires authentication to view this profile")
	}
	if response.Data.User == nil {
		return nil, errs.HTTP(errs.KindNotFound, url, http.StatusOK, "profile has no user")
	}
	return response.Data.User, nil
}

// FetchUserMedia fetches the timeline page after the given cursor
func (c *Client) FetchUserMedia(ctx context.Context, userID, after string) (*Timeline, error) {
	url := MediaURL(c.baseURL, userID, after, c.pageSize)

	c.logger.DebugWithFields("fetching user media", map[string]interface{}{
		"user_id": userID,
		"after":   after,
	})

	var response MediaResponse
	if err := c.GetJSON(ctx, url, &response); err != nil {
		return nil, fmt.Errorf("fetch media of %s: %w", userID, err)
	}
	if response.Data.User == nil {
		return nil, errs.HTTP(errs.KindNotFound, url, http.StatusOK, "media response has no user")
	}
	return &response.Data.User.Timeline, nil
}

// Download opens a media URL. Establishing the response is retried; the
// returned body is streamed by the caller, who must close it.
func (c *Client) Download(ctx context.Context, mediaURL string) (io.ReadCloser, error) {
	c.logger.DebugWithFields("downloading media", map[string]interface{}{
		"url": mediaURL,
	})

	resp, err := retry.DoWithResult(ctx, func(ctx context.Context) (*http.Response, error) {
		return c.get(ctx, c.mediaLimiter, mediaURL)
	}, c.retry)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
