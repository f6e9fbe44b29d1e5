package instagram

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igvision/pkg/config"
	errs "igvision/pkg/errors"
	"igvision/pkg/logger"
	"igvision/pkg/ratelimit"
	"igvision/pkg/retry"
)

func fastRetry(attempts int) *retry.Config {
	return &retry.Config{
		MaxAttempts: attempts,
		Backoff:     &retry.ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     retry.DefaultRetryIf,
		Logger:      logger.NewNopLogger(),
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Client, *logger.TestLogger) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	log := logger.NewTestLogger()
	opts = append([]Option{WithBaseURL(server.URL)}, opts...)
	return NewClient(5*time.Second, log, opts...), log
}

func TestNewClient(t *testing.T) {
	log := logger.NewTestLogger()
	client := NewClient(30*time.Second, log)

	assert.NotNil(t, client.httpClient)
	assert.Equal(t, BaseURL, client.baseURL)
	assert.Equal(t, WebAppID, client.headers["X-IG-App-ID"])
	assert.True(t, client.Session().Anonymous())
	assert.Equal(t, log, client.logger)
}

func TestNewClientFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Instagram.SessionID = "sess"
	cfg.Instagram.CSRFToken = "csrf"
	cfg.Instagram.UserAgent = "igvision-test"
	cfg.Instagram.PageSize = 25

	client := NewClientFromConfig(cfg, logger.NewNopLogger())

	assert.Equal(t, "sess", client.Session().SessionID)
	assert.Equal(t, "igvision-test", client.headers["User-Agent"])
	assert.Equal(t, 25, client.pageSize)
	assert.IsType(t, &ratelimit.SlidingWindow{}, client.apiLimiter)
	assert.IsType(t, &ratelimit.TokenBucket{}, client.mediaLimiter)
	assert.Equal(t, cfg.Retry.MaxAttempts, client.retry.MaxAttempts)
	assert.Equal(t, cfg.Download.Timeout, client.httpClient.Timeout)
}

func TestSessionCookies(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("sessionid")
		require.NoError(t, err)
		assert.Equal(t, "sess", cookie.Value)

		csrf, err := r.Cookie("csrftoken")
		require.NoError(t, err)
		assert.Equal(t, "tok", csrf.Value)
		assert.Equal(t, "tok", r.Header.Get("X-CSRFToken"))
		assert.Equal(t, "custom-agent", r.Header.Get("User-Agent"))
		w.Write([]byte(`{}`))
	}, WithSession(Session{SessionID: "sess", CSRFToken: "tok", UserAgent: "custom-agent"}))

	var out map[string]interface{}
	require.NoError(t, client.GetJSON(context.Background(), client.baseURL+"/x", &out))
}

func TestAnonymousRequestHasNoCookies(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Cookies())
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")
		w.Write([]byte(`{}`))
	})

	var out map[string]interface{}
	require.NoError(t, client.GetJSON(context.Background(), client.baseURL+"/x", &out))
}

func TestCheckResponseStatus(t *testing.T) {
	client := NewClient(30*time.Second, logger.NewTestLogger())

	tests := []struct {
		name       string
		statusCode int
		kind       errs.Kind
	}{
		{"200 OK", http.StatusOK, ""},
		{"304 Not Modified", http.StatusNotModified, ""},
		{"401 Unauthorized", http.StatusUnauthorized, errs.KindAuth},
		{"403 Forbidden", http.StatusForbidden, errs.KindAuth},
		{"404 Not Found", http.StatusNotFound, errs.KindNotFound},
		{"429 Too Many Requests", http.StatusTooManyRequests, errs.KindRateLimit},
		{"500 Internal Server Error", http.StatusInternalServerError, errs.KindServerError},
		{"504 Gateway Timeout", http.StatusGatewayTimeout, errs.KindServerError},
		{"400 Bad Request", http.StatusBadRequest, errs.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest("GET", "http://example.com", nil)
			err := client.checkResponseStatus(&http.Response{StatusCode: tt.statusCode, Request: req})
			if tt.kind == "" {
				assert.NoError(t, err)
				return
			}

			var igErr *errs.Error
			require.ErrorAs(t, err, &igErr)
			assert.Equal(t, tt.kind, igErr.Kind)
			assert.Equal(t, tt.statusCode, igErr.Code)
		})
	}
}

func TestGetJSONRetriesServerErrors(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	}, WithRetry(fastRetry(3)))

	var out struct{ Status string }
	require.NoError(t, client.GetJSON(context.Background(), client.baseURL+"/x", &out))
	assert.Equal(t, "ok", out.Status)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetJSONDoesNotRetryAuth(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}, WithRetry(fastRetry(3)))

	var out map[string]interface{}
	err := client.GetJSON(context.Background(), client.baseURL+"/x", &out)
	assert.True(t, errs.IsKind(err, errs.KindAuth))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetJSONInvalidBody(t *testing.T) {
	client, log := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>login</html>`))
	})

	var out map[string]interface{}
	err := client.GetJSON(context.Background(), client.baseURL+"/x", &out)
	assert.True(t, errs.IsKind(err, errs.KindParsing))
	assert.True(t, log.HasMessage("failed to parse JSON response"))
}

func TestGetJSONNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	base := server.URL
	server.Close()

	client := NewClient(time.Second, logger.NewNopLogger(), WithBaseURL(base))
	var out map[string]interface{}
	err := client.GetJSON(context.Background(), base+"/x", &out)
	assert.True(t, errs.IsKind(err, errs.KindNetwork))
}

func TestGetJSONCancelled(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}, WithLimiters(ratelimit.NewSlidingWindow(1, time.Hour), nil))

	var out map[string]interface{}
	require.NoError(t, client.GetJSON(context.Background(), client.baseURL+"/x", &out))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := client.GetJSON(ctx, client.baseURL+"/x", &out)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFetchUserProfile(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, ProfileEndpoint, r.URL.Path)
		assert.Equal(t, "natgeo", r.URL.Query().Get("username"))
		w.Write([]byte(`{"status":"ok","data":{"user":{"id":"787132","username":"natgeo",
			"edge_owner_to_timeline_media":{"count":2,"page_info":{"has_next_page":true,"end_cursor":"c1"},
			"edges":[{"node":{"shortcode":"A"}},{"node":{"shortcode":"B"}}]}}}}`))
	})

	user, err := client.FetchUserProfile(context.Background(), "natgeo")
	require.NoError(t, err)
	assert.Equal(t, "787132", user.ID)
	assert.Len(t, user.Timeline.Nodes(), 2)
	assert.Equal(t, "c1", user.Timeline.PageInfo.EndCursor)
}

func TestFetchUserProfileRequiresLogin(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"requires_to_login":true}`))
	})

	_, err := client.FetchUserProfile(context.Background(), "natgeo")
	assert.True(t, errs.IsKind(err, errs.KindAuth))
}

func TestFetchUserProfileInvalidUsername(t *testing.T) {
	client := NewClient(time.Second, logger.NewNopLogger())
	_, err := client.FetchUserProfile(context.Background(), "not a user")
	assert.True(t, errs.IsKind(err, errs.KindNotFound))
}

func TestFetchUserMediaMissingUser(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"user":null},"status":"ok"}`))
	})

	_, err := client.FetchUserMedia(context.Background(), "1", "c1")
	assert.True(t, errs.IsKind(err, errs.KindNotFound))
}

func TestDownload(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.jpg" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("jpeg-bytes"))
	})

	body, err := client.Download(context.Background(), client.baseURL+"/a.jpg")
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	assert.Equal(t, "jpeg-bytes", string(data))

	_, err = client.Download(context.Background(), client.baseURL+"/missing.jpg")
	assert.True(t, errs.IsKind(err, errs.KindNotFound))
}

func TestThrottleLogsWhenBlocked(t *testing.T) {
	client, log := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}, WithLimiters(ratelimit.NewTokenBucket(1, 20*time.Millisecond), nil))

	var out map[string]interface{}
	require.NoError(t, client.GetJSON(context.Background(), client.baseURL+"/x", &out))
	assert.False(t, log.HasMessage("Rate limit reached, backing off"))

	require.NoError(t, client.GetJSON(context.Background(), client.baseURL+"/x", &out))
	assert.True(t, log.HasMessage("Rate limit reached, backing off"))
}
