package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davoseaworthui/referral-builder-next/pkg/logger"
)

func retrying(n int) Config {
	return Config{
		Timeout:         5 * time.Second,
		MaxConnsPerHost: 4,
		Retry:           RetryPolicy{Retries: n, MinWait: time.Millisecond, MaxWait: 4 * time.Millisecond},
	}
}

// statusSequence answers with codes in order, repeating the last one.
func statusSequence(t *testing.T, codes ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1)) - 1
		w.WriteHeader(codes[min(n, len(codes)-1)])
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestClient_SendsMethodBodyAndContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_, _ = io.WriteString(w, r.Method+" "+r.Header.Get("Content-Type")+" "+string(body))
	}))
	t.Cleanup(srv.Close)

	c := New(retrying(0))
	ctx := context.Background()
	read := func(resp *http.Response, err error) string {
		require.NoError(t, err)
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return string(b)
	}

	assert.Equal(t, "GET  ", read(c.Get(ctx, srv.URL+"/api/referrals")))
	assert.Equal(t, `POST application/json {"givenName":"Jane"}`,
		read(c.Post(ctx, srv.URL+"/api/referrals", "application/json", strings.NewReader(`{"givenName":"Jane"}`))))
	assert.Equal(t, "DELETE  ", read(c.Delete(ctx, srv.URL+"/api/referrals/abc")))
}

func TestClient_PropagatesCorrelationID(t *testing.T) {
	got := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.Header.Get(correlationIDHeader)
	}))
	t.Cleanup(srv.Close)

	ctx := logger.WithCorrelationID(context.Background(), "corr-builder-1")
	resp, err := New(retrying(0)).Get(ctx, srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "corr-builder-1", <-got)
}

func TestClient_Retries(t *testing.T) {
	tests := map[string]struct {
		retries   int
		codes     []int
		wantCode  int
		wantCalls int32
	}{
		"recovers after 503s":  {3, []int{503, 503, 200}, 200, 3},
		"gives up after limit": {2, []int{500}, 500, 3},
		"disabled":             {0, []int{500}, 500, 1},
		"501 is final":         {3, []int{501}, 501, 1},
		"404 is final":         {3, []int{404}, 404, 1},
		"400 is final":         {3, []int{400}, 400, 1},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			srv, calls := statusSequence(t, tt.codes...)

			resp, err := New(retrying(tt.retries)).Get(context.Background(), srv.URL)
			require.NoError(t, err)
			resp.Body.Close()

			assert.Equal(t, tt.wantCode, resp.StatusCode)
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestClient_RetryReplaysBody(t *testing.T) {
	var calls atomic.Int32
	bodies := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies <- string(b)
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(srv.Close)

	resp, err := New(retrying(2)).Post(context.Background(), srv.URL, "application/json", strings.NewReader(`{"surname":"Doe"}`))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, `{"surname":"Doe"}`, <-bodies)
	assert.Equal(t, `{"surname":"Doe"}`, <-bodies)
}

func TestClient_UnreplayableBodyIsSentOnce(t *testing.T) {
	srv, calls := statusSequence(t, http.StatusBadGateway)

	// io.NopCloser hides the concrete reader, so no GetBody is set.
	req, err := http.NewRequest(http.MethodPost, srv.URL, io.NopCloser(strings.NewReader("x")))
	require.NoError(t, err)

	resp, err := New(retrying(3)).Do(context.Background(), req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_StopsWaitingOnCancel(t *testing.T) {
	srv, _ := statusSequence(t, http.StatusServiceUnavailable)

	cfg := retrying(10)
	cfg.Retry.MinWait, cfg.Retry.MaxWait = 200*time.Millisecond, time.Second
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New(cfg).Get(ctx, srv.URL)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_InvalidURL(t *testing.T) {
	_, err := New(retrying(0)).Get(context.Background(), "://invalid")
	assert.ErrorContains(t, err, "build GET request")
}

func TestIsTransient(t *testing.T) {
	assert.False(t, isTransient(context.Canceled))
	assert.False(t, isTransient(context.DeadlineExceeded))
	assert.False(t, isTransient(io.EOF))
	assert.True(t, isTransient(timeoutErr{}))
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestRetryPolicy_Wait(t *testing.T) {
	p := RetryPolicy{Retries: 5, MinWait: 100 * time.Millisecond, MaxWait: 300 * time.Millisecond}

	for retry, base := range map[int]time.Duration{1: 100 * time.Millisecond, 2: 200 * time.Millisecond, 3: 300 * time.Millisecond, 9: 300 * time.Millisecond} {
		for range 50 {
			d := p.wait(retry)
			assert.GreaterOrEqual(t, d, base*3/4)
			assert.Less(t, d, base*5/4)
		}
	}
	assert.Zero(t, jitter(0))
}
