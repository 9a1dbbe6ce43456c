package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/davoseaworthui/referral-builder-next/pkg/logger"
)

const correlationIDHeader = "X-Correlation-ID"

// RetryPolicy controls how many times a failed call is repeated and how long
// to wait between attempts. Waits double from MinWait up to MaxWait and are
// jittered by ±25%.
type RetryPolicy struct {
	Retries int
	MinWait time.Duration
	MaxWait time.Duration
}

// NoRetry disables retries.
var NoRetry = RetryPolicy{}

func (p RetryPolicy) wait(retry int) time.Duration {
	d := p.MinWait << (retry - 1)
	if d > p.MaxWait || d <= 0 {
		d = p.MaxWait
	}
	return jitter(d)
}

// Config holds HTTP client configuration.
type Config struct {
	Timeout         time.Duration
	MaxConnsPerHost int
	Retry           RetryPolicy
}

// DefaultConfig returns defaults for service-to-service calls.
func DefaultConfig() Config {
	return Config{
		Timeout:         30 * time.Second,
		MaxConnsPerHost: 100,
		Retry:           RetryPolicy{Retries: 3, MinWait: time.Second, MaxWait: 5 * time.Second},
	}
}

// Client is a pooled http.Client that retries transient failures and
// propagates trace context and correlation ids.
type Client struct {
	http  *http.Client
	retry RetryPolicy
}

// New creates a Client from cfg.
func New(cfg Config) *Client {
	return &Client{
		http:  &http.Client{Transport: newTransport(cfg.MaxConnsPerHost), Timeout: cfg.Timeout},
		retry: cfg.Retry,
	}
}

func newTransport(maxConnsPerHost int) *http.Transport {
	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   maxConnsPerHost,
		MaxConnsPerHost:       maxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
}

// Do sends req, repeating it on network errors and on 5xx responses other
// than 501. A body is replayed through req.GetBody; requests whose body
// cannot be replayed are sent once.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	if id := logger.CorrelationIDFromContext(ctx); id != "" && req.Header.Get(correlationIDHeader) == "" {
		req.Header.Set(correlationIDHeader, id)
	}

	retries := c.retry.Retries
	if req.GetBody == nil && req.Body != nil && req.Body != http.NoBody {
		retries = 0
	}

	for attempt := 0; ; attempt++ {
		resp, err := c.http.Do(req)
		if attempt == retries || !shouldRetry(resp, err) {
			if err != nil {
				return nil, fmt.Errorf("http request failed after %d attempts: %w", attempt+1, err)
			}
			return resp, nil
		}
		if resp != nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}

		timer := time.NewTimer(c.retry.wait(attempt + 1))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}

		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewind request body: %w", err)
			}
			req.Body = body
		}
	}
}

// Get performs an HTTP GET request.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	return send(ctx, c, http.MethodGet, url, "", nil)
}

// Post performs an HTTP POST request.
func (c *Client) Post(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error) {
	return send(ctx, c, http.MethodPost, url, contentType, body)
}

// Delete performs an HTTP DELETE request.
func (c *Client) Delete(ctx context.Context, url string) (*http.Response, error) {
	return send(ctx, c, http.MethodDelete, url, "", nil)
}

func shouldRetry(resp *http.Response, err error) bool {
	if err != nil {
		return isTransient(err)
	}
	return resp.StatusCode >= http.StatusInternalServerError && resp.StatusCode != http.StatusNotImplemented
}

// isTransient reports whether err is a network error. Cancellation and
// deadline expiry are final.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// jitter scales d by a random factor in [0.75, 1.25).
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(float64(d) * (0.75 + rand.Float64()*0.5))
}
