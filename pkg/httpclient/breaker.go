package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = gobreaker.ErrOpenState

var (
	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "http_client_breaker_state",
		Help: "Breaker state per upstream: 0 closed, 1 half-open, 2 open.",
	}, []string{"upstream"})

	breakerRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_client_breaker_rejected_total",
		Help: "Calls refused without reaching the upstream.",
	}, []string{"upstream"})
)

// BreakerConfig tunes a Breaker.
type BreakerConfig struct {
	Upstream string

	// Probes is how many calls a half-open breaker lets through.
	Probes uint32
	// Window resets the failure counts while closed. Zero never resets.
	Window time.Duration
	// Cooldown is how long the breaker stays open.
	Cooldown time.Duration
	// TripRatio of failures to calls opens the breaker once MinCalls is reached.
	TripRatio float64
	MinCalls  uint32
}

// DefaultBreakerConfig returns the settings used for the referral API.
func DefaultBreakerConfig(upstream string) BreakerConfig {
	return BreakerConfig{
		Upstream:  upstream,
		Probes:    1,
		Window:    time.Minute,
		Cooldown:  30 * time.Second,
		TripRatio: 0.5,
		MinCalls:  5,
	}
}

// ServerError carries a buffered 5xx response. It counts as a breaker
// failure while keeping the body for ParseResponseError.
type ServerError struct {
	StatusCode int
	Body       []byte
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.StatusCode, bytes.TrimSpace(e.Body))
}

// Response rebuilds an *http.Response from the buffered body.
func (e *ServerError) Response() *http.Response {
	return &http.Response{
		StatusCode: e.StatusCode,
		Body:       io.NopCloser(bytes.NewReader(e.Body)),
	}
}

// Breaker guards a Doer with a circuit breaker. Transport errors and 5xx
// responses are failures; 4xx responses and caller cancellation are not.
type Breaker struct {
	next     Doer
	cb       *gobreaker.CircuitBreaker[*http.Response]
	upstream string
}

// NewBreaker wraps next.
func NewBreaker(next Doer, cfg BreakerConfig, logger *slog.Logger) *Breaker {
	b := &Breaker{next: next, upstream: cfg.Upstream}
	b.cb = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        cfg.Upstream,
		MaxRequests: cfg.Probes,
		Interval:    cfg.Window,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.Requests >= cfg.MinCalls &&
				float64(c.TotalFailures) >= cfg.TripRatio*float64(c.Requests)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("breaker state changed",
				slog.String("upstream", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.WithLabelValues(name).Set(float64(to))
		},
	})
	breakerState.WithLabelValues(cfg.Upstream).Set(float64(gobreaker.StateClosed))
	return b
}

// Do sends req through the breaker. A 5xx response is drained and returned
// as *ServerError.
func (b *Breaker) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := b.cb.Execute(func() (*http.Response, error) {
		resp, err := b.next.Do(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < http.StatusInternalServerError {
			return resp, nil
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, &ServerError{StatusCode: resp.StatusCode, Body: body}
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		breakerRejected.WithLabelValues(b.upstream).Inc()
	}
	return resp, err
}

// Get performs a GET through the breaker.
func (b *Breaker) Get(ctx context.Context, url string) (*http.Response, error) {
	return send(ctx, b, http.MethodGet, url, "", nil)
}

// Post performs a POST through the breaker.
func (b *Breaker) Post(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error) {
	return send(ctx, b, http.MethodPost, url, contentType, body)
}

// Delete performs a DELETE through the breaker.
func (b *Breaker) Delete(ctx context.Context, url string) (*http.Response, error) {
	return send(ctx, b, http.MethodDelete, url, "", nil)
}

// State reports the breaker's current state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
