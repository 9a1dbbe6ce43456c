package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/davoseaworthui/referral-builder-next/pkg/errors"
	"github.com/davoseaworthui/referral-builder-next/pkg/httpclient"
)

const serviceName = "referral-api"

// Client talks to the referral API. Calls are not retried; repeated server
// failures open a circuit breaker that fails fast until the API recovers.
type Client struct {
	baseURL string
	http    *httpclient.Breaker
	logger  *slog.Logger
}

// New creates a client for the referral API at baseURL.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	cfg := httpclient.DefaultConfig()
	cfg.Timeout = timeout
	cfg.Retry = httpclient.NoRetry

	breaker := httpclient.NewBreaker(
		httpclient.New(cfg),
		httpclient.DefaultBreakerConfig(serviceName),
		logger,
	)

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    breaker,
		logger:  logger,
	}
}

// ListReferrals fetches every referral.
func (c *Client) ListReferrals(ctx context.Context) ([]Referral, error) {
	resp, err := c.http.Get(ctx, c.url())
	if err != nil {
		return nil, c.transportError(ctx, "list referrals", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, serviceName)
	}
	defer resp.Body.Close()

	var referrals []Referral
	if err := json.NewDecoder(resp.Body).Decode(&referrals); err != nil {
		return nil, fmt.Errorf("decode referral list: %w", err)
	}
	if referrals == nil {
		referrals = []Referral{}
	}
	return referrals, nil
}

// CreateReferral posts a new referral and returns the stored record with its
// server-assigned ID. Any ID on the input is ignored by the server.
func (c *Client) CreateReferral(ctx context.Context, referral Referral) (*Referral, error) {
	referral.ID = ""
	body, err := json.Marshal(referral)
	if err != nil {
		return nil, fmt.Errorf("encode referral: %w", err)
	}

	resp, err := c.http.Post(ctx, c.url(), "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, c.transportError(ctx, "create referral", err)
	}
	if resp.StatusCode != http.StatusCreated {
		return nil, httpclient.ParseResponseError(resp, serviceName)
	}
	defer resp.Body.Close()

	var created Referral
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("decode created referral: %w", err)
	}
	return &created, nil
}

// DeleteReferral removes a referral by ID.
func (c *Client) DeleteReferral(ctx context.Context, id string) error {
	resp, err := c.http.Delete(ctx, c.url(id))
	if err != nil {
		return c.transportError(ctx, "delete referral", err)
	}
	if resp.StatusCode != http.StatusOK {
		return httpclient.ParseResponseError(resp, serviceName)
	}
	_ = resp.Body.Close()
	return nil
}

func (c *Client) url(id ...string) string {
	u := c.baseURL + "/api/referrals"
	if len(id) > 0 {
		u += "/" + url.PathEscape(id[0])
	}
	return u
}

// transportError converts breaker and server failures into errors that carry
// the API's own message where there is one.
func (c *Client) transportError(ctx context.Context, op string, err error) error {
	c.logger.ErrorContext(ctx, "referral api call failed",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)

	var serverErr *httpclient.ServerError
	switch {
	case errors.As(err, &serverErr):
		return httpclient.ParseResponseError(serverErr.Response(), serviceName)
	case errors.Is(err, httpclient.ErrCircuitOpen):
		return apperrors.Unavailable("referral API unavailable, try again shortly")
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
