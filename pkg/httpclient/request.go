package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Doer sends a prepared request. Both Client and Breaker implement it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// send builds a request for method and url and hands it to d. A nil body is
// sent as http.NoBody so the request stays replayable.
func send(ctx context.Context, d Doer, method, url, contentType string, body io.Reader) (*http.Response, error) {
	if body == nil {
		body = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return d.Do(ctx, req)
}
