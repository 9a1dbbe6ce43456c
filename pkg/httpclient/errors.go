package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	apperrors "github.com/davoseaworthui/referral-builder-next/pkg/errors"
)

// errorBody mirrors httputil.MessageResponse.
type errorBody struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
}

// ParseResponseError reads a non-2xx response and translates it into an
// AppError. A {"message", "fields"} body keeps its message, with field
// errors appended in name order; any other body is reported verbatim.
// The body is consumed and closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	var body errorBody
	if json.Unmarshal(bodyBytes, &body) == nil && body.Message != "" {
		return mapStatus(resp.StatusCode, withFields(body.Message, body.Fields), serviceName)
	}

	return fmt.Errorf("%s returned status %d: %s", serviceName, resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
}

func withFields(message string, fields map[string]string) string {
	if len(fields) == 0 {
		return message
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+fields[name])
	}
	return message + ": " + strings.Join(parts, ", ")
}

// mapStatus keeps the server's message as the AppError message so it can be
// shown to users unchanged, e.g. "Referral not found". Server faults other
// than 503 stay plain errors.
func mapStatus(status int, message, serviceName string) error {
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		return fmt.Errorf("%s server error (%d): %s", serviceName, status, message)
	}
	return apperrors.FromStatus(status, message)
}

// IsClientError reports whether status is a 4xx.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
