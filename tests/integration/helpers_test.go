package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type object = map[string]any

var client = &http.Client{Timeout: 10 * time.Second}

// apiURL is REFERRAL_API_URL or the local default.
func apiURL() string {
	if v := os.Getenv("REFERRAL_API_URL"); v != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://localhost:8080"
}

func referralsURL(id ...string) string {
	return strings.Join(append([]string{apiURL() + "/api/referrals"}, id...), "/")
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d-%d@test.example.com", prefix, time.Now().UnixNano(), rand.IntN(100000))
}

func newReferralBody(given string) object {
	return object{
		"givenName": given,
		"surname":   "Integration",
		"email":     uniqueEmail(strings.ToLower(given)),
		"phone":     "0400000000",
		"address": object{
			"homeNameOrNumber": "1",
			"street":           "Test St",
			"suburb":           "Carlton",
			"state":            "VIC",
			"postcode":         "3053",
			"country":          "Australia",
		},
	}
}

// skipIfNotRunning skips t when the API does not answer its liveness probe.
func skipIfNotRunning(t *testing.T) {
	t.Helper()
	probe := &http.Client{Timeout: 2 * time.Second}
	resp, err := probe.Get(apiURL() + "/health/live")
	if err != nil {
		t.Skipf("referral API at %s not reachable: %v", apiURL(), err)
	}
	resp.Body.Close()
}

func httpGet(t *testing.T, url string) (int, object) {
	t.Helper()
	status, raw := do(t, http.MethodGet, url, nil)
	return status, decodeBody(t, raw)
}

func httpGetList(t *testing.T, url string) (int, []object) {
	t.Helper()
	status, raw := do(t, http.MethodGet, url, nil)
	var list []object
	require.NoError(t, json.Unmarshal(raw, &list), "expected JSON array from %s, got %q", url, raw)
	return status, list
}

func httpPost(t *testing.T, url string, body any) (int, object) {
	t.Helper()
	status, raw := do(t, http.MethodPost, url, body)
	return status, decodeBody(t, raw)
}

func httpDelete(t *testing.T, url string) (int, object) {
	t.Helper()
	status, raw := do(t, http.MethodDelete, url, nil)
	return status, decodeBody(t, raw)
}

// do sends body as JSON when it is non-nil and returns the status and the
// raw response body.
func do(t *testing.T, method, url string, body any) (int, []byte) {
	t.Helper()

	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, payload)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	require.NoError(t, err, "%s %s", method, url)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

// decodeBody decodes a JSON object. Anything else comes back under "raw".
func decodeBody(t *testing.T, raw []byte) object {
	t.Helper()
	out := object{}
	if len(raw) > 0 && json.Unmarshal(raw, &out) != nil {
		return object{"raw": string(raw)}
	}
	return out
}

func requireStatus(t *testing.T, got, want int) {
	t.Helper()
	require.Equal(t, want, got, "unexpected status")
}

// extractField follows a dotted path such as "address.postcode".
func extractField(data object, path string) any {
	var cur any = data
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(object)
		if !ok {
			return nil
		}
		if cur, ok = m[key]; !ok {
			return nil
		}
	}
	return cur
}

func extractString(t *testing.T, data object, path string) string {
	t.Helper()
	s, ok := extractField(data, path).(string)
	require.True(t, ok, "expected string at %q in %v", path, data)
	return s
}

func containsID(list []object, id string) bool {
	for _, item := range list {
		if item["id"] == id {
			return true
		}
	}
	return false
}
