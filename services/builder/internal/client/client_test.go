package client

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/davoseaworthui/referral-builder-next/pkg/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeAPI is a minimal in-memory referral API.
type fakeAPI struct {
	mu        sync.Mutex
	referrals []Referral
	requests  atomic.Int32
	lastBody  map[string]any
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.requests.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	id := strings.TrimPrefix(r.URL.Path, "/api/referrals/")
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/referrals":
		_ = json.NewEncoder(w).Encode(f.referrals)
	case r.Method == http.MethodPost && r.URL.Path == "/api/referrals":
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &f.lastBody)
		var ref Referral
		_ = json.Unmarshal(body, &ref)
		if ref.GivenName == "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"request validation failed","fields":{"givenName":"is required","email":"is required"}}`))
			return
		}
		ref.ID = "srv-1"
		f.referrals = append(f.referrals, ref)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(ref)
	case r.Method == http.MethodDelete:
		for i, ref := range f.referrals {
			if ref.ID == id {
				f.referrals = append(f.referrals[:i], f.referrals[i+1:]...)
				_, _ = w.Write([]byte(`{"message":"Referral deleted successfully"}`))
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Referral not found"}`))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return New(server.URL+"/", 2*time.Second, testLogger())
}

func sampleReferral() Referral {
	return Referral{
		ID:        "client-side",
		GivenName: "Jane",
		Surname:   "Citizen",
		Email:     "jane@example.com",
		Phone:     "0400 000 000",
		Address:   Address{Street: "Main St", Postcode: "3121", Country: "Australia"},
	}
}

func TestClient_CreateListDelete(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(t, api)
	ctx := context.Background()

	list, err := c.ListReferrals(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	created, err := c.CreateReferral(ctx, sampleReferral())
	require.NoError(t, err)
	assert.Equal(t, "srv-1", created.ID)
	assert.Equal(t, "Jane", created.GivenName)
	assert.NotContains(t, api.lastBody, "id", "client ids must not be sent")

	list, err = c.ListReferrals(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, *created, list[0])

	require.NoError(t, c.DeleteReferral(ctx, "srv-1"))
	list, err = c.ListReferrals(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestClient_NotFoundKeepsServerMessage(t *testing.T) {
	c := newTestClient(t, &fakeAPI{})

	err := c.DeleteReferral(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Referral not found", appErr.Message)
}

func TestClient_ValidationErrorListsFields(t *testing.T) {
	c := newTestClient(t, &fakeAPI{})

	_, err := c.CreateReferral(context.Background(), Referral{})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "request validation failed: email is required, givenName is required")
}

func TestClient_EscapesIDInPath(t *testing.T) {
	var gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`{"message":"Referral deleted successfully"}`))
	}))

	require.NoError(t, c.DeleteReferral(context.Background(), "a/b"))
	assert.Equal(t, "/api/referrals/a%2Fb", gotPath)
}

func TestClient_ServerErrorSurfacesMessageWithoutRetry(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"an internal error occurred"}`))
	}))

	_, err := c.ListReferrals(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "an internal error occurred")
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message":"upstream down"}`))
	}))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := c.ListReferrals(ctx)
		require.Error(t, err)
	}

	_, err := c.ListReferrals(ctx)

	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
	assert.Equal(t, int32(5), hits.Load(), "open breaker must not reach the API")
}

func TestClient_UnreachableServer(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	c := New(server.URL, time.Second, testLogger())

	_, err := c.ListReferrals(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "list referrals")
}

func TestReferral_FullName(t *testing.T) {
	r := sampleReferral()
	assert.Equal(t, "Jane Citizen", r.FullName())

	r.Surname = "  "
	assert.Equal(t, "Jane", r.FullName())
}
