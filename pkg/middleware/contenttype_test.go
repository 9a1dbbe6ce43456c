package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentTypeJSON(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		contentType string
		body        string
		status      int
	}{
		{"json post", http.MethodPost, "application/json", `{}`, http.StatusOK},
		{"json with charset", http.MethodPost, "application/json; charset=utf-8", `{}`, http.StatusOK},
		{"missing header accepted", http.MethodPost, "", `{}`, http.StatusOK},
		{"text rejected", http.MethodPost, "text/plain", `hi`, http.StatusUnsupportedMediaType},
		{"form rejected", http.MethodPost, "application/x-www-form-urlencoded", `a=b`, http.StatusUnsupportedMediaType},
		{"malformed rejected", http.MethodPost, "application/json;;;=", `{}`, http.StatusUnsupportedMediaType},
		{"get without body ignored", http.MethodGet, "text/plain", ``, http.StatusOK},
		{"delete without body ignored", http.MethodDelete, "text/plain", ``, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/referrals", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rr := httptest.NewRecorder()
			ContentTypeJSON(okHandler()).ServeHTTP(rr, req)

			assert.Equal(t, tt.status, rr.Code)
			if tt.status == http.StatusUnsupportedMediaType {
				assert.JSONEq(t, `{"message":"Content-Type must be application/json"}`, rr.Body.String())
			}
		})
	}
}
