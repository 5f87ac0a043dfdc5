package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler, header, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/assets", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestAPIKey(t *testing.T) {
	tests := []struct {
		name       string
		mode       string
		key        string
		sendHeader string
		sendValue  string
		want       int
	}{
		{"mode none passes", "none", "secret", "", "", http.StatusOK},
		{"empty mode passes", "", "secret", "", "", http.StatusOK},
		{"apikey without configured key passes", "apikey", "", "", "", http.StatusOK},
		{"correct key", "apikey", "secret", "x-api-key", "secret", http.StatusOK},
		{"header name is case-insensitive", "apikey", "secret", "X-Api-Key", "secret", http.StatusOK},
		{"missing key", "apikey", "secret", "", "", http.StatusUnauthorized},
		{"wrong key", "apikey", "secret", "x-api-key", "nope", http.StatusUnauthorized},
		{"prefix of key", "apikey", "secret", "x-api-key", "sec", http.StatusUnauthorized},
		{"key in other header", "apikey", "secret", "authorization", "secret", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := APIKey(tt.mode, "x-api-key", tt.key)(okHandler())
			rr := serve(h, tt.sendHeader, tt.sendValue)
			assert.Equal(t, tt.want, rr.Code)
			if tt.want == http.StatusUnauthorized {
				assert.JSONEq(t, `{"error":"invalid api key"}`, rr.Body.String())
			}
		})
	}
}
