package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serveAuth(keys []string, path, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rr := httptest.NewRecorder()
	BearerAuthMiddleware(keys)(okHandler()).ServeHTTP(rr, req)
	return rr
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	for _, keys := range [][]string{nil, {"", "  "}} {
		if rr := serveAuth(keys, "/resources/search", ""); rr.Code != http.StatusOK {
			t.Errorf("keys %q: got %d, want 200", keys, rr.Code)
		}
	}
}

func TestAuthMiddleware(t *testing.T) {
	keys := []string{"key1", " key2 "}
	tests := []struct {
		name    string
		header  string
		want    int
		wantMsg string
	}{
		{"missing header", "", http.StatusUnauthorized, "missing authorization header"},
		{"basic scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, "authorization header must use Bearer scheme"},
		{"scheme only", "Bearer", http.StatusUnauthorized, "authorization header must use Bearer scheme"},
		{"empty token", "Bearer   ", http.StatusUnauthorized, "missing bearer token"},
		{"wrong key", "Bearer wrong-key", http.StatusUnauthorized, "invalid api key"},
		{"prefix of key", "Bearer key", http.StatusUnauthorized, "invalid api key"},
		{"first key", "Bearer key1", http.StatusOK, ""},
		{"second key trimmed", "Bearer key2", http.StatusOK, ""},
		{"lowercase scheme", "bearer key1", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serveAuth(keys, "/resources/search", tt.header)
			if rr.Code != tt.want {
				t.Fatalf("got %d, want %d", rr.Code, tt.want)
			}
			if tt.wantMsg == "" {
				return
			}
			if rr.Header().Get("WWW-Authenticate") == "" {
				t.Error("WWW-Authenticate header missing")
			}
			var errResp errorResponse
			if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if errResp.Error != tt.wantMsg {
				t.Errorf("error = %q, want %q", errResp.Error, tt.wantMsg)
			}
		})
	}
}

func TestAuthMiddleware_ExemptPaths(t *testing.T) {
	for _, path := range []string{"/health", "/metrics"} {
		if rr := serveAuth([]string{"secret"}, path, ""); rr.Code != http.StatusOK {
			t.Errorf("exempt path %s: got %d, want 200", path, rr.Code)
		}
	}
	if rr := serveAuth([]string{"secret"}, "/resources/abc", ""); rr.Code != http.StatusUnauthorized {
		t.Errorf("/resources/abc: got %d, want 401", rr.Code)
	}
}
