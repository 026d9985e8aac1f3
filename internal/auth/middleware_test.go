package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok")) //nolint:errcheck
	})
}

func doRequest(t *testing.T, h http.Handler, header, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	if key != "" {
		req.Header.Set(header, key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAPIKeyMiddleware_ModeNone_PassesThrough(t *testing.T) {
	h := APIKeyMiddleware("none", "x-api-key", "secret", okHandler())
	// No key on the request — still passes because mode != "apikey".
	if rec := doRequest(t, h, "", ""); rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
}

func TestAPIKeyMiddleware_EmptyKey_PassesThrough(t *testing.T) {
	// key="" means auth is not configured → allow all.
	h := APIKeyMiddleware("apikey", "x-api-key", "", okHandler())
	if rec := doRequest(t, h, "", ""); rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
}

func TestAPIKeyMiddleware_CorrectKey_Passes(t *testing.T) {
	h := APIKeyMiddleware("apikey", "x-api-key", "supersecret", okHandler())
	if rec := doRequest(t, h, "x-api-key", "supersecret"); rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
}

func TestAPIKeyMiddleware_WrongKey_Unauthorized(t *testing.T) {
	h := APIKeyMiddleware("apikey", "x-api-key", "supersecret", okHandler())
	rec := doRequest(t, h, "x-api-key", "wrong")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}
}

func TestAPIKeyMiddleware_MissingHeader_Unauthorized(t *testing.T) {
	h := APIKeyMiddleware("apikey", "x-api-key", "supersecret", okHandler())
	if rec := doRequest(t, h, "", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rec.Code)
	}
}

func TestAPIKeyMiddleware_CustomHeader(t *testing.T) {
	h := APIKeyMiddleware("apikey", "x-axiom-token", "mytoken", okHandler())
	if rec := doRequest(t, h, "x-axiom-token", "mytoken"); rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
}
