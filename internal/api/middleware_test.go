package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signSessionToken(t *testing.T, secret, subject string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return signed
}

func TestSessionAuthMiddleware(t *testing.T) {
	const secret = "test-secret"

	var capturedEmail string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, ok := GetAccountEmail(r.Context())
		if !ok {
			t.Fatal("expected email in context")
		}
		capturedEmail = email
		w.WriteHeader(http.StatusOK)
	})
	handler := SessionAuthMiddleware(secret)(next)

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{name: "missing header", authHeader: "", wantStatus: http.StatusUnauthorized},
		{name: "malformed header", authHeader: "Token abc", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", authHeader: "Bearer not.a.jwt", wantStatus: http.StatusUnauthorized},
		{name: "wrong secret", authHeader: "Bearer " + signSessionToken(t, "other-secret", "holder@example.com", time.Minute), wantStatus: http.StatusUnauthorized},
		{name: "expired token", authHeader: "Bearer " + signSessionToken(t, secret, "holder@example.com", -time.Minute), wantStatus: http.StatusUnauthorized},
		{name: "valid token", authHeader: "Bearer " + signSessionToken(t, secret, "holder@example.com", time.Minute), wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}

	if capturedEmail != "holder@example.com" {
		t.Fatalf("expected holder email in context, got %q", capturedEmail)
	}
}

func TestSessionAuthMiddleware_RejectsUnexpectedSigningMethod(t *testing.T) {
	// An unsigned token must never pass HMAC validation.
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "holder@example.com"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to build none-alg token: %v", err)
	}

	handler := SessionAuthMiddleware("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for a none-alg token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for none-alg token, got %d", rec.Code)
	}
}

func TestInternalAPIKeyMiddleware(t *testing.T) {
	handler := InternalAPIKeyMiddleware("shared-key")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	tests := []struct {
		name       string
		key        string
		wantStatus int
	}{
		{name: "missing key", key: "", wantStatus: http.StatusForbidden},
		{name: "wrong key", key: "other-key", wantStatus: http.StatusForbidden},
		{name: "correct key", key: "shared-key", wantStatus: http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/internal/accounts", nil)
			if tt.key != "" {
				req.Header.Set("X-Internal-Api-Key", tt.key)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestInternalAPIKeyMiddleware_EmptyConfiguredKeyDeniesAll(t *testing.T) {
	handler := InternalAPIKeyMiddleware("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run when no key is configured")
	}))

	req := httptest.NewRequest(http.MethodPost, "/internal/accounts", nil)
	req.Header.Set("X-Internal-Api-Key", "")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 when no key is configured, got %d", rec.Code)
	}
}
