package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const testSecret = "middleware-test-secret"

func signedToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return signed
}

func defaultClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"user_id": 7,
		"role":    "host",
		"iat":     now.Unix(),
		"exp":     now.Add(time.Hour).Unix(),
	}
}

func runThroughAuthenticator(t *testing.T, authHeader string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	auth := NewAuthenticator(testSecret)
	reached := false

	handler := auth.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, reached
}

func TestAuthenticate_ValidToken(t *testing.T) {
	token := signedToken(t, testSecret, defaultClaims())
	rec, reached := runThroughAuthenticator(t, "Bearer "+token)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !reached {
		t.Error("inner handler was not reached with a valid token")
	}
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	rec, reached := runThroughAuthenticator(t, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if reached {
		t.Error("inner handler reached without a token")
	}
}

func TestAuthenticate_MalformedHeader(t *testing.T) {
	rec, reached := runThroughAuthenticator(t, "Token abc")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if reached {
		t.Error("inner handler reached with a malformed header")
	}
}

func TestAuthenticate_WrongSecret(t *testing.T) {
	token := signedToken(t, "some-other-secret", defaultClaims())
	rec, reached := runThroughAuthenticator(t, "Bearer "+token)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if reached {
		t.Error("inner handler reached with a forged token")
	}
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	claims := defaultClaims()
	claims["exp"] = time.Now().Add(-time.Hour).Unix()
	token := signedToken(t, testSecret, claims)

	rec, reached := runThroughAuthenticator(t, "Bearer "+token)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if reached {
		t.Error("inner handler reached with an expired token")
	}
}

func TestAuthenticate_ClaimsLandInContext(t *testing.T) {
	auth := NewAuthenticator(testSecret)
	token := signedToken(t, testSecret, defaultClaims())

	var gotID int
	var gotRole string
	handler := auth.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := GetUserIDFromContext(r.Context())
		if err != nil {
			t.Errorf("GetUserIDFromContext() error: %v", err)
		}
		role, err := GetUserRoleFromContext(r.Context())
		if err != nil {
			t.Errorf("GetUserRoleFromContext() error: %v", err)
		}
		gotID, gotRole = id, string(role)
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotID != 7 {
		t.Errorf("user id = %d, want 7", gotID)
	}
	if gotRole != "host" {
		t.Errorf("role = %q, want host", gotRole)
	}
}

func TestGetUserIDFromContext_MissingClaims(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := GetUserIDFromContext(req.Context()); err == nil {
		t.Error("expected an error with no claims in context")
	}
}
