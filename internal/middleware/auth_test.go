package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fitstreak/backend/internal/auth"
)

type staticVerifier struct {
	token  string
	userID string
}

func (v staticVerifier) Verify(_ context.Context, accessToken string) (string, error) {
	if accessToken != v.token {
		return "", errors.New("unknown token")
	}
	return v.userID, nil
}

func TestRequireAuthPassesUserID(t *testing.T) {
	var gotUserID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := auth.UserIDFromContext(r.Context())
		if err != nil {
			t.Fatalf("user id from context: %v", err)
		}
		gotUserID = userID
		w.WriteHeader(http.StatusNoContent)
	})

	handler := RequireAuth(staticVerifier{token: "valid-token", userID: "user-7"})(next)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rec.Code)
	}
	if gotUserID != "user-7" {
		t.Fatalf("expected user-7, got %q", gotUserID)
	}
}

func TestRequireAuthRejectsMissingOrBadTokens(t *testing.T) {
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("next handler should not run")
	})
	handler := RequireAuth(staticVerifier{token: "valid-token", userID: "user-7"})(next)

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"wrong token", "Bearer nope"},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", tc.name, rec.Code)
		}
	}
}

func TestRequireAuthAcceptsLowercaseScheme(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireAuth(staticVerifier{token: "valid-token", userID: "user-7"})(next)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "bearer valid-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rec.Code)
	}
}
