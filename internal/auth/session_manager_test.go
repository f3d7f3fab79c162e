package auth

import (
	"context"
	"testing"
	"time"
)

func TestManagerIssueAndVerify(t *testing.T) {
	store := NewInMemorySessionStore()
	manager := NewManager(time.Minute, time.Hour, store)

	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected non-empty tokens: %+v", tokens)
	}
	if tokens.AccessToken == tokens.RefreshToken {
		t.Fatal("access and refresh tokens must differ")
	}

	userID, err := manager.Verify(context.Background(), tokens.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("expected user-1, got %s", userID)
	}

	// A refresh token is not an access credential.
	if _, err := manager.Verify(context.Background(), tokens.RefreshToken); err != ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated for refresh token, got %v", err)
	}
}

func TestManagerIssueValidation(t *testing.T) {
	manager := NewManager(time.Minute, time.Hour, NewInMemorySessionStore())
	if _, err := manager.Issue(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty user id")
	}
}

func TestManagerVerifyExpiredAccessToken(t *testing.T) {
	store := NewInMemorySessionStore()
	manager := NewManager(-time.Minute, time.Hour, store)

	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := manager.Verify(context.Background(), tokens.AccessToken); err != ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated for expired token, got %v", err)
	}
	if store.Has(tokens.AccessToken) {
		t.Fatal("expected expired token to be deleted")
	}
}

func TestManagerRefreshRotatesTokens(t *testing.T) {
	store := NewInMemorySessionStore()
	manager := NewManager(time.Minute, time.Hour, store)

	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	refreshed, err := manager.Refresh(context.Background(), tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken == tokens.RefreshToken {
		t.Fatal("expected new refresh token")
	}
	if store.Has(tokens.RefreshToken) {
		t.Fatal("old refresh token should have been removed")
	}

	if userID, err := manager.Verify(context.Background(), refreshed.AccessToken); err != nil || userID != "user-1" {
		t.Fatalf("verify refreshed access token: %s, %v", userID, err)
	}
}

func TestManagerRefreshFailures(t *testing.T) {
	store := NewInMemorySessionStore()
	manager := NewManager(time.Minute, -time.Minute, store)

	if _, err := manager.Refresh(context.Background(), ""); err != ErrSessionNotFound {
		t.Fatalf("expected session not found got %v", err)
	}

	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); err != ErrRefreshTokenExpired {
		t.Fatalf("expected refresh expired got %v", err)
	}

	// An access token cannot be exchanged.
	if _, err := manager.Refresh(context.Background(), tokens.AccessToken); err != ErrSessionNotFound {
		t.Fatalf("expected session not found for access token got %v", err)
	}

	manager = NewManager(time.Minute, time.Hour, store)
	tokens, err = manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	manager.Revoke(context.Background(), tokens.RefreshToken)
	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); err != ErrSessionNotFound {
		t.Fatalf("expected session not found after revoke got %v", err)
	}
}

func TestUserIDContextRoundTrip(t *testing.T) {
	ctx := context.Background()

	if _, err := UserIDFromContext(ctx); err != ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated on bare context, got %v", err)
	}

	ctx = WithUserID(ctx, "user-9")
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		t.Fatalf("user id from context: %v", err)
	}
	if userID != "user-9" {
		t.Fatalf("expected user-9, got %s", userID)
	}
}
