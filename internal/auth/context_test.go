package auth

import (
	"context"
	"testing"
)

func TestSessionUserContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	if _, ok := SessionUserFromContext(ctx); ok {
		t.Fatal("expected no session user on empty context")
	}

	user := SessionUser{ID: "u-1", Email: "a@example.com", Name: "A", Role: RoleAdmin}
	ctx = ContextWithSessionUser(ctx, user)

	got, ok := SessionUserFromContext(ctx)
	if !ok {
		t.Fatal("expected session user")
	}
	if got != user {
		t.Fatalf("unexpected session user: %+v", got)
	}
	if !got.IsAdmin() {
		t.Fatal("expected admin")
	}
}

func TestTokenContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	if _, ok := TokenFromContext(ctx); ok {
		t.Fatal("expected no token on empty context")
	}
	ctx = ContextWithToken(ctx, "raw-token")
	tok, ok := TokenFromContext(ctx)
	if !ok || tok != "raw-token" {
		t.Fatalf("unexpected token: %q ok=%v", tok, ok)
	}
	if ctx := ContextWithToken(context.Background(), ""); ctx != context.Background() {
		t.Fatal("empty token should not be stored")
	}
}

func TestParseRole(t *testing.T) {
	if role, err := ParseRole(""); err != nil || role != RoleUser {
		t.Fatalf("empty role: got %s, %v", role, err)
	}
	if role, err := ParseRole("ADMIN"); err != nil || role != RoleAdmin {
		t.Fatalf("admin role: got %s, %v", role, err)
	}
	if _, err := ParseRole("SUPERUSER"); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestErrorCodes(t *testing.T) {
	cases := map[error]string{
		ErrNotFound:     "NOT_FOUND",
		ErrConflict:     "CONFLICT",
		ErrInvalidInput: "INVALID_INPUT",
		ErrUnauthorized: "UNAUTHORIZED",
		ErrTokenRevoked: "TOKEN_REVOKED",
		ErrForbidden:    "UNAUTHORIZED_ROLE",
		ErrInternal:     "INTERNAL_SERVER_ERROR",
	}
	for err, want := range cases {
		if got := Code(err); got != want {
			t.Fatalf("Code(%v)=%s, want %s", err, got, want)
		}
	}
}
