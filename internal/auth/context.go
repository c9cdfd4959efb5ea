package auth

import "context"

// SessionUser is the authenticated identity carried through a request.
type SessionUser struct {
	ID    string
	Email string
	Name  string
	Role  Role
}

// IsAdmin reports whether the session user holds the ADMIN role.
func (u SessionUser) IsAdmin() bool { return u.Role == RoleAdmin }

type sessionUserContextKey struct{}
type tokenContextKey struct{}

// ContextWithSessionUser attaches the authenticated user to the context.
func ContextWithSessionUser(ctx context.Context, user SessionUser) context.Context {
	return context.WithValue(ctx, sessionUserContextKey{}, &user)
}

// SessionUserFromContext extracts the authenticated user from the context.
func SessionUserFromContext(ctx context.Context) (SessionUser, bool) {
	if ctx == nil {
		return SessionUser{}, false
	}
	v, ok := ctx.Value(sessionUserContextKey{}).(*SessionUser)
	if !ok || v == nil {
		return SessionUser{}, false
	}
	return *v, true
}

// ContextWithToken stores the raw bearer token inside the context.
func ContextWithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenContextKey{}, token)
}

// TokenFromContext returns the bearer token if it was previously attached.
func TokenFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(tokenContextKey{}).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
