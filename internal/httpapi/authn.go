package httpapi

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/vinodhj/cf-jwt-auth/internal/auth"
)

const (
	authHeader         = "Authorization"
	bearer             = "Bearer "
	projectTokenHeader = "X-Project-Token"
)

// Paths reachable without a bearer token.
var publicPaths = []string{
	"/v1/auth/login",
	"/metrics",
	"/healthz",
	"/readyz",
}

// Paths where a bearer token is honored when present but not required.
// Signup is open to anonymous callers; an authenticated admin may also use
// it to grant roles.
var optionalAuthPaths = []string{
	"/v1/auth/signup",
}

// Probe and scrape endpoints bypass the project-token gate.
var ungatedPaths = []string{
	"/metrics",
	"/healthz",
	"/readyz",
}

// withProjectToken rejects any gated request whose X-Project-Token header
// does not match the configured value. Fail closed: no configured token
// means no access.
func (a *API) withProjectToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || containsPath(ungatedPaths, r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		presented := strings.TrimSpace(r.Header.Get(projectTokenHeader))
		if a.projectToken == "" || presented == "" ||
			subtle.ConstantTimeCompare([]byte(presented), []byte(a.projectToken)) != 1 {
			writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid project token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || containsPath(publicPaths, r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get(authHeader)
		if header == "" && containsPath(optionalAuthPaths, r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(header)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
			return
		}

		user, _, err := a.sessions.Authenticate(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrTokenRevoked):
				writeError(w, r, http.StatusUnauthorized, auth.Code(err), "token revoked")
			case errors.Is(err, auth.ErrUnauthorized):
				writeError(w, r, http.StatusUnauthorized, auth.Code(err), "invalid token")
			default:
				writeError(w, r, http.StatusInternalServerError, auth.Code(err), "authentication error")
			}
			return
		}

		ctx := auth.ContextWithSessionUser(r.Context(), user)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractBearerToken accepts the scheme case-insensitively; proxies are not
// consistent about "Bearer" vs "bearer".
func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func containsPath(paths []string, path string) bool {
	for _, p := range paths {
		if path == p {
			return true
		}
	}
	return false
}
