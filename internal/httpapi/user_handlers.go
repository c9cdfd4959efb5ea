package httpapi

import (
	"net/http"
	"strings"

	"github.com/vinodhj/cf-jwt-auth/internal/audit"
	"github.com/vinodhj/cf-jwt-auth/internal/auth"
	"github.com/vinodhj/cf-jwt-auth/internal/policy"
	"github.com/vinodhj/cf-jwt-auth/internal/session"
)

type editUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Role  *string `json:"role"`
}

// handleUsers serves the collection endpoint. Without query parameters it
// lists everyone (admin only); ?email= and ?field=&value= narrow the lookup.
func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	actor, ok := auth.SessionUserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}

	q := r.URL.Query()
	if email := q.Get("email"); email != "" {
		user, err := a.sessions.UserByEmail(r.Context(), email)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		if !a.policy.Can(actor, policy.ActionRead, policy.User(user.ID)) {
			writeError(w, r, http.StatusForbidden, "UNAUTHORIZED_ROLE", "not allowed to read this user")
			return
		}
		writeJSON(w, http.StatusOK, user)
		return
	}

	// Field lookups and the full list expose arbitrary principals, so both
	// require authority over the whole subject space.
	if !a.policy.Can(actor, policy.ActionRead, policy.Subject{Type: policy.SubjectAll}) {
		writeError(w, r, http.StatusForbidden, "UNAUTHORIZED_ROLE", "admin access required")
		return
	}

	if field := q.Get("field"); field != "" {
		users, err := a.sessions.UsersByField(r.Context(), field, q.Get("value"))
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, users)
		return
	}

	users, err := a.sessions.Users(r.Context())
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/users/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "resource not found")
		return
	}
	actor, ok := auth.SessionUserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		if !a.policy.Can(actor, policy.ActionRead, policy.User(id)) {
			writeError(w, r, http.StatusForbidden, "UNAUTHORIZED_ROLE", "not allowed to read this user")
			return
		}
		user, err := a.sessions.User(r.Context(), id)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)

	case http.MethodPatch:
		if !a.policy.Can(actor, policy.ActionUpdate, policy.User(id)) {
			writeError(w, r, http.StatusForbidden, "UNAUTHORIZED_ROLE", "not allowed to update this user")
			return
		}
		var req editUserRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", err.Error())
			return
		}
		user, err := a.sessions.EditUser(r.Context(), actor, session.EditUserInput{
			ID:    id,
			Name:  req.Name,
			Email: req.Email,
			Role:  req.Role,
		})
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "user.update", map[string]any{
			"target_id": id,
		})
		writeJSON(w, http.StatusOK, user)

	case http.MethodDelete:
		if !a.policy.Can(actor, policy.ActionDelete, policy.User(id)) {
			writeError(w, r, http.StatusForbidden, "UNAUTHORIZED_ROLE", "not allowed to delete this user")
			return
		}
		if err := a.sessions.DeleteUser(r.Context(), id); err != nil {
			handleAuthError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "user.delete", map[string]any{
			"target_id": id,
		})
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

// handleKVAsset exposes raw key-value entries to admins, mirroring the
// operational "look inside the namespace" escape hatch.
func (a *API) handleKVAsset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	key := strings.TrimPrefix(r.URL.Path, "/v1/kv/")
	if key == "" {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "resource not found")
		return
	}
	actor, ok := auth.SessionUserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}
	if !a.policy.Can(actor, policy.ActionRead, policy.Subject{Type: policy.SubjectAll}) {
		writeError(w, r, http.StatusForbidden, "UNAUTHORIZED_ROLE", "admin access required")
		return
	}

	value, found, err := a.assets.Get(r.Context(), key)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	if !found {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "key not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"key":   key,
		"value": value,
	})
}
