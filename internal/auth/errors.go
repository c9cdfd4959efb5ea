package auth

import "errors"

// Sentinel error kinds. Inner components return these unchanged; the HTTP
// boundary translates them into status codes and stable machine codes.
var (
	ErrNotFound     = errors.New("auth: not found")
	ErrConflict     = errors.New("auth: already exists")
	ErrInvalidInput = errors.New("auth: invalid input")
	ErrUnauthorized = errors.New("auth: unauthorized")
	ErrTokenRevoked = errors.New("auth: token revoked")
	ErrForbidden    = errors.New("auth: insufficient role")
	ErrInternal     = errors.New("auth: internal error")
)

// Code returns the stable machine-readable code for a known error kind.
// Unknown errors report INTERNAL_SERVER_ERROR; the raw message is logged,
// never exposed.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrConflict):
		return "CONFLICT"
	case errors.Is(err, ErrInvalidInput):
		return "INVALID_INPUT"
	case errors.Is(err, ErrTokenRevoked):
		return "TOKEN_REVOKED"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrForbidden):
		return "UNAUTHORIZED_ROLE"
	default:
		return "INTERNAL_SERVER_ERROR"
	}
}
