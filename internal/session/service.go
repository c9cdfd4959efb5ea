// Package session implements the token issuance and revocation protocol:
// stateless signed tokens carrying a per-principal version counter, checked
// against the live counter on every authentication so a single bump revokes
// every outstanding token.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vinodhj/cf-jwt-auth/internal/audit"
	"github.com/vinodhj/cf-jwt-auth/internal/auth"
	"github.com/vinodhj/cf-jwt-auth/internal/ids"
	"github.com/vinodhj/cf-jwt-auth/internal/kv"
	"github.com/vinodhj/cf-jwt-auth/internal/obs"
)

const defaultTokenTTL = 8 * time.Hour

// Service orchestrates credential checks, token minting and revocation.
type Service struct {
	users    auth.UserStore
	versions *kv.VersionStore
	codec    *auth.Codec
	recorder *audit.Recorder

	tokenTTL time.Duration
	now      func() time.Time
}

// Option configures Service behavior.
type Option func(*Service)

// WithTokenTTL overrides the access token lifetime.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

// WithRecorder enables persisted audit records for verification failures.
func WithRecorder(rec *audit.Recorder) Option {
	return func(s *Service) { s.recorder = rec }
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the session authority. Store, version store and
// codec are required collaborators.
func NewService(users auth.UserStore, versions *kv.VersionStore, codec *auth.Codec, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if versions == nil {
		return nil, fmt.Errorf("version store is required")
	}
	if codec == nil {
		return nil, fmt.Errorf("token codec is required")
	}
	s := &Service{
		users:    users,
		versions: versions,
		codec:    codec,
		tokenTTL: defaultTokenTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SignUpInput is the signup request payload.
type SignUpInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// SignUp registers a principal. Role defaults to USER; only an
// authenticated ADMIN actor may create another ADMIN.
func (s *Service) SignUp(ctx context.Context, input SignUpInput, actor *auth.SessionUser) (auth.PublicUser, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return auth.PublicUser{}, fmt.Errorf("%w: name is required", auth.ErrInvalidInput)
	}
	email := strings.TrimSpace(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return auth.PublicUser{}, fmt.Errorf("%w: valid email is required", auth.ErrInvalidInput)
	}
	if len(input.Password) < 8 {
		return auth.PublicUser{}, fmt.Errorf("%w: password must be at least 8 characters", auth.ErrInvalidInput)
	}
	role, err := auth.ParseRole(input.Role)
	if err != nil {
		return auth.PublicUser{}, fmt.Errorf("%w: unsupported role %q", auth.ErrInvalidInput, input.Role)
	}
	if role == auth.RoleAdmin && (actor == nil || !actor.IsAdmin()) {
		return auth.PublicUser{}, fmt.Errorf("%w: only an admin may grant ADMIN", auth.ErrForbidden)
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return auth.PublicUser{}, err
	}

	now := s.now().UTC()
	user := &auth.User{
		ID:           ids.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return auth.PublicUser{}, err
	}
	return user.Public(), nil
}

// LoginResult is what a successful login returns: the minted token plus the
// principal projection and the version frozen into the claims.
type LoginResult struct {
	Token        string
	ExpiresAt    time.Time
	TokenVersion int64
	User         auth.PublicUser
}

// Login verifies credentials, reads the principal's current token version
// and mints a token embedding it.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return LoginResult{}, fmt.Errorf("%w: email and password are required", auth.ErrInvalidInput)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return LoginResult{}, err
	}

	// The version read depends only on the email, so it can overlap the
	// comparatively expensive bcrypt check.
	type versionResult struct {
		version int64
		err     error
	}
	versionCh := make(chan versionResult, 1)
	go func() {
		v, err := s.versions.Get(ctx, email)
		versionCh <- versionResult{version: v, err: err}
	}()

	ok, err := auth.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return LoginResult{}, err
	}
	if !ok {
		return LoginResult{}, fmt.Errorf("%w: invalid password", auth.ErrUnauthorized)
	}

	vr := <-versionCh
	if vr.err != nil {
		return LoginResult{}, fmt.Errorf("%w: %v", auth.ErrInternal, vr.err)
	}

	token, expiresAt, err := s.codec.Issue(user.Public(), vr.version, s.tokenTTL)
	if err != nil {
		return LoginResult{}, err
	}
	obs.TokenIssued()

	return LoginResult{
		Token:        token,
		ExpiresAt:    expiresAt,
		TokenVersion: vr.version,
		User:         user.Public(),
	}, nil
}

// Authenticate validates a presented token: signature and expiry first, then
// the version counter. A stale version fails with ErrTokenRevoked, which is
// distinct from ErrUnauthorized so clients can tell "log in again" from "bad
// credentials". Every failure leaves a best-effort audit record.
func (s *Service) Authenticate(ctx context.Context, token string) (auth.SessionUser, *auth.Claims, error) {
	claims, err := s.codec.Verify(token)
	if err != nil {
		s.recordFailure(ctx, token, err, verifyFailureReason(err))
		return auth.SessionUser{}, nil, err
	}

	current, err := s.versions.Get(ctx, claims.Email)
	if err != nil {
		return auth.SessionUser{}, nil, fmt.Errorf("%w: %v", auth.ErrInternal, err)
	}
	if claims.TokenVersion != current {
		err := fmt.Errorf("%w: token version %d superseded by %d", auth.ErrTokenRevoked, claims.TokenVersion, current)
		s.recordFailure(ctx, token, err, "revoked")
		return auth.SessionUser{}, nil, err
	}

	return auth.SessionUser{
		ID:    claims.Subject,
		Email: claims.Email,
		Name:  claims.Name,
		Role:  claims.Role,
	}, claims, nil
}

// Revoke bumps the principal's version counter, invalidating every token
// issued before the bump. Retrying after a partial failure is idempotent in
// effect: any successful bump invalidates all older tokens.
func (s *Service) Revoke(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", auth.ErrInvalidInput)
	}
	if _, err := s.versions.Increment(ctx, email); err != nil {
		return fmt.Errorf("%w: %v", auth.ErrInternal, err)
	}
	obs.TokenRevoked()
	return nil
}

// Logout verifies the presented token's signature and revokes the claimed
// principal. The version counter is deliberately not compared first: logging
// out an already-revoked session is harmless.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.codec.Verify(token)
	if err != nil {
		s.recordFailure(ctx, token, err, verifyFailureReason(err))
		return err
	}
	return s.Revoke(ctx, claims.Email)
}

// ChangePassword rotates a principal's password after verifying the current
// one. Outstanding tokens stay valid: forcing re-login on password change is
// a product decision this service does not take.
func (s *Service) ChangePassword(ctx context.Context, id, currentPassword, newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		return fmt.Errorf("%w: password confirmation does not match", auth.ErrInvalidInput)
	}
	if len(newPassword) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", auth.ErrInvalidInput)
	}
	user, err := s.users.Find(ctx, id)
	if err != nil {
		return err
	}
	ok, err := auth.VerifyPassword(user.PasswordHash, currentPassword)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: current password is incorrect", auth.ErrUnauthorized)
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, id, hash)
}

func (s *Service) recordFailure(ctx context.Context, token string, err error, reason string) {
	obs.TokenVerifyFailed(reason)
	s.recorder.RecordVerifyFailure(ctx, token, err)
}

func verifyFailureReason(err error) string {
	if err == nil {
		return "none"
	}
	if strings.Contains(err.Error(), "expired") {
		return "expired"
	}
	return "signature"
}
