package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/vinodhj/cf-jwt-auth/internal/auth"
)

// allowed lookup columns for UsersByField.
var lookupFields = map[string]struct{}{
	"id":    {},
	"name":  {},
	"email": {},
	"role":  {},
}

// Users lists every principal without credential material.
func (s *Service) Users(ctx context.Context) ([]auth.PublicUser, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	return project(users), nil
}

// User looks up a single principal by id.
func (s *Service) User(ctx context.Context, id string) (auth.PublicUser, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return auth.PublicUser{}, fmt.Errorf("%w: user id is required", auth.ErrInvalidInput)
	}
	user, err := s.users.Find(ctx, id)
	if err != nil {
		return auth.PublicUser{}, err
	}
	return user.Public(), nil
}

// UserByEmail looks up a single principal. Matching is exact and
// case-sensitive, the same as login.
func (s *Service) UserByEmail(ctx context.Context, email string) (auth.PublicUser, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return auth.PublicUser{}, fmt.Errorf("%w: email is required", auth.ErrInvalidInput)
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return auth.PublicUser{}, err
	}
	return user.Public(), nil
}

// UsersByField queries principals by one of the allowed columns.
func (s *Service) UsersByField(ctx context.Context, field, value string) ([]auth.PublicUser, error) {
	field = strings.TrimSpace(strings.ToLower(field))
	if _, ok := lookupFields[field]; !ok {
		return nil, fmt.Errorf("%w: unsupported lookup field %q", auth.ErrInvalidInput, field)
	}
	if strings.TrimSpace(value) == "" {
		return nil, fmt.Errorf("%w: value is required", auth.ErrInvalidInput)
	}
	users, err := s.users.FindByField(ctx, field, value)
	if err != nil {
		return nil, err
	}
	return project(users), nil
}

// EditUserInput carries optional profile changes.
type EditUserInput struct {
	ID    string
	Name  *string
	Email *string
	Role  *string
}

// EditUser updates profile fields. Only an ADMIN actor may change a role;
// self-or-admin access to the record itself is the policy layer's call.
func (s *Service) EditUser(ctx context.Context, actor auth.SessionUser, input EditUserInput) (auth.PublicUser, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return auth.PublicUser{}, fmt.Errorf("%w: user id is required", auth.ErrInvalidInput)
	}
	upd := auth.UserUpdate{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return auth.PublicUser{}, fmt.Errorf("%w: name is required", auth.ErrInvalidInput)
		}
		upd.Name = &name
	}
	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if email == "" || !strings.Contains(email, "@") {
			return auth.PublicUser{}, fmt.Errorf("%w: valid email is required", auth.ErrInvalidInput)
		}
		upd.Email = &email
	}
	if input.Role != nil {
		if !actor.IsAdmin() {
			return auth.PublicUser{}, fmt.Errorf("%w: only an admin may change roles", auth.ErrForbidden)
		}
		role, err := auth.ParseRole(*input.Role)
		if err != nil {
			return auth.PublicUser{}, fmt.Errorf("%w: unsupported role %q", auth.ErrInvalidInput, *input.Role)
		}
		upd.Role = &role
	}
	user, err := s.users.Update(ctx, id, upd)
	if err != nil {
		return auth.PublicUser{}, err
	}
	return user.Public(), nil
}

// DeleteUser removes a principal. The caller's authority is checked by the
// policy layer before this runs.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: user id is required", auth.ErrInvalidInput)
	}
	return s.users.Delete(ctx, id)
}

func project(users []*auth.User) []auth.PublicUser {
	out := make([]auth.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out
}
