package auth

import (
	"context"
	"strings"
	"time"
)

// Role gates access to administrative operations.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// ParseRole validates a role value. Empty input defaults to USER.
func ParseRole(raw string) (Role, error) {
	switch strings.TrimSpace(raw) {
	case "":
		return RoleUser, nil
	case string(RoleAdmin):
		return RoleAdmin, nil
	case string(RoleUser):
		return RoleUser, nil
	default:
		return "", ErrInvalidInput
	}
}

// User is the stored principal. PasswordHash never leaves the service;
// Public() strips it before anything crosses the boundary.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PublicUser is the projection safe to return to callers.
type PublicUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Public returns the user without credential material.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Credentials is transient login input. Never persisted, never logged.
type Credentials struct {
	Email    string
	Password string
}

// UserUpdate carries optional field changes for edit operations.
type UserUpdate struct {
	Name  *string
	Email *string
	Role  *Role
}

// UserStore is the persistence contract for principals. Email comparison is
// exact: addresses are stored and matched case-sensitively.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByField(ctx context.Context, field, value string) ([]*User, error)
	List(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, id string, upd UserUpdate) (*User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
}
