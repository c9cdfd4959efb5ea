package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vinodhj/cf-jwt-auth/internal/auth"
)

var _ auth.UserStore = (*UserStore)(nil)

// UserStore persists principals in the users table.
type UserStore struct {
	db *sql.DB
}

// Users returns the principal store.
func (s *Store) Users() *UserStore { return &UserStore{db: s.db} }

const userColumns = `id, name, email, password_hash, role, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*auth.User, error) {
	var u auth.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user", auth.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) Create(ctx context.Context, u *auth.User) error {
	_, err := s.db.ExecContext(ctx, `
		insert into users (id, name, email, password_hash, role)
		values ($1, $2, $3, $4, $5)
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.Role)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return fmt.Errorf("%w: email already registered", auth.ErrConflict)
		}
		return err
	}
	return nil
}

func (s *UserStore) Find(ctx context.Context, id string) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id = $1`, id)
	return scanUser(row)
}

// FindByEmail matches exactly: addresses compare case-sensitively as stored.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where email = $1`, email)
	return scanUser(row)
}

// lookup columns that FindByField may interpolate. Values always bind as
// parameters; only the validated column name reaches the query text.
var userLookupColumns = map[string]struct{}{
	"id":    {},
	"name":  {},
	"email": {},
	"role":  {},
}

func (s *UserStore) FindByField(ctx context.Context, field, value string) ([]*auth.User, error) {
	field = strings.ToLower(strings.TrimSpace(field))
	if _, ok := userLookupColumns[field]; !ok {
		return nil, fmt.Errorf("%w: unsupported lookup field %q", auth.ErrInvalidInput, field)
	}

	query := `select ` + userColumns + ` from users where ` + field + ` = $1 order by created_at asc`
	if field == "name" {
		query = `select ` + userColumns + ` from users where name like $1 order by created_at asc`
		value = "%" + value + "%"
	}

	rows, err := s.db.QueryContext(ctx, query, value)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (s *UserStore) List(ctx context.Context) ([]*auth.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+userColumns+` from users order by created_at asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func collectUsers(rows *sql.Rows) ([]*auth.User, error) {
	var out []*auth.User
	for rows.Next() {
		var u auth.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}

func (s *UserStore) Update(ctx context.Context, id string, upd auth.UserUpdate) (*auth.User, error) {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 4)
	idx := 1
	if upd.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", idx))
		args = append(args, *upd.Name)
		idx++
	}
	if upd.Email != nil {
		sets = append(sets, fmt.Sprintf("email = $%d", idx))
		args = append(args, *upd.Email)
		idx++
	}
	if upd.Role != nil {
		sets = append(sets, fmt.Sprintf("role = $%d", idx))
		args = append(args, *upd.Role)
		idx++
	}
	if len(sets) == 0 {
		return s.Find(ctx, id)
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf(
		`update users set %s where id = $%d returning `+userColumns,
		strings.Join(sets, ", "), idx)
	row := s.db.QueryRowContext(ctx, query, args...)
	u, err := scanUser(row)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return nil, fmt.Errorf("%w: email already registered", auth.ErrConflict)
		}
		return nil, err
	}
	return u, nil
}

func (s *UserStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`update users set password_hash = $1, updated_at = now() where id = $2`,
		passwordHash, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: user %s", auth.ErrNotFound, id)
	}
	return nil
}

func (s *UserStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from users where id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: user %s", auth.ErrNotFound, id)
	}
	return nil
}
