package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"marketflow/internal/core"
)

// AddUser creates an account. Uniqueness of the login name is enforced here,
// not just by the caller's pre-check.
func (s *Store) AddUser(ctx context.Context, u core.User) (core.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	var exists int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE login = ?", u.Login).Scan(&exists); err != nil {
		return core.User{}, fmt.Errorf("check login: %w", err)
	}
	if exists > 0 {
		return core.User{}, ErrLoginExists
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, login, password_hash, role,
		   can_edit_budget, can_edit_category, can_manage_tx, can_manage_users)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Login, u.PasswordHash, string(u.Role),
		boolToInt(u.Permissions.EditBudget), boolToInt(u.Permissions.EditCategory),
		boolToInt(u.Permissions.ManageTransactions), boolToInt(u.Permissions.ManageUsers),
	)
	if err != nil {
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}

	slog.InfoContext(ctx, "User created", "id", u.ID, "login", u.Login, "role", u.Role)
	return u, nil
}

// DeleteUser removes an account. A user may never delete their own account.
func (s *Store) DeleteUser(ctx context.Context, id, actingID string) error {
	if id == actingID {
		return ErrSelfDelete
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) GetUserByLogin(ctx context.Context, login string) (core.User, error) {
	return s.getUser(ctx, "login", login)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (core.User, error) {
	return s.getUser(ctx, "id", id)
}

func (s *Store) getUser(ctx context.Context, col, val string) (core.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, login, password_hash, role,
		   can_edit_budget, can_edit_category, can_manage_tx, can_manage_users
		 FROM users WHERE `+col+` = ?`, val)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return core.User{}, ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by %s: %w", col, err)
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, login, password_hash, role,
		   can_edit_budget, can_edit_category, can_manage_tx, can_manage_users
		 FROM users ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []core.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func scanUser(r rowScanner) (core.User, error) {
	var u core.User
	var role string
	var eb, ec, mt, mu int
	err := r.Scan(&u.ID, &u.Name, &u.Login, &u.PasswordHash, &role, &eb, &ec, &mt, &mu)
	u.Role = core.Role(role)
	u.Permissions = core.Permissions{
		EditBudget:         eb != 0,
		EditCategory:       ec != 0,
		ManageTransactions: mt != 0,
		ManageUsers:        mu != 0,
	}
	return u, err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
