package core

import (
	"errors"
	"strings"
)

const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

type (
	Role string

	// Permissions is the per-user permission set. It is meaningful only for
	// members; an admin is implicitly granted everything.
	Permissions struct {
		EditBudget         bool `json:"canEditBudget"`
		EditCategory       bool `json:"canEditCategory"`
		ManageTransactions bool `json:"canManageTransactions"`
		ManageUsers        bool `json:"canManageUsers"`
	}

	User struct {
		ID           string      `json:"id"`
		Name         string      `json:"name"`
		Login        string      `json:"login"`
		PasswordHash string      `json:"-"`
		Role         Role        `json:"role"`
		Permissions  Permissions `json:"permissions"`
	}
)

var (
	ErrEmptyLogin  = errors.New("empty login name")
	ErrEmptyName   = errors.New("empty display name")
	ErrInvalidRole = errors.New("invalid role")
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Login) == "" {
		return ErrEmptyLogin
	}
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	if !u.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}
