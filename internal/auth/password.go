// Package auth verifies credentials and issues session tokens. Passwords are
// bcrypt-hashed; the stored user list never holds plaintext.
package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"marketflow/internal/core"
)

var (
	// ErrInvalidCredentials is returned for unknown logins and wrong passwords
	// alike, so responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid login or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

// UserSource is the slice of the record store the authenticator needs.
type UserSource interface {
	GetUserByLogin(ctx context.Context, login string) (core.User, error)
}

// PasswordAuthenticator implements login-name + password authentication.
type PasswordAuthenticator struct {
	users UserSource
}

func NewPasswordAuthenticator(users UserSource) *PasswordAuthenticator {
	return &PasswordAuthenticator{users: users}
}

// ValidateCredential checks minimum password requirements for new accounts.
func (a *PasswordAuthenticator) ValidateCredential(password string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}
	return nil
}

// HashPassword produces the bcrypt hash stored with a user record.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Authenticate verifies the login name and password, returning the user if
// valid. Every failure collapses into ErrInvalidCredentials.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, login, password string) (core.User, error) {
	user, err := a.users.GetUserByLogin(ctx, login)
	if err != nil {
		return core.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return core.User{}, ErrInvalidCredentials
	}
	return user, nil
}
