package auth

import (
	"context"
	"crypto/subtle"
	"errors"

	"AgentAction/internal/config"
	"AgentAction/internal/service"

	"golang.org/x/crypto/bcrypt"
)

// Authenticator checks a basic-auth credential pair. A non-nil error means
// the check itself could not run, not that the credentials are wrong.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (bool, error)
}

// StaticAuthenticator accepts a single configured account.
type StaticAuthenticator struct {
	username []byte
	password []byte
	hash     []byte
}

// NewStaticAuthenticator uses cfg.PasswordHash when set, cfg.Password otherwise.
func NewStaticAuthenticator(cfg config.AuthConfig) *StaticAuthenticator {
	a := &StaticAuthenticator{username: []byte(cfg.Username)}
	if cfg.PasswordHash != "" {
		a.hash = []byte(cfg.PasswordHash)
	} else {
		a.password = []byte(cfg.Password)
	}
	return a
}

func (a *StaticAuthenticator) Authenticate(_ context.Context, username, password string) (bool, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), a.username) == 1
	var passOK bool
	if a.hash != nil {
		passOK = bcrypt.CompareHashAndPassword(a.hash, []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), a.password) == 1
	}
	return userOK && passOK, nil
}

// UserAuthenticator checks credentials against the users table.
type UserAuthenticator struct {
	users *service.UserService
}

func NewUserAuthenticator(users *service.UserService) *UserAuthenticator {
	return &UserAuthenticator{users: users}
}

func (a *UserAuthenticator) Authenticate(ctx context.Context, username, password string) (bool, error) {
	_, err := a.users.ValidateCredentials(ctx, username, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
