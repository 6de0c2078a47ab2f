package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	dom "AgentAction/internal/domain"
	"AgentAction/internal/repo"
	"AgentAction/internal/utils"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
)

// UserService handles accounts stored in Postgres.
type UserService struct {
	repo repo.UserRepo
}

// NewUserService returns a new UserService.
func NewUserService(repo repo.UserRepo) *UserService {
	return &UserService{repo: repo}
}

// ValidateCredentials returns the account when password matches. Unknown
// users cost one bcrypt comparison too, so timing does not reveal which
// usernames exist.
func (s *UserService) ValidateCredentials(ctx context.Context, username, password string) (dom.User, error) {
	username, err := normalizeCredentials(username, password)
	if err != nil {
		return dom.User{}, err
	}
	u, err := s.repo.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		_ = bcrypt.CompareHashAndPassword(unknownUserHash(), []byte(password))
		return dom.User{}, ErrInvalidCredentials
	case err != nil:
		return dom.User{}, fmt.Errorf("load user %q: %w", username, err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return dom.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// Register creates an account; ErrUsernameTaken if it already exists.
func (s *UserService) Register(ctx context.Context, username, password string) (dom.User, error) {
	username, err := normalizeCredentials(username, password)
	if err != nil {
		return dom.User{}, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return dom.User{}, err
	}
	return s.insert(ctx, username, hash)
}

// SetPassword creates the account or replaces its password.
func (s *UserService) SetPassword(ctx context.Context, username, password string) (dom.User, error) {
	username, err := normalizeCredentials(username, password)
	if err != nil {
		return dom.User{}, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return dom.User{}, err
	}
	u, err := s.insert(ctx, username, hash)
	if errors.Is(err, ErrUsernameTaken) {
		return s.repo.UpdatePassword(ctx, username, hash)
	}
	return u, err
}

func (s *UserService) insert(ctx context.Context, username, hash string) (dom.User, error) {
	u, err := s.repo.Create(ctx, username, hash)
	if utils.IsPGUniqueViolation(err) {
		return dom.User{}, ErrUsernameTaken
	}
	return u, err
}

// normalizeCredentials trims the username; both parts must be non-empty.
func normalizeCredentials(username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", ErrInvalidCredentials
	}
	return username, nil
}

var (
	unknownHashOnce sync.Once
	unknownHash     []byte
)

func unknownUserHash() []byte {
	unknownHashOnce.Do(func() {
		unknownHash, _ = bcrypt.GenerateFromPassword([]byte("unknown-user"), bcrypt.DefaultCost)
	})
	return unknownHash
}

// HashPassword returns a bcrypt hash suitable for AUTH_PASSWORD_HASH or the users table.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
