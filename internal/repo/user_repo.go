package repo

import (
	"context"

	dom "AgentAction/internal/domain"

	"github.com/jackc/pgx/v5"
)

// UserRepo provides persistence for basic-auth accounts.
type UserRepo interface {
	GetByUsername(ctx context.Context, username string) (dom.User, error)
	Create(ctx context.Context, username, passwordHash string) (dom.User, error)
	UpdatePassword(ctx context.Context, username, passwordHash string) (dom.User, error)
}

// PGUserRepo implements UserRepo with Postgres.
type PGUserRepo struct {
	db DBTX
}

// NewPGUserRepo returns a new PGUserRepo.
func NewPGUserRepo(db DBTX) *PGUserRepo {
	return &PGUserRepo{db: db}
}

// GetByUsername returns the account or pgx.ErrNoRows.
func (r *PGUserRepo) GetByUsername(ctx context.Context, username string) (dom.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = $1`,
		username,
	)
	return scanUser(row)
}

func (r *PGUserRepo) Create(ctx context.Context, username, passwordHash string) (dom.User, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		RETURNING id, username, password_hash, created_at`,
		username, passwordHash,
	)
	return scanUser(row)
}

// UpdatePassword replaces the hash of an existing account; pgx.ErrNoRows if absent.
func (r *PGUserRepo) UpdatePassword(ctx context.Context, username, passwordHash string) (dom.User, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE users SET password_hash = $2 WHERE username = $1
		RETURNING id, username, password_hash, created_at`,
		username, passwordHash,
	)
	return scanUser(row)
}

func scanUser(row pgx.Row) (dom.User, error) {
	var u dom.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	return u, err
}
