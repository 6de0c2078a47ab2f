package repo

import (
	"context"

	dom "AgentAction/internal/domain"
)

// InvocationRepo stores the history of action calls.
type InvocationRepo interface {
	Create(ctx context.Context, inv dom.Invocation) (dom.Invocation, error)
	ListRecent(ctx context.Context, limit int) ([]dom.Invocation, error)
}

// PGInvocationRepo implements InvocationRepo with Postgres.
type PGInvocationRepo struct {
	db DBTX
}

// NewPGInvocationRepo returns a new PGInvocationRepo.
func NewPGInvocationRepo(db DBTX) *PGInvocationRepo {
	return &PGInvocationRepo{db: db}
}

func (r *PGInvocationRepo) Create(ctx context.Context, inv dom.Invocation) (dom.Invocation, error) {
	query := `
		INSERT INTO invocations (id, action, name, status, error)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id::text, action, name, status, error, created_at`
	var out dom.Invocation
	err := r.db.QueryRow(ctx, query, inv.ID, inv.Action, inv.Name, inv.Status, inv.Error).Scan(
		&out.ID, &out.Action, &out.Name, &out.Status, &out.Error, &out.CreatedAt,
	)
	return out, err
}

func (r *PGInvocationRepo) ListRecent(ctx context.Context, limit int) ([]dom.Invocation, error) {
	query := `
		SELECT id::text, action, name, status, error, created_at
		FROM invocations ORDER BY created_at DESC LIMIT $1`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]dom.Invocation, 0, limit)
	for rows.Next() {
		var inv dom.Invocation
		if err := rows.Scan(&inv.ID, &inv.Action, &inv.Name, &inv.Status, &inv.Error, &inv.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}
