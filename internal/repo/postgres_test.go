package repo_test

import (
	"context"
	"os"
	"testing"
	"time"

	"AgentAction/internal/app"
	"AgentAction/internal/config"
	dom "AgentAction/internal/domain"
	"AgentAction/internal/repo"
	"AgentAction/internal/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// connect runs the migrations against PG_TEST_DSN and returns a pool on
// empty tables. The database is wiped, so point it at a scratch instance.
func connect(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("PG_TEST_DSN")
	if dsn == "" {
		t.Skip("PG_TEST_DSN not set")
	}
	ctx := context.Background()
	cfg := config.Config{PG: config.PGConfig{DSN: dsn, MigrationsDir: "../../migrations"}}

	db, err := app.Connect(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(db.Close)

	_, err = db.Exec(ctx, `TRUNCATE invocations, users`)
	require.NoError(t, err)
	return db
}

func TestPostgresInvocations(t *testing.T) {
	db := connect(t)
	ctx := context.Background()
	r := repo.NewPGInvocationRepo(db)

	first, err := r.Create(ctx, dom.Invocation{
		ID: uuid.NewString(), Action: "process", Name: "Neo", Status: dom.StatusSucceeded,
	})
	require.NoError(t, err)
	assert.Empty(t, first.Error)
	assert.WithinDuration(t, time.Now(), first.CreatedAt, time.Minute)

	id := uuid.NewString()
	second, err := r.Create(ctx, dom.Invocation{
		ID: id, Action: "process", Name: "Trinity", Status: dom.StatusFailed, Error: "logo not found",
	})
	require.NoError(t, err)
	assert.Equal(t, id, second.ID)

	list, err := r.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, id, list[0].ID, "newest first")
	assert.Equal(t, "logo not found", list[0].Error)

	list, err = r.ListRecent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPostgresUsers(t *testing.T) {
	db := connect(t)
	ctx := context.Background()
	r := repo.NewPGUserRepo(db)

	_, err := r.GetByUsername(ctx, "heroku")
	require.ErrorIs(t, err, pgx.ErrNoRows)

	created, err := r.Create(ctx, "heroku", "hash-1")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	_, err = r.Create(ctx, "heroku", "hash-2")
	assert.True(t, utils.IsPGUniqueViolation(err))

	updated, err := r.UpdatePassword(ctx, "heroku", "hash-2")
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)

	got, err := r.GetByUsername(ctx, "heroku")
	require.NoError(t, err)
	assert.Equal(t, "hash-2", got.PasswordHash)

	_, err = r.UpdatePassword(ctx, "ghost", "h")
	require.ErrorIs(t, err, pgx.ErrNoRows)
}
