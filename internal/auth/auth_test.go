package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"AgentAction/internal/config"
	dom "AgentAction/internal/domain"
	"AgentAction/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStaticAuthenticatorPlain(t *testing.T) {
	a := NewStaticAuthenticator(config.AuthConfig{Username: "heroku", Password: "agent"})
	ctx := context.Background()

	cases := []struct {
		user, pass string
		want       bool
	}{
		{"heroku", "agent", true},
		{"heroku", "wrong", false},
		{"invalid", "agent", false},
		{"", "", false},
	}
	for _, tc := range cases {
		ok, err := a.Authenticate(ctx, tc.user, tc.pass)
		require.NoError(t, err)
		assert.Equal(t, tc.want, ok, "%s:%s", tc.user, tc.pass)
	}
}

func TestStaticAuthenticatorHash(t *testing.T) {
	hash, err := service.HashPassword("s3cret")
	require.NoError(t, err)
	a := NewStaticAuthenticator(config.AuthConfig{Username: "ops", Password: "agent", PasswordHash: hash})

	ok, err := a.Authenticate(context.Background(), "ops", "s3cret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.Authenticate(context.Background(), "ops", "agent")
	require.NoError(t, err)
	assert.False(t, ok, "plain password is ignored when a hash is configured")
}

type stubUsers struct {
	user dom.User
	err  error
}

func (s stubUsers) GetByUsername(context.Context, string) (dom.User, error) { return s.user, s.err }
func (s stubUsers) Create(context.Context, string, string) (dom.User, error) {
	return dom.User{}, errors.New("not implemented")
}
func (s stubUsers) UpdatePassword(context.Context, string, string) (dom.User, error) {
	return dom.User{}, errors.New("not implemented")
}

func TestUserAuthenticator(t *testing.T) {
	hash, err := service.HashPassword("agent")
	require.NoError(t, err)
	ctx := context.Background()

	a := NewUserAuthenticator(service.NewUserService(stubUsers{user: dom.User{ID: 1, Username: "heroku", PasswordHash: hash}}))
	ok, err := a.Authenticate(ctx, "heroku", "agent")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.Authenticate(ctx, "heroku", "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	a = NewUserAuthenticator(service.NewUserService(stubUsers{err: pgx.ErrNoRows}))
	ok, err = a.Authenticate(ctx, "ghost", "agent")
	require.NoError(t, err)
	assert.False(t, ok)

	a = NewUserAuthenticator(service.NewUserService(stubUsers{err: errors.New("connection refused")}))
	_, err = a.Authenticate(ctx, "heroku", "agent")
	assert.Error(t, err)
}

type errAuthenticator struct{}

func (errAuthenticator) Authenticate(context.Context, string, string) (bool, error) {
	return false, errors.New("db down")
}

func newProtectedRouter(a Authenticator) *gin.Engine {
	r := gin.New()
	r.GET("/secret", RequireBasicAuth(a, "Agent Action", zap.NewNop()), func(c *gin.Context) {
		c.String(http.StatusOK, UsernameFromContext(c))
	})
	return r
}

func TestRequireBasicAuth(t *testing.T) {
	r := newProtectedRouter(NewStaticAuthenticator(config.AuthConfig{Username: "heroku", Password: "agent"}))

	t.Run("valid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/secret", nil)
		req.SetBasicAuth("heroku", "agent")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "heroku", rec.Body.String())
	})

	t.Run("invalid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/secret", nil)
		req.SetBasicAuth("invalid", "wrong")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Unauthorized")
		assert.Equal(t, `Basic realm="Agent Action"`, rec.Header().Get("WWW-Authenticate"))
	})

	t.Run("missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/secret", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/secret", nil)
		req.Header.Set("Authorization", "Basic !!!")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireBasicAuthBackendError(t *testing.T) {
	r := newProtectedRouter(errAuthenticator{})

	req := httptest.NewRequest(http.MethodGet, "/secret", nil)
	req.SetBasicAuth("heroku", "agent")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
