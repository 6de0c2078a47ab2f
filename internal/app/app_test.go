package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"AgentAction/internal/config"
	"AgentAction/internal/handlers"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() config.Config {
	return config.Config{
		App:  config.AppConfig{Env: "test", Version: "1.2.3"},
		HTTP: config.HTTPConfig{Host: "127.0.0.1", Port: "5000"},
		Auth: config.AuthConfig{
			Source:   config.AuthSourceStatic,
			Username: config.DefaultUsername,
			Password: config.DefaultPassword,
			Realm:    "Agent Action",
		},
		Badge: config.BadgeConfig{Title: "Heroku Agent Action", FontSize: 20},
	}
}

func newTestApp(t *testing.T, cfg config.Config) *App {
	t.Helper()
	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func do(a *App, method, path, body string, withAuth bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if withAuth {
		req.SetBasicAuth("heroku", "agent")
	}
	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, req)
	return rec
}

func TestProbesAreOpen(t *testing.T) {
	a := newTestApp(t, testConfig())

	rec := do(a, http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(headerRequestID))

	rec = do(a, http.MethodGet, "/version", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"version":"1.2.3"}`, rec.Body.String())
}

func TestProcessEndToEnd(t *testing.T) {
	a := newTestApp(t, testConfig())

	rec := do(a, http.MethodPost, "/process", `{"name": "Neo"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Contains(t, got["message"], `<img src="data:image/png;base64`)
}

func TestProcessRequiresAuth(t *testing.T) {
	a := newTestApp(t, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/process", strings.NewReader(`{"name": "Neo"}`))
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("invalid", "wrong")
	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unauthorized")
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")
}

func TestProcessMissingName(t *testing.T) {
	a := newTestApp(t, testConfig())

	rec := do(a, http.MethodPost, "/process", `{}`, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid request, 'name' field is required"}`, rec.Body.String())
}

func TestProcessRejectsOversizedInput(t *testing.T) {
	a := newTestApp(t, testConfig())

	rec := do(a, http.MethodPost, "/process", `{"name": "`+strings.Repeat("N", handlers.MaxNameRunes+1)+`"}`, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid request, 'name' field is required"}`, rec.Body.String())

	rec = do(a, http.MethodPost, "/process", `{"name": "`+strings.Repeat("N", maxBodyBytes)+`"}`, true)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAccessLogIncludesUser(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	a, err := New(context.Background(), testConfig(), zap.New(core))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	rec := do(a, http.MethodPost, "/process", `{"name": "Neo"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, logs.FilterMessage("request").FilterField(zap.String("user", "heroku")).Len())

	do(a, http.MethodGet, "/health", "", false)
	health := logs.FilterMessage("request").FilterField(zap.String("path", "/health")).All()
	require.Len(t, health, 1)
	assert.NotContains(t, health[0].ContextMap(), "user")
}

func TestDocs(t *testing.T) {
	a := newTestApp(t, testConfig())

	rec := do(a, http.MethodGet, "/", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "docs are behind basic auth")

	rec = do(a, http.MethodGet, "/", "", true)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/swagger/index.html", rec.Header().Get("Location"))

	rec = do(a, http.MethodGet, "/swagger-doc.json", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	var doc struct {
		Info struct {
			Title   string `json:"title"`
			Version string `json:"version"`
		} `json:"info"`
		Paths               map[string]any `json:"paths"`
		SecurityDefinitions map[string]any `json:"securityDefinitions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "Agentforce Action", doc.Info.Title)
	assert.Equal(t, "0.1.0", doc.Info.Version)
	assert.Contains(t, doc.Paths, "/process")
	assert.Contains(t, doc.SecurityDefinitions, "BasicAuth")

	rec = do(a, http.MethodGet, "/swagger/index.html", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInvocationsDisabledWithoutPostgres(t *testing.T) {
	a := newTestApp(t, testConfig())

	rec := do(a, http.MethodGet, "/invocations", "", true)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDebugHTMLArchive(t *testing.T) {
	cfg := testConfig()
	cfg.Debug.HTMLPath = filepath.Join(t.TempDir(), "debug.html")
	a := newTestApp(t, cfg)

	rec := do(a, http.MethodPost, "/process", `{"name": "Neo"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)

	raw, err := os.ReadFile(cfg.Debug.HTMLPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "<body style='background: black'><img src=\"data:image/png;base64,"))
}

func TestRequestIDPropagates(t *testing.T) {
	a := newTestApp(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(headerRequestID, "req-42")
	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get(headerRequestID))
}

func TestRecoveryReturnsJSON(t *testing.T) {
	r := gin.New()
	r.Use(recovery(zap.NewNop()))
	r.GET("/panic", func(*gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestNewFailsOnUnreachableRedis(t *testing.T) {
	cfg := testConfig()
	cfg.Redis.Addr = "127.0.0.1:1"
	_, err := New(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping")
}
