package app

import (
	"context"
	"fmt"
	"time"

	"AgentAction/internal/archive"
	"AgentAction/internal/auth"
	"AgentAction/internal/badge"
	"AgentAction/internal/cache"
	"AgentAction/internal/config"
	"AgentAction/internal/repo"
	"AgentAction/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type App struct {
	cfg    config.Config
	logger *zap.Logger
	db     *pgxpool.Pool
	redis  *redis.Client
	router *gin.Engine
}

// New wires the service. Postgres, Redis and MinIO are optional and only
// connected when configured.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	if cfg.Auth.UsesDefaults() {
		if cfg.App.IsProd() {
			logger.Warn("default credentials heroku/agent are active in production; set AUTH_USERNAME and AUTH_PASSWORD_HASH")
		} else {
			logger.Info("using default credentials heroku/agent")
		}
	}

	renderer, err := badge.New(badge.Options{
		LogoPath: cfg.Badge.LogoPath,
		FontPath: cfg.Badge.FontPath,
		FontSize: cfg.Badge.FontSize,
		Logger:   logger.Named("badge"),
	})
	if err != nil {
		return nil, fmt.Errorf("badge renderer: %w", err)
	}

	opts := []service.ActionOption{service.WithLogger(logger.Named("action"))}

	if cfg.PG.DSN != "" {
		db, err := newPostgres(ctx, cfg.PG.DSN)
		if err != nil {
			return nil, err
		}
		a.db = db
		if err := runMigrations(cfg.PG.DSN, cfg.PG.MigrationsDir, logger); err != nil {
			a.closeAll()
			return nil, err
		}
		opts = append(opts, service.WithHistory(repo.NewPGInvocationRepo(db)))
		logger.Info("invocation history enabled")
	}

	if cfg.Redis.Enabled() {
		rdb, err := newRedis(ctx, cfg.Redis)
		if err != nil {
			a.closeAll()
			return nil, err
		}
		a.redis = rdb
		opts = append(opts, service.WithBadgeCache(cache.NewBadgeCache(rdb, cfg.Redis.DefaultTTL.Duration(), renderer.Fingerprint())))
		logger.Info("badge cache enabled",
			zap.Duration("ttl", cfg.Redis.DefaultTTL.Duration()),
			zap.String("renderer", renderer.Fingerprint()))
	}

	var archivers archive.Multi
	if cfg.Debug.HTMLPath != "" {
		archivers = append(archivers, archive.NewDebugHTML(cfg.Debug.HTMLPath))
	}
	if cfg.Minio.Enabled() {
		m, err := archive.NewMinioArchiver(ctx, cfg.Minio, logger)
		if err != nil {
			a.closeAll()
			return nil, err
		}
		archivers = append(archivers, m)
	}
	if len(archivers) > 0 {
		opts = append(opts, service.WithArchiver(archivers))
	}

	authenticator, err := a.authenticator()
	if err != nil {
		a.closeAll()
		return nil, err
	}

	actions := service.NewActionService(renderer, cfg.Badge.Title, opts...)
	a.router = newRouter(cfg, logger, authenticator, actions)
	return a, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Close(ctx context.Context) error {
	_ = ctx
	a.closeAll()
	return nil
}

func (a *App) closeAll() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

func (a *App) authenticator() (auth.Authenticator, error) {
	switch a.cfg.Auth.Source {
	case config.AuthSourcePostgres:
		if a.db == nil {
			return nil, fmt.Errorf("AUTH_SOURCE=postgres requires PG_DSN")
		}
		return auth.NewUserAuthenticator(service.NewUserService(repo.NewPGUserRepo(a.db))), nil
	default:
		return auth.NewStaticAuthenticator(a.cfg.Auth), nil
	}
}

// Connect opens the Postgres pool and applies migrations; used by CLI
// commands that manage users without starting the server.
func Connect(ctx context.Context, cfg config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	if cfg.PG.DSN == "" {
		return nil, fmt.Errorf("PG_DSN is required")
	}
	db, err := newPostgres(ctx, cfg.PG.DSN)
	if err != nil {
		return nil, err
	}
	if err := runMigrations(cfg.PG.DSN, cfg.PG.MigrationsDir, logger); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// ConnectRedis opens the Redis client from REDIS_URL or REDIS_ADDR; used by
// CLI commands that manage the badge cache.
func ConnectRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	if !cfg.Redis.Enabled() {
		return nil, fmt.Errorf("REDIS_URL or REDIS_ADDR is required")
	}
	return newRedis(ctx, cfg.Redis)
}

func newPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg parse config: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}

	return pool, nil
}

func newRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return rdb, nil
}

func runMigrations(dsn string, migrationsDir string, logger *zap.Logger) error {
	goose.SetLogger(zap.NewStdLog(logger.Named("goose")))

	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return fmt.Errorf("goose open db: %w", err)
	}
	defer db.Close()

	if err := goose.Up(db, migrationsDir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

func newRouter(cfg config.Config, logger *zap.Logger, authenticator auth.Authenticator, actions *service.ActionService) *gin.Engine {
	r := gin.New()
	r.Use(requestID(), accessLog(logger.Named("http")), recovery(logger), bodyLimit(maxBodyBytes))

	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS", "HEAD"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", headerRequestID},
		ExposeHeaders: []string{"Content-Length", "Content-Type", headerRequestID},
		MaxAge:        12 * time.Hour,
	}))

	Setup(r, cfg, logger, authenticator, actions)
	return r
}
