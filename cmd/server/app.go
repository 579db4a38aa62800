package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/phrazzld/taskboard/internal/config"
	"github.com/phrazzld/taskboard/internal/events"
	"github.com/phrazzld/taskboard/internal/platform/cache"
	"github.com/phrazzld/taskboard/internal/platform/postgres"
	"github.com/phrazzld/taskboard/internal/service"
	"github.com/phrazzld/taskboard/internal/service/auth"
	"github.com/phrazzld/taskboard/internal/store"
)

// application holds the shared dependencies of the server so they can be
// wired once and released together on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	redis  *redis.Client

	userStore store.UserStore
	taskStore store.TaskStore

	jwtService  auth.JWTService
	userService service.UserService
	taskService service.TaskService

	eventEmitter *events.InMemoryEventEmitter
}

// newApplication wires stores, services and the optional Redis cache. The
// caller owns db until newApplication succeeds.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes,
		"refresh_token_lifetime_minutes", cfg.Auth.RefreshTokenLifetimeMinutes)

	app.userStore = postgres.NewPostgresUserStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	taskOpts := []service.TaskServiceOption{service.WithEventEmitter(app.eventEmitter)}

	if cfg.Redis.Enabled() {
		app.redis, err = cache.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		listCache := cache.NewTaskListCache(app.redis, cfg.Redis.TTL, logger)
		app.eventEmitter.RegisterHandler(listCache)
		taskOpts = append(taskOpts, service.WithTaskListCache(listCache))
		logger.Info("task list cache enabled", "ttl", cfg.Redis.TTL)
	}

	app.userService = service.NewUserService(app.userStore, auth.NewBcryptHasher(cfg.Auth.BCryptCost), logger)
	app.taskService, err = service.NewTaskService(app.taskStore, db, logger, taskOpts...)
	if err != nil {
		app.closeRedis()
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	logger.Info("application initialized successfully")
	return app, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (app *application) closeRedis() {
	if app.redis == nil {
		return
	}
	if err := app.redis.Close(); err != nil {
		app.logger.Error("error closing redis client", "error", err)
	}
}

// cleanup releases the database pool and cache client.
func (app *application) cleanup() {
	app.closeRedis()
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}
	app.logger.Info("application shutdown completed")
}
