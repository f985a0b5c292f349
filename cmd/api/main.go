package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/project-planner/internal/api/http"
	"github.com/spec-kit/project-planner/internal/api/http/handlers"
	"github.com/spec-kit/project-planner/internal/auth"
	"github.com/spec-kit/project-planner/internal/config"
	"github.com/spec-kit/project-planner/internal/events"
	"github.com/spec-kit/project-planner/internal/observability"
	"github.com/spec-kit/project-planner/internal/persistence"
	"github.com/spec-kit/project-planner/internal/repository"
	sqliterepo "github.com/spec-kit/project-planner/internal/repository/sqlite"
	"github.com/spec-kit/project-planner/internal/service"
	"github.com/spec-kit/project-planner/internal/worker"
)

const shutdownTimeout = 10 * time.Second

// store is the repository set of the configured driver.
type store struct {
	users      repository.UserRepository
	projects   repository.ProjectRepository
	milestones repository.MilestoneRepository
	check      handlers.DependencyCheck
	close      func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err), zap.String("driver", cfg.Store.Driver))
	}
	defer st.close()

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var throttle service.LoginThrottle = service.NoopLoginThrottle{}
	checks := []handlers.DependencyCheck{st.check}
	if redis.Enabled() {
		throttle = service.NewRedisLoginThrottle(redis.Client, cfg.Auth.LoginMaxFailures, cfg.Auth.LoginLockout(), logger)
		checks = append(checks, handlers.DependencyCheck{Name: "redis", Ping: redis.Ping})
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL(), nil)
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger, cfg.Audit))

	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:   st.users,
		Tokens:     tokens,
		Throttle:   throttle,
		Logger:     logger,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	userService := service.NewUserService(service.UserDependencies{
		UserRepo:   st.users,
		Dispatcher: dispatcher,
		Logger:     logger,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	projectService := service.NewProjectService(service.ProjectDependencies{
		ProjectRepo: st.projects,
		UserRepo:    st.users,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	milestoneService := service.NewMilestoneService(service.MilestoneDependencies{
		MilestoneRepo: st.milestones,
		ProjectRepo:   st.projects,
		Dispatcher:    dispatcher,
		Logger:        logger,
	})

	if err := userService.EnsureBootstrapAdmin(ctx, cfg.Auth.BootstrapAdminLogin, cfg.Auth.BootstrapAdminPass); err != nil {
		logger.Fatal("failed to bootstrap admin", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:        handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics, checks...),
		Auth:          handlers.NewAuthHandler(authService),
		Users:         handlers.NewUsersHandler(userService),
		Projects:      handlers.NewProjectsHandler(projectService),
		Milestones:    handlers.NewMilestonesHandler(milestoneService),
		SessionFilter: auth.NewSessionFilter(tokens, logger),
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*store, error) {
	if cfg.Store.Driver == config.StoreDriverSQLite {
		db, err := persistence.OpenSQLite(cfg.SQLite, logger)
		if err != nil {
			return nil, err
		}
		if err := persistence.RunSQLiteMigrations(db.DB); err != nil {
			db.Close()
			return nil, err
		}
		return &store{
			users:      sqliterepo.NewUserRepository(db.DB),
			projects:   sqliterepo.NewProjectRepository(db.DB),
			milestones: sqliterepo.NewMilestoneRepository(db.DB),
			check:      handlers.DependencyCheck{Name: "sqlite", Ping: db.Ping},
			close:      db.Close,
		}, nil
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			pg.Close()
			return nil, err
		}
	}
	pool := pg.PoolHandle()
	return &store{
		users:      repository.NewUserRepository(pool),
		projects:   repository.NewProjectRepository(pool),
		milestones: repository.NewMilestoneRepository(pool),
		check:      handlers.DependencyCheck{Name: "postgres", Ping: pg.Ping},
		close:      pg.Close,
	}, nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
