package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"employee-service/internal/admin"
	"employee-service/internal/config"
	"employee-service/internal/db"
	"employee-service/internal/employee"
	"employee-service/internal/health"
	"employee-service/internal/logger"
	"employee-service/internal/messaging"
	"employee-service/internal/metrics"
	"employee-service/internal/middleware"
	"employee-service/internal/storage"
	"employee-service/internal/telemetry"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/uptrace/bun"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type App struct {
	config    *config.Config
	router    chi.Router
	server    *http.Server
	logger    *slog.Logger
	database  *bun.DB
	telemetry *telemetry.Telemetry
	publisher messaging.Publisher
}

func New(ctx context.Context) (*App, error) {
	slogLogger := logger.NewWithServiceContext(ServiceName, Version)
	slog.SetDefault(slogLogger)

	slogLogger.Info("initializing application", "git_commit", GitCommit, "build_time", BuildTime)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	slogLogger.Info("config loaded", "env", cfg.Env, "store", cfg.Store.Driver, "storage", cfg.Storage.Driver)

	return NewWithConfig(ctx, cfg, slogLogger)
}

// NewWithConfig wires every component from an already loaded configuration.
func NewWithConfig(ctx context.Context, cfg *config.Config, slogLogger *slog.Logger) (*App, error) {
	app := &App{
		config: cfg,
		router: chi.NewRouter(),
		logger: slogLogger,
	}

	tel, err := telemetry.Init(ctx, cfg.Telemetry, ServiceName, Version, slogLogger)
	if err != nil {
		return nil, err
	}
	app.telemetry = tel

	repo, database, err := NewStore(ctx, cfg, tel.Metrics)
	if err != nil {
		return nil, err
	}
	app.database = database
	if database != nil {
		if err := tel.RegisterDB(database.DB); err != nil {
			slogLogger.Warn("failed to register database metrics", logger.Err(err))
		}
	}

	photos, err := storage.New(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize photo storage: %w", err)
	}

	publisher, err := messaging.New(cfg.Messaging, slogLogger)
	if err != nil {
		slogLogger.Warn("failed to initialize event publisher, events disabled", logger.Err(err))
		publisher = messaging.NoopPublisher{}
	}
	app.publisher = publisher

	maxUpload := cfg.Server.MaxUploadMB << 20

	employeeService := employee.NewService(repo, photos, publisher, slogLogger, tel.Metrics)
	employeeHandler := employee.NewHandler(employeeService, slogLogger, maxUpload)
	adminHandler, err := admin.NewHandler(employeeService, slogLogger, cfg.Admin, "/admin", maxUpload)
	if err != nil {
		return nil, err
	}
	if cfg.Admin.PasswordHash == "" {
		slogLogger.Warn("admin console is not password protected")
	}

	app.router.Use(
		chimiddleware.RequestID,
		chimiddleware.RealIP,
		middleware.RequestLogger(slogLogger),
		chimiddleware.Recoverer,
		middleware.CORS(cfg.Server.CORSOrigins),
		chimiddleware.StripSlashes,
	)

	checks := map[string]health.Pinger{}
	if database != nil {
		checks["database"] = database
	}
	health.NewHandler(checks, tel.Metrics.Dependencies()).RegisterRoutes(app.router)

	if tel.Handler != nil {
		app.router.Method(http.MethodGet, "/metrics", tel.Handler)
	}

	if mediaPath := mediaMountPath(cfg.Storage); mediaPath != "" {
		app.router.Handle(mediaPath+"/*", http.StripPrefix(mediaPath, storage.MediaHandler(photos)))
	}

	app.router.Group(func(r chi.Router) {
		if cfg.RateLimit.Enabled {
			r.Use(middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst).Handler)
		}
		r.Route("/api", employeeHandler.RegisterRoutes)
		r.Mount("/admin", adminHandler.Routes())
	})

	slogLogger.Info("application initialized successfully")

	return app, nil
}

// NewStore opens the configured record store. The returned *bun.DB is nil for
// the memory store.
func NewStore(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (employee.Repository, *bun.DB, error) {
	switch cfg.Store.Driver {
	case StoreDriverMemory:
		return employee.NewMemoryRepository(), nil, nil
	case StoreDriverPostgres, "":
		database, err := db.New(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := db.RunMigrations(ctx, database, (*employee.Employee)(nil)); err != nil {
			db.Close(database)
			return nil, nil, err
		}
		return employee.NewRepository(database, m), database, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// mediaMountPath returns the local path photos are served under, or "" when
// photos are not served by this process.
func mediaMountPath(cfg config.StorageConfig) string {
	if cfg.Driver != storage.DriverFilesystem && cfg.Driver != "" {
		return ""
	}
	mediaURL := cfg.Filesystem.MediaURL
	if !strings.HasPrefix(mediaURL, "/") {
		return ""
	}
	return strings.TrimSuffix(mediaURL, "/")
}

// Handler exposes the router, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.router
}

func (a *App) Run() error {
	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  time.Duration(a.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(a.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(a.config.Server.IdleTimeout) * time.Second,
	}

	a.logger.Info("server starting", "port", a.config.Server.Port)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down server")

	var errs []error
	if a.server != nil {
		errs = append(errs, a.server.Shutdown(ctx))
	}
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	errs = append(errs, a.telemetry.Shutdown(ctx, a.logger))
	db.Close(a.database)

	return errors.Join(errs...)
}
