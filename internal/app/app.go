package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"pdl-records/internal/config"
	"pdl-records/internal/database"
	"pdl-records/internal/event"
	"pdl-records/internal/handler"
	"pdl-records/internal/metrics"
	"pdl-records/internal/middleware"
	"pdl-records/internal/repository"
	"pdl-records/internal/router"
	"pdl-records/internal/service"
	"pdl-records/internal/storage"
)

type App struct {
	server       *http.Server
	db           *database.DB
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	photos, err := storage.NewPhotoStore(cfg.UploadRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize photo store: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	db, err := database.New(startupCtx, cfg.DatabaseURL, database.Options{
		MaxConns:          cfg.DBMaxConns,
		MinConns:          cfg.DBMinConns,
		ConnLifetime:      cfg.DBConnLifetime,
		ConnIdleTime:      cfg.DBConnIdleTime,
		HealthCheckPeriod: cfg.DBHealthCheckPeriod,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(startupCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	permissionRepo := repository.NewPermissionRepository(pool)
	pdlRepo := repository.NewPDLRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	slog.Info("database ready")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	bus := event.NewBus()

	authService, err := service.NewAuthService(cfg.JWTSecret, cfg.TokenTTL, userRepo, permissionRepo, bus, m)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}
	authMiddleware := middleware.NewAuthMiddleware(authService, permissionRepo)

	pdlService := service.NewPDLService(pdlRepo, photos, bus, m)
	userService := service.NewUserService(userRepo, bus)
	auditService := service.NewAuditService(auditRepo, m)
	dashboardService := service.NewDashboardService(pdlRepo)

	auditCtx, auditCancel := context.WithCancel(context.Background())
	go auditService.Run(auditCtx, bus)

	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		PDL:       handler.NewPDLHandler(pdlService, photos, cfg.PublicBase, cfg.MaxPhotoSize),
		User:      handler.NewUserHandler(userService),
		Dashboard: handler.NewDashboardHandler(dashboardService),
		Audit:     handler.NewAuditHandler(auditService),
	}, m, registry, photos.Root(), func(w http.ResponseWriter, r *http.Request) {
		if err := db.Health(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		db:     db,
		cleanupFuncs: []func(){
			auditCancel,
			db.Close,
		},
	}, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	slog.Info("server stopped")
	return nil
}
