package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eduvista/internal/client"
	"eduvista/internal/config"
	"eduvista/internal/events"
	"eduvista/internal/handler"
	"eduvista/internal/logger"
	"eduvista/internal/navigation"
	"eduvista/internal/policy"
	"eduvista/internal/repository"
	"eduvista/internal/router"
	"eduvista/internal/service"
	"eduvista/internal/session"
	"eduvista/internal/storage"
	"eduvista/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const sweepInterval = time.Minute

func main() {
	// Load .env file
	envErr := godotenv.Load()

	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()
	if envErr != nil {
		zlog.Info("no .env file loaded, relying on environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- User directory ---
	var (
		userRepo repository.UserRepository
		health   func(context.Context) error
	)
	switch cfg.UserDirectory {
	case config.DirectoryPostgres:
		dbPool, err := config.ConnectDB(ctx, cfg.DB, zlog)
		if err != nil {
			zlog.Fatal("failed to connect to database", zap.Error(err))
		}
		defer dbPool.Close()

		if err := config.AutoMigrate(ctx, dbPool, zlog); err != nil {
			zlog.Fatal("failed to auto-migrate database", zap.Error(err))
		}
		userRepo = repository.NewUserRepository(dbPool)
		health = dbPool.Ping
	default:
		userRepo = repository.NewMemoryUserRepository()
	}

	if cfg.SeedDemoUsers {
		if err := service.SeedDemoUsers(ctx, userRepo, zlog); err != nil {
			zlog.Fatal("failed to seed demo users", zap.Error(err))
		}
	}

	// --- Services ---
	jwtUtil := utils.NewJWTUtil(cfg.JWTSecret, cfg.JWTExpHours)
	authService := service.NewAuthService(userRepo, jwtUtil, zlog)

	routes := policy.MustDefault()
	nav, err := navigation.NewModel(navigation.DefaultItems(), routes)
	if err != nil {
		zlog.Fatal("invalid navigation menu", zap.Error(err))
	}

	newPersister := func(string) session.Persister { return storage.NewMemorySessionStore() }
	if cfg.SessionDir != "" {
		if err := os.MkdirAll(cfg.SessionDir, 0o700); err != nil {
			zlog.Fatal("failed to create session directory", zap.String("dir", cfg.SessionDir), zap.Error(err))
		}
		newPersister = func(clientID string) session.Persister {
			return storage.NewFileSessionStore(cfg.SessionDir, clientID)
		}
		zlog.Info("sessions persisted on disk", zap.String("dir", cfg.SessionDir))
	}

	registry := client.NewRegistry(authService, routes, newPersister, zlog)
	go registry.Run(ctx, sweepInterval, cfg.ClientIdleTTL)

	// --- Handlers & router ---
	gin.SetMode(gin.ReleaseMode)
	engine := router.New(router.Deps{
		Registry:     registry,
		Auth:         handler.NewAuthHandler(nav, zlog),
		Views:        handler.NewViewHandler(nav, events.NewHub(nav, cfg.CORSOrigin, zlog), zlog),
		Logger:       zlog,
		SecureCookie: cfg.SecureCookie,
		CORSOrigin:   cfg.CORSOrigin,
		Health:       health,
	})

	// --- Start Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info("server starting", zap.String("port", cfg.ServerPort), zap.String("directory", cfg.UserDirectory))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("listen failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zlog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
	}

	zlog.Info("server exiting")
}
