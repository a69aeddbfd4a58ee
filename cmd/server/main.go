package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"poetica/internal/auth"
	"poetica/internal/cache"
	"poetica/internal/config"
	"poetica/internal/db"
	"poetica/internal/handlers"
	"poetica/internal/logging"
	"poetica/internal/middleware"
	"poetica/internal/router"
	"poetica/internal/services"
	"poetica/internal/telemetry"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to read .env: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	logger := logging.GetLogger()
	logger.Info("Starting Poetica API server")

	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	if err := database.Migrate(ctx); err != nil {
		cancel()
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	if cfg.Auth.AdminEmail != "" {
		hash, err := auth.HashPassword(cfg.Auth.AdminPassword)
		if err != nil {
			cancel()
			logger.Fatal("Failed to hash admin password", zap.Error(err))
		}
		if err := database.EnsureAdmin(ctx, cfg.Auth.AdminEmail, hash); err != nil {
			cancel()
			logger.Fatal("Failed to bootstrap admin", zap.Error(err))
		}
	}
	cancel()

	redisCache, err := cache.New(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisCache.Close()

	health := map[string]handlers.Pinger{"database": database}
	var shared middleware.WindowCounter
	if redisCache != nil {
		health["redis"] = redisCache
		shared = redisCache
	}
	limiter := middleware.NewRateLimiter(shared, time.Minute)
	defer limiter.Stop()

	notifier := services.NewNotifier(
		services.NewMailService(cfg.Mail),
		cfg.Server.SiteURL,
		cfg.Auth.ResetTokenTTL,
		services.DefaultQueueSize,
	)

	sessionStore := cookie.NewStore([]byte(cfg.Auth.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int((30 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   cfg.Auth.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	var metrics http.Handler
	if cfg.Telemetry.Enabled && cfg.Telemetry.PrometheusEnabled {
		metrics = promhttp.Handler()
	}

	gin.SetMode(cfg.Server.Mode)
	engine := router.NewEngine(router.Deps{
		Store:       db.NewRepositories(database.DB),
		Tokens:      auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.JWTTTL),
		Notify:      notifier,
		Limiter:     limiter,
		Limits:      cfg.RateLimit,
		ResetTTL:    cfg.Auth.ResetTokenTTL,
		Sessions:    sessionStore,
		SessionName: cfg.Auth.SessionName,
		Health:      health,
		Metrics:     metrics,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := notifier.Stop(shutdownCtx); err != nil {
		logger.Warn("Pending emails dropped", zap.Error(err))
	}

	logger.Info("Server exited")
}
