// Package main initializes and starts the access-control HTTP server,
// setting up configuration, logging, database connections, repositories,
// services, rate limiting, and handlers.
package main

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/joho/godotenv"
	"github.com/lenshare/accessctl/internal/config"
	"github.com/lenshare/accessctl/internal/db"
	"github.com/lenshare/accessctl/internal/logger"
	"github.com/lenshare/accessctl/internal/ratelimit"
	"github.com/lenshare/accessctl/internal/repository"
	"github.com/lenshare/accessctl/internal/security"
	"github.com/lenshare/accessctl/internal/server/handler/http"
	"github.com/lenshare/accessctl/internal/service"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Load .env before flags and env are read; absence is fine.
	_ = godotenv.Load()

	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init("Info"); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Purge dead tokens and stale audit rows in the background.
	db.StartTokenCleaner(ctx, postgresDB,
		time.Hour,       // interval
		90*24*time.Hour, // audit retention: 90 days
		zapLogger,
	)

	// Credential signing for admin tokens and access cookies.
	signer, err := security.NewSigner(options.AdminSecret)
	if err != nil {
		zapLogger.Fatal("cannot init signer", zap.Error(err))
	}

	// Rate limiter: shared Redis store when configured, else in-process.
	var limiter ratelimit.Limiter
	if options.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: options.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			zapLogger.Fatal("cannot reach redis", zap.Error(err))
		}
		limiter = ratelimit.NewRedisLimiter(client, options.RateLimitMax, options.RateLimitWindow())
		zapLogger.Info("using redis rate limiter", zap.String("addr", options.RedisAddr))
	} else {
		memory := ratelimit.NewMemoryLimiter(options.RateLimitMax, options.RateLimitWindow())
		defer memory.Stop()
		limiter = memory
	}

	// Initialize repositories.
	resourceRepo := repository.NewPostgresResourceRepository(postgresDB)
	tokenRepo := repository.NewPostgresTokenRepository(postgresDB)
	logRepo := repository.NewPostgresAccessLogRepository(postgresDB)

	// Initialize business-logic services.
	auditor := service.NewAuditor(logRepo, zapLogger)
	tokenService := service.NewTokenService(tokenRepo, resourceRepo, auditor)
	accessService := service.NewAccessService(
		resourceRepo, tokenService, limiter, auditor, zapLogger, options.CookieMaxAge(),
	)

	// Create HTTP handlers and the router.
	accessHandler := &http.AccessHandler{
		Access:    accessService,
		Tokens:    tokenService,
		Audit:     auditor,
		Resources: resourceRepo,
		Signer:    signer,
		BaseURL:   options.BaseURL,
	}
	router := http.NewRouter(accessHandler, signer, zapLogger)

	server := &nethttp.Server{
		Addr:    options.Port,
		Handler: router,
	}

	// Stop the cleaner and drain connections on SIGINT/SIGTERM.
	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("shutdown failed", zap.Error(err))
		}
	}()

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
	if err := server.ListenAndServe(); err != nil && err != nethttp.ErrServerClosed {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}
