// Package main is the entry point for the Ges-Pro API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"gespro/internal/domain/auth"
	"gespro/internal/infrastructure/filestore"
	v1 "gespro/internal/infrastructure/http/v1"
	"gespro/internal/infrastructure/payment"
	"gespro/internal/infrastructure/storage/postgres"
	"gespro/internal/infrastructure/storage/postgres/auth_repo"
	"gespro/internal/infrastructure/storage/postgres/billing_repo"
	"gespro/pkg/logger"
)

const version = "0.1.0"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting gespro server")

	// --- Database ---
	dsn := mustEnv("DATABASE_URL")
	poolCfg := postgres.DefaultPoolConfig(dsn)
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Audit trail ---
	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	// --- JWT ---
	jwtSecret := mustEnv("JWT_SECRET")
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(jwtSecret))

	// --- Payment gateway ---
	gatewayURL := mustEnv("PAYMENT_GATEWAY_URL")
	returnURL := getEnv("PAYMENT_RETURN_URL", "")
	gateway := payment.NewClient(payment.DefaultConfig(gatewayURL, returnURL))

	// --- Uploads ---
	uploadsDir := getEnv("UPLOADS_DIR", "./uploads")
	fileStore, err := filestore.NewDiskStore(uploadsDir, "/uploads")
	if err != nil {
		log.Fatalw("failed to initialize file store", "error", err)
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:           pool,
		TxManager:      txManager,
		Logger:         log,
		JWTService:     jwtService,
		AuthConfig:     auth.DefaultServiceConfig(),
		Gateway:        gateway,
		FileStore:      fileStore,
		Audit:          auditService,
		UploadsDir:     fileStore.Root(),
		Version:        version,
		IdempotencyTTL: getEnvDuration("IDEMPOTENCY_TTL", 10*time.Minute),
		AuthRateLimit:  getEnv("AUTH_RATE_LIMIT", "10-M"),
	})

	// --- Background maintenance ---
	maintenanceCtx, stopMaintenance := context.WithCancel(logger.WithLogger(ctx, log))
	defer stopMaintenance()
	go runMaintenance(maintenanceCtx, txManager, getEnvDuration("MAINTENANCE_INTERVAL", time.Hour))

	// --- HTTP server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	stopMaintenance()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// runMaintenance expires outdated subscriptions and prunes stale auth and
// idempotency records on a fixed interval.
func runMaintenance(ctx context.Context, txManager *postgres.TxManager, interval time.Duration) {
	subs := billing_repo.NewSubscriptionRepo(txManager)
	tokens := auth_repo.NewTokenRepo(txManager)
	idempotency := postgres.NewIdempotencyStore(txManager, 0)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := subs.ExpireOutdated(ctx); err != nil {
				logger.Error(ctx, "expire subscriptions failed", "error", err)
			} else if n > 0 {
				logger.Info(ctx, "subscriptions expired", "count", n)
			}

			if n, err := tokens.CleanupExpiredTokens(ctx); err != nil {
				logger.Error(ctx, "token cleanup failed", "error", err)
			} else if n > 0 {
				logger.Info(ctx, "expired tokens removed", "count", n)
			}

			if n, err := idempotency.CleanupExpired(ctx); err != nil {
				logger.Error(ctx, "idempotency cleanup failed", "error", err)
			} else if n > 0 {
				logger.Info(ctx, "idempotency keys removed", "count", n)
			}
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
