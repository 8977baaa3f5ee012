package main

import (
	"context"                         // context package is needed for Redis operations
	"errors"                          // Server shutdown detection
	"marketplace/internal/api"        // Custom package for API handlers
	"marketplace/internal/config"     // Custom package for configuration
	"marketplace/internal/middleware" // Custom package for middleware
	"marketplace/internal/notify"     // Notification channel
	"marketplace/internal/service"    // Business services
	"marketplace/internal/store"      // Persistence
	"marketplace/internal/utils"      // Cache helpers
	"net/http"                        // HTTP server
	"os"                              // Signals
	"os/signal"                       // Signal handling
	"syscall"                         // SIGTERM
	"time"                            // Shutdown timeout

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration
	setupLogger(cfg)
	if cfg.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET must be set")
	}

	// Setup the store
	s, err := openStore(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	defer s.Close()

	// Services
	accounts := service.NewAccounts(s, cfg.BcryptCost)
	catalog := service.NewCatalog(s)
	orders := service.NewOrders(s, newNotifier(cfg), cfg.OperatorEmail, cfg.NotifyTimeout)

	// Seed the bootstrap admin, warns when none is configured
	if err := accounts.BootstrapAdmin(context.Background(), cfg.AdminUsername, cfg.AdminPassword); err != nil {
		logrus.Fatalf("failed to create bootstrap admin: %v", err)
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	r := api.NewRouter(api.Deps{
		Accounts:         accounts,                                                       // Account manager
		Catalog:          catalog,                                                        // Catalog manager
		Orders:           orders,                                                         // Order service
		Health:           s,                                                              // Store health
		Cache:            newCache(cfg),                                                  // Listing cache
		LoginLimiter:     middleware.NewRateLimiter(cfg.LoginRatePerSec, cfg.LoginBurst), // Login throttling
		JWTSecret:        cfg.JWTSecret,                                                  // JWT secret key
		CORSOrigins:      cfg.CORSOrigins,                                                // CORS origins
		MaxImageBytes:    cfg.MaxImageBytes,                                              // Upload limit
		ProductsCacheTTL: cfg.ProductsCacheTTL,                                           // Cache TTL
	})
	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	srv := &http.Server{Addr: ":" + cfg.AppPort, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logrus.Info("Server running on " + cfg.AppPort) // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	// Wait for an interrupt and drain in-flight requests
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("graceful shutdown failed: %v", err)
	}
	logrus.Info("Server stopped")
}

// setupLogger configures the global logrus logger
func setupLogger(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.StoreDriver == "memory" {
		logrus.Warn("Using in-memory store, data is lost on restart")
		return store.NewMemoryStore(), nil
	}
	return store.Open(cfg.DSN())
}

// newCache returns a Redis cache, or a no-op cache when Redis is not configured or unreachable
func newCache(cfg *config.Config) utils.Cache {
	if cfg.RedisAddr == "" {
		return utils.NopCache{}
	}
	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})
	// Test Redis connection
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logrus.Warnf("failed to connect to Redis, caching disabled: %v", err)
		return utils.NopCache{}
	}
	return utils.NewRedisCache(redisClient)
}

// newNotifier returns the SMTP notifier, or a logging one when SMTP is not configured
func newNotifier(cfg *config.Config) notify.Notifier {
	if cfg.SMTPHost == "" {
		return notify.LogNotifier{}
	}
	n, err := notify.NewSMTPNotifier(notify.SMTPConfig{
		Host:     cfg.SMTPHost,      // SMTP server
		Port:     cfg.SMTPPort,      // SMTP port
		Username: cfg.SMTPUsername,  // SMTP user
		Password: cfg.SMTPPassword,  // SMTP password
		From:     cfg.SMTPFrom,      // Sender
		Timeout:  cfg.NotifyTimeout, // Dial timeout
	})
	if err != nil {
		logrus.Fatalf("failed to configure SMTP: %v", err)
	}
	return n
}
