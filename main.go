package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pph-ledger/config"
	"pph-ledger/internal/api"
	"pph-ledger/internal/auth"
	"pph-ledger/internal/cache"
	"pph-ledger/internal/database"
	"pph-ledger/internal/events"
	"pph-ledger/internal/lifecycle"
	"pph-ledger/internal/logging"
	"pph-ledger/internal/vault"

	"github.com/rs/zerolog"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	logger := logging.New(&logging.Config{
		Level:       cfg.LoggingConfig.Level,
		Output:      cfg.LoggingConfig.Output,
		JSONFormat:  cfg.LoggingConfig.JSONFormat,
		IncludeFile: cfg.LoggingConfig.IncludeFile,
		Component:   "main",
	})
	logging.SetDefault(logger)
	logger.Info("Structured logging initialized")

	// Initialize event bus
	eventBus := events.NewEventBus()
	logger.Info("Event bus initialized")

	// Initialize database
	db, err := database.NewDB(database.Config{
		Host:     cfg.DatabaseConfig.Host,
		Port:     cfg.DatabaseConfig.Port,
		User:     cfg.DatabaseConfig.User,
		Password: cfg.DatabaseConfig.Password,
		Database: cfg.DatabaseConfig.Database,
		SSLMode:  cfg.DatabaseConfig.SSLMode,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run database migrations
	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.RunMigrations(migrateCtx); err != nil {
		migrateCancel()
		log.Fatalf("Failed to run migrations: %v", err)
	}
	migrateCancel()
	logger.Info("Database connected and migrated")

	// Create repository
	repo := database.NewRepository(db)

	// Initialize aggregate cache (optional)
	var cacheSvc *cache.CacheService
	if cfg.RedisConfig.Enabled {
		cacheSvc, err = cache.NewCacheService(cfg.RedisConfig)
		if err != nil {
			logger.Warn("Redis unavailable, serving aggregates without cache", "error", err)
			cacheSvc = nil
		} else {
			defer cacheSvc.Close()
			logger.Info("Aggregate cache initialized")
		}
	}

	// Initialize Vault client for agent credentials (optional)
	var vaultClient *vault.Client
	if cfg.VaultConfig.Enabled {
		vaultClient, err = vault.NewClient(cfg.VaultConfig)
		if err != nil {
			log.Fatalf("Failed to initialize vault client: %v", err)
		}
		logger.Info("Vault client initialized")
	}

	// Initialize authentication
	authService := auth.NewService(repo, auth.Config{
		JWTSecret:            cfg.AuthConfig.JWTSecret,
		AccessTokenDuration:  cfg.AuthConfig.AccessTokenDuration,
		RefreshTokenDuration: cfg.AuthConfig.RefreshTokenDuration,
		MinPasswordLength:    cfg.AuthConfig.MinPasswordLength,
	})

	if cfg.AuthConfig.SeedAdmin {
		seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := auth.SeedAdminUser(seedCtx, db, cfg.AuthConfig.AdminEmail, cfg.AuthConfig.AdminPassword); err != nil {
			logger.Warn("Admin seeding skipped", "error", err)
		}
		seedCancel()
	}

	// Account lifecycle policy
	policy := lifecycle.NewPolicy(repo, zerolog.New(os.Stdout).With().Timestamp().Logger())

	// Start the HTTP API server
	server := api.NewServer(api.ServerConfig{
		Port:           cfg.ServerConfig.Port,
		Host:           cfg.ServerConfig.Host,
		AllowedOrigins: cfg.ServerConfig.AllowedOrigins,
		ProductionMode: cfg.ServerConfig.ProductionMode,
	}, repo, eventBus, authService, vaultClient, cacheSvc, policy)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Periodic session cleanup
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := authService.CleanupExpiredSessions(cleanupCtx); err != nil {
				logger.Warn("Session cleanup failed", "error", err)
			}
			cleanupCancel()
		}
	}()

	logger.Info("Ledger backend started", "port", cfg.ServerConfig.Port)

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.ServerConfig.ShutdownTimeout)*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Shutdown complete")
}
