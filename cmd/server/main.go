// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	_ "github.com/tomtom215/bookshelf/docs" // Registers the OpenAPI document
	"github.com/tomtom215/bookshelf/internal/api"
	"github.com/tomtom215/bookshelf/internal/audit"
	"github.com/tomtom215/bookshelf/internal/auth"
	"github.com/tomtom215/bookshelf/internal/authz"
	"github.com/tomtom215/bookshelf/internal/backup"
	"github.com/tomtom215/bookshelf/internal/config"
	"github.com/tomtom215/bookshelf/internal/database"
	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/metrics"
	"github.com/tomtom215/bookshelf/internal/recommend"
	"github.com/tomtom215/bookshelf/internal/supervisor"
	"github.com/tomtom215/bookshelf/internal/supervisor/services"
	"github.com/tomtom215/bookshelf/internal/websocket"
)

const (
	shutdownTimeout        = 10 * time.Second
	lockoutCleanupInterval = 5 * time.Minute
	limiterCleanupInterval = 10 * time.Minute
	auditCleanupInterval   = 24 * time.Hour
	cacheCleanupInterval   = time.Minute
)

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("version", api.Version).
		Str("environment", cfg.Server.Environment).
		Str("db_path", cfg.Database.Path).
		Msg("Starting Bookshelf")
	metrics.AppInfo.WithLabelValues(api.Version, runtime.Version()).Set(1)

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer closeWithLog(db, "database")
	logging.Info().Msg("Database initialized successfully")

	var auditLog *audit.Logger
	if cfg.Audit.Enabled {
		auditLog = audit.NewLogger(audit.NewDuckDBStore(db.Conn()), &audit.Config{
			Enabled:       true,
			RetentionDays: cfg.Audit.RetentionDays,
			BufferSize:    cfg.Audit.BufferSize,
		})
		defer closeWithLog(auditLog, "audit logger")
		logging.Info().Int("retention_days", cfg.Audit.RetentionDays).Msg("Audit logging enabled")
	}

	if err := seedAdmin(db, cfg, auditLog); err != nil {
		_ = db.Close()
		logging.Fatal().Err(err).Msg("Failed to seed admin account")
	}

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		_ = db.Close()
		logging.Fatal().Err(err).Msg("Failed to create JWT manager")
	}

	lockoutStore, err := newLockoutStore(&cfg.Security)
	if err != nil {
		_ = db.Close()
		logging.Fatal().Err(err).Msg("Failed to open lockout store")
	}
	if c, ok := lockoutStore.(io.Closer); ok {
		defer closeWithLog(c, "lockout store")
	}
	lockout := auth.NewLockoutManager(lockoutStore, auth.LockoutConfigFromSecurity(&cfg.Security))

	enforcer, err := authz.NewEnforcer(authz.DefaultEnforcerConfig())
	if err != nil {
		_ = db.Close()
		logging.Fatal().Err(err).Msg("Failed to create authorization enforcer")
	}
	defer enforcer.Close()

	logger := logging.Logger()
	engine := recommend.NewEngine(logger)
	recommender := recommend.NewService(engine, db, db, recommend.ServiceConfig{
		Neighbors:          cfg.Recommend.Neighbors,
		Timeout:            cfg.Recommend.Timeout,
		BreakerMaxFailures: cfg.Recommend.BreakerMaxFailures,
		BreakerTimeout:     cfg.Recommend.BreakerTimeout,
		SnapshotTTL:        cfg.Recommend.SnapshotTTL,
	}, logger)

	handler := api.NewHandler(db, recommender, cfg, jwtManager, lockout)
	if auditLog != nil {
		handler.SetAuditLogger(auditLog)
	}

	hub := websocket.NewHub()
	handler.SetChangeFeed(hub)

	var backups *backup.Manager
	if cfg.Backup.Enabled {
		backups, err = backup.NewManager(backup.Config{
			Dir:        cfg.Backup.Dir,
			Interval:   cfg.Backup.Interval,
			Retain:     cfg.Backup.Retain,
			AppVersion: api.Version,
		}, db, logger)
		if err != nil {
			_ = db.Close()
			logging.Fatal().Err(err).Msg("Failed to create backup manager")
		}
		handler.SetBackups(backups)
		logging.Info().
			Str("dir", cfg.Backup.Dir).
			Dur("interval", cfg.Backup.Interval).
			Int("retain", cfg.Backup.Retain).
			Msg("Backups enabled")
	}
	router := api.NewRouter(
		handler,
		api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(&cfg.Security)),
		auth.NewMiddleware(jwtManager, db),
		authz.NewMiddleware(enforcer),
	)

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// sutureslog needs slog; the adapter forwards to zerolog.
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  shutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddMaintenanceService(services.NewCleanupService("lockout-cleanup", lockout, lockoutCleanupInterval, logger))
	if limiter := router.LoginLimiter(); limiter != nil {
		tree.AddMaintenanceService(services.NewLimiterCleanupService(limiter, limiterCleanupInterval))
	}
	if cfg.Recommend.SnapshotTTL > 0 {
		tree.AddMaintenanceService(services.NewCleanupService("recommend-cache-cleanup", recommender, cacheCleanupInterval, logger))
	}
	if auditLog != nil {
		tree.AddMaintenanceService(services.NewCleanupService("audit-retention", auditLog, auditCleanupInterval, logger))
	}
	if backups != nil && cfg.Backup.Interval > 0 {
		tree.AddMaintenanceService(backups)
	}
	tree.AddAPIService(services.NewHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, shutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// seedAdmin creates the configured admin account, or promotes the existing
// user holding its username or email.
func seedAdmin(db *database.DB, cfg *config.Config, auditLog *audit.Logger) error {
	sec := &cfg.Security
	if !sec.HasAdminSeed() {
		logging.Warn().Msg("No admin account configured; genre and book writes will be unavailable")
		return nil
	}

	hash, err := auth.HashPassword(sec.AdminPassword, sec.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	user, created, err := db.EnsureAdmin(ctx, sec.AdminUsername, sec.AdminEmail, hash)
	if err != nil {
		return err
	}
	logging.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Bool("created", created).
		Msg("Admin account ready")
	auditLog.LogAdminSeeded(user.ID, user.Username, created)
	return nil
}

// newLockoutStore opens the badger store when a path is configured and
// falls back to process memory otherwise.
func newLockoutStore(sec *config.SecurityConfig) (auth.LockoutStore, error) {
	if sec.LockoutStorePath == "" {
		logging.Info().Msg("Lockout state kept in memory")
		return auth.NewMemoryLockoutStore(), nil
	}
	store, err := auth.OpenBadgerLockoutStore(sec.LockoutStorePath)
	if err != nil {
		return nil, err
	}
	logging.Info().Str("path", sec.LockoutStorePath).Msg("Lockout state persisted to badger")
	return store, nil
}

func closeWithLog(c io.Closer, what string) {
	if err := c.Close(); err != nil {
		logging.Error().Err(err).Str("resource", what).Msg("Close failed")
	}
}
