// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// Package config loads Bookshelf configuration from defaults, an optional
// YAML file and environment variables, in that order of precedence.
package config

import "time"

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Security  SecurityConfig  `koanf:"security"`
	API       APIConfig       `koanf:"api"`
	Recommend RecommendConfig `koanf:"recommend"`
	Audit     AuditConfig     `koanf:"audit"`
	Backup    BackupConfig    `koanf:"backup"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the database file, or ":memory:".
	Path string `koanf:"path"`

	// MaxMemory is passed to DuckDB as max_memory (e.g. "1GB").
	MaxMemory string `koanf:"max_memory"`

	// Threads of 0 uses runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// SecurityConfig holds authentication, lockout and rate limit settings.
type SecurityConfig struct {
	// SecretKey signs access tokens.
	SecretKey string `koanf:"secret_key"`

	// Algorithm is the JWT signing algorithm. Only HS256 is supported.
	Algorithm string `koanf:"algorithm"`

	// AccessTokenExpireMinutes is the access token lifetime.
	AccessTokenExpireMinutes int `koanf:"access_token_expire_minutes"`

	BcryptCost int `koanf:"bcrypt_cost"`

	// Admin seed account. Either all three are set or none.
	AdminUsername string `koanf:"admin_username"`
	AdminEmail    string `koanf:"admin_email"`
	AdminPassword string `koanf:"admin_password"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// LoginRateLimit is the number of login attempts per minute per IP.
	LoginRateLimit int `koanf:"login_rate_limit"`

	LockoutEnabled     bool          `koanf:"lockout_enabled"`
	LockoutMaxAttempts int           `koanf:"lockout_max_attempts"`
	LockoutDuration    time.Duration `koanf:"lockout_duration"`

	// LockoutStorePath is a badger directory. Empty keeps lockout state in memory.
	LockoutStorePath string `koanf:"lockout_store_path"`
}

// AccessTokenTTL returns the configured token lifetime.
func (s *SecurityConfig) AccessTokenTTL() time.Duration {
	return time.Duration(s.AccessTokenExpireMinutes) * time.Minute
}

// HasAdminSeed reports whether an admin account should be seeded at startup.
func (s *SecurityConfig) HasAdminSeed() bool {
	return s.AdminUsername != "" && s.AdminEmail != "" && s.AdminPassword != ""
}

// APIConfig holds list pagination bounds.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// RecommendConfig holds recommendation settings.
type RecommendConfig struct {
	// Neighbors is the neighborhood size (top N most similar users).
	Neighbors int `koanf:"neighbors"`

	DefaultLimit int           `koanf:"default_limit"`
	MaxLimit     int           `koanf:"max_limit"`
	Timeout      time.Duration `koanf:"timeout"`

	// Circuit breaker around snapshot loads.
	BreakerMaxFailures uint32        `koanf:"breaker_max_failures"`
	BreakerTimeout     time.Duration `koanf:"breaker_timeout"`

	// SnapshotTTL caches the ratings snapshot between requests. Writes
	// invalidate it; zero disables caching.
	SnapshotTTL time.Duration `koanf:"snapshot_ttl"`
}

// AuditConfig holds security audit trail settings.
type AuditConfig struct {
	Enabled       bool `koanf:"enabled"`
	RetentionDays int  `koanf:"retention_days"`

	// BufferSize is the async write queue. Zero writes inline.
	BufferSize int `koanf:"buffer_size"`
}

// BackupConfig holds scheduled database backup settings.
type BackupConfig struct {
	Enabled bool   `koanf:"enabled"`
	Dir     string `koanf:"dir"`

	// Interval between scheduled backups. Zero allows manual backups only.
	Interval time.Duration `koanf:"interval"`

	// Retain is the number of archives kept; older ones are deleted.
	Retain int `koanf:"retain"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load is the entry point used by main.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
