// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.SecretKey = testSecret
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults with secret", func(*Config) {}, ""},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, "HTTP_PORT"},
		{"empty db path", func(c *Config) { c.Database.Path = "" }, "DUCKDB_PATH"},
		{"short secret", func(c *Config) { c.Security.SecretKey = "short" }, "at least 32"},
		{"placeholder secret", func(c *Config) {
			c.Security.SecretKey = "CHANGEME-CHANGEME-CHANGEME-CHANGEME"
		}, "placeholder"},
		{"unsupported algorithm", func(c *Config) { c.Security.Algorithm = "RS256" }, "ALGORITHM"},
		{"zero token lifetime", func(c *Config) { c.Security.AccessTokenExpireMinutes = 0 }, "ACCESS_TOKEN_EXPIRE_MINUTES"},
		{"bcrypt cost too high", func(c *Config) { c.Security.BcryptCost = 40 }, "BCRYPT_COST"},
		{"partial admin seed", func(c *Config) { c.Security.AdminUsername = "admin" }, "set together"},
		{"short admin password", func(c *Config) {
			c.Security.AdminUsername = "admin"
			c.Security.AdminEmail = "admin@example.com"
			c.Security.AdminPassword = "short"
		}, "ADMIN_PASS"},
		{"rate limit window too small", func(c *Config) { c.Security.RateLimitWindow = time.Millisecond }, "RATE_LIMIT_WINDOW"},
		{"rate limit ignored when disabled", func(c *Config) {
			c.Security.RateLimitDisabled = true
			c.Security.RateLimitReqs = 0
		}, ""},
		{"lockout attempts", func(c *Config) { c.Security.LockoutMaxAttempts = 0 }, "LOCKOUT_MAX_ATTEMPTS"},
		{"default page size above max", func(c *Config) { c.API.DefaultPageSize = 2000 }, "API_DEFAULT_PAGE_SIZE"},
		{"zero neighbors", func(c *Config) { c.Recommend.Neighbors = 0 }, "RECOMMEND_NEIGHBORS"},
		{"recommend default above max", func(c *Config) { c.Recommend.DefaultLimit = 500 }, "RECOMMEND_DEFAULT_LIMIT"},
		{"breaker failures", func(c *Config) { c.Recommend.BreakerMaxFailures = 0 }, "RECOMMEND_BREAKER_MAX_FAILURES"},
		{"negative snapshot ttl", func(c *Config) { c.Recommend.SnapshotTTL = -time.Second }, "RECOMMEND_SNAPSHOT_TTL"},
		{"zero snapshot ttl disables cache", func(c *Config) { c.Recommend.SnapshotTTL = 0 }, ""},
		{"zero audit retention", func(c *Config) { c.Audit.RetentionDays = 0 }, "AUDIT_RETENTION_DAYS"},
		{"negative audit buffer", func(c *Config) { c.Audit.BufferSize = -1 }, "AUDIT_BUFFER_SIZE"},
		{"audit disabled skips checks", func(c *Config) {
			c.Audit.Enabled = false
			c.Audit.RetentionDays = 0
		}, ""},
		{"backup enabled with defaults", func(c *Config) { c.Backup.Enabled = true }, ""},
		{"backup without dir", func(c *Config) {
			c.Backup.Enabled = true
			c.Backup.Dir = ""
		}, "BACKUP_DIR"},
		{"backup of in-memory database", func(c *Config) {
			c.Backup.Enabled = true
			c.Database.Path = ":memory:"
		}, "file-backed"},
		{"zero backup retain", func(c *Config) {
			c.Backup.Enabled = true
			c.Backup.Retain = 0
		}, "BACKUP_RETAIN"},
		{"backup disabled skips checks", func(c *Config) { c.Backup.Retain = 0 }, ""},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestIsProduction(t *testing.T) {
	for env, want := range map[string]bool{
		"production":  true,
		"PROD":        true,
		"development": false,
		"":            false,
	} {
		cfg := validConfig()
		cfg.Server.Environment = env
		if got := cfg.IsProduction(); got != want {
			t.Errorf("IsProduction() with %q = %v, want %v", env, got, want)
		}
	}
}

func TestShouldWarnAboutCORS(t *testing.T) {
	cfg := validConfig()
	if !cfg.ShouldWarnAboutCORS() {
		t.Error("default wildcard origin should warn")
	}
	cfg.Security.CORSOrigins = []string{"https://books.example"}
	if cfg.ShouldWarnAboutCORS() {
		t.Error("explicit origin should not warn")
	}
}
