// Copyright 2026 The TenantGate Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Identity      IdentityConfig
	Issuance      IssuanceConfig
	Cache         CacheConfig
	Shard         ShardConfig
	RateLimit     RateLimitConfig
	Observability ObservabilityConfig
	Dev           DevConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// IdentityConfig holds the identity-provider conventions and the pooled
// configuration used by provider roles and tenants without a dedicated
// pool binding.
type IdentityConfig struct {
	IssuerURLTemplate      string // "{pool}" placeholder
	JWKSURLTemplate        string // "{pool}" placeholder
	ClockSkew              time.Duration
	PooledPoolID           string
	PooledClientID         string
	OperationsRateLimitKey string
}

// IssuanceConfig holds credential-issuer configuration
type IssuanceConfig struct {
	Endpoint        string
	Timeout         time.Duration
	SessionDuration time.Duration
	SafetyMargin    time.Duration
	MaxCacheSize    int
}

// CacheConfig holds TTLs for the gateway's in-memory caches
type CacheConfig struct {
	TenantTTL time.Duration
}

// ShardConfig holds the partition-key suffix range, start inclusive,
// end exclusive. Assign and fan-out both read from here so the two can
// never drift apart.
type ShardConfig struct {
	RangeStart int
	RangeEnd   int
}

// RateLimitConfig holds transport-level rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// ObservabilityConfig holds logging and tracing configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string
	OTELEnabled    bool
	ServiceName    string
	ServiceVersion string
}

// DevConfig is the explicit local/dev switch. Nothing in here is ever
// consulted unless Enabled is true, so a misconfigured production
// deployment fails loudly instead of silently weakening isolation.
type DevConfig struct {
	Enabled             bool
	DefaultTenantID     string
	IssuerSigningSecret string
}

// Load loads configuration from the environment, reading a .env file
// first when present (local bring-up convenience).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  parseDuration("SERVER_READ_TIMEOUT", "15s"),
			WriteTimeout: parseDuration("SERVER_WRITE_TIMEOUT", "15s"),
			IdleTimeout:  parseDuration("SERVER_IDLE_TIMEOUT", "60s"),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "tenantgate"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "tenantgate"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: parseInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: parseInt("DB_MAX_IDLE_CONNS", 5),
		},
		Identity: IdentityConfig{
			IssuerURLTemplate:      getEnv("IDP_ISSUER_URL_TEMPLATE", ""),
			JWKSURLTemplate:        getEnv("IDP_JWKS_URL_TEMPLATE", ""),
			ClockSkew:              parseDuration("IDP_CLOCK_SKEW", "60s"),
			PooledPoolID:           getEnv("POOLED_POOL_ID", ""),
			PooledClientID:         getEnv("POOLED_CLIENT_ID", ""),
			OperationsRateLimitKey: getEnv("OPERATIONS_RATE_LIMIT_KEY", "OPERATIONS-KEY"),
		},
		Issuance: IssuanceConfig{
			Endpoint:        getEnv("ISSUER_ENDPOINT", ""),
			Timeout:         parseDuration("ISSUER_TIMEOUT", "3s"),
			SessionDuration: parseDuration("ISSUER_SESSION_DURATION", "15m"),
			SafetyMargin:    parseDuration("ISSUER_SAFETY_MARGIN", "3m"),
			MaxCacheSize:    parseInt("CREDENTIAL_CACHE_MAX_SIZE", 1000),
		},
		Cache: CacheConfig{
			TenantTTL: parseDuration("TENANT_CACHE_TTL", "5m"),
		},
		Shard: ShardConfig{
			RangeStart: parseInt("SHARD_RANGE_START", 1),
			RangeEnd:   parseInt("SHARD_RANGE_END", 11),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: float64(parseInt("RATELIMIT_RPS", 50)),
			Burst:             parseInt("RATELIMIT_BURST", 100),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			OTELEnabled:    parseBool("OTEL_ENABLED", false),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "tenantgate"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "0.1.0"),
		},
		Dev: DevConfig{
			Enabled:             parseBool("DEV_MODE", false),
			DefaultTenantID:     getEnv("DEV_DEFAULT_TENANT_ID", "devtenant"),
			IssuerSigningSecret: getEnv("DEV_ISSUER_SIGNING_SECRET", "tenantgate-dev-secret"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration. Production (non-dev) deployments
// must name the identity conventions, the pooled identity binding and a
// real credential issuer.
func (c *Config) Validate() error {
	if c.Dev.Enabled {
		return nil
	}
	if c.Identity.IssuerURLTemplate == "" || c.Identity.JWKSURLTemplate == "" {
		return fmt.Errorf("IDP_ISSUER_URL_TEMPLATE and IDP_JWKS_URL_TEMPLATE are required")
	}
	if c.Identity.PooledPoolID == "" || c.Identity.PooledClientID == "" {
		return fmt.Errorf("POOLED_POOL_ID and POOLED_CLIENT_ID are required")
	}
	if c.Issuance.Endpoint == "" {
		return fmt.Errorf("ISSUER_ENDPOINT is required")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Shard.RangeStart < 0 || c.Shard.RangeEnd <= c.Shard.RangeStart {
		return fmt.Errorf("shard range must be a non-empty [start, end) interval")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func parseBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func parseDuration(key string, defaultValue string) time.Duration {
	value := getEnv(key, defaultValue)
	d, err := time.ParseDuration(value)
	if err != nil {
		d, _ = time.ParseDuration(defaultValue)
	}
	return d
}
