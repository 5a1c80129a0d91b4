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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tenantgate/tenantgate/internal/audit"
	"github.com/tenantgate/tenantgate/internal/authorizer"
	"github.com/tenantgate/tenantgate/internal/config"
	"github.com/tenantgate/tenantgate/internal/credentials"
	"github.com/tenantgate/tenantgate/internal/directory"
	"github.com/tenantgate/tenantgate/internal/entity"
	"github.com/tenantgate/tenantgate/internal/observability/logger"
	"github.com/tenantgate/tenantgate/internal/observability/metrics"
	"github.com/tenantgate/tenantgate/internal/observability/tracing"
	"github.com/tenantgate/tenantgate/internal/shard"
	"github.com/tenantgate/tenantgate/internal/store/postgres"
	transportHTTP "github.com/tenantgate/tenantgate/internal/transport/http"
	"github.com/tenantgate/tenantgate/internal/verifier"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})
	slog.Info("starting tenantgate authorizer")

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := runMigrate(cfg); err != nil {
			fmt.Printf("Migration failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Initialize context
	ctx := context.Background()

	// Initialize tracer
	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   1.0,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
	}
	defer tracer.Shutdown(ctx)

	// Initialize meter
	meter, err := metrics.New(ctx, metrics.Config{
		Enabled: cfg.Observability.OTELEnabled,
	}, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to initialize meter", logger.Error(err))
	}

	// Initialize database
	db, err := postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		slog.Error("failed to connect to database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to database")

	// Initialize repositories
	tenantRepo := postgres.NewTenantRepository(db)
	itemRepo := postgres.NewItemRepository(db)

	// Initialize helpers
	auditLogger := audit.NewSlogLogger()

	// Initialize the credential issuer. Dev mode mints deterministic
	// local credentials instead of calling out.
	var issuer credentials.Issuer
	if cfg.Dev.Enabled {
		slog.Warn("dev mode enabled, using local credential issuer")
		issuer = credentials.NewLocalIssuer(cfg.Dev.IssuerSigningSecret)
	} else {
		issuer = credentials.NewHTTPIssuer(cfg.Issuance.Endpoint, cfg.Issuance.Timeout)
	}

	// Initialize services
	tenantCache := directory.NewCache(tenantRepo, cfg.Cache.TenantTTL)
	verifierRegistry := verifier.NewRegistry(ctx, verifier.Config{
		IssuerURLTemplate: cfg.Identity.IssuerURLTemplate,
		JWKSURLTemplate:   cfg.Identity.JWKSURLTemplate,
		ClockSkew:         cfg.Identity.ClockSkew,
	})
	broker := credentials.NewBroker(issuer, credentials.BrokerConfig{
		SessionDuration: cfg.Issuance.SessionDuration,
		SafetyMargin:    cfg.Issuance.SafetyMargin,
		MaxCacheSize:    cfg.Issuance.MaxCacheSize,
	})
	authService := authorizer.NewService(
		tenantCache,
		verifierRegistry,
		broker,
		auditLogger,
		meter,
		authorizer.Options{
			PooledPoolID:           cfg.Identity.PooledPoolID,
			PooledClientID:         cfg.Identity.PooledClientID,
			OperationsRateLimitKey: cfg.Identity.OperationsRateLimitKey,
		},
	)

	entityService := entity.NewService(itemRepo, shard.NewScheme(cfg.Shard.RangeStart, cfg.Shard.RangeEnd))

	// Rate Limiter
	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	// Initialize HTTP handler
	handler := transportHTTP.NewHandler(authService, entityService, func(ctx context.Context) error {
		return db.Pool().Ping(ctx)
	})
	router := handler.Router(rateLimiter)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server
	go func() {
		slog.Info("starting http server", logger.Component("server"), logger.Operation("listen"))
		slog.Info(fmt.Sprintf("listening on %s", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", logger.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", logger.Error(err))
	}

	slog.Info("server stopped")
}

func runMigrate(cfg *config.Config) error {
	ctx := context.Background()
	db, err := postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Println("Applying initial schema...")
	if err := db.Migrate(ctx, postgres.InitialSchema); err != nil {
		return err
	}
	fmt.Println("Migration successful.")
	return nil
}
