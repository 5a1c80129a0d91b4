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

package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tenantgate/tenantgate/internal/authorizer"
	"github.com/tenantgate/tenantgate/internal/entity"
	"github.com/tenantgate/tenantgate/internal/observability/logger"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	authService   *authorizer.Service
	entityService *entity.Service
	readyCheck    func(ctx context.Context) error
}

// NewHandler creates a new HTTP handler. readyCheck may be nil when
// there is no backing dependency to probe.
func NewHandler(authService *authorizer.Service, entityService *entity.Service, readyCheck func(ctx context.Context) error) *Handler {
	return &Handler{
		authService:   authService,
		entityService: entityService,
		readyCheck:    readyCheck,
	}
}

// Router builds the gateway's route tree.
func (h *Handler) Router(rl *RateLimiter) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(LoggingMiddleware())
	if rl != nil {
		r.Use(RateLimitMiddleware(rl))
	}

	r.Get("/healthz", h.handleHealth)
	r.Get("/readyz", h.handleReady)
	r.Post("/v1/authorize", h.handleAuthorize)

	if h.entityService != nil {
		r.Route("/v1/{collection}", func(r chi.Router) {
			r.Use(h.AuthMiddleware)
			r.Post("/", h.handleCreateItem)
			r.Get("/", h.handleListItems)
			r.Get("/{key}", h.handleGetItem)
			r.Patch("/{key}", h.handleUpdateItem)
			r.Delete("/{key}", h.handleDeleteItem)
		})
	}

	return otelhttp.NewHandler(r, "tenantgate")
}

// authorizeResponse is the wire form of an allow decision.
type authorizeResponse struct {
	PrincipalID  string            `json:"principal_id"`
	RateLimitKey string            `json:"rate_limit_key"`
	Context      map[string]string `json:"context"`
}

// handleAuthorize runs the decision state machine over the request's
// Authorization header. Denials are a single undistinguished 401: the
// enforcing layer learns nothing about which check failed.
func (h *Handler) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	decision, err := h.authService.Authorize(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	respondJSON(w, http.StatusOK, authorizeResponse{
		PrincipalID:  decision.PrincipalID,
		RateLimitKey: decision.RateLimitKey,
		Context:      decision.Context.Map(),
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.readyCheck != nil {
		if err := h.readyCheck(r.Context()); err != nil {
			slog.ErrorContext(r.Context(), "readiness check failed", logger.Error(err))
			respondError(w, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
