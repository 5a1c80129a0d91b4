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
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tenantgate/tenantgate/internal/authorizer"
	"github.com/tenantgate/tenantgate/internal/entity"
	"github.com/tenantgate/tenantgate/internal/shard"
)

type contextKey string

const decisionContextKey contextKey = "decision"

// AuthMiddleware authorizes the request's bearer token and stores the
// resulting decision in the request context. Everything mounted behind
// it can assume a verified, tenant-scoped caller.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision, err := h.authService.Authorize(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		ctx := context.WithValue(r.Context(), decisionContextKey, decision)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DecisionFromContext retrieves the authorization decision stored by
// AuthMiddleware.
func DecisionFromContext(ctx context.Context) (*authorizer.Decision, bool) {
	d, ok := ctx.Value(decisionContextKey).(*authorizer.Decision)
	return d, ok
}

type createItemRequest struct {
	Name       string         `json:"name"`
	Attributes map[string]any `json:"attributes"`
}

type updateItemRequest struct {
	Attributes map[string]any `json:"attributes"`
}

type itemResponse struct {
	Key        string         `json:"key"`
	Collection string         `json:"collection"`
	Name       string         `json:"name"`
	Attributes map[string]any `json:"attributes"`
}

func itemToResponse(item *entity.Item) itemResponse {
	return itemResponse{
		Key:        shard.JoinItemKey(item.PartitionKey, item.ItemID),
		Collection: item.Collection,
		Name:       item.Name,
		Attributes: item.Attributes,
	}
}

// collectionFromRequest maps the URL collection segment onto a known
// pooled collection.
func collectionFromRequest(r *http.Request) (string, bool) {
	switch chi.URLParam(r, "collection") {
	case "products":
		return entity.CollectionProducts, true
	case "orders":
		return entity.CollectionOrders, true
	}
	return "", false
}

func (h *Handler) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	decision, _ := DecisionFromContext(r.Context())
	collection, ok := collectionFromRequest(r)
	if !ok {
		respondError(w, http.StatusNotFound, "unknown collection")
		return
	}

	var req createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, key, err := h.entityService.Create(r.Context(), decision.Context.TenantID, collection, req.Name, req.Attributes)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	resp := itemToResponse(item)
	resp.Key = key
	respondJSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleGetItem(w http.ResponseWriter, r *http.Request) {
	decision, _ := DecisionFromContext(r.Context())

	item, err := h.entityService.GetByKey(r.Context(), decision.Context.TenantID, chi.URLParam(r, "key"))
	if err != nil {
		respondItemError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, itemToResponse(item))
}

func (h *Handler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	decision, _ := DecisionFromContext(r.Context())

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.entityService.UpdateByKey(r.Context(), decision.Context.TenantID, chi.URLParam(r, "key"), req.Attributes)
	if err != nil {
		respondItemError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, itemToResponse(item))
}

func (h *Handler) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	decision, _ := DecisionFromContext(r.Context())

	if err := h.entityService.DeleteByKey(r.Context(), decision.Context.TenantID, chi.URLParam(r, "key")); err != nil {
		respondItemError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	decision, _ := DecisionFromContext(r.Context())
	collection, ok := collectionFromRequest(r)
	if !ok {
		respondError(w, http.StatusNotFound, "unknown collection")
		return
	}

	items, err := h.entityService.ListForTenant(r.Context(), decision.Context.TenantID, collection)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list items")
		return
	}

	resp := make([]itemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, itemToResponse(item))
	}
	respondJSON(w, http.StatusOK, resp)
}

func respondItemError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "item not found")
	case errors.Is(err, entity.ErrPartitionOutsideTenant), errors.Is(err, shard.ErrInvalidKeyFormat):
		respondError(w, http.StatusNotFound, "item not found")
	default:
		respondError(w, http.StatusInternalServerError, "request failed")
	}
}
