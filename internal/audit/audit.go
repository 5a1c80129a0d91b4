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

// Package audit records the gateway's internal decision trail. The
// detailed failure kinds logged here never cross the subsystem boundary:
// callers only ever see a single undistinguished unauthorized outcome.
package audit

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Event types
const (
	TypeDecisionAllow     = "decision_allow"
	TypeDecisionDeny      = "decision_deny"
	TypeTenantResolved    = "tenant_resolved"
	TypeIssuanceFailed    = "issuance_failed"
	TypeCredentialsMinted = "credentials_minted"
)

// Event represents an auditable authorization step
type Event struct {
	Type      string
	TenantID  string
	Role      string
	Principal string
	Reason    string // internal failure kind for deny events
	Metadata  map[string]any
	Timestamp time.Time
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, event Event)
}

// SlogLogger implements Logger using slog
type SlogLogger struct{}

// NewSlogLogger creates a new audit logger
func NewSlogLogger() *SlogLogger {
	return &SlogLogger{}
}

// Log records an audit event
func (l *SlogLogger) Log(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	attrs := []any{
		slog.String("audit_type", event.Type),
		slog.String("tenant_id", event.TenantID),
		slog.String("role", event.Role),
		slog.String("principal_id", event.Principal),
		slog.Time("timestamp", event.Timestamp),
	}
	if event.Reason != "" {
		attrs = append(attrs, slog.String("reason", event.Reason))
	}

	if len(event.Metadata) > 0 {
		group := []any{}
		for k, v := range event.Metadata {
			if isSecret(k) {
				v = "[REDACTED]"
			}
			group = append(group, slog.Any(k, v))
		}
		attrs = append(attrs, slog.Group("metadata", group...))
	}

	slog.InfoContext(ctx, "AUDIT_EVENT", append(attrs, slog.String("component", "audit"))...)
}

// isSecret checks if a key likely contains credential material
func isSecret(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range []string{"password", "secret", "token", "key", "credential", "hash", "authorization"} {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
