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

package logger

import "log/slog"

// Common attribute keys for consistent logging across the gateway

// Request attributes
func RequestID(id string) slog.Attr {
	return slog.String("request_id", id)
}

func Method(method string) slog.Attr {
	return slog.String("method", method)
}

func Path(path string) slog.Attr {
	return slog.String("path", path)
}

func RemoteAddr(addr string) slog.Attr {
	return slog.String("remote_addr", addr)
}

func UserAgent(ua string) slog.Attr {
	return slog.String("user_agent", ua)
}

func StatusCode(code int) slog.Attr {
	return slog.Int("status_code", code)
}

func Duration(ms int64) slog.Attr {
	return slog.Int64("duration_ms", ms)
}

// Tenancy attributes
func TenantID(id string) slog.Attr {
	return slog.String("tenant_id", id)
}

func Role(role string) slog.Attr {
	return slog.String("role", role)
}

func Tier(tier string) slog.Attr {
	return slog.String("tier", tier)
}

// Identity attributes
func PoolID(id string) slog.Attr {
	return slog.String("pool_id", id)
}

func ClientID(id string) slog.Attr {
	return slog.String("client_id", id)
}

func Username(name string) slog.Attr {
	return slog.String("username", name)
}

func PrincipalID(id string) slog.Attr {
	return slog.String("principal_id", id)
}

// Decision attributes
func Decision(d string) slog.Attr {
	return slog.String("decision", d)
}

func DenyReason(kind string) slog.Attr {
	return slog.String("deny_reason", kind)
}

func RateLimitKey(key string) slog.Attr {
	return slog.String("rate_limit_key", key)
}

// Cache attributes
func Cache(name string) slog.Attr {
	return slog.String("cache", name)
}

func CacheSize(n int) slog.Attr {
	return slog.Int("cache_size", n)
}

// Error attributes
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// Component attributes
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func Operation(op string) slog.Attr {
	return slog.String("operation", op)
}
