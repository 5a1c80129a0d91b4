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

package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Config holds metrics configuration
type Config struct {
	Enabled bool
}

// Meter wraps the OpenTelemetry meter and the gateway's instruments.
type Meter struct {
	meter metric.Meter

	Decisions     metric.Int64Counter
	CacheHits     metric.Int64Counter
	CacheMisses   metric.Int64Counter
	IssuanceCalls metric.Int64Counter
}

// New creates the meter and the gateway's counters. Disabled
// configuration uses the global noop meter.
func New(ctx context.Context, cfg Config, serviceName string) (*Meter, error) {
	var meter metric.Meter
	if cfg.Enabled {
		meter = otel.Meter(serviceName)
	} else {
		meter = otel.Meter("noop")
	}

	m := &Meter{meter: meter}

	var err error
	if m.Decisions, err = m.counter("gateway_decisions_total", "Authorization decisions by outcome"); err != nil {
		return nil, err
	}
	if m.CacheHits, err = m.counter("gateway_cache_hits_total", "Cache hits by cache name"); err != nil {
		return nil, err
	}
	if m.CacheMisses, err = m.counter("gateway_cache_misses_total", "Cache misses by cache name"); err != nil {
		return nil, err
	}
	if m.IssuanceCalls, err = m.counter("gateway_issuance_calls_total", "Credential issuance attempts by outcome"); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Meter) counter(name, description string) (metric.Int64Counter, error) {
	c, err := m.meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", name, err)
	}
	return c, nil
}

// GetMeter returns the underlying meter
func (m *Meter) GetMeter() metric.Meter {
	return m.meter
}
