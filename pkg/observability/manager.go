// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package observability wires OpenTelemetry tracing and Prometheus metrics
// for the studio.
package observability

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/trace"
)

// Manager owns the tracer provider and metrics for one process.
type Manager struct {
	config         Config
	tracerProvider trace.TracerProvider
	metrics        *Metrics
}

// NewManager initializes tracing and metrics as configured.
func NewManager(ctx context.Context, cfg Config) (*Manager, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tp, err := NewTracerProvider(ctx, cfg.Tracing)
	if err != nil {
		return nil, err
	}
	metrics, err := NewMetrics(cfg.Metrics)
	if err != nil {
		return nil, err
	}
	return &Manager{config: cfg, tracerProvider: tp, metrics: metrics}, nil
}

func (m *Manager) Tracer() trace.Tracer {
	return m.tracerProvider.Tracer(instrumentationName)
}

// Metrics returns nil when metrics are disabled.
func (m *Manager) Metrics() *Metrics {
	return m.metrics
}

// MetricsPath is where the metrics handler should be mounted.
func (m *Manager) MetricsPath() string {
	return m.config.Metrics.Endpoint
}

// Shutdown flushes pending spans and stops the meter provider.
func (m *Manager) Shutdown(ctx context.Context) error {
	var errs []error
	if s, ok := m.tracerProvider.(interface{ Shutdown(context.Context) error }); ok {
		errs = append(errs, s.Shutdown(ctx))
	}
	errs = append(errs, m.metrics.Shutdown(ctx))
	return errors.Join(errs...)
}
