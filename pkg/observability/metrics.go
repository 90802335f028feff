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

package observability

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics records studio activity. A nil *Metrics records nothing, so
// callers never need to check whether metrics are enabled.
type Metrics struct {
	registry *prom.Registry
	provider *sdkmetric.MeterProvider

	validations      metric.Int64Counter
	validationErrors metric.Int64Counter
	imports          metric.Int64Counter
	saves            metric.Int64Counter
	suggestions      metric.Int64Counter
	suggestDuration  metric.Float64Histogram
	httpRequests     metric.Int64Counter
	httpDuration     metric.Float64Histogram
}

// NewMetrics creates the instruments behind a private Prometheus registry.
// A disabled config returns nil.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	registry := prom.NewRegistry()
	exporter, err := prometheus.New(
		prometheus.WithRegisterer(registry),
		prometheus.WithNamespace(cfg.Namespace),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter(instrumentationName)
	m := &Metrics{registry: registry, provider: provider}

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.validations, "validations", "Documents validated, by agent type and outcome"},
		{&m.validationErrors, "validation_errors", "Validation errors reported, by kind"},
		{&m.imports, "imports", "Document imports, by format and outcome"},
		{&m.saves, "saves", "Agent saves, by outcome"},
		{&m.suggestions, "suggestions", "Suggestion requests, by field and outcome"},
		{&m.httpRequests, "http_requests", "HTTP requests, by method, route and status"},
	}
	for _, c := range counters {
		if *c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return nil, fmt.Errorf("failed to create %s counter: %w", c.name, err)
		}
	}

	if m.suggestDuration, err = meter.Float64Histogram("suggestion_duration",
		metric.WithDescription("Suggestion latency"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create suggestion histogram: %w", err)
	}
	if m.httpDuration, err = meter.Float64Histogram("http_request_duration",
		metric.WithDescription("HTTP request latency"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create http histogram: %w", err)
	}
	return m, nil
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordValidation(ctx context.Context, agentType string, errorKinds []string) {
	if m == nil {
		return
	}
	outcome := "valid"
	if len(errorKinds) > 0 {
		outcome = "invalid"
	}
	m.validations.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrAgentType, agentType),
		attribute.String(AttrOutcome, outcome),
	))
	for _, kind := range errorKinds {
		m.validationErrors.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrErrorKind, kind)))
	}
}

func (m *Metrics) RecordImport(ctx context.Context, format, outcome string) {
	if m == nil {
		return
	}
	m.imports.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrDocumentFormat, format),
		attribute.String(AttrOutcome, outcome),
	))
}

func (m *Metrics) RecordSave(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.saves.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrOutcome, outcome)))
}

func (m *Metrics) RecordSuggestion(ctx context.Context, field string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrSuggestField, field),
		attribute.String(AttrOutcome, outcome),
	)
	m.suggestions.Add(ctx, 1, attrs)
	m.suggestDuration.Record(ctx, duration.Seconds(), attrs)
}

func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrHTTPMethod, method),
		attribute.String(AttrHTTPRoute, route),
		attribute.String(AttrHTTPStatusCode, strconv.Itoa(status)),
	)
	m.httpRequests.Add(ctx, 1, attrs)
	m.httpDuration.Record(ctx, duration.Seconds(), attrs)
}

// Shutdown flushes and stops the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}
