// Copyright The OpenTelemetry Authors
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

// Package stdout implements a human-readable exporter for spans and
// metrics, writing one JSON line per span or metric to an io.Writer. It exists
// for local development and smoke tests, not production telemetry
// pipelines.
package stdout // import "github.com/otelcore/pipeline/exporters/stdout"

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/otelcore/pipeline/resource"
	"github.com/otelcore/pipeline/sdkmetric"
	"github.com/otelcore/pipeline/sdktrace"
)

// resourceAttrs flattens a Resource's attribute set into a plain map for
// JSON encoding. A nil resource encodes as an empty map rather than
// being omitted, so every line carries the same shape.
func resourceAttrs(res *resource.Resource) map[string]string {
	out := map[string]string{}
	iter := res.Set().Iter()
	for iter.Next() {
		kv := iter.Attribute()
		out[string(kv.Key)] = kv.Value.Emit()
	}
	return out
}

// SpanExporter writes span batches as line-delimited JSON.
type SpanExporter struct {
	mu     sync.Mutex
	w      io.Writer
	pretty bool
}

// NewSpanExporter returns a SpanExporter writing to w.
func NewSpanExporter(w io.Writer, opts ...Option) *SpanExporter {
	cfg := newConfig(opts...)
	return &SpanExporter{w: w, pretty: cfg.pretty}
}

type spanLine struct {
	Name       string            `json:"name"`
	TraceID    string            `json:"trace_id"`
	SpanID     string            `json:"span_id"`
	Kind       string            `json:"kind"`
	StatusCode string            `json:"status_code"`
	Attributes int               `json:"attribute_count"`
	Resource   map[string]string `json:"resource"`
}

// ExportSpans writes one line per span, each carrying res so every line
// is self-describing even when lines are shipped to separate sinks.
func (e *SpanExporter) ExportSpans(ctx context.Context, spans []sdktrace.SpanSnapshot, res *resource.Resource) (sdktrace.ExportResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	enc := json.NewEncoder(e.w)
	if e.pretty {
		enc.SetIndent("", "  ")
	}
	resAttrs := resourceAttrs(res)
	for _, s := range spans {
		select {
		case <-ctx.Done():
			return sdktrace.ExportFailedRetryable, ctx.Err()
		default:
		}
		line := spanLine{
			Name:       s.Name,
			TraceID:    s.SpanContext.TraceID().String(),
			SpanID:     s.SpanContext.SpanID().String(),
			Kind:       s.SpanKind.String(),
			StatusCode: s.Status.Code.String(),
			Attributes: len(s.Attributes),
			Resource:   resAttrs,
		}
		if err := enc.Encode(line); err != nil {
			return sdktrace.ExportFailedNotRetryable, err
		}
	}
	return sdktrace.ExportSuccess, nil
}

// Shutdown is a no-op; there is nothing to release.
func (e *SpanExporter) Shutdown(context.Context) error { return nil }

var _ sdktrace.SpanExporter = (*SpanExporter)(nil)

// MetricExporter writes metric batches as line-delimited JSON.
type MetricExporter struct {
	mu     sync.Mutex
	w      io.Writer
	pretty bool
}

// NewMetricExporter returns a MetricExporter writing to w.
func NewMetricExporter(w io.Writer, opts ...Option) *MetricExporter {
	cfg := newConfig(opts...)
	return &MetricExporter{w: w, pretty: cfg.pretty}
}

type metricLine struct {
	Name        string            `json:"name"`
	Unit        string            `json:"unit,omitempty"`
	Temporality string            `json:"temporality"`
	DataPoints  int               `json:"data_point_count"`
	Resource    map[string]string `json:"resource"`
}

// ExportMetrics writes one line per metric, each carrying res.
func (e *MetricExporter) ExportMetrics(ctx context.Context, metrics []sdkmetric.Metric, res *resource.Resource) (sdkmetric.ExportResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	enc := json.NewEncoder(e.w)
	if e.pretty {
		enc.SetIndent("", "  ")
	}
	resAttrs := resourceAttrs(res)
	for _, m := range metrics {
		select {
		case <-ctx.Done():
			return sdkmetric.ExportFailedRetryable, ctx.Err()
		default:
		}
		temporality := "cumulative"
		if m.Temporality == sdkmetric.DeltaTemporality {
			temporality = "delta"
		}
		line := metricLine{Name: m.Name, Unit: m.Unit, Temporality: temporality, DataPoints: len(m.Data), Resource: resAttrs}
		if err := enc.Encode(line); err != nil {
			return sdkmetric.ExportFailedNotRetryable, err
		}
	}
	return sdkmetric.ExportSuccess, nil
}

// Shutdown is a no-op; there is nothing to release.
func (e *MetricExporter) Shutdown(context.Context) error { return nil }

var _ sdkmetric.MetricExporter = (*MetricExporter)(nil)
