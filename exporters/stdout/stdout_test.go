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

package stdout

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/otelcore/pipeline/resource"
	"github.com/otelcore/pipeline/sdkmetric"
	"github.com/otelcore/pipeline/sdktrace"
)

func TestExportSpansWritesOneLinePerSpan(t *testing.T) {
	var buf bytes.Buffer
	e := NewSpanExporter(&buf)
	res := resource.New(attribute.String("service.name", "checkout"))

	spans := []sdktrace.SpanSnapshot{
		{Name: "a", SpanContext: trace.NewSpanContext(trace.SpanContextConfig{TraceID: [16]byte{1}, SpanID: [8]byte{1}})},
		{Name: "b", SpanContext: trace.NewSpanContext(trace.SpanContextConfig{TraceID: [16]byte{2}, SpanID: [8]byte{2}})},
	}
	result, err := e.ExportSpans(context.Background(), spans, res)
	require.NoError(t, err)
	require.Equal(t, sdktrace.ExportSuccess, result)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], `"name":"a"`)
	require.Contains(t, lines[1], `"name":"b"`)
	require.Contains(t, lines[0], `"service.name":"checkout"`)
	require.Contains(t, lines[1], `"service.name":"checkout"`)
}

func TestExportMetricsReportsTemporality(t *testing.T) {
	var buf bytes.Buffer
	e := NewMetricExporter(&buf)
	res := resource.New(attribute.String("service.name", "checkout"))

	result, err := e.ExportMetrics(context.Background(), []sdkmetric.Metric{
		{Name: "requests", Temporality: sdkmetric.DeltaTemporality, Data: []sdkmetric.DataPoint{{Value: 1}}},
	}, res)
	require.NoError(t, err)
	require.Equal(t, sdkmetric.ExportSuccess, result)
	require.Contains(t, buf.String(), `"temporality":"delta"`)
	require.Contains(t, buf.String(), `"service.name":"checkout"`)
}

func TestExportSpansWithNilResourceOmitsNoFields(t *testing.T) {
	var buf bytes.Buffer
	e := NewSpanExporter(&buf)

	result, err := e.ExportSpans(context.Background(), []sdktrace.SpanSnapshot{{Name: "a"}}, nil)
	require.NoError(t, err)
	require.Equal(t, sdktrace.ExportSuccess, result)
	require.Contains(t, buf.String(), `"resource":{}`)
}
