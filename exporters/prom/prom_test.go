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

package prom

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"

	"github.com/otelcore/pipeline/resource"
	"github.com/otelcore/pipeline/sdkmetric"
)

func TestExportThenScrapeServesCachedSnapshot(t *testing.T) {
	e := New()
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(e))

	now := time.Now()
	res := resource.New(attribute.String("service.name", "checkout"))
	_, err := e.ExportMetrics(context.Background(), []sdkmetric.Metric{
		{
			Name: "requests_total",
			Data: []sdkmetric.DataPoint{
				{Attributes: attribute.NewSet(attribute.String("route", "/health")), Value: 42, Time: now},
			},
		},
	}, res)
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)

	var found *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "requests_total" {
			found = f
		}
	}
	require.NotNil(t, found, "expected requests_total family in scrape output")
	require.Len(t, found.Metric, 1)
	require.Equal(t, float64(42), found.Metric[0].GetGauge().GetValue())

	var gotServiceName bool
	for _, lp := range found.Metric[0].GetLabel() {
		if lp.GetName() == "service_name" && lp.GetValue() == "checkout" {
			gotServiceName = true
		}
	}
	require.True(t, gotServiceName, "expected resource attribute surfaced as a const label")
}

func TestShutdownClearsCachedSnapshot(t *testing.T) {
	e := New()
	_, err := e.ExportMetrics(context.Background(), []sdkmetric.Metric{{Name: "x", Data: []sdkmetric.DataPoint{{Value: 1}}}}, nil)
	require.NoError(t, err)

	require.NoError(t, e.Shutdown(context.Background()))

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(e))
	families, err := reg.Gather()
	require.NoError(t, err)
	require.Empty(t, families)
}
