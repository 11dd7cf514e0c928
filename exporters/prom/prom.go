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

// Package prom adapts the metric pipeline's push-shaped MetricExporter
// interface onto Prometheus's pull model. ExportMetrics, driven by the
// reader's collection timer, only replaces a cached snapshot; an
// independent prometheus.Collector serves whatever was cached the next
// time a scraper calls Collect. This is the inverse data flow of the
// push exporters in this repository, exercising the Reader against both
// sink shapes.
package prom // import "github.com/otelcore/pipeline/exporters/prom"

import (
	"context"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/otelcore/pipeline/resource"
	"github.com/otelcore/pipeline/sdkmetric"
)

// Exporter caches the most recent collection's metrics and serves them to
// Prometheus on scrape via Collect. Register it with a
// prometheus.Registerer to expose it on a /metrics endpoint.
type Exporter struct {
	mu        sync.Mutex
	metrics   []sdkmetric.Metric
	resLabels prometheus.Labels
}

// New returns an Exporter with an empty initial snapshot.
func New() *Exporter {
	return &Exporter{}
}

// ExportMetrics replaces the cached snapshot. It never blocks on a
// scraper; the two only ever synchronize over the mutex guarding the
// slice swap. res's attributes are cached alongside the snapshot and
// attached as constant labels on every family Collect emits, since
// Prometheus's exposition format has no separate resource concept.
func (e *Exporter) ExportMetrics(_ context.Context, metrics []sdkmetric.Metric, res *resource.Resource) (sdkmetric.ExportResult, error) {
	e.mu.Lock()
	e.metrics = metrics
	e.resLabels = resourceLabels(res)
	e.mu.Unlock()
	return sdkmetric.ExportSuccess, nil
}

// Shutdown clears the cached snapshot so a subsequent scrape sees no
// stale data from a processor that no longer exists.
func (e *Exporter) Shutdown(context.Context) error {
	e.mu.Lock()
	e.metrics = nil
	e.resLabels = nil
	e.mu.Unlock()
	return nil
}

// resourceLabels flattens res into Prometheus constant labels. A nil
// resource yields no labels rather than panicking.
func resourceLabels(res *resource.Resource) prometheus.Labels {
	labels := prometheus.Labels{}
	iter := res.Set().Iter()
	for iter.Next() {
		kv := iter.Attribute()
		labels[sanitizeName(string(kv.Key))] = kv.Value.Emit()
	}
	return labels
}

// Describe satisfies prometheus.Collector by sending no descriptors,
// opting the Exporter out of Prometheus's consistency checking — the
// instrument set can change between collections as instruments are
// registered, which the checker would otherwise flag.
func (e *Exporter) Describe(chan<- *prometheus.Desc) {}

// Collect satisfies prometheus.Collector, translating the cached
// snapshot into Prometheus metric families on every scrape.
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	e.mu.Lock()
	metrics := e.metrics
	resLabels := e.resLabels
	e.mu.Unlock()

	for _, m := range metrics {
		name := sanitizeName(m.Name)
		for _, dp := range m.Data {
			labelNames, labelValues := attributesToLabels(dp)
			switch {
			case dp.Bounds != nil:
				buckets := make(map[float64]uint64, len(dp.Bounds))
				var cumulative uint64
				for i, bound := range dp.Bounds {
					cumulative += dp.BucketCounts[i]
					buckets[bound] = cumulative
				}
				desc := prometheus.NewDesc(name, m.Description, labelNames, resLabels)
				metric, err := prometheus.NewConstHistogram(desc, dp.Count, dp.Sum, buckets, labelValues...)
				if err != nil {
					continue
				}
				ch <- metric
			default:
				desc := prometheus.NewDesc(name, m.Description, labelNames, resLabels)
				metric, err := prometheus.NewConstMetric(desc, prometheus.GaugeValue, dp.Value, labelValues...)
				if err != nil {
					continue
				}
				ch <- metric
			}
		}
	}
}

func attributesToLabels(dp sdkmetric.DataPoint) (names, values []string) {
	iter := dp.Attributes.Iter()
	for iter.Next() {
		kv := iter.Attribute()
		names = append(names, sanitizeName(string(kv.Key)))
		values = append(values, kv.Value.Emit())
	}
	return names, values
}

// sanitizeName replaces characters Prometheus's exposition format
// disallows in metric and label names with underscores.
func sanitizeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

var (
	_ sdkmetric.MetricExporter = (*Exporter)(nil)
	_ prometheus.Collector     = (*Exporter)(nil)
)
