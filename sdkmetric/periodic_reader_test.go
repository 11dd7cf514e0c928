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

package sdkmetric

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"

	"github.com/otelcore/pipeline/instrumentation"
	"github.com/otelcore/pipeline/internal/clock"
	"github.com/otelcore/pipeline/resource"
)

type collectingExporter struct {
	mu        sync.Mutex
	batches   [][]Metric
	resources []*resource.Resource
}

func (e *collectingExporter) ExportMetrics(ctx context.Context, metrics []Metric, res *resource.Resource) (ExportResult, error) {
	e.mu.Lock()
	cp := append([]Metric(nil), metrics...)
	e.batches = append(e.batches, cp)
	e.resources = append(e.resources, res)
	e.mu.Unlock()
	return ExportSuccess, nil
}

func (e *collectingExporter) Shutdown(context.Context) error { return nil }

func (e *collectingExporter) last() []Metric {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.batches) == 0 {
		return nil
	}
	return e.batches[len(e.batches)-1]
}

func (e *collectingExporter) lastResource() *resource.Resource {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.resources) == 0 {
		return nil
	}
	return e.resources[len(e.resources)-1]
}

func (e *collectingExporter) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.batches)
}

func findMetric(metrics []Metric, name string) (Metric, bool) {
	for _, m := range metrics {
		if m.Name == name {
			return m, true
		}
	}
	return Metric{}, false
}

func waitForReader(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	require.True(t, cond(), "condition never became true")
}

// Scenario D: a delta-temporality counter reports each collection's
// increment, not the running total.
func TestDeltaCounterResetsPerCollection(t *testing.T) {
	provider := NewMeterProvider(nil)
	inst := provider.RegisterInstrument(Instrument{Name: "requests", Kind: CounterKind, Scope: instrumentation.Scope{Name: "test"}})

	exp := &collectingExporter{}
	reader := NewPeriodicReader(
		provider,
		WithExporter(exp),
		WithTemporalitySelector(func(InstrumentKind) Temporality { return DeltaTemporality }),
	)
	defer reader.Shutdown(context.Background())

	waitForReader(t, func() bool { return reader.registered.Load() })

	va := reader.handle.Load().ViewAggregations()[0]
	require.Equal(t, inst.Name, va.Instrument.Name)

	va.Aggregation.Aggregate(attribute.NewSet(), 5)
	require.NoError(t, reader.Collect(context.Background()))
	m, ok := findMetric(exp.last(), "requests")
	require.True(t, ok)
	require.Len(t, m.Data, 1)
	require.Equal(t, float64(5), m.Data[0].Value)

	va.Aggregation.Aggregate(attribute.NewSet(), 3)
	require.NoError(t, reader.Collect(context.Background()))
	m, ok = findMetric(exp.last(), "requests")
	require.True(t, ok)
	require.Len(t, m.Data, 1)
	require.Equal(t, float64(3), m.Data[0].Value)
}

// Property 8: a cumulative counter's reported value never decreases.
func TestCumulativeCounterNonDecreasing(t *testing.T) {
	provider := NewMeterProvider(nil)
	provider.RegisterInstrument(Instrument{Name: "bytes", Kind: CounterKind})

	exp := &collectingExporter{}
	reader := NewPeriodicReader(provider, WithExporter(exp))
	defer reader.Shutdown(context.Background())
	waitForReader(t, func() bool { return reader.registered.Load() })

	va := reader.handle.Load().ViewAggregations()[0]

	va.Aggregation.Aggregate(attribute.NewSet(), 10)
	require.NoError(t, reader.Collect(context.Background()))
	first, _ := findMetric(exp.last(), "bytes")
	require.Equal(t, float64(10), first.Data[0].Value)

	va.Aggregation.Aggregate(attribute.NewSet(), 4)
	require.NoError(t, reader.Collect(context.Background()))
	second, _ := findMetric(exp.last(), "bytes")
	require.Equal(t, float64(14), second.Data[0].Value)
	require.GreaterOrEqual(t, second.Data[0].Value, first.Data[0].Value)
}

// Scenario E: an observable gauge's callback value is reported with a
// start time no later than the collection time.
func TestObservableGaugeCallback(t *testing.T) {
	provider := NewMeterProvider(nil)
	provider.RegisterInstrument(Instrument{Name: "temperature", Kind: ObservableGaugeKind})
	provider.RegisterCallback("temperature", func(ctx context.Context) []Observation {
		return []Observation{
			{Attributes: attribute.NewSet(attribute.String("host", "h1")), Value: 42},
		}
	})

	exp := &collectingExporter{}
	reader := NewPeriodicReader(provider, WithExporter(exp))
	defer reader.Shutdown(context.Background())
	waitForReader(t, func() bool { return reader.registered.Load() })

	require.NoError(t, reader.Collect(context.Background()))
	m, ok := findMetric(exp.last(), "temperature")
	require.True(t, ok)
	require.Len(t, m.Data, 1)
	require.Equal(t, float64(42), m.Data[0].Value)
	require.True(t, m.Data[0].StartTime.Before(m.Data[0].Time) || m.Data[0].StartTime.Equal(m.Data[0].Time))
}

// Property 9: callback observations appear in the same collection cycle
// the callback ran in, not a later one.
func TestCallbackOrdering(t *testing.T) {
	provider := NewMeterProvider(nil)
	provider.RegisterInstrument(Instrument{Name: "active", Kind: ObservableUpDownCounterKind})

	var calls int
	provider.RegisterCallback("active", func(ctx context.Context) []Observation {
		calls++
		return []Observation{{Attributes: attribute.NewSet(), Value: float64(calls)}}
	})

	exp := &collectingExporter{}
	reader := NewPeriodicReader(provider, WithExporter(exp))
	defer reader.Shutdown(context.Background())
	waitForReader(t, func() bool { return reader.registered.Load() })

	require.NoError(t, reader.Collect(context.Background()))
	require.Equal(t, 1, exp.count())

	require.NoError(t, reader.Collect(context.Background()))
	m, _ := findMetric(exp.last(), "active")
	// Cumulative sum of both cycles' observations (1, then 2).
	require.Equal(t, float64(3), m.Data[0].Value)
}

// Property: every collection carries the provider's configured resource
// through to the exporter.
func TestCollectCarriesResource(t *testing.T) {
	res := resource.New(attribute.String("service.name", "billing"))
	provider := NewMeterProvider(res)
	provider.RegisterInstrument(Instrument{Name: "events", Kind: CounterKind})

	exp := &collectingExporter{}
	reader := NewPeriodicReader(provider, WithExporter(exp))
	defer reader.Shutdown(context.Background())
	waitForReader(t, func() bool { return reader.registered.Load() })

	va := reader.handle.Load().ViewAggregations()[0]
	va.Aggregation.Aggregate(attribute.NewSet(), 1)

	require.NoError(t, reader.Collect(context.Background()))
	require.Equal(t, res, exp.lastResource())
}

// Property: Collect before registration completes is a no-op, not an
// error and not a panic.
func TestCollectBeforeRegistrationIsNoop(t *testing.T) {
	reader := &PeriodicReader{
		cfg:       newReaderConfig(),
		id:        "unregistered",
		collectCh: make(chan chan error),
		shutdown:  make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	go reader.run()
	defer reader.Shutdown(context.Background())

	// Registration deliberately never started for this reader.
	require.NoError(t, reader.Collect(context.Background()))
}

// Automatic collection fires on the configured interval, driven by a
// virtual clock so the test never sleeps real wall-clock time.
func TestAutomaticCollectionOnInterval(t *testing.T) {
	mc := clock.NewMock()
	provider := NewMeterProvider(nil)
	provider.RegisterInstrument(Instrument{Name: "ticks", Kind: CounterKind})

	exp := &collectingExporter{}
	reader := NewPeriodicReader(
		provider,
		WithExporter(exp),
		WithInterval(10*time.Millisecond),
		withReaderClock(mc),
	)
	defer reader.Shutdown(context.Background())
	waitForReader(t, func() bool { return reader.registered.Load() })

	va := reader.handle.Load().ViewAggregations()[0]
	va.Aggregation.Aggregate(attribute.NewSet(), 1)

	mc.Add(10 * time.Millisecond)
	waitForReader(t, func() bool { return exp.count() == 1 })
}

// Histogram aggregation buckets values and reports count/sum alongside
// bucket counts.
func TestHistogramAggregation(t *testing.T) {
	agg := NewHistogramAggregation(CumulativeTemporality, []float64{10, 20})
	set := attribute.NewSet()
	agg.Aggregate(set, 5)
	agg.Aggregate(set, 15)
	agg.Aggregate(set, 25)

	now := time.Now()
	agg.Checkpoint(now)
	points := agg.Collect(now)
	require.Len(t, points, 1)
	require.Equal(t, uint64(3), points[0].Count)
	require.Equal(t, float64(45), points[0].Sum)
	require.Equal(t, []uint64{1, 1, 1}, points[0].BucketCounts)
}
