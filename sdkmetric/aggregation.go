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

package sdkmetric // import "github.com/otelcore/pipeline/sdkmetric"

import (
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// Temporality controls whether a metric value is reported cumulatively
// since the view-aggregation was created, or reset after each collection.
type Temporality int

const (
	CumulativeTemporality Temporality = iota
	DeltaTemporality
)

// DataPoint is one reportable (attribute-set, value) sample produced by
// Aggregation.Collect.
type DataPoint struct {
	Attributes attribute.Set
	StartTime  time.Time
	Time       time.Time

	// Value holds the sum or last-value reading. Unused for histograms.
	Value float64

	// Histogram fields; Bounds is nil for non-histogram data points.
	Bounds       []float64
	BucketCounts []uint64
	Count        uint64
	Sum          float64
}

// Aggregation accumulates raw measurements keyed by attribute set and
// produces reportable snapshots at checkpoint time. Checkpoint and
// Collect are split, mirroring the source's SynchronizedMove-then-read
// split, because a checkpoint's reset must happen exactly once even if
// Collect is inspected more than once.
type Aggregation interface {
	// Aggregate records one measurement for attrs. Safe for concurrent
	// callers.
	Aggregate(attrs attribute.Set, value float64)

	// Checkpoint freezes state as of t for the next Collect call,
	// resetting in-place state when the aggregation is delta-temporal.
	Checkpoint(t time.Time)

	// Collect returns the data points produced by the most recent
	// Checkpoint.
	Collect(t time.Time) []DataPoint
}

// dropAggregation is the sentinel aggregation for views that discard an
// instrument's data entirely. Its presence lets the reader's collection
// walk skip checkpoint/collect work for a view-aggregation altogether.
type dropAggregation struct{}

func (dropAggregation) Aggregate(attribute.Set, float64) {}
func (dropAggregation) Checkpoint(time.Time)              {}
func (dropAggregation) Collect(time.Time) []DataPoint     { return nil }

// IsDrop reports whether agg is the drop sentinel.
func IsDrop(agg Aggregation) bool {
	_, ok := agg.(dropAggregation)
	return ok
}

// NewDropAggregation returns the drop sentinel aggregation.
func NewDropAggregation() Aggregation { return dropAggregation{} }

type sumPoint struct {
	mu        sync.Mutex
	attrs     attribute.Set
	startTime time.Time
	value     float64
	snapshot  float64
	hasSnap   bool
}

// sumAggregation backs Counter, UpDownCounter, ObservableCounter, and
// ObservableUpDownCounter instruments: every measurement adds to a
// per-attribute-set running total.
type sumAggregation struct {
	mu          sync.Mutex
	temporality Temporality
	points      map[attribute.Distinct]*sumPoint
}

// NewSumAggregation returns an additive aggregation reporting under the
// given temporality.
func NewSumAggregation(temporality Temporality) Aggregation {
	return &sumAggregation{
		temporality: temporality,
		points:      make(map[attribute.Distinct]*sumPoint),
	}
}

func (a *sumAggregation) pointFor(attrs attribute.Set, now time.Time) *sumPoint {
	key := attrs.Equivalent()
	a.mu.Lock()
	p, ok := a.points[key]
	if !ok {
		p = &sumPoint{attrs: attrs, startTime: now}
		a.points[key] = p
	}
	a.mu.Unlock()
	return p
}

func (a *sumAggregation) Aggregate(attrs attribute.Set, value float64) {
	p := a.pointFor(attrs, time.Now())
	p.mu.Lock()
	p.value += value
	p.mu.Unlock()
}

func (a *sumAggregation) Checkpoint(t time.Time) {
	a.mu.Lock()
	points := make([]*sumPoint, 0, len(a.points))
	for _, p := range a.points {
		points = append(points, p)
	}
	a.mu.Unlock()

	for _, p := range points {
		p.mu.Lock()
		p.snapshot = p.value
		p.hasSnap = true
		if a.temporality == DeltaTemporality {
			p.value = 0
		}
		p.mu.Unlock()
	}
}

func (a *sumAggregation) Collect(t time.Time) []DataPoint {
	a.mu.Lock()
	points := make([]*sumPoint, 0, len(a.points))
	for _, p := range a.points {
		points = append(points, p)
	}
	a.mu.Unlock()

	out := make([]DataPoint, 0, len(points))
	for _, p := range points {
		p.mu.Lock()
		if !p.hasSnap {
			p.mu.Unlock()
			continue
		}
		dp := DataPoint{Attributes: p.attrs, StartTime: p.startTime, Time: t, Value: p.snapshot}
		if a.temporality == DeltaTemporality {
			p.startTime = t
		}
		p.mu.Unlock()
		out = append(out, dp)
	}
	sortDataPoints(out)
	return out
}

type gaugePoint struct {
	mu        sync.Mutex
	attrs     attribute.Set
	startTime time.Time
	value     float64
	snapshot  float64
	hasSnap   bool
}

// lastValueAggregation backs ObservableGauge instruments: the most
// recently observed value per attribute set is reported, never summed or
// reset, since a gauge has no notion of accumulation.
type lastValueAggregation struct {
	mu     sync.Mutex
	points map[attribute.Distinct]*gaugePoint
}

// NewLastValueAggregation returns a gauge-style aggregation.
func NewLastValueAggregation() Aggregation {
	return &lastValueAggregation{points: make(map[attribute.Distinct]*gaugePoint)}
}

func (a *lastValueAggregation) Aggregate(attrs attribute.Set, value float64) {
	key := attrs.Equivalent()
	a.mu.Lock()
	p, ok := a.points[key]
	if !ok {
		p = &gaugePoint{attrs: attrs, startTime: time.Now()}
		a.points[key] = p
	}
	a.mu.Unlock()

	p.mu.Lock()
	p.value = value
	p.mu.Unlock()
}

func (a *lastValueAggregation) Checkpoint(t time.Time) {
	a.mu.Lock()
	points := make([]*gaugePoint, 0, len(a.points))
	for _, p := range a.points {
		points = append(points, p)
	}
	a.mu.Unlock()

	for _, p := range points {
		p.mu.Lock()
		p.snapshot = p.value
		p.hasSnap = true
		p.mu.Unlock()
	}
}

func (a *lastValueAggregation) Collect(t time.Time) []DataPoint {
	a.mu.Lock()
	points := make([]*gaugePoint, 0, len(a.points))
	for _, p := range a.points {
		points = append(points, p)
	}
	a.mu.Unlock()

	out := make([]DataPoint, 0, len(points))
	for _, p := range points {
		p.mu.Lock()
		if p.hasSnap {
			out = append(out, DataPoint{Attributes: p.attrs, StartTime: p.startTime, Time: t, Value: p.snapshot})
		}
		p.mu.Unlock()
	}
	sortDataPoints(out)
	return out
}

type histogramPoint struct {
	mu        sync.Mutex
	attrs     attribute.Set
	startTime time.Time
	counts    []uint64
	count     uint64
	sum       float64

	snapCounts []uint64
	snapCount  uint64
	snapSum    float64
	hasSnap    bool
}

// histogramAggregation backs Histogram instruments: each measurement is
// sorted into an explicit bucket defined by bounds, alongside a running
// count and sum.
type histogramAggregation struct {
	mu          sync.Mutex
	temporality Temporality
	bounds      []float64
	points      map[attribute.Distinct]*histogramPoint
}

// DefaultHistogramBounds matches the canonical OpenTelemetry default
// bucket boundaries.
var DefaultHistogramBounds = []float64{0, 5, 10, 25, 50, 75, 100, 250, 500, 750, 1000, 2500, 5000, 7500, 10000}

// NewHistogramAggregation returns an explicit-bucket histogram
// aggregation using bounds, or DefaultHistogramBounds if bounds is nil.
func NewHistogramAggregation(temporality Temporality, bounds []float64) Aggregation {
	if bounds == nil {
		bounds = DefaultHistogramBounds
	}
	sorted := append([]float64(nil), bounds...)
	sort.Float64s(sorted)
	return &histogramAggregation{
		temporality: temporality,
		bounds:      sorted,
		points:      make(map[attribute.Distinct]*histogramPoint),
	}
}

func bucketIndex(bounds []float64, v float64) int {
	for i, b := range bounds {
		if v <= b {
			return i
		}
	}
	return len(bounds)
}

func (a *histogramAggregation) pointFor(attrs attribute.Set, now time.Time) *histogramPoint {
	key := attrs.Equivalent()
	a.mu.Lock()
	p, ok := a.points[key]
	if !ok {
		p = &histogramPoint{attrs: attrs, startTime: now, counts: make([]uint64, len(a.bounds)+1)}
		a.points[key] = p
	}
	a.mu.Unlock()
	return p
}

func (a *histogramAggregation) Aggregate(attrs attribute.Set, value float64) {
	p := a.pointFor(attrs, time.Now())
	idx := bucketIndex(a.bounds, value)
	p.mu.Lock()
	p.counts[idx]++
	p.count++
	p.sum += value
	p.mu.Unlock()
}

func (a *histogramAggregation) Checkpoint(t time.Time) {
	a.mu.Lock()
	points := make([]*histogramPoint, 0, len(a.points))
	for _, p := range a.points {
		points = append(points, p)
	}
	a.mu.Unlock()

	for _, p := range points {
		p.mu.Lock()
		p.snapCounts = append([]uint64(nil), p.counts...)
		p.snapCount = p.count
		p.snapSum = p.sum
		p.hasSnap = true
		if a.temporality == DeltaTemporality {
			for i := range p.counts {
				p.counts[i] = 0
			}
			p.count = 0
			p.sum = 0
		}
		p.mu.Unlock()
	}
}

func (a *histogramAggregation) Collect(t time.Time) []DataPoint {
	a.mu.Lock()
	points := make([]*histogramPoint, 0, len(a.points))
	for _, p := range a.points {
		points = append(points, p)
	}
	a.mu.Unlock()

	out := make([]DataPoint, 0, len(points))
	for _, p := range points {
		p.mu.Lock()
		if !p.hasSnap {
			p.mu.Unlock()
			continue
		}
		dp := DataPoint{
			Attributes:   p.attrs,
			StartTime:    p.startTime,
			Time:         t,
			Bounds:       a.bounds,
			BucketCounts: p.snapCounts,
			Count:        p.snapCount,
			Sum:          p.snapSum,
		}
		if a.temporality == DeltaTemporality {
			p.startTime = t
		}
		p.mu.Unlock()
		out = append(out, dp)
	}
	sortDataPoints(out)
	return out
}

// sortDataPoints orders data points by their attribute set's encoded form
// so collection output is deterministic for tests and diffing.
func sortDataPoints(points []DataPoint) {
	sort.Slice(points, func(i, j int) bool {
		return points[i].Attributes.Encoded(attribute.DefaultEncoder()) <
			points[j].Attributes.Encoded(attribute.DefaultEncoder())
	})
}
