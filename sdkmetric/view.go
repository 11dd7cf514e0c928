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

// ViewAggregation binds one instrument to one aggregation shape for one
// reader. It is created once per (instrument, reader) pair, the moment
// both the instrument and the reader are known to the provider, and lives
// for as long as either does.
type ViewAggregation struct {
	ID          uint64
	Name        string
	Description string
	Unit        string
	ReaderID    string
	Instrument  Instrument
	Aggregation Aggregation
	Temporality Temporality
}

// AggregationKind names an aggregation module's shape, independent of
// the temporality it reports under.
type AggregationKind int

const (
	SumAggregationKind AggregationKind = iota
	LastValueAggregationKind
	HistogramAggregationKind
	DropAggregationKind
)

// AggregationSelector chooses the aggregation module for an instrument
// kind. Readers supply one at construction; it is applied once per
// (instrument, reader) pair, not per measurement.
type AggregationSelector func(InstrumentKind) AggregationKind

// TemporalitySelector chooses the reporting temporality for an instrument
// kind.
type TemporalitySelector func(InstrumentKind) Temporality

// DefaultAggregationSelector is the canonical instrument-kind to
// aggregation-module mapping: sums for additive instruments, an
// explicit-bucket histogram for Histogram, and last-value for gauges.
func DefaultAggregationSelector(kind InstrumentKind) AggregationKind {
	switch kind {
	case CounterKind, UpDownCounterKind, ObservableCounterKind, ObservableUpDownCounterKind:
		return SumAggregationKind
	case HistogramKind:
		return HistogramAggregationKind
	case ObservableGaugeKind:
		return LastValueAggregationKind
	default:
		return DropAggregationKind
	}
}

// DefaultTemporalitySelector reports every instrument kind cumulatively,
// matching the spec's stated default.
func DefaultTemporalitySelector(InstrumentKind) Temporality {
	return CumulativeTemporality
}

// newAggregation builds the concrete Aggregation for a (kind,
// temporality) pair. Temporality is meaningless for a gauge, which never
// resets, and for drop, which discards everything.
func newAggregation(kind AggregationKind, temporality Temporality) Aggregation {
	switch kind {
	case SumAggregationKind:
		return NewSumAggregation(temporality)
	case HistogramAggregationKind:
		return NewHistogramAggregation(temporality, nil)
	case LastValueAggregationKind:
		return NewLastValueAggregation()
	default:
		return NewDropAggregation()
	}
}
