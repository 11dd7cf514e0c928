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
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/otelcore/pipeline/instrumentation"
)

// InstrumentKind identifies the shape of values an instrument produces.
type InstrumentKind int

const (
	CounterKind InstrumentKind = iota
	UpDownCounterKind
	HistogramKind
	ObservableCounterKind
	ObservableUpDownCounterKind
	ObservableGaugeKind
)

// Synchronous reports whether values for this kind are recorded inline by
// application code, as opposed to produced by a callback at collection
// time.
func (k InstrumentKind) Synchronous() bool {
	switch k {
	case CounterKind, UpDownCounterKind, HistogramKind:
		return true
	default:
		return false
	}
}

func (k InstrumentKind) String() string {
	switch k {
	case CounterKind:
		return "counter"
	case UpDownCounterKind:
		return "up_down_counter"
	case HistogramKind:
		return "histogram"
	case ObservableCounterKind:
		return "observable_counter"
	case ObservableUpDownCounterKind:
		return "observable_up_down_counter"
	case ObservableGaugeKind:
		return "observable_gauge"
	default:
		return "unknown"
	}
}

// Instrument is the minimal registration record the Reader's collection
// walk needs: enough to bind a view-aggregation, but nothing from the
// public instrument-creation API (Meter.Int64Counter and friends), which
// is out of scope here.
type Instrument struct {
	Name        string
	Kind        InstrumentKind
	Unit        string
	Description string
	Scope       instrumentation.Scope
}

// Observation is a single value an observable instrument's callback
// reports for one attribute set during one collection.
type Observation struct {
	Attributes attribute.Set
	Value      float64
}

// Callback is invoked once per collection, for every reader collecting
// the instrument it was registered against.
type Callback func(ctx context.Context) []Observation
