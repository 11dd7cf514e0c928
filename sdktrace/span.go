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

package sdktrace // import "github.com/otelcore/pipeline/sdktrace"

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/otelcore/pipeline/instrumentation"
)

// Event is a timestamped annotation recorded on a span.
type Event struct {
	Name       string
	Time       time.Time
	Attributes []attribute.KeyValue
}

// Link associates the span with another, possibly unrelated, span context.
type Link struct {
	SpanContext trace.SpanContext
	Attributes  []attribute.KeyValue
}

// Status is the outcome recorded on a span at end time.
type Status struct {
	Code        codes.Code
	Description string
}

// SpanSnapshot is the immutable, exportable representation of a finished
// span. It is the only shape the BatchSpanProcessor and any SpanExporter
// ever see; nothing downstream can mutate a span once it reaches on_end.
type SpanSnapshot struct {
	SpanContext    trace.SpanContext
	Parent         trace.SpanContext
	SpanKind       trace.SpanKind
	Name           string
	StartTime      time.Time
	EndTime        time.Time
	Attributes     []attribute.KeyValue
	Events         []Event
	Links          []Link
	Status         Status
	Scope          instrumentation.Scope
	ChildSpanCount int

	// Sampled mirrors SpanContext.IsSampled, copied at snapshot time so
	// the processor need not re-derive it from trace flags.
	Sampled bool
}

// Context returns the snapshot's span context, satisfying the same
// accessor shape application code expects from a live span.
func (s SpanSnapshot) Context() trace.SpanContext { return s.SpanContext }
