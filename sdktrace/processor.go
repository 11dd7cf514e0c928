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
	"context"

	"github.com/otelcore/pipeline/resource"
)

// EndResult reports what OnEnd did with a finished span.
type EndResult int

const (
	// Accepted means the span was appended to the active buffer.
	Accepted EndResult = iota
	// Dropped means the span was discarded by policy: it was unsampled,
	// the processor is disabled, or the buffer is over its size limit.
	// Dropped is not an error.
	Dropped
)

// SpanProcessor is the interface the pipeline core exposes to the tracer
// that creates spans. A SpanProcessor must be safe for concurrent use by
// arbitrary producer goroutines.
type SpanProcessor interface {
	// OnStart is a pass-through hook; the BSP does not buffer at start.
	OnStart(ctx context.Context, s SpanSnapshot) SpanSnapshot

	// OnEnd buffers s for export, or reports why it was dropped or
	// could not be accepted. It must never block on export progress.
	OnEnd(s SpanSnapshot) (EndResult, error)

	// ForceFlush requests an immediate export; it returns once the
	// request has been enqueued, not once the export has completed.
	ForceFlush(ctx context.Context) error

	// Shutdown cancels pending timers, performs one final blocking
	// export, and releases all resources. Idempotent.
	Shutdown(ctx context.Context) error
}

// ExportResult is returned by a SpanExporter for a single export call.
type ExportResult int

const (
	// ExportSuccess indicates the batch was accepted by the backend.
	ExportSuccess ExportResult = iota
	// ExportFailedRetryable indicates a transient failure; the pipeline
	// still discards the batch (retry is the exporter's concern, not
	// the processor's), but the FSM's progress is unaffected either way.
	ExportFailedRetryable
	// ExportFailedNotRetryable indicates a permanent failure.
	ExportFailedNotRetryable
)

// SpanExporter is the boundary between the pipeline core and a concrete
// telemetry backend. res is the process resource attached to every
// export, per the processor's configured resource. Implementations must
// never panic; a panicking exporter is recovered by the runner and
// logged as a failure.
type SpanExporter interface {
	ExportSpans(ctx context.Context, spans []SpanSnapshot, res *resource.Resource) (ExportResult, error)
	Shutdown(ctx context.Context) error
}
