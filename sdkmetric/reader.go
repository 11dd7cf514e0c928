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

	"github.com/otelcore/pipeline/instrumentation"
	"github.com/otelcore/pipeline/resource"
)

// Reader is the public contract a metric reader exposes: collect on
// demand, and shut down idempotently.
type Reader interface {
	// Collect performs one full collection pass synchronously and
	// reschedules the periodic timer, if any.
	Collect(ctx context.Context) error
	// Shutdown stops further collections. Idempotent.
	Shutdown(ctx context.Context) error
}

// Metric is one instrument's reportable output for a single collection.
type Metric struct {
	Scope       instrumentation.Scope
	Name        string
	Description string
	Unit        string
	Temporality Temporality
	Data        []DataPoint
}

// ExportResult is returned by a MetricExporter for a single export call.
type ExportResult int

const (
	ExportSuccess ExportResult = iota
	ExportFailedRetryable
	ExportFailedNotRetryable
)

// MetricExporter is the boundary between the pipeline core and a
// concrete metrics backend. res is the process resource attached to
// every export, per the provider's configured resource. Implementations
// must never panic; a panicking exporter is recovered by the reader and
// logged as a failure.
type MetricExporter interface {
	ExportMetrics(ctx context.Context, metrics []Metric, res *resource.Resource) (ExportResult, error)
	Shutdown(ctx context.Context) error
}
