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

// Package instrumentation describes the library that produced a piece of
// telemetry, independent of the resource the telemetry describes.
package instrumentation // import "github.com/otelcore/pipeline/instrumentation"

// Scope identifies the instrumentation library (tracer or meter) that
// created a span or instrument. Span buffers and view-aggregation tables
// are keyed by Scope so telemetry can be grouped for export by origin.
type Scope struct {
	// Name is the full name of the library, usually the import path.
	Name string
	// Version is the version of the library.
	Version string
	// SchemaURL of the telemetry emitted by the library.
	SchemaURL string
}
