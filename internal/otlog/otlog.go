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

// Package otlog carries the structured logging hook used to report
// background-path failures (exporter errors, exporting timeouts) without
// propagating them into instrumented application code. Producer-path
// errors are never logged here; they are returned synchronously to the
// caller instead.
package otlog // import "github.com/otelcore/pipeline/internal/otlog"

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
)

func init() {
	stdr.SetVerbosity(0)
}

// Default returns the package-wide fallback logger, backed by stdr so the
// module logs sensibly even when no application logger is wired in.
func Default() logr.Logger {
	return stdr.New(nil).WithName("otelcore-pipeline")
}

// Discard returns a logger that drops all records.
func Discard() logr.Logger { return logr.Discard() }
