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
	"sync"

	"github.com/otelcore/pipeline/instrumentation"
)

// scopeBuffer is a concurrent, append-only multi-writer collection of
// finished spans keyed by instrumentation scope. It supports exactly two
// operations in the hot path: append and drain-all; that keeps producer
// writes allocation-free beyond the per-scope slice growth.
type scopeBuffer struct {
	mu      sync.Mutex
	byScope map[instrumentation.Scope][]SpanSnapshot
	count   int
}

func newScopeBuffer() *scopeBuffer {
	return &scopeBuffer{byScope: make(map[instrumentation.Scope][]SpanSnapshot)}
}

// append adds s under its scope. Safe for concurrent callers.
func (b *scopeBuffer) append(s SpanSnapshot) {
	b.mu.Lock()
	b.byScope[s.Scope] = append(b.byScope[s.Scope], s)
	b.count++
	b.mu.Unlock()
}

// len reports the total entry count across all scopes.
func (b *scopeBuffer) len() int {
	b.mu.Lock()
	n := b.count
	b.mu.Unlock()
	return n
}

// drain returns and clears every span in the buffer, grouped by scope.
// Intra-scope order is preserved: it is the order spans were appended in.
func (b *scopeBuffer) drain() map[instrumentation.Scope][]SpanSnapshot {
	b.mu.Lock()
	out := b.byScope
	b.byScope = make(map[instrumentation.Scope][]SpanSnapshot)
	b.count = 0
	b.mu.Unlock()
	return out
}

// flatten orders a grouped drain result into one slice, scope by scope.
// Exporters that don't care about grouping can use this directly.
func flatten(grouped map[instrumentation.Scope][]SpanSnapshot) []SpanSnapshot {
	total := 0
	for _, spans := range grouped {
		total += len(spans)
	}
	out := make([]SpanSnapshot, 0, total)
	for _, spans := range grouped {
		out = append(out, spans...)
	}
	return out
}
