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

// Package resource describes the entity producing telemetry, as a set of
// key/value attributes attached to every span and metric export in a
// process's lifetime. Detection of resource attributes from the
// environment is out of scope for the pipeline core; callers supply a
// Resource, or the zero value (empty) resource is used.
package resource // import "github.com/otelcore/pipeline/resource"

import (
	"go.opentelemetry.io/otel/attribute"
)

// Resource is an immutable representation of the entity producing
// telemetry. Once built, a Resource is safe to share across any number of
// concurrently exporting processors and readers.
type Resource struct {
	attrs attribute.Set
}

// Empty returns a Resource with no attributes.
func Empty() *Resource {
	return &Resource{attrs: attribute.NewSet()}
}

// New builds a Resource from the given key/value attributes. Duplicate
// keys keep the last value, matching attribute.NewSet's de-duplication.
func New(kvs ...attribute.KeyValue) *Resource {
	return &Resource{attrs: attribute.NewSet(kvs...)}
}

// Set returns the Resource's attributes.
func (r *Resource) Set() attribute.Set {
	if r == nil {
		return attribute.NewSet()
	}
	return r.attrs
}

// Merge combines a and b into a new Resource. Attributes in b take
// precedence over attributes in a with the same key, matching the
// "last write wins" semantics instrumented code expects when a
// processor-level resource overrides a globally configured one.
func Merge(a, b *Resource) *Resource {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	kvs := make([]attribute.KeyValue, 0, a.attrs.Len()+b.attrs.Len())
	iter := a.attrs.Iter()
	for iter.Next() {
		kvs = append(kvs, iter.Attribute())
	}
	iter = b.attrs.Iter()
	for iter.Next() {
		kvs = append(kvs, iter.Attribute())
	}
	return New(kvs...)
}
