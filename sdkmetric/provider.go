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
	"sync"

	"github.com/otelcore/pipeline/resource"
)

// MeterProvider is the minimal "meter server" a Reader registers
// against: it owns the shared callbacks, view-aggregations, and
// instrument tables, and hands each registering reader references to its
// own slice of that shared state. Instrument *creation* (the public
// Meter surface) is out of scope; callers register Instrument values
// directly.
type MeterProvider struct {
	mu          sync.Mutex
	resource    *resource.Resource
	instruments []Instrument
	callbacks   map[string][]Callback
	viewAggs    []*ViewAggregation
	readers     []*readerEntry
	nextID      uint64
}

type readerEntry struct {
	id                  string
	aggregationSelector AggregationSelector
	temporalitySelector TemporalitySelector
}

// NewMeterProvider constructs a MeterProvider reporting r as the process
// resource on every collection. A nil resource is treated as empty.
func NewMeterProvider(r *resource.Resource) *MeterProvider {
	if r == nil {
		r = resource.Empty()
	}
	return &MeterProvider{
		resource:  r,
		callbacks: make(map[string][]Callback),
	}
}

// RegisterInstrument adds inst to the provider and creates a
// view-aggregation for it against every already-registered reader.
func (p *MeterProvider) RegisterInstrument(inst Instrument) Instrument {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.instruments = append(p.instruments, inst)
	for _, r := range p.readers {
		p.bindLocked(r, inst)
	}
	return inst
}

// RegisterCallback attaches cb to every view-aggregation bound to the
// named instrument, present and future. It is invoked once per
// collection, independently, by every reader collecting that instrument.
func (p *MeterProvider) RegisterCallback(instrumentName string, cb Callback) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.callbacks[instrumentName] = append(p.callbacks[instrumentName], cb)
}

// RegistrationHandle is what add_metric_reader returns to a reader: its
// own slice of the shared view-aggregation table, the shared callback
// table, and the process resource.
type RegistrationHandle struct {
	provider *MeterProvider
	readerID string
}

// ViewAggregations returns every view-aggregation bound to this handle's
// reader, in registration order.
func (h *RegistrationHandle) ViewAggregations() []*ViewAggregation {
	h.provider.mu.Lock()
	defer h.provider.mu.Unlock()
	var out []*ViewAggregation
	for _, va := range h.provider.viewAggs {
		if va.ReaderID == h.readerID {
			out = append(out, va)
		}
	}
	return out
}

// Callbacks returns the shared, instrument-name-keyed callback table.
func (h *RegistrationHandle) Callbacks() map[string][]Callback {
	h.provider.mu.Lock()
	defer h.provider.mu.Unlock()
	out := make(map[string][]Callback, len(h.provider.callbacks))
	for k, v := range h.provider.callbacks {
		out[k] = v
	}
	return out
}

// Resource returns the process resource the provider was constructed
// with.
func (h *RegistrationHandle) Resource() *resource.Resource {
	return h.provider.resource
}

// RegisterReader registers a new reader identity, supplying its
// aggregation and temporality mappings, and returns a handle onto the
// shared tables. It creates view-aggregations for every instrument
// already registered with the provider.
func (p *MeterProvider) RegisterReader(readerID string, aggSel AggregationSelector, tempSel TemporalitySelector) *RegistrationHandle {
	if aggSel == nil {
		aggSel = DefaultAggregationSelector
	}
	if tempSel == nil {
		tempSel = DefaultTemporalitySelector
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	r := &readerEntry{id: readerID, aggregationSelector: aggSel, temporalitySelector: tempSel}
	p.readers = append(p.readers, r)
	for _, inst := range p.instruments {
		p.bindLocked(r, inst)
	}
	return &RegistrationHandle{provider: p, readerID: readerID}
}

// bindLocked creates the view-aggregation for (inst, r). Callers must
// hold p.mu.
func (p *MeterProvider) bindLocked(r *readerEntry, inst Instrument) {
	kind := r.aggregationSelector(inst.Kind)
	temporality := r.temporalitySelector(inst.Kind)
	p.nextID++
	p.viewAggs = append(p.viewAggs, &ViewAggregation{
		ID:          p.nextID,
		Name:        inst.Name,
		Description: inst.Description,
		Unit:        inst.Unit,
		ReaderID:    r.id,
		Instrument:  inst,
		Aggregation: newAggregation(kind, temporality),
		Temporality: temporality,
	})
}
