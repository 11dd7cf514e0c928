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
	"fmt"
	"sync/atomic"
	"time"
)

// PeriodicReader is one configured metric reader: it registers itself
// with a MeterProvider, then drives collection either on a fixed
// interval, on demand via Collect, or both. A single control goroutine
// owns the collection timer so a manual Collect can cancel and rearm it
// without racing an automatic fire.
type PeriodicReader struct {
	cfg readerConfig
	id  string

	handle     atomic.Pointer[RegistrationHandle]
	registered atomic.Bool

	collectCh chan chan error
	shutdown  chan struct{}
	stopped   chan struct{}
}

// NewPeriodicReader constructs a PeriodicReader, begins its asynchronous
// registration against provider, and starts its control goroutine. A
// Collect call before registration completes is a no-op, matching the
// spec's "registering" phase.
func NewPeriodicReader(provider *MeterProvider, opts ...ReaderOption) *PeriodicReader {
	cfg := newReaderConfig(opts...)
	r := &PeriodicReader{
		cfg:       cfg,
		id:        cfg.name,
		collectCh: make(chan chan error),
		shutdown:  make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	go r.register(provider)
	go r.run()
	return r
}

func (r *PeriodicReader) register(provider *MeterProvider) {
	h := provider.RegisterReader(r.id, r.cfg.aggregationSelector, r.cfg.temporalitySelector)
	r.handle.Store(h)
	r.registered.Store(true)
}

// Collect performs one full collection pass synchronously from the
// caller's point of view, and reschedules the periodic timer so
// automatic collections don't pile up immediately after a manual one.
func (r *PeriodicReader) Collect(ctx context.Context) error {
	respCh := make(chan error, 1)
	select {
	case r.collectCh <- respCh:
	case <-ctx.Done():
		return ctx.Err()
	case <-r.stopped:
		return nil
	}
	select {
	case err := <-respCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops further collections. Idempotent.
func (r *PeriodicReader) Shutdown(ctx context.Context) error {
	select {
	case <-r.stopped:
		return nil
	default:
	}
	select {
	case r.shutdown <- struct{}{}:
	case <-r.stopped:
		return nil
	}
	select {
	case <-r.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *PeriodicReader) run() {
	defer close(r.stopped)

	var tick <-chan time.Time
	if r.cfg.interval > 0 {
		ticker := r.cfg.clock.Ticker(r.cfg.interval)
		defer ticker.Stop()
		tick = ticker.C()

		for {
			select {
			case <-r.shutdown:
				return
			case respCh := <-r.collectCh:
				err := r.collect()
				ticker.Reset(r.cfg.interval)
				respCh <- err
			case <-tick:
				if err := r.collect(); err != nil {
					r.cfg.logger.Error(err, "periodic collection failed")
				}
			}
		}
	}

	// No interval configured: manual collect only, no timer to rearm.
	for {
		select {
		case <-r.shutdown:
			return
		case respCh := <-r.collectCh:
			respCh <- r.collect()
		}
	}
}

// collect runs the four-step collection algorithm: invoke callbacks,
// sample the collection start time, checkpoint and collect every bound
// view-aggregation, then hand the result to the exporter.
func (r *PeriodicReader) collect() (err error) {
	if !r.registered.Load() {
		return nil
	}
	handle := r.handle.Load()

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("sdkmetric: collection panicked: %v", rec)
			r.cfg.logger.Error(err, "collection panicked")
		}
	}()

	ctx := context.Background()
	r.runCallbacks(ctx, handle)

	start := r.cfg.clock.Now()

	vas := handle.ViewAggregations()
	metrics := make([]Metric, 0, len(vas))
	for _, va := range vas {
		if IsDrop(va.Aggregation) {
			continue
		}
		va.Aggregation.Checkpoint(start)
		points := va.Aggregation.Collect(start)
		metrics = append(metrics, Metric{
			Scope:       va.Instrument.Scope,
			Name:        va.Name,
			Description: va.Description,
			Unit:        va.Unit,
			Temporality: va.Temporality,
			Data:        points,
		})
	}

	if r.cfg.exporter == nil || len(metrics) == 0 {
		return nil
	}

	exportCtx, cancel := context.WithTimeout(ctx, r.cfg.exportTimeout)
	defer cancel()
	result, exportErr := r.cfg.exporter.ExportMetrics(exportCtx, metrics, handle.Resource())
	if exportErr != nil || result == ExportFailedNotRetryable {
		r.cfg.logger.Error(exportErr, "metric export failed", "result", result)
	}
	return nil
}

// runCallbacks invokes every callback registered for an instrument this
// reader has a view-aggregation for, feeding its observations into that
// view-aggregation's Aggregate. Each reader runs the shared callback
// independently, so one reader's callback invocation never affects
// another reader's aggregation state.
func (r *PeriodicReader) runCallbacks(ctx context.Context, handle *RegistrationHandle) {
	vas := handle.ViewAggregations()
	byName := make(map[string][]*ViewAggregation, len(vas))
	for _, va := range vas {
		byName[va.Instrument.Name] = append(byName[va.Instrument.Name], va)
	}

	for name, targets := range byName {
		callbacks := handle.Callbacks()[name]
		for _, cb := range callbacks {
			for _, obs := range cb(ctx) {
				for _, va := range targets {
					va.Aggregation.Aggregate(obs.Attributes, obs.Value)
				}
			}
		}
	}
}

var _ Reader = (*PeriodicReader)(nil)
