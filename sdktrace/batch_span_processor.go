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
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/otelcore/pipeline/internal/clock"
	"github.com/otelcore/pipeline/resource"
)

// maxInFlightRunners bounds concurrent export runners. The FSM never
// intentionally runs two at once, but a timeout abandons a runner rather
// than killing it, so a slow, already-abandoned runner can still be
// executing when its replacement starts. The weight of two covers exactly
// that overlap; a third concurrent attempt blocks until one finishes.
const maxInFlightRunners = 2

// ErrNoExportBuffer is returned by OnEnd when the processor's active
// buffer no longer exists, which only happens during a shutdown race.
var ErrNoExportBuffer = errors.New("sdktrace: no export buffer")

type fsmState int

const (
	stateIdle fsmState = iota
	stateExporting
)

type eventKind int

const (
	evExportTimer eventKind = iota
	evForceFlush
	evSetExporter
	evRunnerDone
	evShutdown
)

type fsmEvent struct {
	kind     eventKind
	runnerID uint64
	exporter SpanExporter
}

// BatchSpanProcessor buffers finished spans in one of two concurrent
// buffers, periodically (or on demand) handing a full buffer to a
// transient runner that exports it, while producers keep writing into the
// other buffer without blocking on export progress.
//
// A single control goroutine owns all state transitions; nothing else
// mutates processor state directly. Producer calls to OnEnd only ever
// touch the active-buffer pointer and the enabled flag, both atomics.
type BatchSpanProcessor struct {
	cfg config

	// active selects which of buffers[0]/buffers[1] producers write to.
	// Swapped by the control goroutine; read fresh on every OnEnd so
	// producers observing a swap land in the new buffer.
	active  atomic.Pointer[scopeBuffer]
	buffers [2]*scopeBuffer

	enabled atomic.Bool
	deleted atomic.Bool // true only during the shutdown race window

	events   chan fsmEvent
	shutdown chan struct{}
	stopped  chan struct{}

	runnerDone chan runnerResult
	runnerSeq  atomic.Uint64
	inFlight   *semaphore.Weighted
}

type runnerResult struct {
	runnerID uint64
	buf      *scopeBuffer
}

// NewBatchSpanProcessor constructs a BatchSpanProcessor and starts its
// control goroutine.
func NewBatchSpanProcessor(opts ...Option) *BatchSpanProcessor {
	cfg := newConfig(opts...)
	p := &BatchSpanProcessor{
		cfg:        cfg,
		buffers:    [2]*scopeBuffer{newScopeBuffer(), newScopeBuffer()},
		events:     make(chan fsmEvent, 8),
		shutdown:   make(chan struct{}),
		stopped:    make(chan struct{}),
		runnerDone: make(chan runnerResult, 1),
		inFlight:   semaphore.NewWeighted(maxInFlightRunners),
	}
	p.active.Store(p.buffers[0])
	p.enabled.Store(true)
	go p.run()
	return p
}

// OnStart is a pass-through; the BSP does not buffer at span start.
func (p *BatchSpanProcessor) OnStart(_ context.Context, s SpanSnapshot) SpanSnapshot {
	return s
}

// OnEnd appends s to the active buffer, or reports why it was dropped.
// Safe to call from arbitrary producer goroutines at high frequency; it
// never blocks on export progress.
func (p *BatchSpanProcessor) OnEnd(s SpanSnapshot) (EndResult, error) {
	if !s.Sampled {
		return Dropped, nil
	}
	if p.deleted.Load() {
		return EndResult(-1), ErrNoExportBuffer
	}
	if !p.enabled.Load() {
		return Dropped, nil
	}
	buf := p.active.Load()
	if buf == nil {
		return EndResult(-1), ErrNoExportBuffer
	}
	buf.append(s)
	return Accepted, nil
}

// ForceFlush requests an immediate export. It returns once the request is
// enqueued; it does not wait for the export to complete.
func (p *BatchSpanProcessor) ForceFlush(ctx context.Context) error {
	select {
	case p.events <- fsmEvent{kind: evForceFlush}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.stopped:
		return nil
	}
}

// SetExporter replaces the exporter at runtime. The previous exporter is
// shut down, ingest is re-enabled immediately, and the new exporter is
// initialised by the control goroutine so a concurrent export can never
// observe a half-swapped exporter.
func (p *BatchSpanProcessor) SetExporter(exporter SpanExporter) error {
	select {
	case p.events <- fsmEvent{kind: evSetExporter, exporter: exporter}:
		return nil
	case <-p.stopped:
		return nil
	}
}

// Shutdown cancels pending timers, performs one final blocking export of
// whatever remains in the active buffer, and stops the control goroutine.
// Idempotent.
func (p *BatchSpanProcessor) Shutdown(ctx context.Context) error {
	select {
	case <-p.stopped:
		return nil
	default:
	}
	select {
	case p.shutdown <- struct{}{}:
	case <-p.stopped:
		return nil
	}
	select {
	case <-p.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the BSP's single control task. It owns every state transition;
// the mailbox-style event queue with "postponed" re-delivery is this
// goroutine's rendering of the source FSM's postpone semantics.
func (p *BatchSpanProcessor) run() {
	defer close(p.stopped)

	checkTicker := p.cfg.clock.Ticker(p.cfg.checkInterval)
	defer checkTicker.Stop()
	exportTimer := p.cfg.clock.Timer(p.cfg.scheduledDelay)
	defer exportTimer.Stop()

	var timeoutTimer clock.Timer
	var postponed []fsmEvent
	state := stateIdle
	var runnerID uint64

	armTimeout := func() {
		if timeoutTimer != nil {
			timeoutTimer.Stop()
		}
		timeoutTimer = p.cfg.clock.Timer(p.cfg.exportTimeout)
	}
	disarmTimeout := func() {
		if timeoutTimer != nil {
			timeoutTimer.Stop()
			timeoutTimer = nil
		}
	}

	deliver := func(ev fsmEvent) {
		state = p.step(state, ev, &postponed, &runnerID, armTimeout, disarmTimeout)
	}

	for {
		var timeoutCh <-chan time.Time
		if timeoutTimer != nil {
			timeoutCh = timeoutTimer.C()
		}

		select {
		case <-p.shutdown:
			disarmTimeout()
			p.finalFlush()
			return

		case <-checkTicker.C():
			p.checkSize()

		case <-exportTimer.C():
			deliver(fsmEvent{kind: evExportTimer})
			exportTimer.Reset(p.cfg.scheduledDelay)

		case <-timeoutCh:
			p.cfg.logger.Info("export timed out, abandoning runner", "runner", runnerID)
			disarmTimeout()
			p.recreateHandoffBuffer()
			state = stateIdle

		case res := <-p.runnerDone:
			if res.runnerID == runnerID {
				deliver(fsmEvent{kind: evRunnerDone, runnerID: res.runnerID})
			}
			// A stale result (timed-out runner reporting late) is
			// simply dropped: its buffer was already recreated.

		case ev := <-p.events:
			deliver(ev)
		}

		// Serve one postponed event per loop iteration once we're back
		// in a state that can handle it; this matches the source's
		// "postpone" re-delivery on state re-entry without starving
		// the select loop.
		if state == stateIdle && len(postponed) > 0 {
			next := postponed[0]
			postponed = postponed[1:]
			deliver(next)
		}
	}
}

// step applies a single event to the FSM and returns the next state. It
// runs only on the control goroutine, so no synchronization is needed
// around the fields it touches directly (buffers, enabled, deleted).
func (p *BatchSpanProcessor) step(
	state fsmState,
	ev fsmEvent,
	postponed *[]fsmEvent,
	runnerID *uint64,
	armTimeout, disarmTimeout func(),
) fsmState {
	switch state {
	case stateIdle:
		switch ev.kind {
		case evExportTimer:
			if p.cfg.exporter == nil {
				// No exporter configured: nothing to export, drop
				// whatever accumulated and keep ingest alive.
				p.active.Load().drain()
				return stateIdle
			}
			return p.enterExporting(runnerID, armTimeout)

		case evForceFlush:
			return p.enterExporting(runnerID, armTimeout)

		case evSetExporter:
			p.applySetExporter(ev.exporter)
			return stateIdle

		case evRunnerDone:
			// Nothing to do; a stray completion from an earlier cycle.
			return stateIdle
		}

	case stateExporting:
		switch ev.kind {
		case evRunnerDone:
			if ev.runnerID == *runnerID {
				disarmTimeout()
				p.recreateHandoffBuffer()
				return stateIdle
			}
			return stateExporting

		case evForceFlush, evExportTimer:
			// Deferred until the FSM re-enters a state that can serve
			// them (idle), per the source's postpone semantics. Multiple
			// evExportTimer fires during one long export all postpone
			// the same "export whatever's buffered" intent, so collapse
			// them into a single postponed entry instead of letting the
			// queue grow unbounded.
			if ev.kind == evExportTimer {
				for _, pending := range *postponed {
					if pending.kind == evExportTimer {
						return stateExporting
					}
				}
			}
			*postponed = append(*postponed, ev)
			return stateExporting

		case evSetExporter:
			// set_exporter only ever runs on this same control goroutine,
			// so this write to p.cfg.exporter can't race another step.
			// The in-flight runner is unaffected: enterExporting already
			// captured its own exporter handle by value before spawning
			// it, so this reassignment only changes what the *next*
			// export will use.
			p.applySetExporter(ev.exporter)
			return stateExporting
		}
	}
	return state
}

// enterExporting performs the buffer swap and spawns the runner. If the
// active buffer is empty there is nothing to export and the FSM returns
// to idle immediately without spawning anything.
//
// The exporter handle is captured here, on the control goroutine, and
// passed into runExport by value. p.cfg.exporter can change underneath a
// running export (applySetExporter mutates it from this same goroutine
// while stateExporting), so the runner must never read p.cfg.exporter
// itself — doing so would race the control goroutine's write.
func (p *BatchSpanProcessor) enterExporting(runnerID *uint64, armTimeout func()) fsmState {
	old := p.active.Load()
	if old.len() == 0 {
		return stateIdle
	}

	next := p.otherBuffer(old)
	// Publish the new active pointer before re-enabling ingest: any
	// producer observing enabled=true after this point must see the
	// new pointer, never the one about to be handed to the runner.
	p.active.Store(next)
	p.enabled.Store(true)

	id := p.runnerSeq.Add(1)
	*runnerID = id
	armTimeout()

	exporter := p.cfg.exporter
	res := p.cfg.resource
	go p.runExport(id, old, exporter, res)
	return stateExporting
}

// otherBuffer returns whichever of the two fixed buffers is not cur.
func (p *BatchSpanProcessor) otherBuffer(cur *scopeBuffer) *scopeBuffer {
	if cur == p.buffers[0] {
		return p.buffers[1]
	}
	return p.buffers[0]
}

// runExport is the transient runner: it owns buf exclusively until it
// reports completion, synchronously invokes the exporter, and exits.
// Exporter panics are recovered and logged as failures so the FSM always
// advances. exporter and res are captured by enterExporting on the
// control goroutine and passed in by value so this goroutine never reads
// p.cfg directly while the control goroutine may be mutating it.
func (p *BatchSpanProcessor) runExport(id uint64, buf *scopeBuffer, exporter SpanExporter, res *resource.Resource) {
	if err := p.inFlight.Acquire(context.Background(), 1); err != nil {
		p.cfg.logger.Error(err, "failed to acquire export slot", "runner", id)
		select {
		case p.runnerDone <- runnerResult{runnerID: id, buf: buf}:
		default:
		}
		return
	}
	defer p.inFlight.Release(1)

	defer func() {
		if r := recover(); r != nil {
			p.cfg.logger.Error(fmt.Errorf("%v", r), "exporter panicked", "runner", id)
		}
		// Buffered capacity 1 so a result arriving after the FSM gave
		// up on this runner (timeout) never blocks goroutine exit.
		select {
		case p.runnerDone <- runnerResult{runnerID: id, buf: buf}:
		default:
		}
	}()

	spans := flatten(buf.drain())
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.exportTimeout)
	defer cancel()

	result, err := exporter.ExportSpans(ctx, spans, res)
	if err != nil || result == ExportFailedNotRetryable {
		p.cfg.logger.Error(err, "span export failed", "runner", id, "result", result)
	}
	// A retryable failure is still treated as FSM-progress success per
	// the spec: the spans are discarded either way, retrying them is an
	// exporter-internal concern.
}

// checkSize applies the periodic, not per-insert, backpressure check: it
// keeps the hot OnEnd path allocation-free.
func (p *BatchSpanProcessor) checkSize() {
	buf := p.active.Load()
	if buf == nil {
		return
	}
	if buf.len() >= p.cfg.maxQueueSize {
		p.enabled.Store(false)
	} else {
		p.enabled.Store(true)
	}
}

// recreateHandoffBuffer replaces whichever fixed buffer slot is not
// currently active with a fresh empty one, so the runner's former buffer
// is ready for reuse next swap without residual entries.
func (p *BatchSpanProcessor) recreateHandoffBuffer() {
	active := p.active.Load()
	if active == p.buffers[0] {
		p.buffers[1] = newScopeBuffer()
	} else {
		p.buffers[0] = newScopeBuffer()
	}
}

func (p *BatchSpanProcessor) applySetExporter(exporter SpanExporter) {
	prev := p.cfg.exporter
	p.cfg.exporter = nil
	p.enabled.Store(true)
	if prev != nil {
		ctx, cancel := context.WithTimeout(context.Background(), p.cfg.exportTimeout)
		if err := prev.Shutdown(ctx); err != nil {
			p.cfg.logger.Error(err, "exporter shutdown failed")
		}
		cancel()
	}
	p.cfg.exporter = exporter
}

// finalFlush first marks the processor deleted, so any OnEnd racing with
// this shutdown observes ErrNoExportBuffer rather than silently dropping
// or panicking, then performs the terminal blocking export described by
// the spec's "on termination" rule and shuts the exporter down.
func (p *BatchSpanProcessor) finalFlush() {
	p.enabled.Store(false)
	buf := p.active.Load()
	p.deleted.Store(true)
	p.active.Store(nil)

	if p.cfg.exporter == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.exportTimeout)
	defer cancel()
	if buf != nil && buf.len() > 0 {
		spans := flatten(buf.drain())
		if _, err := p.cfg.exporter.ExportSpans(ctx, spans, p.cfg.resource); err != nil {
			p.cfg.logger.Error(err, "final span export failed")
		}
	}
	if err := p.cfg.exporter.Shutdown(ctx); err != nil {
		p.cfg.logger.Error(err, "exporter shutdown failed")
	}
}

var _ SpanProcessor = (*BatchSpanProcessor)(nil)
