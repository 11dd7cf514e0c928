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

// Package clock abstracts wall-clock time so the batch span processor and
// periodic metric reader can be driven by a virtual clock in tests. The
// interface matches github.com/benbjohnson/clock, which Mock wraps; that
// dependency is therefore compiled into this package, not only its tests.
package clock // import "github.com/otelcore/pipeline/internal/clock"

import "time"

// Clock keeps track of time for the pipeline core.
type Clock interface {
	Now() time.Time
	Ticker(d time.Duration) Ticker
	Timer(d time.Duration) Timer
}

// Ticker signals time intervals, matching time.Ticker's contract.
type Ticker interface {
	Stop()
	Reset(d time.Duration)
	C() <-chan time.Time
}

// Timer signals a single future time, matching time.Timer's contract.
type Timer interface {
	Stop() bool
	Reset(d time.Duration) bool
	C() <-chan time.Time
}

// Real wraps the time package and uses system time.
type Real struct{}

var _ Clock = Real{}

func (Real) Now() time.Time { return time.Now() }

func (Real) Ticker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

func (Real) Timer(d time.Duration) Timer {
	return realTimer{time.NewTimer(d)}
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) Stop()                  { r.t.Stop() }
func (r realTicker) Reset(d time.Duration)  { r.t.Reset(d) }
func (r realTicker) C() <-chan time.Time    { return r.t.C }

type realTimer struct{ t *time.Timer }

func (r realTimer) Stop() bool                 { return r.t.Stop() }
func (r realTimer) Reset(d time.Duration) bool { return r.t.Reset(d) }
func (r realTimer) C() <-chan time.Time        { return r.t.C }
