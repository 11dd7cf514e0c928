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

package clock

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Mock is a Clock whose time only advances when Add is called. Tests use it
// to deterministically drive the BSP's and the periodic reader's timers
// without sleeping real wall-clock time.
type Mock struct {
	mock *clock.Mock
}

var _ Clock = Mock{}

// NewMock returns a new Mock set to the Unix epoch.
func NewMock() Mock {
	return Mock{clock.NewMock()}
}

func (m Mock) Now() time.Time { return m.mock.Now() }

func (m Mock) Ticker(d time.Duration) Ticker {
	return mockTicker{m.mock.Ticker(d)}
}

func (m Mock) Timer(d time.Duration) Timer {
	return mockTimer{m.mock.Timer(d)}
}

// Add moves the mock clock forward by d, firing any tickers/timers that
// elapsed and running their waiters synchronously before returning.
func (m Mock) Add(d time.Duration) {
	m.mock.Add(d)
}

type mockTicker struct{ t *clock.Ticker }

func (t mockTicker) Stop()                 { t.t.Stop() }
func (t mockTicker) Reset(d time.Duration) { t.t.Reset(d) }
func (t mockTicker) C() <-chan time.Time   { return t.t.C }

type mockTimer struct{ t *clock.Timer }

func (t mockTimer) Stop() bool                 { return t.t.Stop() }
func (t mockTimer) Reset(d time.Duration) bool { return t.t.Reset(d) }
func (t mockTimer) C() <-chan time.Time        { return t.t.C }
